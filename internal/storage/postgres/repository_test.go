//go:build integration

package postgres

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"roadwatch/internal/config"
	"roadwatch/internal/domain"
	"roadwatch/pkg/e"
)

var (
	testPool *pgxpool.Pool
	tc       testcontainers.Container
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	user := "postgres"
	pass := "postgres"
	db := "postgres"

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     user,
			"POSTGRES_PASSWORD": pass,
			"POSTGRES_DB":       db,
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections"),
		).WithDeadline(90 * time.Second),
	}

	var err error
	tc, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Println("cannot start container:", err)
		os.Exit(1)
	}

	host, _ := tc.Host(ctx)
	mappedPort, _ := tc.MappedPort(ctx, "5432/tcp")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, pass, host, mappedPort.Port(), db)

	testPool, err = pgxpool.New(ctx, dsn)
	if err != nil {
		fmt.Println("pgxpool.New:", err)
		_ = tc.Terminate(ctx)
		os.Exit(1)
	}

	if err := testPool.Ping(ctx); err != nil {
		fmt.Println("pool.Ping:", err)
		testPool.Close()
		_ = tc.Terminate(ctx)
		os.Exit(1)
	}

	if err := setupSchema(ctx, testPool); err != nil {
		fmt.Println("setupSchema:", err)
		testPool.Close()
		_ = tc.Terminate(ctx)
		os.Exit(1)
	}

	code := m.Run()

	testPool.Close()
	_ = tc.Terminate(ctx)
	os.Exit(code)
}

func setupSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const schema = `
CREATE TABLE IF NOT EXISTS incidents (
	id uuid PRIMARY KEY,
	type text NOT NULL,
	description text NOT NULL DEFAULT '',
	lat double precision NOT NULL,
	lng double precision NOT NULL,
	address text NOT NULL DEFAULT '',
	severity int NOT NULL CHECK (severity BETWEEN 1 AND 5),
	status text NOT NULL DEFAULT 'pending',
	confirmations_count int NOT NULL DEFAULT 0 CHECK (confirmations_count >= 0),
	media_ref text NOT NULL DEFAULT '',
	reported_by text NOT NULL,
	created_at timestamptz NOT NULL,
	expires_at timestamptz NOT NULL,
	CHECK (expires_at > created_at)
);
CREATE INDEX IF NOT EXISTS idx_incidents_dedup ON incidents (type, status, created_at);
CREATE INDEX IF NOT EXISTS idx_incidents_box ON incidents (lat, lng);

CREATE TABLE IF NOT EXISTS confirmations (
	incident_id uuid NOT NULL REFERENCES incidents(id),
	reporter_id text NOT NULL,
	vote text NOT NULL CHECK (vote IN ('confirm', 'deny')),
	created_at timestamptz NOT NULL,
	PRIMARY KEY (incident_id, reporter_id)
);

CREATE TABLE IF NOT EXISTS reporters (
	id text PRIMARY KEY,
	trust_score int NOT NULL DEFAULT 50 CHECK (trust_score BETWEEN 0 AND 100),
	reports_count int NOT NULL DEFAULT 0,
	accurate_count int NOT NULL DEFAULT 0,
	language text NOT NULL DEFAULT 'en',
	tier text NOT NULL DEFAULT 'free',
	created_at timestamptz NOT NULL
);
`
	_, err := pool.Exec(ctx, schema)
	return err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
}

func testEngine() config.EngineConfig {
	return config.EngineConfig{
		MergeRadiusKM:   0.05,
		MergeWindow:     10 * time.Minute,
		DefaultTTL:      60 * time.Minute,
		VerifyThreshold: 2,
		FalseThreshold:  3,
	}
}

func cleanTables(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	if _, err := testPool.Exec(ctx, `TRUNCATE confirmations, incidents, reporters`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

func candidate(reporter string, typ domain.IncidentType, lat, lng float64) *domain.Incident {
	return &domain.Incident{
		Type:        typ,
		Description: "test incident",
		Lat:         lat,
		Lng:         lng,
		Severity:    3,
		ReportedBy:  reporter,
	}
}

func TestCreateOrMerge_CreatesNewIncident(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	repo := NewIncidentRepo(testPool, testEngine(), testLogger())

	inc, merged, err := repo.CreateOrMerge(ctx, candidate("rep-a", domain.TypeFlooding, 3.8480, 11.5021))
	if err != nil {
		t.Fatalf("CreateOrMerge: %v", err)
	}
	if merged {
		t.Fatal("first report must not merge")
	}
	if inc.Status != domain.IncidentPending {
		t.Fatalf("status = %q, want pending", inc.Status)
	}
	if inc.Confirmations != 1 {
		t.Fatalf("confirmations = %d, want 1 (filer counts)", inc.Confirmations)
	}
	if !inc.ExpiresAt.After(inc.CreatedAt) {
		t.Fatal("expires_at must be after created_at")
	}

	got, err := repo.Get(ctx, inc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Type != domain.TypeFlooding || got.Lat != 3.8480 || got.Lng != 11.5021 || got.Severity != 3 {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestCreateOrMerge_DedupVerifiesIncident(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	repo := NewIncidentRepo(testPool, testEngine(), testLogger())

	first, _, err := repo.CreateOrMerge(ctx, candidate("rep-a", domain.TypeFlooding, 3.8480, 11.5021))
	if err != nil {
		t.Fatalf("first: %v", err)
	}

	// second observer, ~15m away, inside the window
	second, merged, err := repo.CreateOrMerge(ctx, candidate("rep-b", domain.TypeFlooding, 3.8481, 11.5022))
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if !merged {
		t.Fatal("second report must merge")
	}
	if second.ID != first.ID {
		t.Fatalf("merged into %s, want %s", second.ID, first.ID)
	}
	if second.Confirmations != 2 {
		t.Fatalf("confirmations = %d, want 2", second.Confirmations)
	}
	if second.Status != domain.IncidentVerified {
		t.Fatalf("status = %q, want verified", second.Status)
	}

	var total int64
	if err := testPool.QueryRow(ctx, `SELECT COUNT(*) FROM incidents`).Scan(&total); err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 1 {
		t.Fatalf("incident rows = %d, want exactly 1", total)
	}
}

func TestCreateOrMerge_DifferentTypeDoesNotMerge(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	repo := NewIncidentRepo(testPool, testEngine(), testLogger())

	if _, _, err := repo.CreateOrMerge(ctx, candidate("rep-a", domain.TypeFlooding, 3.8480, 11.5021)); err != nil {
		t.Fatalf("first: %v", err)
	}
	_, merged, err := repo.CreateOrMerge(ctx, candidate("rep-b", domain.TypeAccident, 3.8480, 11.5021))
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if merged {
		t.Fatal("different type must not merge")
	}
}

func TestCreateOrMerge_OutsideRadiusDoesNotMerge(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	repo := NewIncidentRepo(testPool, testEngine(), testLogger())

	if _, _, err := repo.CreateOrMerge(ctx, candidate("rep-a", domain.TypeAccident, 3.8480, 11.5021)); err != nil {
		t.Fatalf("first: %v", err)
	}
	// ~1.1 km north
	_, merged, err := repo.CreateOrMerge(ctx, candidate("rep-b", domain.TypeAccident, 3.8580, 11.5021))
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if merged {
		t.Fatal("report outside merge radius must not merge")
	}
}

func TestCreateOrMerge_SameReporterDoesNotDoubleVote(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	repo := NewIncidentRepo(testPool, testEngine(), testLogger())

	first, _, err := repo.CreateOrMerge(ctx, candidate("rep-a", domain.TypeHazard, 3.8480, 11.5021))
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	again, merged, err := repo.CreateOrMerge(ctx, candidate("rep-a", domain.TypeHazard, 3.8480, 11.5021))
	if err != nil {
		t.Fatalf("repeat: %v", err)
	}
	if !merged {
		t.Fatal("repeat report must merge")
	}
	if again.Confirmations != first.Confirmations {
		t.Fatalf("confirmations = %d, want unchanged %d", again.Confirmations, first.Confirmations)
	}
	if again.Status != domain.IncidentPending {
		t.Fatalf("status = %q, one reporter alone must not verify", again.Status)
	}
}

func TestConfirmations_UniquePerReporter(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	incRepo := NewIncidentRepo(testPool, testEngine(), testLogger())
	confRepo := NewConfirmationRepo(testPool, testLogger())

	inc, _, err := incRepo.CreateOrMerge(ctx, candidate("rep-a", domain.TypeAccident, 3.8480, 11.5021))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	c := &domain.Confirmation{IncidentID: inc.ID, ReporterID: "rep-b", Vote: domain.VoteConfirm}
	if err := confRepo.Add(ctx, c); err != nil {
		t.Fatalf("first vote: %v", err)
	}

	retry := &domain.Confirmation{IncidentID: inc.ID, ReporterID: "rep-b", Vote: domain.VoteDeny}
	err = confRepo.Add(ctx, retry)
	if !errors.Is(err, e.ErrUniqueViolation) {
		t.Fatalf("err = %v, want ErrUniqueViolation", err)
	}

	n, err := confRepo.CountVotes(ctx, inc.ID, domain.VoteConfirm)
	if err != nil {
		t.Fatalf("CountVotes: %v", err)
	}
	if n != 2 { // filer + rep-b
		t.Fatalf("confirm votes = %d, want 2", n)
	}
}

func TestExpireStale_Idempotent(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	repo := NewIncidentRepo(testPool, testEngine(), testLogger())

	inc, _, err := repo.CreateOrMerge(ctx, candidate("rep-a", domain.TypeTrafficJam, 3.8480, 11.5021))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// push expiry into the past
	if _, err := testPool.Exec(ctx,
		`UPDATE incidents SET expires_at = NOW() - INTERVAL '1 minute' WHERE id = $1`, inc.ID); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	n, err := repo.ExpireStale(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expired = %d, want 1", n)
	}

	got, err := repo.Get(ctx, inc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.IncidentExpired {
		t.Fatalf("status = %q, want expired", got.Status)
	}

	n, err = repo.ExpireStale(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if n != 0 {
		t.Fatalf("second sweep expired = %d, want 0", n)
	}
}

func TestReporters_TrustClamped(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	repo := NewReporterRepo(testPool, testLogger())

	rep, err := repo.Ensure(ctx, "rep-a")
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if rep.TrustScore != 50 {
		t.Fatalf("initial trust = %d, want 50", rep.TrustScore)
	}

	// Ensure is idempotent
	if _, err := repo.Ensure(ctx, "rep-a"); err != nil {
		t.Fatalf("second Ensure: %v", err)
	}

	if err := repo.AdjustTrust(ctx, "rep-a", 1000); err != nil {
		t.Fatalf("AdjustTrust up: %v", err)
	}
	rep, _ = repo.Ensure(ctx, "rep-a")
	if rep.TrustScore != 100 {
		t.Fatalf("trust = %d, want clamped to 100", rep.TrustScore)
	}

	if err := repo.AdjustTrust(ctx, "rep-a", -1000); err != nil {
		t.Fatalf("AdjustTrust down: %v", err)
	}
	rep, _ = repo.Ensure(ctx, "rep-a")
	if rep.TrustScore != 0 {
		t.Fatalf("trust = %d, want clamped to 0", rep.TrustScore)
	}
}

func TestIncrementConfirmations_NotFound(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	repo := NewIncidentRepo(testPool, testEngine(), testLogger())

	_, _, _, err := repo.IncrementConfirmations(ctx, uuid.New())
	if !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
