package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"roadwatch/internal/config"
	"roadwatch/internal/domain"
	"roadwatch/pkg/e"
	"roadwatch/pkg/geo"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const incidentColumns = `id, type, description, lat, lng, address, severity, status,
	   confirmations_count, media_ref, reported_by, created_at, expires_at`

type IncidentRepo struct {
	pool   *pgxpool.Pool
	engine config.EngineConfig
	logger *slog.Logger
}

func NewIncidentRepo(pool *pgxpool.Pool, engine config.EngineConfig, logger *slog.Logger) *IncidentRepo {
	return &IncidentRepo{pool: pool, engine: engine, logger: logger}
}

// CreateOrMerge runs the dedup check and the insert inside one
// transaction, serialized by an advisory lock on the candidate merge
// key so two concurrent reports for the same spot cannot both miss
// each other and create duplicates.
func (r *IncidentRepo) CreateOrMerge(ctx context.Context, candidate *domain.Incident) (*domain.Incident, bool, error) {
	const op = "postgres.Incident.CreateOrMerge"

	if !geo.ValidCoordinates(candidate.Lat, candidate.Lng) {
		return nil, false, fmt.Errorf("%s: %w", op, e.ErrInvalidCoordinates)
	}
	if !domain.ValidIncidentType(candidate.Type) {
		return nil, false, fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, false, e.WrapError(ctx, op, err)
	}
	defer tx.Rollback(ctx)

	// merge key: type + location rounded to ~100m
	mergeKey := fmt.Sprintf("%s:%.3f:%.3f", candidate.Type, candidate.Lat, candidate.Lng)
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, mergeKey); err != nil {
		return nil, false, e.WrapError(ctx, op, err)
	}

	match, err := r.findMergeTarget(ctx, tx, candidate)
	if err != nil {
		return nil, false, err
	}

	if match != nil {
		merged, err := r.mergeInto(ctx, tx, match, candidate.ReportedBy)
		if err != nil {
			return nil, false, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, false, e.WrapError(ctx, op, err)
		}
		return merged, true, nil
	}

	created, err := r.insertNew(ctx, tx, candidate)
	if err != nil {
		return nil, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, e.WrapError(ctx, op, err)
	}
	return created, false, nil
}

// findMergeTarget applies the bounding-box prefilter in SQL and the
// exact Haversine check in Go. Candidates come back newest first, so
// the first confirmed hit is the tie-break winner.
func (r *IncidentRepo) findMergeTarget(ctx context.Context, tx pgx.Tx, candidate *domain.Incident) (*domain.Incident, error) {
	const op = "postgres.Incident.findMergeTarget"

	box := geo.BoxAround(candidate.Lat, candidate.Lng, r.engine.MergeRadiusKM)
	since := time.Now().UTC().Add(-r.engine.MergeWindow)

	query := `
		SELECT ` + incidentColumns + `
		FROM incidents
		WHERE type = $1
		  AND status IN ('pending', 'verified')
		  AND created_at >= $2
		  AND lat BETWEEN $3 AND $4
		  AND lng BETWEEN $5 AND $6
		ORDER BY created_at DESC
	`

	rows, err := tx.Query(ctx, query, candidate.Type, since, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng)
	if err != nil {
		r.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			r.logger.Error("row scan failed", slog.String("op", op), slog.Any("error", err))
			return nil, e.WrapError(ctx, op, err)
		}
		if geo.HaversineKM(candidate.Lat, candidate.Lng, inc.Lat, inc.Lng) <= r.engine.MergeRadiusKM {
			return inc, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	return nil, nil
}

// mergeInto treats the duplicate report as an implicit confirmation:
// one vote for the merging reporter, counter bump, expiry extension,
// and promotion once the threshold is reached.
func (r *IncidentRepo) mergeInto(ctx context.Context, tx pgx.Tx, target *domain.Incident, reporterID string) (*domain.Incident, error) {
	const op = "postgres.Incident.mergeInto"

	tag, err := tx.Exec(ctx, `
		INSERT INTO confirmations (incident_id, reporter_id, vote, created_at)
		VALUES ($1, $2, 'confirm', $3)
		ON CONFLICT (incident_id, reporter_id) DO NOTHING
	`, target.ID, reporterID, time.Now().UTC())
	if err != nil {
		return nil, e.WrapError(ctx, op, err)
	}

	newExpiry := time.Now().UTC().Add(r.engine.DefaultTTL)

	if tag.RowsAffected() == 0 {
		// same reporter re-reporting: keep the incident alive, no vote
		row := tx.QueryRow(ctx, `
			UPDATE incidents
			SET expires_at = GREATEST(expires_at, $2)
			WHERE id = $1
			RETURNING `+incidentColumns, target.ID, newExpiry)
		return scanIncident(row)
	}

	row := tx.QueryRow(ctx, `
		UPDATE incidents
		SET confirmations_count = confirmations_count + 1,
			expires_at = GREATEST(expires_at, $2),
			status = CASE
				WHEN status = 'pending' AND confirmations_count + 1 >= $3 THEN 'verified'
				ELSE status
			END
		WHERE id = $1
		RETURNING `+incidentColumns, target.ID, newExpiry, r.engine.VerifyThreshold)

	merged, err := scanIncident(row)
	if err != nil {
		r.logger.Error("merge update failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	return merged, nil
}

func (r *IncidentRepo) insertNew(ctx context.Context, tx pgx.Tx, inc *domain.Incident) (*domain.Incident, error) {
	const op = "postgres.Incident.insertNew"

	if inc.ID == uuid.Nil {
		inc.ID = uuid.New()
	}
	if inc.CreatedAt.IsZero() {
		inc.CreatedAt = time.Now().UTC()
	}
	if inc.ExpiresAt.IsZero() {
		inc.ExpiresAt = inc.CreatedAt.Add(r.engine.DefaultTTL)
	}
	if inc.Status == "" {
		inc.Status = domain.IncidentPending
	}
	if inc.Severity < 1 || inc.Severity > 5 {
		inc.Severity = 3
	}
	// the filer's own report counts as the first confirmation
	inc.Confirmations = 1

	_, err := tx.Exec(ctx, `
		INSERT INTO incidents (`+incidentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		inc.ID, inc.Type, inc.Description, inc.Lat, inc.Lng, inc.Address,
		inc.Severity, inc.Status, inc.Confirmations, inc.MediaRef,
		inc.ReportedBy, inc.CreatedAt, inc.ExpiresAt,
	)
	if err != nil {
		r.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO confirmations (incident_id, reporter_id, vote, created_at)
		VALUES ($1, $2, 'confirm', $3)
		ON CONFLICT (incident_id, reporter_id) DO NOTHING
	`, inc.ID, inc.ReportedBy, inc.CreatedAt)
	if err != nil {
		return nil, e.WrapError(ctx, op, err)
	}

	return inc, nil
}

func (r *IncidentRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Incident, error) {
	const op = "postgres.Incident.Get"

	row := r.pool.QueryRow(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE id = $1`, id)
	inc, err := scanIncident(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		r.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err), slog.String("id", id.String()))
		return nil, e.WrapError(ctx, op, err)
	}
	return inc, nil
}

func (r *IncidentRepo) List(ctx context.Context, page, limit int) ([]*domain.Incident, int64, error) {
	const op = "postgres.Incident.List"

	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM incidents`).Scan(&total); err != nil {
		r.logger.Error("db count failed", slog.String("op", op), slog.Any("error", err))
		return nil, 0, e.WrapError(ctx, op, err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+incidentColumns+`
		FROM incidents
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		r.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, 0, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	incidents, err := collectIncidents(rows)
	if err != nil {
		r.logger.Error("row scan failed", slog.String("op", op), slog.Any("error", err))
		return nil, 0, e.WrapError(ctx, op, err)
	}
	return incidents, total, nil
}

func (r *IncidentRepo) ListActive(ctx context.Context, maxAge time.Duration) ([]*domain.Incident, error) {
	const op = "postgres.Incident.ListActive"

	since := time.Now().UTC().Add(-maxAge)
	rows, err := r.pool.Query(ctx, `
		SELECT `+incidentColumns+`
		FROM incidents
		WHERE status IN ('pending', 'verified')
		  AND created_at >= $1
		ORDER BY created_at DESC
	`, since)
	if err != nil {
		r.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	incidents, err := collectIncidents(rows)
	if err != nil {
		r.logger.Error("row scan failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	return incidents, nil
}

func (r *IncidentRepo) FindNearby(ctx context.Context, lat, lng, radiusKm float64) ([]*domain.Incident, error) {
	const op = "postgres.Incident.FindNearby"

	if !geo.ValidCoordinates(lat, lng) || radiusKm <= 0 {
		return nil, fmt.Errorf("%s: %w", op, e.ErrInvalidCoordinates)
	}

	box := geo.BoxAround(lat, lng, radiusKm)
	rows, err := r.pool.Query(ctx, `
		SELECT `+incidentColumns+`
		FROM incidents
		WHERE status IN ('pending', 'verified')
		  AND lat BETWEEN $1 AND $2
		  AND lng BETWEEN $3 AND $4
		ORDER BY created_at DESC
	`, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng)
	if err != nil {
		r.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	candidates, err := collectIncidents(rows)
	if err != nil {
		r.logger.Error("row scan failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}

	nearby := make([]*domain.Incident, 0, len(candidates))
	for _, inc := range candidates {
		if geo.HaversineKM(lat, lng, inc.Lat, inc.Lng) <= radiusKm {
			nearby = append(nearby, inc)
		}
	}
	return nearby, nil
}

func (r *IncidentRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.IncidentStatus) (bool, error) {
	const op = "postgres.Incident.TransitionStatus"

	tag, err := r.pool.Exec(ctx, `
		UPDATE incidents SET status = $3 WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		r.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err), slog.String("id", id.String()))
		return false, e.WrapError(ctx, op, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *IncidentRepo) IncrementConfirmations(ctx context.Context, id uuid.UUID) (int, domain.IncidentStatus, string, error) {
	const op = "postgres.Incident.IncrementConfirmations"

	var (
		count      int
		status     domain.IncidentStatus
		reportedBy string
	)
	err := r.pool.QueryRow(ctx, `
		UPDATE incidents
		SET confirmations_count = confirmations_count + 1
		WHERE id = $1
		RETURNING confirmations_count, status, reported_by
	`, id).Scan(&count, &status, &reportedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, "", "", fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		r.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err))
		return 0, "", "", e.WrapError(ctx, op, err)
	}
	return count, status, reportedBy, nil
}

// ExpireStale is the bulk sweep: one set-based update, idempotent, no
// per-incident locking.
func (r *IncidentRepo) ExpireStale(ctx context.Context) (int64, error) {
	const op = "postgres.Incident.ExpireStale"

	tag, err := r.pool.Exec(ctx, `
		UPDATE incidents
		SET status = 'expired'
		WHERE status IN ('pending', 'verified')
		  AND expires_at < NOW()
	`)
	if err != nil {
		r.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return 0, e.WrapError(ctx, op, err)
	}
	return tag.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(row rowScanner) (*domain.Incident, error) {
	var inc domain.Incident
	err := row.Scan(
		&inc.ID,
		&inc.Type,
		&inc.Description,
		&inc.Lat,
		&inc.Lng,
		&inc.Address,
		&inc.Severity,
		&inc.Status,
		&inc.Confirmations,
		&inc.MediaRef,
		&inc.ReportedBy,
		&inc.CreatedAt,
		&inc.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return &inc, nil
}

func collectIncidents(rows pgx.Rows) ([]*domain.Incident, error) {
	var incidents []*domain.Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return incidents, nil
}
