package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"roadwatch/internal/domain"

	goredis "github.com/redis/go-redis/v9"
)

// IncidentCache holds the active-incident set serving ambient nearby
// queries without a store round trip. A miss returns nil, nil and the
// caller falls through to Postgres.
type IncidentCache struct {
	client *goredis.Client
	key    string
}

func NewIncidentCache(client *goredis.Client, key string) *IncidentCache {
	return &IncidentCache{client: client, key: key}
}

func (c *IncidentCache) GetActive(ctx context.Context) ([]*domain.Incident, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var incidents []*domain.Incident
	if err := json.Unmarshal(data, &incidents); err != nil {
		return nil, err
	}

	return incidents, nil
}

func (c *IncidentCache) SetActive(ctx context.Context, incidents []*domain.Incident, ttl time.Duration) error {
	b, err := json.Marshal(incidents)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key, b, ttl).Err()
}

// Invalidate drops the cached set after a write that changes it.
func (c *IncidentCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}
