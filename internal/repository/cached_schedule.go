package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/metinatakli/screening-booking/internal/domain"
	"github.com/redis/go-redis/v9"
)

// CachedScheduleRepository serves schedules from Redis and falls back to the wrapped
// repository on a miss. Schedules are read only for this service, so entries simply expire.
// Cache failures are logged and never fail the lookup.
type CachedScheduleRepository struct {
	next   domain.ScheduleRepository
	redis  redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedScheduleRepository(
	next domain.ScheduleRepository,
	client redis.UniversalClient,
	ttl time.Duration,
	logger *slog.Logger) *CachedScheduleRepository {

	return &CachedScheduleRepository{
		next:   next,
		redis:  client,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CachedScheduleRepository) GetById(ctx context.Context, id int) (*domain.Schedule, error) {
	var schedule domain.Schedule

	if c.get(ctx, scheduleKey(id), &schedule) {
		return &schedule, nil
	}

	fresh, err := c.next.GetById(ctx, id)
	if err != nil {
		return nil, err
	}

	c.set(ctx, scheduleKey(id), fresh)

	return fresh, nil
}

func (c *CachedScheduleRepository) GetByFilmId(ctx context.Context, filmID int) ([]domain.Schedule, error) {
	var schedules []domain.Schedule

	if c.get(ctx, filmSchedulesKey(filmID), &schedules) {
		return schedules, nil
	}

	fresh, err := c.next.GetByFilmId(ctx, filmID)
	if err != nil {
		return nil, err
	}

	c.set(ctx, filmSchedulesKey(filmID), fresh)

	return fresh, nil
}

func (c *CachedScheduleRepository) get(ctx context.Context, key string, dst any) bool {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("failed to read from schedule cache", "key", key, "error", err)
		}

		return false
	}

	err = json.Unmarshal(data, dst)
	if err != nil {
		c.logger.Warn("failed to decode cached schedule", "key", key, "error", err)
		return false
	}

	return true
}

func (c *CachedScheduleRepository) set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("failed to encode schedule for cache", "key", key, "error", err)
		return
	}

	err = c.redis.Set(ctx, key, data, c.ttl).Err()
	if err != nil {
		c.logger.Warn("failed to write to schedule cache", "key", key, "error", err)
	}
}

func scheduleKey(id int) string {
	return fmt.Sprintf("schedule:%d", id)
}

func filmSchedulesKey(filmID int) string {
	return fmt.Sprintf("film_schedules:%d", filmID)
}
