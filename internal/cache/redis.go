package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mkraev/airsched/config"
	"github.com/mkraev/airsched/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache is a read-through cache for resolved flight contexts and
// flight lists. Write paths in the schedule service invalidate it.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(cfg config.RedisConfig, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		ttl:    ttl,
	}
}

func (c *RedisCache) GetFlightContext(ctx context.Context, flightID int64) (*domain.FlightContext, error) {
	data, err := c.client.Get(ctx, flightContextKey(flightID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var fc domain.FlightContext
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, err
	}
	return &fc, nil
}

func (c *RedisCache) SetFlightContext(ctx context.Context, fc *domain.FlightContext) error {
	payload, err := json.Marshal(fc)
	if err != nil {
		return err
	}
	key := flightContextKey(fc.Flight.ID)
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, payload, c.ttl)
	pipe.SAdd(ctx, flightContextSetKey(), key)
	_, err = pipe.Exec(ctx)
	return err
}

func (c *RedisCache) InvalidateFlightContext(ctx context.Context, flightID int64) error {
	key := flightContextKey(flightID)
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, flightContextSetKey(), key)
	_, err := pipe.Exec(ctx)
	return err
}

// InvalidateAllFlightContexts drops every cached context. Used when an
// airport, itinerary or airplane changes, since any context may embed it.
func (c *RedisCache) InvalidateAllFlightContexts(ctx context.Context) error {
	keys, err := c.client.SMembers(ctx, flightContextSetKey()).Result()
	if err != nil {
		return err
	}
	keys = append(keys, flightContextSetKey())
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	data, err := c.client.Get(ctx, flightsKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var flights []domain.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, err
	}
	return flights, nil
}

func (c *RedisCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	payload, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, flightsKey(), payload, c.ttl).Err()
}

func (c *RedisCache) InvalidateFlights(ctx context.Context) error {
	return c.client.Del(ctx, flightsKey()).Err()
}

func flightsKey() string {
	return "cache:flights"
}

func flightContextKey(flightID int64) string {
	return fmt.Sprintf("cache:flightctx:%d", flightID)
}

func flightContextSetKey() string {
	return "cache:flightctx:keys"
}
