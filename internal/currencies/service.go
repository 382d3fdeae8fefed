package currencies

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/posfront/pkg/errors"
	"github.com/angelmondragon/posfront/pkg/logger"
	"github.com/angelmondragon/posfront/pkg/money"
	"github.com/redis/go-redis/v9"
)

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CurrencyKey(parts ...string) string
}

// Service serves currency reference data through a read-through cache.
type Service interface {
	List(ctx context.Context) ([]money.Currency, error)
	Get(ctx context.Context, id string) (*money.Currency, error)
	// Resolve never fails: a missing id or a failed lookup yields USD.
	Resolve(ctx context.Context, id *string) money.Currency
}

type service struct {
	client Client
	cache  cacheStore
	ttl    time.Duration
	logg   *logger.Logger
}

// NewService builds the currency service. cache may be nil to disable caching.
func NewService(client Client, cache cacheStore, ttl time.Duration, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("currency client required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{client: client, cache: cache, ttl: ttl, logg: logg}, nil
}

func (s *service) List(ctx context.Context) ([]money.Currency, error) {
	var cached []money.Currency
	if s.readCache(ctx, s.key("all"), &cached) {
		return cached, nil
	}
	items, err := s.client.List(ctx)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, s.key("all"), items)
	return items, nil
}

func (s *service) Get(ctx context.Context, id string) (*money.Currency, error) {
	id = strings.TrimSpace(id)
	var cached money.Currency
	if id != "" && s.readCache(ctx, s.key("id", id), &cached) {
		return &cached, nil
	}
	currency, err := s.client.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, s.key("id", id), currency)
	return currency, nil
}

func (s *service) Resolve(ctx context.Context, id *string) money.Currency {
	if id == nil || strings.TrimSpace(*id) == "" {
		return money.USD()
	}
	currency, err := s.Get(ctx, *id)
	if err != nil {
		logCtx := s.logg.WithField(ctx, "currency_id", *id)
		if pkgerrors.HasCode(err, pkgerrors.CodeFetchFailure) || pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			s.logg.Warn(logCtx, "currency lookup failed, falling back to USD")
		} else {
			s.logg.Error(logCtx, "currency lookup failed, falling back to USD", err)
		}
		return money.USD()
	}
	return *currency
}

func (s *service) key(parts ...string) string {
	if s.cache == nil {
		return ""
	}
	return s.cache.CurrencyKey(parts...)
}

func (s *service) readCache(ctx context.Context, key string, out any) bool {
	if s.cache == nil || s.ttl <= 0 {
		return false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "currency cache read failed")
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false
	}
	return true
}

func (s *service) writeCache(ctx context.Context, key string, value any) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "currency cache write failed")
	}
}
