package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/hotel-operations/internal/model"
)

// SettingStore persists system settings.
type SettingStore interface {
	Get(ctx context.Context, key string) (*model.Setting, error)
	List(ctx context.Context, category string) ([]model.Setting, error)
	Upsert(ctx context.Context, st *model.Setting) error
	Delete(ctx context.Context, key string) error
}

// Settings exposes configuration values stored in the database with a
// Redis read-through cache in front. Typed getters never fail: a missing,
// inactive or malformed value yields the supplied default.
type Settings struct {
	store SettingStore
	cache *redis.Client // nil disables caching
	ttl   time.Duration
}

const settingsCachePrefix = "settings:"

// absentMarker is cached for keys that have no active value, so repeated
// lookups of a missing key do not hit the database.
const absentMarker = "\x00"

func NewSettings(store SettingStore, cache *redis.Client, ttl time.Duration) *Settings {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Settings{store: store, cache: cache, ttl: ttl}
}

func cacheKey(key string) string { return settingsCachePrefix + key }

// Value returns the raw value of an active setting.
func (s *Settings) Value(ctx context.Context, key string) (string, bool) {
	if s.cache != nil {
		v, err := s.cache.Get(ctx, cacheKey(key)).Result()
		switch {
		case err == nil:
			return v, v != absentMarker
		case !errors.Is(err, redis.Nil):
			log.WithError(err).WithField("key", key).Warn("settings cache read failed")
		}
	}

	st, err := s.store.Get(ctx, key)
	value, ok := "", false
	switch {
	case err == nil && st.IsActive:
		value, ok = st.Value, true
	case err != nil && !errors.Is(err, model.ErrSettingNotFound):
		log.WithError(err).WithField("key", key).Warn("settings lookup failed; using default")
		return "", false
	}

	if s.cache != nil {
		cached := value
		if !ok {
			cached = absentMarker
		}
		if err := s.cache.Set(ctx, cacheKey(key), cached, s.ttl).Err(); err != nil {
			log.WithError(err).WithField("key", key).Warn("settings cache write failed")
		}
	}
	return value, ok
}

// Float returns the setting as a float64 or def.
func (s *Settings) Float(ctx context.Context, key string, def float64) float64 {
	v, ok := s.Value(ctx, key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		log.WithField("key", key).WithField("value", v).Warn("setting is not a number; using default")
		return def
	}
	if key == model.SettingTaxRate && !model.ValidTaxRate(f) {
		log.WithField("value", v).Warn("tax rate out of range; using default")
		return def
	}
	return f
}

// Int returns the setting as an int or def.
func (s *Settings) Int(ctx context.Context, key string, def int) int {
	v, ok := s.Value(ctx, key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

// Bool returns the setting as a bool or def.
func (s *Settings) Bool(ctx context.Context, key string, def bool) bool {
	v, ok := s.Value(ctx, key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

// String returns the setting or def.
func (s *Settings) String(ctx context.Context, key, def string) string {
	if v, ok := s.Value(ctx, key); ok {
		return v
	}
	return def
}

// Get returns the stored setting record.
func (s *Settings) Get(ctx context.Context, key string) (*model.Setting, error) {
	return s.store.Get(ctx, key)
}

// List returns every setting, optionally within one category.
func (s *Settings) List(ctx context.Context, category string) ([]model.Setting, error) {
	return s.store.List(ctx, category)
}

// Put validates and stores st, then drops its cache entry.
func (s *Settings) Put(ctx context.Context, actor model.Actor, st *model.Setting) error {
	st.Key = strings.TrimSpace(st.Key)
	if st.Key == "" {
		return fmt.Errorf("%w: key is required", model.ErrInvalidInput)
	}
	if st.DataType == "" {
		st.DataType = model.SettingString
	}
	if err := checkSettingValue(st.DataType, st.Value); err != nil {
		return err
	}
	if st.Key == model.SettingTaxRate {
		if err := checkTaxRate(st); err != nil {
			return err
		}
	}
	if st.Category == "" {
		st.Category = "general"
	}
	st.UpdatedBy = actorRef(actor)
	if err := s.store.Upsert(ctx, st); err != nil {
		return err
	}
	s.invalidate(ctx, st.Key)
	return nil
}

// Delete removes a setting and its cache entry.
func (s *Settings) Delete(ctx context.Context, key string) error {
	if err := s.store.Delete(ctx, key); err != nil {
		return err
	}
	s.invalidate(ctx, key)
	return nil
}

func (s *Settings) invalidate(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey(key)).Err(); err != nil {
		log.WithError(err).WithField("key", key).Warn("settings cache invalidation failed")
	}
}

func checkSettingValue(t model.SettingType, v string) error {
	var err error
	switch t {
	case model.SettingString:
	case model.SettingNumber:
		var f float64
		if f, err = strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && (math.IsNaN(f) || math.IsInf(f, 0)) {
			err = errors.New("not a finite number")
		}
	case model.SettingBoolean:
		_, err = strconv.ParseBool(strings.TrimSpace(v))
	case model.SettingJSON:
		if !json.Valid([]byte(v)) {
			err = errors.New("not valid JSON")
		}
	default:
		return fmt.Errorf("%w: unknown data type %q", model.ErrInvalidInput, t)
	}
	if err != nil {
		return fmt.Errorf("%w: value does not match data type %s", model.ErrInvalidInput, t)
	}
	return nil
}

func checkTaxRate(st *model.Setting) error {
	if st.DataType != model.SettingNumber {
		return fmt.Errorf("%w: %s must be a number", model.ErrInvalidInput, model.SettingTaxRate)
	}
	f, _ := strconv.ParseFloat(strings.TrimSpace(st.Value), 64)
	if !model.ValidTaxRate(f) {
		return fmt.Errorf("%w: %s must be between 0 and %g", model.ErrInvalidInput, model.SettingTaxRate, model.MaxTaxRate)
	}
	return nil
}

// WithTaxDefault overrides the fallback that callers pass for the tax_rate
// setting with def, the deployment's configured default.
func WithTaxDefault(src RateSource, def float64) RateSource {
	return taxDefault{src: src, def: def}
}

type taxDefault struct {
	src RateSource
	def float64
}

func (t taxDefault) Float(ctx context.Context, key string, def float64) float64 {
	if key == model.SettingTaxRate {
		def = t.def
	}
	return t.src.Float(ctx, key, def)
}
