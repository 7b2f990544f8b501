package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-operations/internal/model"
)

type memSettings struct {
	data  map[string]model.Setting
	gets  int
	fails bool
}

func newMemSettings(items ...model.Setting) *memSettings {
	s := &memSettings{data: map[string]model.Setting{}}
	for _, it := range items {
		s.data[it.Key] = it
	}
	return s
}

func (s *memSettings) Get(_ context.Context, key string) (*model.Setting, error) {
	s.gets++
	if s.fails {
		return nil, errors.New("db down")
	}
	st, ok := s.data[key]
	if !ok {
		return nil, model.ErrSettingNotFound
	}
	return &st, nil
}

func (s *memSettings) List(_ context.Context, category string) ([]model.Setting, error) {
	out := []model.Setting{}
	for _, st := range s.data {
		if category == "" || st.Category == category {
			out = append(out, st)
		}
	}
	return out, nil
}

func (s *memSettings) Upsert(_ context.Context, st *model.Setting) error {
	s.data[st.Key] = *st
	return nil
}

func (s *memSettings) Delete(_ context.Context, key string) error {
	if _, ok := s.data[key]; !ok {
		return model.ErrSettingNotFound
	}
	delete(s.data, key)
	return nil
}

func taxSetting(value string, active bool) model.Setting {
	return model.Setting{Key: model.SettingTaxRate, Category: "billing", Value: value, DataType: model.SettingNumber, IsActive: active}
}

func TestSettings_ReadThroughCache(t *testing.T) {
	cache, mock := redismock.NewClientMock()
	store := newMemSettings(taxSetting("0.12", true))
	s := NewSettings(store, cache, time.Minute)

	mock.ExpectGet("settings:tax_rate").RedisNil()
	mock.ExpectSet("settings:tax_rate", "0.12", time.Minute).SetVal("OK")
	assert.InDelta(t, 0.12, s.Float(context.Background(), model.SettingTaxRate, model.DefaultTaxRate), 1e-9)

	mock.ExpectGet("settings:tax_rate").SetVal("0.12")
	assert.InDelta(t, 0.12, s.Float(context.Background(), model.SettingTaxRate, model.DefaultTaxRate), 1e-9)

	assert.Equal(t, 1, store.gets)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettings_MissingAndInactiveUseDefault(t *testing.T) {
	cache, mock := redismock.NewClientMock()
	store := newMemSettings(model.Setting{Key: "late_fee", Value: "5", IsActive: false})
	s := NewSettings(store, cache, time.Minute)

	mock.ExpectGet("settings:tax_rate").RedisNil()
	mock.ExpectSet("settings:tax_rate", absentMarker, time.Minute).SetVal("OK")
	assert.Equal(t, model.DefaultTaxRate, s.Float(context.Background(), model.SettingTaxRate, model.DefaultTaxRate))

	mock.ExpectGet("settings:tax_rate").SetVal(absentMarker)
	assert.Equal(t, model.DefaultTaxRate, s.Float(context.Background(), model.SettingTaxRate, model.DefaultTaxRate))

	mock.ExpectGet("settings:late_fee").RedisNil()
	mock.ExpectSet("settings:late_fee", absentMarker, time.Minute).SetVal("OK")
	assert.Equal(t, 7, s.Int(context.Background(), "late_fee", 7))

	assert.Equal(t, 2, store.gets)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettings_CacheErrorFallsBackToStore(t *testing.T) {
	cache, mock := redismock.NewClientMock()
	store := newMemSettings(taxSetting("0.2", true))
	s := NewSettings(store, cache, time.Minute)

	mock.ExpectGet("settings:tax_rate").SetErr(errors.New("connection refused"))
	mock.ExpectSet("settings:tax_rate", "0.2", time.Minute).SetErr(errors.New("connection refused"))
	assert.InDelta(t, 0.2, s.Float(context.Background(), model.SettingTaxRate, 0), 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettings_StoreErrorIsNotCached(t *testing.T) {
	cache, mock := redismock.NewClientMock()
	store := newMemSettings()
	store.fails = true
	s := NewSettings(store, cache, time.Minute)

	mock.ExpectGet("settings:tax_rate").RedisNil()
	assert.Equal(t, 0.1, s.Float(context.Background(), model.SettingTaxRate, 0.1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettings_WithoutCache(t *testing.T) {
	store := newMemSettings(
		taxSetting("abc", true),
		model.Setting{Key: "self_checkin", Value: "true", IsActive: true},
		model.Setting{Key: "hotel_name", Value: "Seaside", IsActive: true},
	)
	s := NewSettings(store, nil, 0)

	assert.Equal(t, 0.1, s.Float(context.Background(), model.SettingTaxRate, 0.1), "malformed number")
	assert.True(t, s.Bool(context.Background(), "self_checkin", false))
	assert.Equal(t, "Seaside", s.String(context.Background(), "hotel_name", ""))
	assert.Equal(t, "n/a", s.String(context.Background(), "missing", "n/a"))
}

func TestSettings_PutValidatesAndInvalidates(t *testing.T) {
	cache, mock := redismock.NewClientMock()
	store := newMemSettings()
	s := NewSettings(store, cache, time.Minute)
	admin := model.Actor{ID: 1, Role: model.RoleAdmin}

	bad := []*model.Setting{
		{Key: " ", Value: "1"},
		{Key: "tax_rate", Value: "ten", DataType: model.SettingNumber},
		{Key: "tax_rate", Value: "NaN", DataType: model.SettingNumber},
		{Key: "tax_rate", Value: "Inf", DataType: model.SettingNumber},
		{Key: "tax_rate", Value: "1e300", DataType: model.SettingNumber},
		{Key: "tax_rate", Value: "-0.1", DataType: model.SettingNumber},
		{Key: "tax_rate", Value: "0.1", DataType: model.SettingString},
		{Key: "late_fee", Value: "-Inf", DataType: model.SettingNumber},
		{Key: "flag", Value: "maybe", DataType: model.SettingBoolean},
		{Key: "cfg", Value: "{", DataType: model.SettingJSON},
		{Key: "x", Value: "1", DataType: "yaml"},
	}
	for _, st := range bad {
		assert.ErrorIs(t, s.Put(context.Background(), admin, st), model.ErrInvalidInput, "%+v", st)
	}

	mock.ExpectDel("settings:tax_rate").SetVal(1)
	st := &model.Setting{Key: "tax_rate", Value: "0.15", DataType: model.SettingNumber, IsActive: true}
	require.NoError(t, s.Put(context.Background(), admin, st))
	assert.Equal(t, "general", store.data["tax_rate"].Category)
	require.NotNil(t, store.data["tax_rate"].UpdatedBy)
	assert.Equal(t, admin.ID, *store.data["tax_rate"].UpdatedBy)

	mock.ExpectDel("settings:tax_rate").SetVal(1)
	require.NoError(t, s.Delete(context.Background(), "tax_rate"))
	assert.ErrorIs(t, s.Delete(context.Background(), "tax_rate"), model.ErrSettingNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettings_FloatRejectsUnusableRates(t *testing.T) {
	ctx := context.Background()
	for _, v := range []string{"NaN", "Inf", "1e300", "-0.5"} {
		s := NewSettings(newMemSettings(taxSetting(v, true)), nil, 0)
		assert.Equal(t, 0.1, s.Float(ctx, model.SettingTaxRate, 0.1), v)
	}
	s := NewSettings(newMemSettings(model.Setting{Key: "late_fee", Value: "NaN", IsActive: true}), nil, 0)
	assert.Equal(t, 2.5, s.Float(ctx, "late_fee", 2.5))
}

func TestWithTaxDefault(t *testing.T) {
	ctx := context.Background()
	rates := WithTaxDefault(NewSettings(newMemSettings(), nil, 0), 0.08)
	assert.Equal(t, 0.08, rates.Float(ctx, model.SettingTaxRate, model.DefaultTaxRate))
	assert.Equal(t, 1.5, rates.Float(ctx, "late_fee", 1.5))

	rates = WithTaxDefault(NewSettings(newMemSettings(taxSetting("0.2", true)), nil, 0), 0.08)
	assert.Equal(t, 0.2, rates.Float(ctx, model.SettingTaxRate, model.DefaultTaxRate))
}
