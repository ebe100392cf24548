package kvstore_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/okian/brokerflow/internal/adapters/kvstore"
	"github.com/redis/go-redis/v9"
	"github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the shared contract against any backend.
func exerciseStore(t *testing.T, s kvstore.Store) {
	t.Helper()
	ctx := context.Background()

	_, found, err := s.Get(ctx, kvstore.KeyWeights)
	require.NoError(t, err)
	assert.False(t, found, "fresh store must not report a value")

	require.NoError(t, s.Set(ctx, kvstore.KeyWeights, `{"premium":0.4,"time":0.4,"claims":0.2}`))
	v, found, err := s.Get(ctx, kvstore.KeyWeights)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"premium":0.4,"time":0.4,"claims":0.2}`, v)

	require.NoError(t, s.Set(ctx, kvstore.KeyWeights, `{"premium":1,"time":0,"claims":0}`))
	v, _, err = s.Get(ctx, kvstore.KeyWeights)
	require.NoError(t, err)
	assert.Equal(t, `{"premium":1,"time":0,"claims":0}`, v, "set must overwrite")

	require.NoError(t, s.Set(ctx, kvstore.KeyCoins, ""))
	v, found, err = s.Get(ctx, kvstore.KeyCoins)
	require.NoError(t, err)
	assert.True(t, found, "empty values are still present")
	assert.Empty(t, v)
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisStore(t *testing.T) {
	_, client := setupRedis(t)
	s := kvstore.NewRedisFromClient(client, "")
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Ping(context.Background()))
	assert.Equal(t, kvstore.BackendRedis, s.Name())
	exerciseStore(t, s)
}

func TestRedisStorePrefix(t *testing.T) {
	mr, client := setupRedis(t)
	s := kvstore.NewRedisFromClient(client, "tenant-a:")
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Set(context.Background(), kvstore.KeyCurrency, "EUR"))

	raw, err := mr.Get("tenant-a:" + kvstore.KeyCurrency)
	require.NoError(t, err)
	assert.Equal(t, "EUR", raw)
	assert.False(t, mr.Exists(kvstore.KeyCurrency))
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, client := setupRedis(t)
	s := kvstore.NewRedisFromClient(client, "")
	mr.Close()

	_, _, err := s.Get(context.Background(), kvstore.KeyPolicies)
	assert.Error(t, err)
	assert.Error(t, s.Set(context.Background(), kvstore.KeyPolicies, "[]"))
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "brokerflow.db")
	s, err := kvstore.NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	assert.Equal(t, kvstore.BackendSQLite, s.Name())
	exerciseStore(t, s)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brokerflow.db")
	ctx := context.Background()

	first, err := kvstore.NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, kvstore.KeyTimezone, "CET"))
	require.NoError(t, first.Close())

	second, err := kvstore.NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	v, found, err := second.Get(ctx, kvstore.KeyTimezone)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "CET", v)
}

func TestMemoryStore(t *testing.T) {
	convey.Convey("Given an in-memory store", t, func() {
		s := kvstore.NewMemory()
		ctx := context.Background()

		convey.Convey("Then it should satisfy the shared contract", func() {
			exerciseStore(t, s)
		})

		convey.Convey("When it is closed", func() {
			convey.So(s.Close(), convey.ShouldBeNil)

			convey.Convey("Then every operation should fail with ErrClosed", func() {
				_, _, err := s.Get(ctx, kvstore.KeyCoins)
				convey.So(errors.Is(err, kvstore.ErrClosed), convey.ShouldBeTrue)
				convey.So(errors.Is(s.Set(ctx, kvstore.KeyCoins, "1"), kvstore.ErrClosed), convey.ShouldBeTrue)
				convey.So(errors.Is(s.Ping(ctx), kvstore.ErrClosed), convey.ShouldBeTrue)
			})
		})
	})
}

func TestOpen(t *testing.T) {
	convey.Convey("Given backend configurations", t, func() {
		ctx := context.Background()

		convey.Convey("When the backend is empty", func() {
			b, err := kvstore.Open(ctx, kvstore.Config{})
			convey.So(err, convey.ShouldBeNil)
			convey.So(b.Name(), convey.ShouldEqual, kvstore.BackendMemory)
		})

		convey.Convey("When the backend is sqlite", func() {
			b, err := kvstore.Open(ctx, kvstore.Config{
				Backend:    "SQLite",
				SQLitePath: filepath.Join(t.TempDir(), "kv.db"),
			})
			convey.So(err, convey.ShouldBeNil)
			convey.So(b.Name(), convey.ShouldEqual, kvstore.BackendSQLite)
			convey.So(b.Close(), convey.ShouldBeNil)
		})

		convey.Convey("When the backend is redis", func() {
			mr, err := miniredis.Run()
			convey.So(err, convey.ShouldBeNil)
			defer mr.Close()

			b, err := kvstore.Open(ctx, kvstore.Config{Backend: "redis", RedisAddr: mr.Addr()})
			convey.So(err, convey.ShouldBeNil)
			convey.So(b.Name(), convey.ShouldEqual, kvstore.BackendRedis)
			convey.So(b.Close(), convey.ShouldBeNil)
		})

		convey.Convey("When the backend is unknown", func() {
			_, err := kvstore.Open(ctx, kvstore.Config{Backend: "etcd"})
			convey.So(errors.Is(err, kvstore.ErrUnknownBackend), convey.ShouldBeTrue)
		})
	})
}
