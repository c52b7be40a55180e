package cache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.SetBytes(ctx, "a", []byte("1"), time.Second))
	require.NoError(t, c.SetBytes(ctx, "b", []byte("2"), 0))

	b, ok, err := c.GetBytes(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", string(b))

	now = now.Add(2 * time.Second)
	_, ok, _ = c.GetBytes(ctx, "a")
	assert.False(t, ok)

	require.NoError(t, c.SetBytes(ctx, "c", []byte("3"), time.Second))
	now = now.Add(2 * time.Second)
	assert.Equal(t, 1, c.Sweep())

	_, ok, _ = c.GetBytes(ctx, "b")
	assert.True(t, ok, "zero ttl never expires")
}

func TestRedisBytesCache(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisCache(db, "iw:")
	ctx := context.Background()

	mock.ExpectSet("iw:k", []byte("v"), time.Minute).SetVal("OK")
	require.NoError(t, c.SetBytes(ctx, "k", []byte("v"), time.Minute))

	mock.ExpectGet("iw:k").SetVal("v")
	b, ok, err := c.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(b))

	mock.ExpectGet("iw:none").RedisNil()
	_, ok, err = c.GetBytes(ctx, "none")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResponseCacheMiddleware(t *testing.T) {
	e := echo.New()
	var calls int32
	h := ResponseCache(NewTTLCache(), time.Minute)(func(c echo.Context) error {
		n := atomic.AddInt32(&calls, 1)
		if c.QueryParam("fail") != "" {
			return c.JSON(http.StatusBadGateway, map[string]int32{"n": n})
		}
		return c.JSON(http.StatusOK, map[string]int32{"n": n})
	})

	do := func(target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		require.NoError(t, h(e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), rec)))
		return rec
	}

	first := do("/api/condition?symbol=SPY")
	second := do("/api/condition?symbol=SPY")
	assert.Equal(t, "MISS", first.Header().Get(headerCache))
	assert.Equal(t, "HIT", second.Header().Get(headerCache))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	do("/api/condition?symbol=QQQ")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	do("/api/condition?symbol=SPY&fail=1")
	do("/api/condition?symbol=SPY&fail=1")
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls), "errors are not cached")
}
