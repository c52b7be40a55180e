package repository

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narayanprabad/InvestWise/internal/domain/models"
	domrepo "github.com/narayanprabad/InvestWise/internal/domain/repository"
	"github.com/narayanprabad/InvestWise/pkg/cache"
	pkgch "github.com/narayanprabad/InvestWise/pkg/clickhouse"
	pkgkafka "github.com/narayanprabad/InvestWise/pkg/kafka"
)

var snapTime = time.Date(2025, 3, 3, 15, 30, 0, 0, time.UTC)

func sampleSnapshot(symbol string) *models.ConditionSnapshot {
	return &models.ConditionSnapshot{
		ID:                  "11111111-2222-3333-4444-555555555555",
		Symbol:              symbol,
		Timestamp:           snapTime,
		Condition:           models.Bullish,
		Mode:                models.ModeWeighted,
		Volatility:          14.2,
		ChangePercent:       1.3,
		Trend:               "up",
		TrendConfidence:     0.8,
		Sentiment:           2.1,
		SentimentConfidence: 0.6,
	}
}

func newMockStore(t *testing.T) (*CHSnapshotStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewCHSnapshotStore(pkgch.NewClientFromDB(db, "investwise"), "condition_snapshots", nil), mock
}

func TestCHSnapshotStoreInit(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE DATABASE IF NOT EXISTS investwise")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS investwise.condition_snapshots")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Init(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCHSnapshotStoreBatchSkipsIncompleteRows(t *testing.T) {
	store, mock := newMockStore(t)
	s := sampleSnapshot("SPY")
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO investwise.condition_snapshots (id, symbol, ts")).
		WithArgs(s.ID, "SPY", sqlmock.AnyArg(), "bullish", "weighted", 14.2, 1.3, "up", 0.8, 2.1, 0.6).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.StoreBatch(context.Background(), []*models.ConditionSnapshot{s, nil, {ID: "x"}})
	require.NoError(t, err)
	require.NoError(t, store.StoreBatch(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCHSnapshotStoreInsertError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO").WillReturnError(errors.New("too many parts"))

	err := store.Store(context.Background(), sampleSnapshot("QQQ"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many parts")
}

func TestCHSnapshotStoreQuery(t *testing.T) {
	store, mock := newMockStore(t)
	cols := []string{"id", "symbol", "ts", "condition", "mode", "vix", "change_pct", "trend", "trend_conf", "sentiment", "sentiment_conf"}
	rows := sqlmock.NewRows(cols).
		AddRow("b", "SPY", snapTime.Add(time.Minute), "bearish", "fallback", 31.0, -2.0, "", 0.0, 0.0, 0.0).
		AddRow("a", "SPY", snapTime, "bullish", "weighted", 14.2, 1.3, "up", 0.8, 2.1, 0.6)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, symbol, ts")).
		WithArgs("SPY", sqlmock.AnyArg(), sqlmock.AnyArg(), 10).
		WillReturnRows(rows)

	got, err := store.Query(context.Background(), "SPY", snapTime.Add(-time.Hour), snapTime.Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.Bearish, got[0].Condition)
	assert.Equal(t, models.ModeFallback, got[0].Mode)
	assert.Equal(t, "up", got[1].Trend)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisProfileRepository(t *testing.T) {
	db, mock := redismock.NewClientMock()
	repo := NewRedisProfileRepository(db, "")
	ctx := context.Background()

	p := &models.UserProfile{ID: "abc", Name: "Asha", Risk: models.Moderate, CreatedAt: snapTime, UpdatedAt: snapTime}
	data, err := json.Marshal(p)
	require.NoError(t, err)

	mock.ExpectSetNX("profile:abc", data, 0).SetVal(true)
	require.NoError(t, repo.Create(ctx, p))

	mock.ExpectSetNX("profile:abc", data, 0).SetVal(false)
	assert.ErrorIs(t, repo.Create(ctx, p), ErrProfileExists)

	mock.ExpectGet("profile:abc").SetVal(string(data))
	got, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.Name)
	assert.Equal(t, models.Moderate, got.Risk)
	assert.True(t, got.CreatedAt.Equal(snapTime))

	mock.ExpectGet("profile:missing").RedisNil()
	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, domrepo.ErrProfileNotFound)

	mock.ExpectDel("profile:abc").SetVal(1)
	require.NoError(t, repo.Delete(ctx, "abc"))
	mock.ExpectDel("profile:abc").SetVal(0)
	assert.ErrorIs(t, repo.Delete(ctx, "abc"), domrepo.ErrProfileNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisProfileRepositoryModify(t *testing.T) {
	db, mock := redismock.NewClientMock()
	repo := NewRedisProfileRepository(db, "")
	ctx := context.Background()

	p := &models.UserProfile{ID: "abc", Name: "Asha", Risk: models.Moderate, CreatedAt: snapTime, UpdatedAt: snapTime}
	stored, err := json.Marshal(p)
	require.NoError(t, err)
	want := *p
	want.Risk = models.Aggressive
	updated, err := json.Marshal(&want)
	require.NoError(t, err)

	setAggressive := func(p *models.UserProfile) error {
		p.Risk = models.Aggressive
		return nil
	}

	t.Run("commits", func(t *testing.T) {
		mock.ExpectWatch("profile:abc")
		mock.ExpectGet("profile:abc").SetVal(string(stored))
		mock.ExpectTxPipeline()
		mock.ExpectSet("profile:abc", updated, 0).SetVal("OK")
		mock.ExpectTxPipelineExec()

		got, err := repo.Modify(ctx, "abc", setAggressive)
		require.NoError(t, err)
		assert.Equal(t, models.Aggressive, got.Risk)
		assert.Equal(t, "Asha", got.Name)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("retries after a concurrent write", func(t *testing.T) {
		mock.ExpectWatch("profile:abc")
		mock.ExpectGet("profile:abc").SetVal(string(stored))
		mock.ExpectTxPipeline()
		mock.ExpectSet("profile:abc", updated, 0).SetVal("OK")
		mock.ExpectTxPipelineExec().SetErr(redis.TxFailedErr)

		mock.ExpectWatch("profile:abc")
		mock.ExpectGet("profile:abc").SetVal(string(stored))
		mock.ExpectTxPipeline()
		mock.ExpectSet("profile:abc", updated, 0).SetVal("OK")
		mock.ExpectTxPipelineExec()

		got, err := repo.Modify(ctx, "abc", setAggressive)
		require.NoError(t, err)
		assert.Equal(t, models.Aggressive, got.Risk)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("gives up after repeated conflicts", func(t *testing.T) {
		for i := 0; i < maxModifyAttempts; i++ {
			mock.ExpectWatch("profile:abc")
			mock.ExpectGet("profile:abc").SetVal(string(stored))
			mock.ExpectTxPipeline()
			mock.ExpectSet("profile:abc", updated, 0).SetVal("OK")
			mock.ExpectTxPipelineExec().SetErr(redis.TxFailedErr)
		}
		_, err := repo.Modify(ctx, "abc", setAggressive)
		assert.ErrorIs(t, err, domrepo.ErrProfileConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing profile", func(t *testing.T) {
		mock.ExpectWatch("profile:missing")
		mock.ExpectGet("profile:missing").RedisNil()
		_, err := repo.Modify(ctx, "missing", setAggressive)
		assert.ErrorIs(t, err, domrepo.ErrProfileNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("mutator error aborts the write", func(t *testing.T) {
		mock.ExpectWatch("profile:abc")
		mock.ExpectGet("profile:abc").SetVal(string(stored))
		_, err := repo.Modify(ctx, "abc", func(*models.UserProfile) error { return domrepo.ErrGoalNotFound })
		assert.ErrorIs(t, err, domrepo.ErrGoalNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRedisProfileRepositoryPrefix(t *testing.T) {
	db, mock := redismock.NewClientMock()
	repo := NewRedisProfileRepository(db, "investwise")

	mock.ExpectDel("investwise:profile:abc").SetVal(1)
	require.NoError(t, repo.Delete(context.Background(), "abc"))
	require.NoError(t, mock.ExpectationsWereMet())
}

type countingQuotes struct {
	calls int
	err   error
}

func (c *countingQuotes) Quote(_ context.Context, symbol string) (models.Quote, error) {
	c.calls++
	if c.err != nil {
		return models.Quote{}, c.err
	}
	return models.Quote{Symbol: symbol, Price: 500, ChangePercent: 0.4, Timestamp: snapTime}, nil
}

func TestCachedQuoteSource(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	src := &countingQuotes{}
	cq := NewCachedQuoteSource(src, mc, time.Minute, nil)

	for i := 0; i < 3; i++ {
		q, err := cq.Quote(context.Background(), "SPY")
		require.NoError(t, err)
		assert.Equal(t, 500.0, q.Price)
	}
	assert.Equal(t, 1, src.calls)

	_, err := cq.Quote(context.Background(), "QQQ")
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestCachedQuoteSourceDoesNotCacheErrors(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	src := &countingQuotes{err: errors.New("gateway down")}
	cq := NewCachedQuoteSource(src, mc, time.Minute, nil)

	_, err := cq.Quote(context.Background(), "SPY")
	require.Error(t, err)
	_, err = cq.Quote(context.Background(), "SPY")
	require.Error(t, err)
	assert.Equal(t, 2, src.calls)
}

type recordingWriter struct {
	topic string
	msgs  []pkgkafka.Message
}

func (w *recordingWriter) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	w.topic = topic
	w.msgs = append(w.msgs, pkgkafka.Message{Key: key, Value: value})
	return nil
}

func (w *recordingWriter) PublishBatch(_ context.Context, topic string, messages []pkgkafka.Message) error {
	w.topic = topic
	w.msgs = append(w.msgs, messages...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestKafkaSnapshotPublisherKeysBySymbol(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaSnapshotPublisher{producer: w, topic: "investwise.conditions"}

	require.NoError(t, p.Publish(context.Background(), sampleSnapshot("SPY")))
	require.NoError(t, p.PublishBatch(context.Background(), []*models.ConditionSnapshot{sampleSnapshot("QQQ"), sampleSnapshot("DIA")}))
	require.NoError(t, p.PublishBatch(context.Background(), nil))

	assert.Equal(t, "investwise.conditions", w.topic)
	require.Len(t, w.msgs, 3)
	assert.Equal(t, []byte("SPY"), w.msgs[0].Key)
	assert.Equal(t, []byte("DIA"), w.msgs[2].Key)
}
