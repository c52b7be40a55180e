package di

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	domrepo "github.com/narayanprabad/InvestWise/internal/domain/repository"
	domsvc "github.com/narayanprabad/InvestWise/internal/domain/service"
	"github.com/narayanprabad/InvestWise/internal/handler/api"
	mid "github.com/narayanprabad/InvestWise/internal/middleware"
	internalrepo "github.com/narayanprabad/InvestWise/internal/repository"
	"github.com/narayanprabad/InvestWise/internal/service/breaker"
	respcache "github.com/narayanprabad/InvestWise/internal/service/cache"
	"github.com/narayanprabad/InvestWise/internal/service/marketdata"
	"github.com/narayanprabad/InvestWise/internal/service/ratelimit"
	"github.com/narayanprabad/InvestWise/internal/services/allocation"
	"github.com/narayanprabad/InvestWise/internal/services/analytics"
	"github.com/narayanprabad/InvestWise/internal/usecase"
	"github.com/narayanprabad/InvestWise/pkg/cache"
	pkgch "github.com/narayanprabad/InvestWise/pkg/clickhouse"
	"github.com/narayanprabad/InvestWise/pkg/config"
	xhttp "github.com/narayanprabad/InvestWise/pkg/http"
	pkgkafka "github.com/narayanprabad/InvestWise/pkg/kafka"
	applogger "github.com/narayanprabad/InvestWise/pkg/logger"
	"github.com/narayanprabad/InvestWise/pkg/metrics"
	"github.com/narayanprabad/InvestWise/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the Prometheus registry served on the metrics path.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) domrepo.Metrics {
	return metrics.New(reg)
}

// ProvideRedisCache creates the shared Redis pool. It connects lazily, so a missing
// Redis only fails the calls that need it.
func ProvideRedisCache(cfg *config.Config) *cache.RedisCache {
	return cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdleConns, cfg.Redis.PoolTimeout),
		cache.WithRedisPrefix(cfg.Cache.Prefix),
	)
}

// ProvideRedisClient exposes the pool's client to the profile store and response cache.
func ProvideRedisClient(rc *cache.RedisCache) *redis.Client {
	return rc.Client()
}

// ProvideCache creates the object cache used for quotes and watcher locks.
func ProvideCache(cfg *config.Config, rc *cache.RedisCache) cache.Service {
	memOpts := []cache.MemoryOption{
		cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize),
		cache.WithMemoryCleanup(cfg.Cache.CleanupInterval),
	}
	switch cfg.Cache.Type {
	case "redis":
		return rc
	case "layered":
		return cache.NewLayeredCache(rc, cfg.MarketData.QuoteCacheTTL, memOpts...)
	default:
		return cache.NewMemoryCache(memOpts...)
	}
}

// ProvideMarketDataClient creates the market data gateway client.
func ProvideMarketDataClient(cfg *config.Config) *marketdata.Client {
	return marketdata.New(cfg)
}

// ProvideQuoteSource layers the breaker over the quote cache over the gateway.
func ProvideQuoteSource(cfg *config.Config, md *marketdata.Client, c cache.Service, l *applogger.Logger) domsvc.QuoteSource {
	cached := internalrepo.NewCachedQuoteSource(md, c, cfg.MarketData.QuoteCacheTTL, l)
	return breaker.NewQuote(cached, breaker.New("quote", cfg.Analytics.Breaker, l))
}

// ProvideTrendSource prefers the model service and falls back to the local regression.
func ProvideTrendSource(cfg *config.Config, md *marketdata.Client, l *applogger.Logger) domsvc.TrendSource {
	var src domsvc.TrendSource
	if base := analytics.NewHTTPServiceBase(cfg); base.Enabled() {
		src = analytics.NewHTTPTrendForecaster(base)
	} else {
		lb := domrepo.NormalizeLookback(cfg.Market.Lookback)
		src = analytics.NewRegressionTrendForecaster(md,
			analytics.WithLookbackDays(lb.Days()),
			analytics.WithMoveThreshold(cfg.Analytics.TrendMove),
		)
	}
	return breaker.NewTrend(src, breaker.New("trend", cfg.Analytics.Breaker, l))
}

// ProvideSentimentSource prefers the model service and falls back to the headline lexicon.
func ProvideSentimentSource(cfg *config.Config, md *marketdata.Client, l *applogger.Logger) domsvc.SentimentSource {
	var src domsvc.SentimentSource
	if base := analytics.NewHTTPServiceBase(cfg); base.Enabled() {
		src = analytics.NewHTTPSentimentAnalyzer(base)
	} else {
		src = analytics.NewLexiconSentimentAnalyzer(md, analytics.WithHeadlineCount(cfg.Analytics.HeadlineCount))
	}
	return breaker.NewSentiment(src, breaker.New("sentiment", cfg.Analytics.Breaker, l))
}

// ProvideSources groups the upstream signal sources.
func ProvideSources(
	quotes domsvc.QuoteSource,
	md *marketdata.Client,
	trend domsvc.TrendSource,
	sentiment domsvc.SentimentSource,
) usecase.Sources {
	return usecase.Sources{Quotes: quotes, History: md, Trend: trend, Sentiment: sentiment}
}

// ProvideClassifier creates the classifier with configured thresholds and weights.
func ProvideClassifier(cfg *config.Config) *analytics.Classifier {
	c := cfg.Classifier
	return analytics.NewClassifier(
		analytics.WithThresholds(analytics.Thresholds{
			VolatilityBearish:   c.VolatilityBearish,
			VolatilityBullish:   c.VolatilityBullish,
			TrendConfidence:     c.TrendConfidence,
			SentimentScore:      c.SentimentScore,
			SentimentConfidence: c.SentimentConfidence,
			RecentChange:        c.RecentChange,
		}),
		analytics.WithWeights(analytics.Weights{
			Volatility:   c.Weights.Volatility,
			Trend:        c.Weights.Trend,
			Sentiment:    c.Weights.Sentiment,
			RecentChange: c.Weights.RecentChange,
		}),
	)
}

// ProvideOptimizer creates the allocation optimizer.
func ProvideOptimizer() (*allocation.Optimizer, error) {
	opt, err := allocation.NewOptimizer()
	if err != nil {
		return nil, fmt.Errorf("allocation optimizer: %w", err)
	}
	return opt, nil
}

// ProvideMarketConditionUseCase creates the market condition use case.
func ProvideMarketConditionUseCase(
	cfg *config.Config,
	src usecase.Sources,
	classifier *analytics.Classifier,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.MarketConditionUseCase {
	return usecase.NewMarketConditionUseCase(cfg, src, classifier, m, l)
}

// ProvideProfileRepository creates the Redis-backed profile repository.
func ProvideProfileRepository(cfg *config.Config, client *redis.Client) domrepo.ProfileRepository {
	return internalrepo.NewRedisProfileRepository(client, cfg.Cache.Prefix)
}

// ProvideProfileUseCase creates the profile use case.
func ProvideProfileUseCase(repo domrepo.ProfileRepository) *usecase.ProfileUseCase {
	return usecase.NewProfileUseCase(repo)
}

// ProvideAdviceUseCase creates the allocation and advice use case.
func ProvideAdviceUseCase(
	opt *allocation.Optimizer,
	condition *usecase.MarketConditionUseCase,
	repo domrepo.ProfileRepository,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.AdviceUseCase {
	return usecase.NewAdviceUseCase(opt, condition, repo, m, l)
}

func needsClickHouse(cfg *config.Config) bool {
	return cfg.Backend.Type == config.BackendClickHouse || cfg.Kafka.Consumer.Enabled
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when nothing reads or
// writes snapshots there.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !needsClickHouse(cfg) {
		return nil, nil
	}
	client, err := pkgch.NewClient(pkgch.OptionsFrom(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideSnapshotStore creates the ClickHouse snapshot store and makes sure its table exists.
func ProvideSnapshotStore(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (domrepo.SnapshotStore, error) {
	if ch == nil {
		return nil, nil
	}
	store := internalrepo.NewCHSnapshotStore(ch, cfg.ClickHouse.Table, l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when no brokers are configured.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger, reg *prometheus.Registry) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	opts := append(pkgkafka.ProducerOptionsFrom(cfg),
		pkgkafka.WithProducerLogger(l),
		pkgkafka.WithProducerRegisterer(reg),
	)
	producer, err := pkgkafka.NewProducer(opts...)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideSnapshotPublisher creates the Kafka snapshot publisher.
func ProvideSnapshotPublisher(cfg *config.Config, producer *pkgkafka.Producer) domrepo.SnapshotPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSnapshotPublisher(producer, cfg.Kafka.Topic)
}

// ProvideSnapshotRecorder routes snapshots to the configured backend.
func ProvideSnapshotRecorder(
	cfg *config.Config,
	pub domrepo.SnapshotPublisher,
	store domrepo.SnapshotStore,
	m domrepo.Metrics,
) *usecase.SnapshotRecorder {
	return usecase.NewSnapshotRecorder(pub, store, m, cfg.Backend.Type)
}

// ProvideSnapshotPipeline builds the throttling and batching stage in front of the recorder.
func ProvideSnapshotPipeline(
	cfg *config.Config,
	rec *usecase.SnapshotRecorder,
	m domrepo.Metrics,
	l *applogger.Logger,
) *mid.SnapshotPipeline {
	if cfg.Backend.Type == config.BackendNone {
		return nil
	}
	return mid.NewSnapshotPipeline(rec, m,
		mid.WithThrottle(cfg.Backend.Throttle),
		mid.WithBatch(cfg.Backend.BatchSize, cfg.Backend.BatchTimeout),
		mid.WithPipelineLogger(l),
	)
}

// ProvideHistoryUseCase creates the snapshot history use case.
func ProvideHistoryUseCase(store domrepo.SnapshotStore) *usecase.HistoryUseCase {
	return usecase.NewHistoryUseCase(store)
}

// ProvideKafkaConsumer creates the snapshot consumer, or nil when disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger, reg *prometheus.Registry) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	opts := append(pkgkafka.ConsumerOptionsFrom(cfg),
		pkgkafka.WithConsumerLogger(l),
		pkgkafka.WithConsumerRegisterer(reg),
	)
	consumer, err := pkgkafka.NewConsumer(opts...)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(pkgkafka.KeyHook(), pkgkafka.LoggingHook(l)))
	return consumer, nil
}

// ProvideKafkaSnapshotsHandler stores consumed snapshots in ClickHouse.
func ProvideKafkaSnapshotsHandler(cfg *config.Config, store domrepo.SnapshotStore, m domrepo.Metrics) *usecase.KafkaSnapshotsHandler {
	if store == nil {
		return nil
	}
	return usecase.NewKafkaSnapshotsHandler(cfg.Kafka.Topic, store, m)
}

// ProvideStreamHub creates the websocket report stream.
func ProvideStreamHub(cfg *config.Config, l *applogger.Logger) *api.StreamHub {
	return api.NewStreamHub(l, cfg.Server.CORSOrigins)
}

// ProvideConditionWatcher creates the periodic classifier, or nil when disabled.
func ProvideConditionWatcher(
	cfg *config.Config,
	uc *usecase.MarketConditionUseCase,
	c cache.Service,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.ConditionWatcher {
	if !cfg.Watcher.Enabled {
		return nil
	}
	symbols := cfg.Watcher.Symbols
	if len(symbols) == 0 {
		symbols = []string{cfg.Market.BenchmarkSymbol}
	}
	return usecase.NewConditionWatcher(uc, c, m, l, symbols, cfg.Watcher.Interval)
}

// ProvideLimiter creates the per-client rate limiter, or nil when rps is not positive.
func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	if cfg.Server.RateLimit.RPS <= 0 {
		return nil
	}
	return ratelimit.New(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)
}

// ResponseCache is the GET response cache plus the func that stops its sweeper.
type ResponseCache struct {
	Middleware echo.MiddlewareFunc
	Stop       func() error
}

// ProvideResponseCache caches condition and quote responses in-process, or in Redis
// when the cache type shares state across instances.
func ProvideResponseCache(cfg *config.Config, client *redis.Client) ResponseCache {
	ttl := cfg.Server.ResponseCacheTTL
	if ttl <= 0 {
		return ResponseCache{Stop: func() error { return nil }}
	}
	if cfg.Cache.Type != "memory" {
		rc := respcache.NewRedisCache(client, cfg.Cache.Prefix+":http")
		return ResponseCache{Middleware: respcache.ResponseCache(rc, ttl), Stop: func() error { return nil }}
	}
	tc := respcache.NewTTLCache()
	ctx, cancel := context.WithCancel(context.Background())
	go tc.RunSweeper(ctx, ttl)
	return ResponseCache{
		Middleware: respcache.ResponseCache(tc, ttl),
		Stop:       func() error { cancel(); return nil },
	}
}

// ProvideHTTPHandler registers every HTTP and websocket route.
func ProvideHTTPHandler(
	l *applogger.Logger,
	condition *usecase.MarketConditionUseCase,
	advice *usecase.AdviceUseCase,
	history *usecase.HistoryUseCase,
	quotes domsvc.QuoteSource,
	profiles *usecase.ProfileUseCase,
	hub *api.StreamHub,
	rc ResponseCache,
) xhttp.Handler {
	var cacheMW []echo.MiddlewareFunc
	if rc.Middleware != nil {
		cacheMW = append(cacheMW, rc.Middleware)
	}
	return xhttp.Handlers{
		api.NewConditionEchoHandler(l, condition, advice, history, quotes, cacheMW...),
		api.NewProfilesEchoHandler(l, profiles),
		hub,
	}
}

// ProvideApp subscribes the report sinks and creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	reg *prometheus.Registry,
	handler xhttp.Handler,
	condition *usecase.MarketConditionUseCase,
	limiter *ratelimit.Limiter,
	pipeline *mid.SnapshotPipeline,
	recorder *usecase.SnapshotRecorder,
	hub *api.StreamHub,
	watcher *usecase.ConditionWatcher,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaSnapshotsHandler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	redisClient *redis.Client,
	rc ResponseCache,
) *server.App {
	condition.Subscribe(hub)
	if pipeline != nil {
		condition.Subscribe(usecase.NewSnapshotSink(pipeline, l))
	}

	c := server.Components{
		Handler:  handler,
		Registry: reg,
		Limiter:  limiter,
		Pipeline: pipeline,
		Recorder: recorder,
		Hub:      hub,
		Watcher:  watcher,
		Consumer: consumer,
		Producer: producer,
		CHClient: chClient,
		Redis:    redisClient,
		Closers:  []func() error{rc.Stop},
	}
	if kh != nil {
		c.Handlers = append(c.Handlers, kh)
	}
	return server.New(cfg, l, c)
}
