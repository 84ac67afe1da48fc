package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonathan/rfp-agent/internal/audit"
	"github.com/jonathan/rfp-agent/internal/cache"
	"github.com/jonathan/rfp-agent/internal/catalog"
	"github.com/jonathan/rfp-agent/internal/config"
	"github.com/jonathan/rfp-agent/internal/db"
	"github.com/jonathan/rfp-agent/internal/escalation"
	"github.com/jonathan/rfp-agent/internal/extraction"
	"github.com/jonathan/rfp-agent/internal/history"
	"github.com/jonathan/rfp-agent/internal/llm"
	"github.com/jonathan/rfp-agent/internal/logger"
	"github.com/jonathan/rfp-agent/internal/memory"
	"github.com/jonathan/rfp-agent/internal/metrics"
	"github.com/jonathan/rfp-agent/internal/observability"
	"github.com/jonathan/rfp-agent/internal/pipeline"
	"github.com/jonathan/rfp-agent/internal/pricing"
	"github.com/jonathan/rfp-agent/internal/ranking"
	"github.com/jonathan/rfp-agent/internal/semantic"
	"github.com/jonathan/rfp-agent/internal/winprob"
	"go.uber.org/zap"
)

// historyKey is the Redis list holding past bids.
const historyKey = "rfp:history"

// app is the wired dependency graph shared by the subcommands.
type app struct {
	cfg        config.Config
	log        logger.Logger
	zap        *zap.Logger
	metrics    *metrics.Manager
	db         *db.DB
	redis      *cache.RedisClient
	llm        llm.Client
	history    history.Provider
	memory     *memory.LearningMemory
	summarizer *extraction.LLMEntityExtractor
	orch       *pipeline.Orchestrator
}

// loadConfig layers flags over the file and environment configuration.
func loadConfig(ctx context.Context, g *globalFlags) (config.Config, error) {
	loaded, err := config.Load(ctx, g.configPath)
	if err != nil {
		return config.Config{}, err
	}
	flags := config.Config{
		DatabaseURL: g.dbURL,
		CatalogPath: g.catalog,
		Redis:       config.RedisConfig{Addr: g.redisAddr},
	}
	if g.verbose {
		flags.Log.Level = "debug"
	}
	merged := flags.MergeWithDefaults(*loaded)
	if err := merged.Validate(); err != nil {
		return config.Config{}, err
	}
	return merged, nil
}

// newApp connects every configured backend. Anything left unconfigured
// falls back to an in-process implementation.
func newApp(ctx context.Context, cfg config.Config) (_ *app, err error) {
	a := &app{cfg: cfg, metrics: metrics.NewManager()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.zap = logger.New(cfg.Log.Level, cfg.Log.Format)
	a.log = logger.NewZapAdapter(a.zap)

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		if cat, err = catalog.LoadFile(cfg.CatalogPath); err != nil {
			return nil, err
		}
	}

	policy, err := pricing.ParseTestPolicy(cfg.Pricing.TestPolicy)
	if err != nil {
		return nil, err
	}

	deps := pipeline.Deps{
		Catalog:   cat,
		Pricing:   pricing.NewEngine(pricing.Config{TestPolicy: policy, Concurrency: cfg.Pricing.Concurrency}),
		Estimator: winprob.New(),
		Evaluator: escalation.NewEvaluator(escalation.Thresholds{
			MatchScore:     cfg.Escalation.MatchScore,
			WinProbability: cfg.Escalation.WinProbability,
			PriceVariance:  cfg.Escalation.PriceVariance,
			Reliability:    cfg.Escalation.Reliability,
		}),
		Notifier: escalation.NewLogNotifier(a.log),
		Metrics:  a.metrics,
		Tracer:   observability.NewTracer(nil),
		Logger:   a.log,
	}

	// History and memory: Postgres beats Redis beats in-process.
	seed := cfg.HistorySeed
	a.history = history.NewMemoryStore(history.SeedRecords()...)
	var kv memory.KV = memory.NewMemoryKV()

	if cfg.Redis.Addr != "" {
		a.redis = cache.NewRedis(cache.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := a.redis.Ping(ctx); err != nil {
			return nil, err
		}
		a.history = history.NewRedisStore(a.redis, historyKey)
		kv = memory.NewRedisKV(a.redis)
	}

	if cfg.DatabaseURL != "" {
		if a.db, err = db.Connect(ctx, cfg.DatabaseURL); err != nil {
			return nil, err
		}
		if err := a.db.Migrate(ctx); err != nil {
			return nil, err
		}
		a.history = a.db.History()
		deps.Audit = a.db.Audit()
		deps.Runs = a.db.Runs()
	} else {
		deps.Audit = audit.NewMemoryLog()
		deps.Runs = pipeline.NewMemoryRunStore()
	}

	if seed && (a.redis != nil || a.db != nil) {
		if err := history.Seed(ctx, a.history, history.SeedRecords()); err != nil {
			return nil, fmt.Errorf("failed to seed history: %w", err)
		}
	}
	a.memory = memory.New(kv)
	deps.History = a.history
	deps.Memory = a.memory

	if cfg.Notify.SNSTopicARN != "" {
		sns, err := escalation.NewSNSNotifierFromRegion(ctx, cfg.Notify.Region, cfg.Notify.SNSTopicARN)
		if err != nil {
			return nil, err
		}
		deps.Notifier = sns
	}

	extractOpts := []extraction.Option{
		extraction.WithFallbackDeadline(cfg.Extraction.FallbackDeadline),
		extraction.WithLogger(a.log),
	}
	matcherOpts := []ranking.MatcherOption{ranking.WithLogger(a.log)}
	if cfg.LLM.Enabled {
		if a.llm, err = llm.NewClient(ctx, nil, cfg.LLM.APIKey); err != nil {
			return nil, err
		}
		a.summarizer = extraction.NewLLMEntityExtractor(a.llm)
		extractOpts = append(extractOpts,
			extraction.WithEntityExtractor(a.summarizer),
			extraction.WithTimeout(cfg.LLM.Timeout),
		)
	}
	if cfg.LLM.Semantic {
		matcherOpts = append(matcherOpts, ranking.WithSimilarity(similarity(a.llm)))
	}
	deps.Extractor = extraction.New(extractOpts...)
	deps.Matcher = ranking.NewEngine(ranking.NewMatcher(matcherOpts...))

	a.orch = pipeline.New(deps)
	return a, nil
}

// similarity scores text with embeddings when an LLM client exists, falling
// back to lexical scoring. Without a client only the lexical score is used.
func similarity(c llm.Client) ranking.Similarity {
	if c == nil {
		return semantic.NewLexical()
	}
	return semantic.Fallback{
		Primary:   semantic.NewEmbedding(c),
		Secondary: semantic.NewLexical(),
	}
}

// requireDB fails when no database is configured.
func (a *app) requireDB() (*db.DB, error) {
	if a.db == nil {
		return nil, errors.New("this command needs a database: pass --db-url or set RFP_DATABASE_URL")
	}
	return a.db, nil
}

// Close releases every connection the app opened.
func (a *app) Close() {
	if a.llm != nil {
		_ = a.llm.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.zap != nil {
		_ = a.zap.Sync()
	}
}

// setup loads configuration and builds the app for a command.
func setup(ctx context.Context, g *globalFlags) (*app, error) {
	cfg, err := loadConfig(ctx, g)
	if err != nil {
		return nil, err
	}
	return newApp(ctx, cfg)
}
