package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/stake-plus/mmr-scorecard/src/ai/core"
	_ "github.com/stake-plus/mmr-scorecard/src/ai/providers"
	"github.com/stake-plus/mmr-scorecard/src/api/webserver"
	"github.com/stake-plus/mmr-scorecard/src/chat"
	"github.com/stake-plus/mmr-scorecard/src/config"
	"github.com/stake-plus/mmr-scorecard/src/data"
	"github.com/stake-plus/mmr-scorecard/src/dataset"
	"github.com/stake-plus/mmr-scorecard/src/discordbot"
	"github.com/stake-plus/mmr-scorecard/src/logging"
	"github.com/stake-plus/mmr-scorecard/src/metrics"
	"github.com/stake-plus/mmr-scorecard/src/mmr"
	"github.com/stake-plus/mmr-scorecard/src/webclient"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	base := config.LoadBase()
	log, err := logging.New(base.LogLevel, base.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(base, log); err != nil {
		log.Fatal("mmr-api stopped", zap.Error(err))
	}
}

func run(base config.Base, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var db *gorm.DB
	if base.HasDB() {
		var err error
		if db, err = data.Connect(base.DBDriver, base.DSN, log); err != nil {
			return err
		}
		log.Info("database connected", zap.String("driver", base.DBDriver))
	}
	cfg := config.LoadAPIConfig(base, db)

	catalog, err := loadCatalog(ctx, cfg, db, log)
	if err != nil {
		return err
	}
	log.Info("catalog loaded",
		zap.Int("profiles", catalog.Len()),
		zap.String("rules", catalog.Engine().Rules().Version),
		zap.String("fingerprint", catalog.Fingerprint()))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New("mmr", reg)
	if err != nil {
		return err
	}

	var (
		rdb   *redis.Client
		store chat.Store
	)
	if cfg.RedisURL != "" {
		if rdb, err = data.ConnectRedis(ctx, cfg.RedisURL); err != nil {
			return err
		}
		defer rdb.Close()
		store = data.NewConversationStore(rdb)
	} else {
		log.Warn("REDIS_URL not set; conversations are kept in memory")
		store = chat.NewMemoryStore()
	}

	ai, err := newAI(cfg, catalog, m, log)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router := webserver.New(webserver.Deps{
		Config:   cfg,
		Catalog:  catalog,
		AI:       ai,
		DB:       db,
		Redis:    rdb,
		Store:    store,
		Metrics:  m,
		Gatherer: reg,
		Logger:   log,
	})
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	if cfg.TLSCert != "" && cfg.TLSKey != "" {
		reloader, err := webserver.NewTLSReloader(cfg.TLSCert, cfg.TLSKey, log)
		if err != nil {
			return err
		}
		go reloader.Watch(ctx, 5*time.Minute)
		httpSrv.TLSConfig = reloader.GetConfig()
		go func() { errCh <- httpSrv.ListenAndServeTLS("", "") }()
	} else {
		go func() { errCh <- httpSrv.ListenAndServe() }()
	}
	log.Info("MMR API listening", zap.String("port", cfg.Port), zap.String("model", ai.Model()))

	if botCfg := config.LoadBotConfig(base, db); botCfg.Enabled {
		bot, err := discordbot.New(botCfg, catalog, log)
		if err != nil {
			return err
		}
		if err := bot.Start(); err != nil {
			log.Error("discord bot failed to start", zap.Error(err))
		} else {
			defer func() { _ = bot.Stop() }()
		}
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
	}

	log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutCtx)
}

// loadCatalog evaluates the configured profiles. With a database the stored
// profiles win, and an empty table is seeded first.
func loadCatalog(ctx context.Context, cfg config.APIConfig, db *gorm.DB, log *zap.Logger) (*dataset.Catalog, error) {
	engine := mmr.DefaultEngine()
	if cfg.RulesPath != "" {
		rules, err := mmr.LoadRules(cfg.RulesPath)
		if err != nil {
			return nil, err
		}
		if engine, err = mmr.NewEngine(rules); err != nil {
			return nil, err
		}
	}

	ds := dataset.Default()
	if cfg.DatasetPath != "" {
		var err error
		if ds, err = dataset.Load(cfg.DatasetPath); err != nil {
			return nil, err
		}
	}
	if db == nil {
		return dataset.NewCatalog(engine, ds.Profiles), nil
	}

	n, err := data.CountProfiles(ctx, db)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		seeded, err := data.SeedProfiles(ctx, db, ds.Profiles)
		if err != nil {
			return nil, err
		}
		log.Info("seeded profiles", zap.Int("count", seeded))
	}
	profiles, err := data.LoadProfiles(ctx, db)
	if err != nil {
		return nil, err
	}
	return dataset.NewCatalog(engine, profiles), nil
}

func newAI(cfg config.APIConfig, catalog *dataset.Catalog, m *metrics.Metrics, log *zap.Logger) (core.Client, error) {
	policy := webclient.DefaultPolicy()
	policy.OnAttempt = m.UpstreamAttempt

	fc := core.FactoryConfig{
		Provider:     cfg.AI.Provider,
		SystemPrompt: cfg.AI.SystemPrompt,
		Model:        cfg.AI.Model,
		Temperature:  cfg.AI.Temperature,
		OpenAIKey:    cfg.AI.OpenAIKey,
		ClaudeKey:    cfg.AI.ClaudeKey,
		Policy:       policy,
		Catalog:      catalog,
	}
	client, err := core.NewClient(fc)
	if err == nil {
		return client, nil
	}
	log.Warn("answer provider unavailable; using canned answers", zap.String("provider", cfg.AI.Provider), zap.Error(err))
	fc.Provider = "canned"
	return core.NewClient(fc)
}
