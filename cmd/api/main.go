package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/bryanwahyu/clinassist/internal/application"
	appanalysis "github.com/bryanwahyu/clinassist/internal/application/analysis"
	"github.com/bryanwahyu/clinassist/internal/application/records"
	"github.com/bryanwahyu/clinassist/internal/config"
	domai "github.com/bryanwahyu/clinassist/internal/domain/analysis"
	"github.com/bryanwahyu/clinassist/internal/domain/patients"
	"github.com/bryanwahyu/clinassist/internal/domain/reports"
	"github.com/bryanwahyu/clinassist/internal/infra/ai/openai"
	"github.com/bryanwahyu/clinassist/internal/infra/ai/oracle"
	"github.com/bryanwahyu/clinassist/internal/infra/crypto"
	mysqlp "github.com/bryanwahyu/clinassist/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/clinassist/internal/infra/db/postgres"
	"github.com/bryanwahyu/clinassist/internal/infra/heatmap"
	"github.com/bryanwahyu/clinassist/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/clinassist/internal/infra/storage"
	"github.com/bryanwahyu/clinassist/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx := context.Background()

	// connect DB sesuai driver
	var (
		db          *sql.DB
		patientRepo patients.Repository
		reportRepo  reports.Repository
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(cfg.PostgresDSN())
		if err != nil {
			sugar.Fatalw("postgres connect error", "error", err)
		}
		patientRepo = postgresp.NewPatientRepository(db)
		reportRepo = postgresp.NewReportRepository(db)
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			sugar.Fatalw("mysql connect error", "error", err)
		}
		patientRepo = mysqlp.NewPatientRepository(db)
		reportRepo = mysqlp.NewReportRepository(db)
	}
	defer db.Close()

	// init minio (optional, heatmaps stay on local disk without it)
	var uploader heatmap.Uploader
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			sugar.Fatalw("minio init error", "error", err)
		}
		uploader = store
	}

	// init oracle provider
	var oracleClient domai.Oracle
	switch cfg.Oracle.Provider {
	case "openai":
		oracleClient = openai.NewClient(cfg.Oracle.APIKey, cfg.Oracle.Model, sugar)
	default:
		oracleClient = oracle.New(oracle.Config{
			BaseURL:     cfg.Oracle.Host,
			Model:       cfg.Oracle.Model,
			APIKey:      cfg.Oracle.APIKey,
			Timeout:     cfg.OracleTimeout(),
			MaxAttempts: cfg.Oracle.MaxAttempts,
			Backoff:     cfg.OracleBackoff(),
		}, sugar)
	}

	staticDir := cfg.Server.StaticDir
	if staticDir == "" {
		staticDir = "static"
	}
	renderer, err := heatmap.NewRenderer(filepath.Join(staticDir, "heatmaps"), uploader, sugar)
	if err != nil {
		sugar.Fatalw("heatmap renderer init error", "error", err)
	}

	// init field cipher (optional, plaintext storage without a key)
	var cipher patients.FieldCipher
	if cfg.Security.FieldKey != "" {
		c, err := crypto.NewFieldCipher([]byte(cfg.Security.FieldKey))
		if err != nil {
			sugar.Fatalw("field cipher init error", "error", err)
		}
		cipher = c
	} else {
		sugar.Warnw("field encryption key not set, sensitive fields stored as plaintext")
	}

	// init services
	recordsSvc := &records.Service{
		Patients: patientRepo,
		Reports:  reportRepo,
		Cipher:   cipher,
		Clock:    application.SystemClock{},
	}
	aiSvc := &appanalysis.Service{
		Reports:  reportRepo,
		Oracle:   oracleClient,
		Renderer: renderer,
		Clock:    application.SystemClock{},
		Log:      sugar,
	}

	healthChecks := map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
	}
	if cfg.Oracle.Provider != "openai" && cfg.Oracle.Host != "" {
		healthChecks["oracle"] = &middleware.OracleHealthChecker{BaseURL: cfg.Oracle.Host}
	}

	// init router
	mux := chi.NewRouter()

	origins := cfg.CORS.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	mux.Use(middleware.Logging(sugar))
	mux.Use(middleware.MetricsMiddleware)
	if len(cfg.Security.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(cfg.Security.APIKeys))
	}
	mux.Use(middleware.RateLimit(30, 1))

	mux.Mount("/", httpserver.NewRouter(recordsSvc, aiSvc, staticDir, healthChecks, sugar))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // analysis calls can take two oracle attempts
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		sugar.Infow("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalw("server error", "error", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	sugar.Infow("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		sugar.Errorw("shutdown error", "error", err)
	}
}
