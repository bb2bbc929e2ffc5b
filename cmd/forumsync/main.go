package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/internal/maintenance"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/api"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/auth"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/banner"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/config"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/logger"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/store"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/validation"
)

func main() {
	// build metadata - set via ldflags during build/release
	var (
		version   = "dev"
		commit    = "none"
		buildDate = "unknown"
	)
	_ = godotenv.Load(".env")
	addrVal, dbVal, cfgVal, setFlags := config.ParseCommandFlags()

	cfgPath := config.ResolveConfigPath(cfgVal, setFlags["config"])
	cfg, envUsed, err := config.LoadEffective(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Flags explicitly set win over env/config for addr and dbPath.
	addr := addrVal
	if !setFlags["addr"] {
		addr = cfg.Addr()
	}
	dbPath := dbVal
	if !setFlags["db"] {
		if p := cfg.Storage.DBPath; p != "" {
			dbPath = p
		}
	}

	logger.Init(cfg.Logging.Level)
	if cfg.Logging.AuditDir != "" {
		if err := logger.AttachAuditFileSink(cfg.Logging.AuditDir); err != nil {
			log.Fatalf("failed to open audit sink at %s: %v", cfg.Logging.AuditDir, err)
		}
	}

	pol := validation.Policy{}
	if cfg.Forum.MaxContentLength > 0 {
		pol.MaxContentLen = cfg.Forum.MaxContentLength
	}
	if len(cfg.Forum.Emojis) > 0 {
		pol.Emojis = cfg.Forum.Emojis
	}
	validation.SetPolicy(pol)

	if err := store.Open(dbPath); err != nil {
		log.Fatalf("failed to open pebble at %s: %v", dbPath, err)
	}

	stopMaint, err := maintenance.Start(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to start maintenance scheduler: %v", err)
	}

	secCfg := auth.SecConfig{
		BackendKeys:  map[string]struct{}{},
		FrontendKeys: map[string]struct{}{},
		AdminKeys:    map[string]struct{}{},
		SigningKeys:  map[string]struct{}{},
	}
	secCfg.AllowedOrigins = append(secCfg.AllowedOrigins, cfg.Security.CORS.AllowedOrigins...)
	if cfg.Security.RateLimit.RPS > 0 {
		secCfg.RPS = cfg.Security.RateLimit.RPS
	}
	if cfg.Security.RateLimit.Burst > 0 {
		secCfg.Burst = cfg.Security.RateLimit.Burst
	}
	secCfg.IPWhitelist = append(secCfg.IPWhitelist, cfg.Security.IPWhitelist...)
	for _, k := range cfg.Security.APIKeys.Backend {
		secCfg.BackendKeys[k] = struct{}{}
	}
	for _, k := range cfg.Security.APIKeys.Frontend {
		secCfg.FrontendKeys[k] = struct{}{}
	}
	for _, k := range cfg.Security.APIKeys.Admin {
		secCfg.AdminKeys[k] = struct{}{}
	}
	for _, k := range cfg.Security.SigningKeys {
		secCfg.SigningKeys[k] = struct{}{}
	}

	mux := http.NewServeMux()

	// Swagger UI at /docs and the OpenAPI spec at /openapi.yaml.
	mux.Handle("/docs/", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))
	mux.Handle("/openapi.yaml", http.FileServer(http.Dir("./docs")))
	mux.Handle("/metrics", promhttp.Handler())

	// Forum API (catch-all, behind the auth gateway).
	mux.Handle("/", api.Handler(secCfg))

	// Determine config sources summary (flags/env/config)
	srcs := []string{}
	if len(setFlags) > 0 {
		srcs = append(srcs, "flags")
	}
	if envUsed {
		srcs = append(srcs, "env")
	}
	if _, err := config.Load(cfgPath); err == nil {
		srcs = append(srcs, "config")
	}
	verStr := version
	if commit != "none" {
		verStr = verStr + " (" + commit + ")"
	}
	if buildDate != "unknown" {
		verStr = verStr + " @ " + buildDate
	}
	banner.Print(cfg, addr, dbPath, strings.Join(srcs, ", "), verStr)

	srv := &http.Server{Addr: addr, Handler: mux}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigc
		logger.Info("signal_received", "signal", s.String())
		stopMaint()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		if err := store.Close(); err != nil {
			logger.Error("store_close_failed", "error", err)
		}
	}()

	cert := cfg.Server.TLS.CertFile
	key := cfg.Server.TLS.KeyFile
	var errServe error
	if cert != "" && key != "" {
		errServe = srv.ListenAndServeTLS(cert, key)
	} else {
		errServe = srv.ListenAndServe()
	}
	if errServe != nil && errServe != http.ErrServerClosed {
		log.Fatal(errServe)
	}
}
