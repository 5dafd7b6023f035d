// export-service
//
// Admin tool page "Export to HTML" for job listings.
// Serves a filterable, paginated listing of the job-listings content type
// under /admin/tools.php?page=export-to-html and exports the selected rows
// as a downloadable exported_posts.html document.
//
// Reads the content store from PostgreSQL (read-only), publishes
// EVENT_JOBS_EXPORTED to Redis when configured, and reports dependency
// health on /health and over gRPC.
//
// Usage:
//
//	export-service                         run the service
//	export-service -issue-token <user-id>  print an admin session token and exit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/DChelin/Custom-Post-Type-Generate-HTML/internal/admin"
	"github.com/DChelin/Custom-Post-Type-Generate-HTML/internal/config"
	"github.com/DChelin/Custom-Post-Type-Generate-HTML/internal/db"
	"github.com/DChelin/Custom-Post-Type-Generate-HTML/internal/events"
	"github.com/DChelin/Custom-Post-Type-Generate-HTML/internal/exporter"
	"github.com/DChelin/Custom-Post-Type-Generate-HTML/internal/grpcserver"
	"github.com/DChelin/Custom-Post-Type-Generate-HTML/internal/joblisting"
	"github.com/DChelin/Custom-Post-Type-Generate-HTML/internal/logger"
	"github.com/DChelin/Custom-Post-Type-Generate-HTML/internal/scheduler"
	"github.com/DChelin/Custom-Post-Type-Generate-HTML/internal/server"
)

const version = "1.0.0"

func main() {
	issueFor := flag.Int64("issue-token", 0, "print a session token for this user id and exit")
	tokenTTL := flag.Duration("token-ttl", 12*time.Hour, "lifetime of an issued session token")
	flag.Parse()

	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Config error")
	}
	lg := logger.Init(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	lg.Info().Msg("Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		lg.Fatal().Err(err).Msg("PostgreSQL")
	}
	defer pool.Close()
	lg.Info().Msg("PostgreSQL connected")

	if cfg.AutoMigrate {
		if err := db.EnsureSchema(ctx, pool); err != nil {
			lg.Fatal().Err(err).Msg("Schema bootstrap failed")
		}
		lg.Info().Msg("Content schema ensured")
	}

	store := joblisting.NewPostgresStore(pool, joblisting.Permalinks{Base: cfg.SiteURL})
	auth := admin.NewAuthenticator(cfg.SessionSecret, store)

	if *issueFor != 0 {
		if err := issueToken(ctx, store, auth, *issueFor, *tokenTTL); err != nil {
			lg.Fatal().Err(err).Int64("user_id", *issueFor).Msg("Cannot issue session token")
		}
		return
	}

	// ── Redis ────────────────────────────────────────────────────────────────
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		lg.Fatal().Err(err).Msg("Redis")
	}
	if rdb != nil {
		defer rdb.Close()
		lg.Info().Msg("Redis connected, export events enabled")
	} else {
		lg.Info().Msg("REDIS_URL not set, export events disabled")
	}

	// ── Admin pages ──────────────────────────────────────────────────────────
	svc := exporter.NewService(store, exporter.Features{
		Filters:       cfg.Features.Filters,
		TermSummaries: cfg.Features.TermSummaries,
		ExportDate:    cfg.Features.ExportDate,
	})
	var notify exporter.Notifier
	if pub := events.NewPublisher(rdb); pub.Enabled() {
		notify = pub
	}
	page := exporter.NewHandler(svc, notify,
		exporter.NewLimiter(cfg.Export.RatePerSecond, cfg.Export.Burst), lg)

	registry := admin.NewRegistry(auth, lg)
	if err := registry.Register(page.Page()); err != nil {
		lg.Fatal().Err(err).Msg("Admin page registration")
	}
	for _, p := range registry.Pages() {
		lg.Info().Str("url", server.AdminPath+"?page="+p.Slug).Str("title", p.Title).Msg("Admin page available")
	}

	// ── Health ───────────────────────────────────────────────────────────────
	monitor, err := scheduler.New(cfg.HealthSchedule, lg)
	if err != nil {
		lg.Fatal().Err(err).Msg("Health monitor")
	}
	monitor.Add("postgres", scheduler.PostgresProbe(pool))
	if rdb != nil {
		monitor.Add("redis", scheduler.RedisProbe(rdb))
	}

	var grpcSrv *grpcserver.Server
	if cfg.GRPCPort != "" {
		grpcSrv = grpcserver.New(lg)
		monitor.OnChange(grpcSrv.SetHealthy)

		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			lg.Fatal().Err(err).Str("port", cfg.GRPCPort).Msg("gRPC listen")
		}
		go func() {
			if err := grpcSrv.Serve(lis); err != nil {
				lg.Error().Err(err).Msg("gRPC server error")
			}
		}()
	}

	monitor.RunOnce(ctx)
	if err := monitor.Start(ctx); err != nil {
		lg.Fatal().Err(err).Msg("Health monitor start")
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	srv := server.New(":"+cfg.Port, registry, monitor, lg)
	go func() {
		lg.Info().Str("version", version).Str("port", cfg.Port).Msg("export-service started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info().Msg("Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("Shutdown error")
	}
	monitor.Stop()
	if grpcSrv != nil {
		grpcSrv.Stop()
	}
	cancel()
	lg.Info().Msg("Stopped")
}

// issueToken prints a session token for an existing user.
func issueToken(ctx context.Context, users admin.UserLookup, auth *admin.Authenticator, userID int64, ttl time.Duration) error {
	u, err := users.User(ctx, userID)
	if err != nil {
		return err
	}
	if !admin.Can(u.Role, admin.CapEditPosts) {
		fmt.Fprintf(os.Stderr, "warning: user %d (%s) lacks %s and will be refused\n", u.ID, u.Role, admin.CapEditPosts)
	}
	tok, err := auth.IssueToken(u.ID, ttl)
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}
