// Package main provides the entry point for the procbot server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/procyoon/procbot/internal/config"
	"github.com/procyoon/procbot/internal/discord"
	"github.com/procyoon/procbot/internal/messages"
	"github.com/procyoon/procbot/internal/music"
	"github.com/procyoon/procbot/internal/state"
	"github.com/procyoon/procbot/internal/suggest"
	"github.com/procyoon/procbot/internal/ticket"
	"github.com/procyoon/procbot/internal/voice"
)

const (
	serverReadTimeout  = 15 * time.Second
	serverWriteTimeout = 15 * time.Second

	stateCleanupInterval = time.Hour
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Warn("shutdown signal received", "signal", sig.String())
		cancel()
	}()

	exitCode := run(ctx, cancel)
	cancel() // Ensure cleanup before exit
	os.Exit(exitCode)
}

func run(ctx context.Context, cancel context.CancelFunc) int {
	cfg, err := config.Load(ctx)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 1
	}

	slog.Info("configuration loaded",
		"guild_id", cfg.GuildID,
		"state_backend", cfg.StateBackend,
		"suggestions_channel", cfg.SuggestionsChannel != "",
		"ticket_category", cfg.TicketCategoryID != "",
		"voice_category", cfg.VoiceCategoryID != "",
		"staff_roles", len(cfg.StaffRoleIDs))

	catalog, err := messages.Load(cfg.MessagesPath)
	if err != nil {
		slog.Error("failed to load message catalog", "error", err, "path", cfg.MessagesPath)
		return 1
	}

	store, err := newStore(ctx, cfg.StateBackend)
	if err != nil {
		slog.Error("failed to create state store", "error", err)
		return 1
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("failed to close store", "error", err)
		}
	}()

	client, err := discord.New(cfg.DiscordBotToken, discord.Config{
		GuildID:            cfg.GuildID,
		SuggestionsChannel: cfg.SuggestionsChannel,
		SuggestionResults:  cfg.SuggestionResults,
		WelcomeChannel:     cfg.WelcomeChannel,
		TicketCategoryID:   cfg.TicketCategoryID,
		VoiceCategoryID:    cfg.VoiceCategoryID,
		StaffRoleIDs:       cfg.StaffRoleIDs,
	}, catalog)
	if err != nil {
		slog.Error("failed to create Discord client", "error", err)
		return 1
	}

	suggestions := suggest.New(client, suggest.WithArchiver(store))
	voiceReg := voice.New(client,
		voice.WithPollInterval(cfg.VoicePollInterval),
		voice.WithGracePeriod(cfg.VoiceGracePeriod),
	)
	tickets := ticket.New(client, ticket.WithArchiver(store))
	musicMgr := music.NewManager()

	handler := discord.NewInteractionHandler(client, suggestions, voiceReg, tickets, musicMgr, store, slog.Default())
	handler.SetupHandler()
	client.SetupMemberHandler()

	if err := client.Open(); err != nil {
		slog.Error("failed to connect to Discord", "error", err)
		return 1
	}
	slog.Info("connected to Discord", "guild_id", cfg.GuildID)

	if err := handler.RegisterCommands(cfg.GuildID); err != nil {
		slog.Error("failed to register slash commands", "error", err)
		return 1
	}

	// Create HTTP router
	router := mux.NewRouter()
	router.Use(securityHeadersMiddleware)

	// Health endpoints
	router.HandleFunc("/", healthHandler).Methods("GET")
	router.HandleFunc("/health", healthHandler).Methods("GET")
	router.HandleFunc("/healthz", makeHealthzHandler(suggestions, voiceReg, tickets)).Methods("GET")

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start services
	eg, ctx := errgroup.WithContext(ctx)

	// HTTP server
	eg.Go(func() error {
		slog.Info("starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down HTTP server")
		// Fast shutdown for quick handoff during deployments (250ms)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), 250*time.Millisecond)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	// Periodic state cleanup
	eg.Go(func() error {
		ticker := time.NewTicker(stateCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := store.Cleanup(ctx); err != nil {
					slog.Warn("state cleanup failed", "error", err)
				}
			}
		}
	})

	// Discord teardown on shutdown
	eg.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down Discord services")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer shutdownCancel()

		voiceReg.Shutdown(shutdownCtx)
		tickets.Wait()

		if err := client.Close(); err != nil {
			slog.Warn("failed to close Discord session", "error", err)
		}
		return nil
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		cancel()
		return 1
	}

	slog.Info("shutdown complete")
	return 0
}

// newStore builds the state store named by the configured backend.
func newStore(ctx context.Context, backend string) (state.Store, error) {
	switch backend {
	case "cloudrun":
		return state.NewFidoStore(ctx)
	case "memory":
		return state.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", backend)
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok\n")); err != nil {
		slog.Debug("health write error", "error", err)
	}
}

func makeHealthzHandler(suggestions *suggest.Registry, voiceReg *voice.Registry, tickets *ticket.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		sStats := suggestions.Stats()
		vStats := voiceReg.Stats()
		tStats := tickets.Stats()
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		if _, err := fmt.Fprintf(w, "ok - %d suggestions, %d voice channels, %d tickets\n",
			sStats.Total, vStats.ActiveChannels, tStats.ActiveTickets); err != nil {
			slog.Debug("healthz write error", "error", err)
		}
	}
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		next.ServeHTTP(w, r)
	})
}
