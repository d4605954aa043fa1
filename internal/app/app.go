// Package app boots the server: configuration, logging router, store,
// services, room manager, keyframe archival, and the HTTP surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"croplands/server/internal/archive"
	"croplands/server/internal/config"
	"croplands/server/internal/items"
	servernet "croplands/server/internal/net"
	"croplands/server/internal/room"
	"croplands/server/internal/services"
	"croplands/server/logging"
	loggingSinks "croplands/server/logging/sinks"
)

// Options parameterize a server run.
type Options struct {
	ConfigPath string
	Logger     *log.Logger

	// Authorizer resolves session tokens to user ids. When nil, tokens
	// are taken as user ids directly, which pairs with roster seeding
	// for standalone deployments.
	Authorizer room.Authorizer
}

// Run boots the server and blocks until the context ends or the listener
// fails.
func Run(ctx context.Context, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	router, err := buildRouter(cfg)
	if err != nil {
		return fmt.Errorf("construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(context.Background()); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	store, err := services.Open(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	catalog := items.DefaultCatalog()
	bundle := services.NewBundle(store, catalog, cfg.Storage.LootSeed)

	for _, entry := range cfg.Roster {
		for _, userID := range entry.UserIDs {
			if err := bundle.Classrooms.AddMember(ctx, userID, entry.ClassroomID); err != nil {
				return fmt.Errorf("seed roster: %w", err)
			}
		}
	}

	deps := bundle.RoomDeps()
	deps.Catalog = catalog
	deps.Publisher = router
	deps.Auth = opts.Authorizer
	if deps.Auth == nil {
		deps.Auth = room.AuthorizerFunc(func(_ context.Context, token string) (string, error) {
			token = strings.TrimSpace(token)
			if token == "" {
				return "", errors.New("empty token")
			}
			return token, nil
		})
	}

	manager := room.NewManager(cfg.RoomConfig(), deps)
	defer manager.Close()

	archiver := archive.NewArchiver(cfg.Archive.Dir)
	go runArchival(ctx, manager, archiver, cfg, logger)

	handler := servernet.NewHTTPHandler(manager, servernet.HTTPHandlerConfig{
		ClientDir: cfg.Server.ClientDir,
		Logger:    logger,
	})

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler}
	errCh := make(chan error, 1)
	go func() {
		logger.Printf("server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	}
}

func buildRouter(cfg config.Config) (*logging.Router, error) {
	lc := cfg.LoggingConfig()
	var sinks []logging.NamedSink
	if lc.HasSink("console") {
		sinks = append(sinks, logging.NamedSink{Name: "console", Sink: loggingSinks.NewConsole(lc.Console)})
	}
	if lc.HasSink("json") {
		jsonSink, err := loggingSinks.NewJSON(lc.JSON)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, logging.NamedSink{Name: "json", Sink: jsonSink})
	}
	return logging.NewRouter(logging.SystemClock{}, lc, sinks)
}

// runArchival periodically persists every live room's newest state and
// prunes old archives.
func runArchival(ctx context.Context, manager *room.Manager, archiver *archive.Archiver, cfg config.Config, logger *log.Logger) {
	interval := time.Duration(cfg.Archive.IntervalTicks) * time.Duration(cfg.Room.TickMillis) * time.Millisecond
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, rm := range manager.Rooms() {
				classroomID := rm.ClassroomID()
				if _, err := archiver.WriteKeyframe(classroomID, rm.Snapshot()); err != nil {
					logger.Printf("archive %s: %v", classroomID, err)
					continue
				}
				if err := archiver.Prune(classroomID, cfg.Archive.Keep); err != nil {
					logger.Printf("prune %s: %v", classroomID, err)
				}
			}
		}
	}
}
