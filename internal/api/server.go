package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/fx"

	"github.com/jdholdren/feedstore/internal/feeds"
	"github.com/jdholdren/feedstore/internal/serverutil"
)

type (
	// Server exposes the feed catalogue to the host UI over JSON.
	Server struct {
		*http.Server

		repo feeds.Repository
	}

	ServerConfig struct {
		Port       int
		CorsOrigin string
	}

	Params struct {
		fx.In

		Config ServerConfig
		Repo   feeds.Repository
	}
)

// NewServer builds the server and ties its listening to the fx lifecycle.
func NewServer(lc fx.Lifecycle, p Params) *Server {
	srvr := newServer(p.Config, p.Repo)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srvr.Addr)
			if err != nil {
				return fmt.Errorf("error listening: %w", err)
			}
			go func() {
				if err := srvr.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.Error("error serving", "error", err)
				}
			}()

			slog.Info("started feedstore server", "port", p.Config.Port)

			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srvr.Shutdown(ctx)
		},
	})

	return srvr
}

func newServer(config ServerConfig, repo feeds.Repository) *Server {
	r := serverutil.ErrRouter{Router: mux.NewRouter()}

	srvr := Server{
		repo: repo,
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			Handler: handlers.CORS(
				handlers.AllowedOrigins([]string{config.CorsOrigin}),
				handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
				handlers.AllowedHeaders([]string{"content-type"}),
				handlers.ExposedHeaders([]string{serverutil.RequestIDHeader}),
			)(r),
		},
	}

	r.Use(serverutil.RequestIDMiddleware, serverutil.AccessLogMiddleware) // Log everything

	r.HandleFuncE("/api/feeds", srvr.getFeeds).Methods(http.MethodGet)
	r.HandleFuncE("/api/feeds", srvr.postFeed).Methods(http.MethodPost)
	r.HandleFuncE("/api/feeds/{feedID}", srvr.getFeed).Methods(http.MethodGet)
	r.HandleFuncE("/api/feeds/{feedID}", srvr.patchFeed).Methods(http.MethodPatch)
	r.HandleFuncE("/api/feeds/{feedID}", srvr.deleteFeed).Methods(http.MethodDelete)

	slog.Debug("configured feedstore server", "port", config.Port)

	return &srvr
}
