package api

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
)

type Server struct {
	HTTP *http.Server
	Log  *slog.Logger
}

// NewServer agrega access log y CORS de sólo lectura sobre el router.
func NewServer(addr string, log *slog.Logger, router http.Handler) *Server {
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
	)
	hs := &http.Server{
		Addr:              addr,
		Handler:           handlers.LoggingHandler(os.Stdout, cors(router)),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &Server{HTTP: hs, Log: log}
}

func (s *Server) Start() error {
	s.Log.Info("http server starting", "addr", s.HTTP.Addr)
	return s.HTTP.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.Log.Info("http server stopping")
	return s.HTTP.Shutdown(ctx)
}
