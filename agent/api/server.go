package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/crm-lead-qualifier/agent/contract"
	logx "github.com/tanpawarit/crm-lead-qualifier/pkg/logger"
)

// ChatService runs one chat turn for a session.
type ChatService interface {
	HandleMessage(ctx context.Context, sessionID string, text string) (contractx.ChatReply, error)
}

const shutdownTimeout = 10 * time.Second

type Server struct {
	addr string
	chat ChatService
	log  zerolog.Logger

	httpServer *http.Server
	ln         net.Listener
}

func New(addr string, chat ChatService) (*Server, error) {
	if chat == nil {
		return nil, errors.New("chat service is required")
	}
	if addr == "" {
		addr = ":8000"
	}
	return &Server{
		addr: addr,
		chat: chat,
		log:  logx.Component("http"),
	}, nil
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return withMiddleware(mux, s.log)
}

// Start listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.ln = ln

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Warn().Err(err).Msg("http shutdown")
		}
	}()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("http server ready")
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the bound address once Start has begun listening.
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}
