package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/speedwagon-io/hwmon/internal/config"
	"github.com/speedwagon-io/hwmon/internal/display"
	"github.com/speedwagon-io/hwmon/internal/lib/logger/sl"
	"github.com/speedwagon-io/hwmon/internal/store"
)

// Server is the delivery front end: a plain and an optional secure listener
// sharing one router that serves the live snapshot, the configuration
// protocol, and the static kiosk page.
type Server struct {
	log     *slog.Logger
	cfg     config.ListenConfig
	store   *store.Store
	display *display.Manager

	checkers []Checker

	plain    *http.Server
	secure   *http.Server
	plainLn  net.Listener
	secureLn net.Listener
}

func New(log *slog.Logger, cfg config.ListenConfig, st *store.Store, disp *display.Manager) *Server {
	return &Server{
		log:     log,
		cfg:     cfg,
		store:   st,
		display: disp,
	}
}

// AddChecker registers a component health check exposed at /api/health.
// Must be called before Start.
func (s *Server) AddChecker(c Checker) {
	s.checkers = append(s.checkers, c)
}

// Start binds both listeners and begins serving. Bind and certificate errors
// on the plain listener are always fatal; on the secure listener they are
// fatal under tls.mode "require" and degrade to plain-only under "prefer".
func (s *Server) Start() error {
	handler := s.routes()

	plainAddr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	ln, err := net.Listen("tcp", plainAddr)
	if err != nil {
		return fmt.Errorf("failed to bind plain listener on %s: %w", plainAddr, err)
	}
	s.plainLn = ln
	s.plain = newHTTPServer(handler)

	if s.cfg.TLS.Enabled() {
		if err := s.startSecure(handler); err != nil {
			if !s.cfg.TLS.BestEffort() {
				s.plainLn.Close()
				return err
			}
			s.log.Warn("secure listener unavailable, serving plain only", sl.Err(err))
		}
	}

	if s.cfg.OpenFirewall {
		s.openFirewall()
	}

	s.log.Info("serving", slog.String("address", plainAddr))
	go s.serve(s.plain, s.plainLn, false)

	if s.secure != nil {
		s.log.Info("serving TLS", slog.String("address", s.secureLn.Addr().String()))
		go s.serve(s.secure, s.secureLn, true)
	}

	return nil
}

func (s *Server) startSecure(handler http.Handler) error {
	cert, err := tls.LoadX509KeyPair(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
	if err != nil {
		return fmt.Errorf("failed to load certificate material: %w", err)
	}

	secureAddr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.TLS.Port)
	ln, err := net.Listen("tcp", secureAddr)
	if err != nil {
		return fmt.Errorf("failed to bind secure listener on %s: %w", secureAddr, err)
	}

	s.secureLn = ln
	s.secure = newHTTPServer(handler)
	s.secure.TLSConfig = &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}

	return nil
}

func (s *Server) serve(srv *http.Server, ln net.Listener, secure bool) {
	var err error
	if secure {
		err = srv.ServeTLS(ln, "", "")
	} else {
		err = srv.Serve(ln)
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Error("listener error", slog.Bool("tls", secure), sl.Err(err))
	}
}

// Stop drains both listeners: new connections are refused, in-flight requests
// finish, then the ports are released.
func (s *Server) Stop(ctx context.Context) error {
	var errs []error
	if s.plain != nil {
		if err := s.plain.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("plain listener shutdown: %w", err))
		}
	}
	if s.secure != nil {
		if err := s.secure.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("secure listener shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

func newHTTPServer(handler http.Handler) *http.Server {
	return &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
