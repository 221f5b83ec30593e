package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nmt-project/nmt/internal/auth"
	"github.com/nmt-project/nmt/internal/config"
	"github.com/nmt-project/nmt/internal/reporter"
	"github.com/nmt-project/nmt/internal/tracker"
	"github.com/nmt-project/nmt/pkg/log"
)

// server owns the process-wide tracker, its background scheduler and
// the HTTP listener that exposes reports for it.
type server struct {
	keys      *config.Keys
	tr        *tracker.Tracker
	scheduler *tracker.Scheduler
	http      *http.Server
}

func newServer(keys *config.Keys, jwtSecret string) *server {
	metrics := tracker.NewMetrics(prometheus.DefaultRegisterer)
	tr := tracker.New(keys.Detailed, tracker.WithMetrics(metrics))

	sched, err := tracker.NewScheduler(tr, keys.SummaryInterval.Get(), keys.SelfCheckInterval.Get())
	if err != nil {
		log.Fatalf("building scheduler failed: %s", err.Error())
	}

	var verifier *auth.Verifier
	if keys.RequireAuth {
		verifier = auth.NewVerifier([]byte(jwtSecret))
	}

	router := reporter.New(tr).Router(verifier)
	wrapped := handlers.RecoveryHandler()(handlers.CombinedLoggingHandler(os.Stdout, router))

	return &server{
		keys:      keys,
		tr:        tr,
		scheduler: sched,
		http: &http.Server{
			Addr:    keys.Addr,
			Handler: wrapped,
		},
	}
}

// Run starts the scheduler and the HTTP listener, blocking until a
// termination signal arrives, then shuts both down gracefully.
func (s *server) Run() error {
	s.scheduler.Start()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("nmtd: listening on %s", s.keys.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Infof("nmtd: shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.scheduler.Stop(); err != nil {
		log.Warnf("nmtd: scheduler shutdown: %s", err.Error())
	}
	return s.http.Shutdown(ctx)
}
