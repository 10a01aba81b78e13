package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Handler serves /ping, /health and /status for one service.
func Handler(status *Status) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", handlePing)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		handleHealth(w, r, status)
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		handleStatus(w, r, status)
	})
	return mux
}

// Run starts the server in the background and shuts it down when ctx is done.
func Run(ctx context.Context, addr string, service string, status *Status, readHeaderTimeout time.Duration) {
	if readHeaderTimeout <= 0 {
		readHeaderTimeout = 5 * time.Second
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(status),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		slog.Info("Health server listening", "service", service, "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Health server error", "service", service, "error", err)
		}
	}()
}

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("pong\n"))
}

// handleHealth is 503 once the last cycle is older than the stale limit.
func handleHealth(w http.ResponseWriter, r *http.Request, status *Status) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if !status.Healthy(time.Now()) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("stale\n"))
		return
	}
	_, _ = w.Write([]byte("ok\n"))
}

func handleStatus(w http.ResponseWriter, r *http.Request, status *Status) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(status.Snapshot()); err != nil {
		http.Error(w, fmt.Sprintf("failed to encode status: %v", err), http.StatusInternalServerError)
		return
	}
}
