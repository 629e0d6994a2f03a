package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hostpulse/internal/agent/version"
	"hostpulse/internal/system"
)

const maxHistoryRows = 3600

func (a *Agent) runAPIServer(ctx context.Context) error {
	addr := strings.TrimSpace(a.cfg.ListenAddr)
	if addr == "" {
		return fmt.Errorf("empty api listen address")
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen api endpoint %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	a.logger.Info("api endpoint listening", "addr", ln.Addr().String())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve api endpoint %s: %w", addr, err)
	}
	return nil
}

func (a *Agent) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", a.handleHealth)
	mux.HandleFunc("GET /api/version", a.handleVersion)
	mux.HandleFunc("GET /api/snapshot", a.handleSnapshot)
	mux.HandleFunc("GET /api/host", a.handleHost)
	mux.HandleFunc("GET /api/history", a.handleHistory)
	mux.HandleFunc("GET /api/cleanup", a.handleCleanup)
	return mux
}

func (a *Agent) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := a.health.Snapshot()
	code := http.StatusOK
	if a.health.Stale(time.Now(), a.staleAfter()) {
		status["status"] = "stale"
		code = http.StatusServiceUnavailable
	} else {
		status["status"] = "ok"
	}
	writeJSON(w, code, status)
}

func (a *Agent) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, version.Get(a.cfg))
}

// handleSnapshot serves the scheduler's latest sample, taking one on demand
// before the first tick.
func (a *Agent) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, ok := a.sampler.Latest()
	if !ok {
		var err error
		snap, err = a.sampler.Collect(r.Context())
		if err != nil {
			a.logger.Warn("on-demand snapshot partial", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, snap)
}

func (a *Agent) handleHost(w http.ResponseWriter, r *http.Request) {
	info, err := a.host.Collect(r.Context())
	if err != nil {
		a.logger.Warn("host identity partial", "error", err)
	}
	writeJSON(w, http.StatusOK, info)
}

func (a *Agent) handleHistory(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}
	since := time.Now().Add(-time.Hour)
	if v := r.URL.Query().Get("since"); v != "" {
		unix, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be a unix timestamp")
			return
		}
		since = time.Unix(unix, 0)
	}
	limit := maxHistoryRows
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryRows)
	}

	snaps, err := a.history.Since(r.Context(), since, limit)
	if err != nil {
		a.logger.Error("history query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "history query failed")
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

// handleCleanup only reports; removal stays a CLI action.
func (a *Agent) handleCleanup(w http.ResponseWriter, _ *http.Request) {
	cats, err := system.ScanCleanup(system.HomeDir())
	if err != nil {
		a.logger.Warn("cleanup scan partial", "error", err)
	}
	writeJSON(w, http.StatusOK, system.NewCleanupReport(time.Now().UTC().Unix(), cats))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
