package app

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// healthHandler reports process liveness.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// statusHandler serves a consistent snapshot of the most recent run.
func (a *App) statusHandler(w http.ResponseWriter, r *http.Request) {
	rc := a.currentRun.Load()
	if rc == nil {
		http.Error(w, "no run started yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rc.Snapshot()); err != nil {
		a.logger.Error("Failed to encode status snapshot.", "error", err)
	}
}

// startStatusServer initializes and runs the status HTTP server.
func (a *App) startStatusServer(port int) {
	a.logger.Debug("Configuring status server.")
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.HandleFunc("/status", a.statusHandler)

	addr := fmt.Sprintf(":%d", port)

	a.logger.Info("🩺 Status server starting", "address", fmt.Sprintf("http://localhost%s/status", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		a.logger.Error("Status server failed", "error", err)
	}
}
