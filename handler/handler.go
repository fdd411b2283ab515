package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"skypanel/auth"
	"skypanel/config"
	"skypanel/daemon"
	"skypanel/deploy"
	"skypanel/probe"
	"skypanel/reconcile"
	"skypanel/store"
)

type Handler struct {
	store      *store.Store
	daemon     *daemon.Client
	guard      *auth.Guard
	deploy     *deploy.Orchestrator
	reconciler *reconcile.Reconciler
	probe      *probe.Probe
	cfg        *config.Config
}

func New(s *store.Store, d *daemon.Client, g *auth.Guard, o *deploy.Orchestrator, r *reconcile.Reconciler, p *probe.Probe, cfg *config.Config) *Handler {
	return &Handler{
		store:      s,
		daemon:     d,
		guard:      g,
		deploy:     o,
		reconciler: r,
		probe:      p,
		cfg:        cfg,
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeStatusJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeStatusJSON(w, code, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}

// authorizeInstance runs the authorization guard for the acting user
// named in the request headers. No acting user means denial.
func (h *Handler) authorizeInstance(w http.ResponseWriter, r *http.Request, instanceID string) bool {
	userID := auth.ActingUserID(r)
	if userID == "" || !h.guard.IsAuthorized(r.Context(), userID, instanceID) {
		writeError(w, http.StatusForbidden, "Unauthorized access to this instance.")
		return false
	}
	return true
}

// nodeError maps daemon call failures onto responses, surfacing the
// upstream body for rejections.
func nodeError(w http.ResponseWriter, err error) {
	var rejected *daemon.RejectedError
	if errors.As(err, &rejected) {
		writeStatusJSON(w, rejected.Status, map[string]string{
			"error":   "node rejected the request",
			"details": string(rejected.Body),
		})
		return
	}
	writeError(w, http.StatusInternalServerError, "Failed to communicate with node.")
}
