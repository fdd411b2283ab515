package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"skypanel/auth"
	"skypanel/deploy"
	"skypanel/model"
)

func (h *Handler) ListInstances(w http.ResponseWriter, r *http.Request) {
	instances, err := h.store.Instances(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve instances")
		return
	}
	if instances == nil {
		instances = []model.Instance{}
	}
	writeJSON(w, instances)
}

func (h *Handler) GetInstance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(r, &req); err != nil || req.ID == "" {
		writeError(w, http.StatusBadRequest, `Parameter "id" is required`)
		return
	}

	inst, err := h.store.Instance(r.Context(), req.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve instance")
		return
	}
	if inst == nil {
		writeError(w, http.StatusBadRequest, "Instance not found")
		return
	}
	writeJSON(w, inst)
}

func (h *Handler) GetUserInstances(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := decodeJSON(r, &req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, `Parameter "userId" is required`)
		return
	}

	user, err := h.store.UserByID(r.Context(), req.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve user instances")
		return
	}
	if user == nil {
		writeError(w, http.StatusBadRequest, "User not found")
		return
	}

	instances, err := h.store.UserInstances(r.Context(), req.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve user instances")
		return
	}
	if instances == nil {
		instances = []model.Instance{}
	}
	writeJSON(w, instances)
}

func (h *Handler) Deploy(w http.ResponseWriter, r *http.Request) {
	var req deploy.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	inst, err := h.deploy.Deploy(r.Context(), req)
	if err != nil {
		var invalid *deploy.ValidationError
		switch {
		case errors.As(err, &invalid):
			writeError(w, http.StatusBadRequest, "Missing parameters")
		case errors.Is(err, deploy.ErrNodeNotFound):
			writeError(w, http.StatusBadRequest, "Invalid node")
		default:
			log.Printf("deploy: %v", err)
			nodeError(w, err)
		}
		return
	}

	writeStatusJSON(w, http.StatusCreated, map[string]interface{}{
		"message":     "Container created successfully and added to user's servers",
		"containerId": inst.ContainerID,
		"volumeId":    inst.VolumeID,
		"state":       inst.State,
	})
}

func (h *Handler) DeleteInstance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(r, &req); err != nil || req.ID == "" {
		writeError(w, http.StatusBadRequest, "Missing ID parameter")
		return
	}

	if err := h.deploy.Delete(r.Context(), req.ID); err != nil {
		if errors.Is(err, deploy.ErrInstanceNotFound) {
			writeError(w, http.StatusBadRequest, "Instance not found")
			return
		}
		log.Printf("delete instance %s: %v", req.ID, err)
		nodeError(w, err)
		return
	}
	writeStatusJSON(w, http.StatusCreated, map[string]string{
		"message": "The instance has successfully been deleted.",
	})
}

func (h *Handler) Suspend(w http.ResponseWriter, r *http.Request) {
	h.setSuspended(w, r, true)
}

func (h *Handler) Unsuspend(w http.ResponseWriter, r *http.Request) {
	h.setSuspended(w, r, false)
}

func (h *Handler) setSuspended(w http.ResponseWriter, r *http.Request, suspended bool) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusUnprocessableEntity, "Missing id")
		return
	}

	if err := h.guard.SetSuspended(r.Context(), id, suspended); err != nil {
		writeError(w, http.StatusNotFound, "Instance Not Found")
		return
	}

	verb := "Suspended"
	if !suspended {
		verb = "Unsuspended"
	}
	writeJSON(w, map[string]string{
		"success": "Server " + id + " Has Been " + verb,
	})
}

func (h *Handler) Power(w http.ResponseWriter, r *http.Request) {
	action := model.PowerAction(chi.URLParam(r, "power"))
	id := chi.URLParam(r, "id")

	if !action.Valid() {
		writeError(w, http.StatusBadRequest, `Invalid action. Valid actions are "start", "stop", and "restart".`)
		return
	}

	if !h.authorizeInstance(w, r, id) {
		return
	}

	inst, err := h.store.Instance(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve instance")
		return
	}
	if inst == nil {
		writeError(w, http.StatusNotFound, "Instance not found")
		return
	}

	if err := h.guard.EnsureActive(r.Context(), inst); err != nil {
		if errors.Is(err, auth.ErrSuspended) {
			writeError(w, http.StatusForbidden, "Instance suspended")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.daemon.Power(r.Context(), h.store.OwnerNode(r.Context(), inst), inst.ID, action); err != nil {
		log.Printf("power %s on %s: %v", action, inst.ID, err)
		nodeError(w, err)
		return
	}
	writeJSON(w, map[string]string{
		"message": "Instance " + string(action) + "ed successfully.",
	})
}

// InstanceState returns the mirrored state after running one
// reconciliation pass against the owning node.
func (h *Handler) InstanceState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !h.authorizeInstance(w, r, id) {
		return
	}

	inst, err := h.reconciler.Reconcile(r.Context(), id)
	if err != nil {
		// Keep serving the stale mirror when the node is unreachable.
		log.Printf("reconcile %s: %v", id, err)
		inst, err = h.store.Instance(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to retrieve instance")
			return
		}
	}
	if inst == nil {
		writeError(w, http.StatusNotFound, "Instance not found")
		return
	}
	writeJSON(w, map[string]model.InstanceState{"state": inst.State})
}
