package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"skypanel/auth"
	"skypanel/model"
)

// gatedInstance loads an instance and runs the guard and suspension
// gate shared by every file and plugin operation. Returns nil after
// writing the response when the request may not proceed.
func (h *Handler) gatedInstance(w http.ResponseWriter, r *http.Request) *model.Instance {
	id := chi.URLParam(r, "id")

	if !h.authorizeInstance(w, r, id) {
		return nil
	}

	inst, err := h.store.Instance(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve instance")
		return nil
	}
	if inst == nil {
		writeError(w, http.StatusNotFound, "Instance not found")
		return nil
	}
	if inst.VolumeID == "" {
		writeError(w, http.StatusInternalServerError, "Invalid instance node configuration")
		return nil
	}

	if err := h.guard.EnsureActive(r.Context(), inst); err != nil {
		if errors.Is(err, auth.ErrSuspended) {
			writeError(w, http.StatusForbidden, "Instance suspended")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return nil
	}
	return inst
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	inst := h.gatedInstance(w, r)
	if inst == nil {
		return
	}

	files, err := h.daemon.ListFiles(r.Context(), h.store.OwnerNode(r.Context(), inst), inst.VolumeID, r.URL.Query().Get("path"))
	if err != nil {
		log.Printf("list files for %s: %v", inst.ID, err)
		nodeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"files": files})
}

func (h *Handler) EditFile(w http.ResponseWriter, r *http.Request) {
	inst := h.gatedInstance(w, r)
	if inst == nil {
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filename := chi.URLParam(r, "filename")
	if err := h.daemon.EditFile(r.Context(), h.store.OwnerNode(r.Context(), inst), inst.VolumeID, filename, req.Content, r.URL.Query().Get("path")); err != nil {
		log.Printf("edit file %s on %s: %v", filename, inst.ID, err)
		nodeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"message": "File saved"})
}

func (h *Handler) UnzipFile(w http.ResponseWriter, r *http.Request) {
	inst := h.gatedInstance(w, r)
	if inst == nil {
		return
	}

	file := chi.URLParam(r, "file")
	if err := h.daemon.UnzipFile(r.Context(), h.store.OwnerNode(r.Context(), inst), inst.VolumeID, file, r.URL.Query().Get("path")); err != nil {
		log.Printf("unzip %s on %s: %v", file, inst.ID, err)
		nodeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"message": "Archive extracted"})
}

func (h *Handler) InstallPlugin(w http.ResponseWriter, r *http.Request) {
	inst := h.gatedInstance(w, r)
	if inst == nil {
		return
	}

	var req struct {
		DownloadURL string `json:"downloadUrl"`
		Name        string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil || req.DownloadURL == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "downloadUrl and name are required")
		return
	}

	if err := h.daemon.InstallPlugin(r.Context(), h.store.OwnerNode(r.Context(), inst), inst.VolumeID, req.DownloadURL, req.Name); err != nil {
		log.Printf("install plugin %s on %s: %v", req.Name, inst.ID, err)
		nodeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"message": "Plugin installed"})
}
