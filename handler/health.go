package handler

import (
	"net/http"

	"skypanel/model"
	"skypanel/store"
)

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	services := map[string]string{}

	if db, ok := h.store.KV().(*store.DB); ok {
		if err := db.Healthy(r.Context()); err != nil {
			services["store"] = "down"
		} else {
			services["store"] = "up"
		}
	} else {
		services["store"] = "up"
	}

	status := "ok"
	for _, v := range services {
		if v == "down" {
			status = "degraded"
			break
		}
	}

	writeJSON(w, map[string]interface{}{
		"status":   status,
		"services": services,
	})
}

func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.store.Images(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve images")
		return
	}
	if images == nil {
		images = []model.Image{}
	}
	writeJSON(w, images)
}

func (h *Handler) PanelName(w http.ResponseWriter, r *http.Request) {
	name, err := h.store.PanelName(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve name")
		return
	}
	writeJSON(w, map[string]string{"name": name})
}
