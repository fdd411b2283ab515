package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"skypanel/model"
)

func (h *Handler) ListNodes(w http.ResponseWriter, r *http.Request) {
	ids, err := h.store.NodeIDs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve nodes")
		return
	}

	nodes := []model.Node{}
	for _, id := range ids {
		node, err := h.store.Node(r.Context(), id)
		if err != nil || node == nil {
			continue
		}
		nodes = append(nodes, *node)
	}
	writeJSON(w, nodes)
}

func (h *Handler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		Tags      string `json:"tags"`
		RAM       string `json:"ram"`
		Disk      string `json:"disk"`
		Processor string `json:"processor"`
		Address   string `json:"address"`
		Port      string `json:"port"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" || req.Tags == "" || req.RAM == "" || req.Disk == "" || req.Processor == "" || req.Address == "" || req.Port == "" {
		writeError(w, http.StatusBadRequest, "Missing parameters")
		return
	}

	node := &model.Node{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Tags:         req.Tags,
		RAM:          req.RAM,
		Disk:         req.Disk,
		Processor:    req.Processor,
		Address:      req.Address,
		Port:         req.Port,
		ConfigureKey: uuid.New().String(),
		Status:       model.NodeUnconfigured,
	}

	if err := h.store.SaveNode(r.Context(), node); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save node")
		return
	}

	// First probe runs immediately; with no apiKey yet it lands
	// Offline, which is still a truthful record.
	node = h.probe.Check(r.Context(), node)

	ids, err := h.store.NodeIDs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save node")
		return
	}
	if err := h.store.SaveNodeIDs(r.Context(), append(ids, node.ID)); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save node")
		return
	}

	writeStatusJSON(w, http.StatusCreated, node)
}

func (h *Handler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Invalid node")
		return
	}

	if err := h.store.DeleteNode(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete node")
		return
	}
	writeStatusJSON(w, http.StatusCreated, map[string]string{
		"message": "The node has successfully been deleted.",
	})
}

// CheckNode runs an on-demand health probe against one node.
func (h *Handler) CheckNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	node, err := h.store.Node(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve node")
		return
	}
	if node == nil {
		writeError(w, http.StatusNotFound, "Node not found")
		return
	}

	writeJSON(w, h.probe.Check(r.Context(), node))
}

// ConfigureCommand rotates a node's configure key and returns the
// command an operator runs on the daemon host to pair it.
func (h *Handler) ConfigureCommand(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Missing id")
		return
	}

	node, err := h.store.Node(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if node == nil {
		writeError(w, http.StatusNotFound, "Node not found")
		return
	}

	node.ConfigureKey = uuid.New().String()
	if err := h.store.SaveNode(r.Context(), node); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	panelURL := scheme + "://" + r.Host

	writeJSON(w, map[string]string{
		"nodeId":           id,
		"configureCommand": "npm run configure -- --panel " + panelURL + " --key " + node.ConfigureKey,
	})
}
