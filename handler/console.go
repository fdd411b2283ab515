package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"skypanel/auth"
)

var consoleUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // the route requires a signed console token
	},
}

// nodeDownMessage is the single diagnostic frame sent to the client
// when the node-facing stream fails.
const nodeDownMessage = "\x1b[31;1mnode daemon appears to be down"

// ConsoleToken issues a short-lived token admitting the acting user
// to an instance's console websocket. Authorization and the
// suspension gate run here, once, at issue time.
func (h *Handler) ConsoleToken(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	userID := auth.ActingUserID(r)
	if userID == "" || !h.guard.IsAuthorized(r.Context(), userID, id) {
		writeError(w, http.StatusForbidden, "Unauthorized access to this instance.")
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

	token, err := auth.IssueConsoleToken(h.cfg.TokenSecret, userID, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue console token")
		return
	}
	writeJSON(w, map[string]string{"token": token})
}

// Console bridges the caller's websocket to the node's exec endpoint
// for the instance's container. Frames are forwarded opaquely in both
// directions; either side closing closes the other.
func (h *Handler) Console(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	claims, err := auth.ParseConsoleToken(h.cfg.TokenSecret, r.URL.Query().Get("token"))
	if err != nil || claims.InstanceID != id {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	inst, err := h.store.Instance(r.Context(), id)
	if err != nil || inst == nil {
		http.Error(w, "Invalid instance or ID", http.StatusBadRequest)
		return
	}

	// Authorization is checked once at tunnel-open time, not per frame.
	if !h.guard.IsAuthorized(r.Context(), claims.UserID, inst.ID) {
		http.Error(w, "Unauthorized access", http.StatusForbidden)
		return
	}

	client, err := consoleUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("console websocket upgrade: %v", err)
		return
	}
	defer client.Close()

	node, err := h.daemon.DialConsole(r.Context(), h.store.OwnerNode(r.Context(), inst), inst.ContainerID)
	if err != nil {
		log.Printf("console dial for %s: %v", inst.ID, err)
		client.WriteMessage(websocket.TextMessage, []byte(nodeDownMessage))
		return
	}
	defer node.Close()

	done := make(chan struct{}, 2)

	// node → client
	go func() {
		defer func() { done <- struct{}{} }()
		for {
			mt, data, err := node.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					client.WriteMessage(websocket.TextMessage, []byte(nodeDownMessage))
				}
				return
			}
			if err := client.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}()

	// client → node
	go func() {
		defer func() { done <- struct{}{} }()
		for {
			mt, data, err := client.ReadMessage()
			if err != nil {
				return
			}
			if err := node.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}()

	// Whichever direction ends first tears down both sides; the
	// deferred closes unblock the surviving reader.
	<-done
}
