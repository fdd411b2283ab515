package handler

import (
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"skypanel/model"
)

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.Users(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, users)
}

// GetUser looks a user up by email or username.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Type == "" || req.Value == "" {
		writeError(w, http.StatusBadRequest, "Type and value are required")
		return
	}

	users, err := h.store.Users(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve user")
		return
	}

	for _, u := range users {
		switch req.Type {
		case "email":
			if u.Email == req.Value {
				writeJSON(w, u)
				return
			}
		case "username":
			if u.Username == req.Value {
				writeJSON(w, u)
				return
			}
		default:
			writeError(w, http.StatusBadRequest, `Invalid search type. Use "email" or "username".`)
			return
		}
	}
	writeError(w, http.StatusBadRequest, "User not found")
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		UserID   string `json:"userId"`
		Admin    bool   `json:"admin"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username, email and password are required")
		return
	}

	users, err := h.store.Users(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}
	for _, u := range users {
		if u.Username == req.Username {
			writeError(w, http.StatusConflict, "User already exists")
			return
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	if req.UserID == "" {
		req.UserID = uuid.New().String()
	}

	user := model.User{
		UserID:   req.UserID,
		Username: req.Username,
		Email:    req.Email,
		Password: string(hash),
		AccessTo: []string{},
		Admin:    req.Admin,
	}
	if err := h.store.SaveUsers(r.Context(), append(users, user)); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	writeStatusJSON(w, http.StatusCreated, map[string]interface{}{
		"userId":   user.UserID,
		"email":    user.Email,
		"username": user.Username,
		"admin":    user.Admin,
	})
}
