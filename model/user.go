package model

// User is an inbound caller identity. AccessTo grants non-owning
// access to instances by id; ownership is tracked separately through
// the per-user instance list.
type User struct {
	UserID   string   `json:"userId"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password"` // bcrypt hash
	AccessTo []string `json:"accessTo"`
	Admin    bool     `json:"admin"`
	Verified bool     `json:"verified,omitempty"`
}

// APIKey authenticates an inbound API caller. Distinct from the
// outbound per-node daemon credential.
type APIKey struct {
	Key       string `json:"key"`
	CreatedBy string `json:"createdBy,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}
