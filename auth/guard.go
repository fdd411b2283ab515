// Package auth gates inbound callers: API-key validation for the
// HTTP surface, per-instance authorization, the suspension gate, and
// short-lived console tokens.
package auth

import (
	"context"
	"errors"
	"log"

	"skypanel/store"
)

// ErrSuspended short-circuits any node-directed operation on a
// suspended instance.
var ErrSuspended = errors.New("instance suspended")

// Guard decides whether a caller may act on an instance and enforces
// the suspension flag. Every decision is evaluated fresh against the
// store; denial is the answer to any lookup failure.
type Guard struct {
	store *store.Store
}

func NewGuard(s *store.Store) *Guard {
	return &Guard{store: s}
}

// IsAuthorized reports whether userID may act on instanceID. Admins
// may act on anything; everyone else needs the instance in their
// accessTo grants or their own instance list.
func (g *Guard) IsAuthorized(ctx context.Context, userID, instanceID string) bool {
	user, err := g.store.UserByID(ctx, userID)
	if err != nil {
		log.Printf("authorization lookup for user %s: %v", userID, err)
		return false
	}
	if user == nil {
		log.Printf("authorization denied: user %s not found", userID)
		return false
	}
	if user.Admin {
		return true
	}

	for _, granted := range user.AccessTo {
		if granted == instanceID {
			return true
		}
	}

	owned, err := g.store.UserInstances(ctx, userID)
	if err != nil {
		log.Printf("authorization lookup for user %s instances: %v", userID, err)
		return false
	}
	for _, inst := range owned {
		if inst.ID == instanceID {
			return true
		}
	}

	log.Printf("authorization denied: user %s has no access to instance %s", userID, instanceID)
	return false
}
