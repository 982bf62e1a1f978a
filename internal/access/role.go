package access

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/solterra/lotmap/internal/logger"
)

// Role is the viewer's access class. Exactly one role applies per session.
// Role is derived, never stored as ground truth: it is recomputed from the
// session snapshot on every view.
type Role string

const (
	RoleGuest Role = "guest"
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
)

// ParseRole validates a raw role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleGuest, RoleOwner, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("invalid role %q", s)
}

// SessionUser is the claims object read off the session.
type SessionUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Document string `json:"document"`
	IsAdmin  bool   `json:"isAdmin"`
}

// SessionSnapshot bundles the two independently-lifecycled session state
// sources. They can disagree: Authenticated may be true while User is nil.
type SessionSnapshot struct {
	Authenticated bool
	User          *SessionUser
}

// Viewer is the identity used for owner matching and redaction decisions.
type Viewer struct {
	ID       string
	Name     string
	Document string
}

// ViewerFrom builds a Viewer from session user claims.
func ViewerFrom(u *SessionUser) Viewer {
	if u == nil {
		return Viewer{}
	}
	return Viewer{ID: u.ID, Name: u.Name, Document: u.Document}
}

// BlobStore reads the raw persisted user blob used as a recovery source
// when the session flags and the user object disagree.
type BlobStore interface {
	RawUser(ctx context.Context) (string, error)
}

// SessionRefresher re-synchronizes session state from its backing store.
// Refreshing is an explicit action, separate from role resolution.
type SessionRefresher interface {
	Refresh(ctx context.Context) error
}

// RoleResolver derives the viewer's role from a session snapshot. Resolve
// is idempotent and side-effect-free: it never mutates session state.
type RoleResolver struct {
	blobs BlobStore
	log   *logger.Logger
}

// NewRoleResolver creates a RoleResolver. blobs may be nil, in which case
// the recovery path degrades straight to guest.
func NewRoleResolver(blobs BlobStore, log *logger.Logger) *RoleResolver {
	return &RoleResolver{blobs: blobs, log: log}
}

// Resolve determines the role for the given snapshot.
//
// Primary path: claims off the session user. Recovery path: when the
// session reports authenticated but the user object is absent, fall back
// to the persisted raw user blob. A missing, literal-"undefined", or
// unparsable blob yields guest rather than an error.
func (r *RoleResolver) Resolve(ctx context.Context, snap SessionSnapshot) Role {
	if !snap.Authenticated {
		return RoleGuest
	}

	if snap.User != nil {
		return roleFromClaims(snap.User)
	}

	// Session says authenticated but the user object is gone. Known
	// inconsistency between the two state sources; try the persisted blob.
	user, ok := r.recoverUser(ctx)
	if !ok {
		return RoleGuest
	}
	return roleFromClaims(user)
}

// ResolveUser is Resolve plus the resolved user claims, for callers that
// also need the viewer identity. The user is nil for guests.
func (r *RoleResolver) ResolveUser(ctx context.Context, snap SessionSnapshot) (Role, *SessionUser) {
	if !snap.Authenticated {
		return RoleGuest, nil
	}
	if snap.User != nil {
		return roleFromClaims(snap.User), snap.User
	}
	user, ok := r.recoverUser(ctx)
	if !ok {
		return RoleGuest, nil
	}
	return roleFromClaims(user), user
}

// Resync explicitly refreshes session state. This is the only mutation
// path; Resolve itself never touches the session.
func (r *RoleResolver) Resync(ctx context.Context, sessions SessionRefresher) error {
	if sessions == nil {
		return nil
	}
	if err := sessions.Refresh(ctx); err != nil {
		if r.log != nil {
			r.log.Warn("Session resync failed, viewer remains guest", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return fmt.Errorf("session resync: %w", err)
	}
	return nil
}

func (r *RoleResolver) recoverUser(ctx context.Context) (*SessionUser, bool) {
	if r.blobs == nil {
		return nil, false
	}

	raw, err := r.blobs.RawUser(ctx)
	if err != nil {
		if r.log != nil {
			r.log.Warn("Failed to read persisted user blob, treating viewer as guest", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil, false
	}

	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "undefined" || raw == "null" {
		return nil, false
	}

	var user SessionUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		if r.log != nil {
			r.log.Warn("Persisted user blob is unparsable, treating viewer as guest", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil, false
	}

	return &user, true
}

func roleFromClaims(u *SessionUser) Role {
	if u.IsAdmin {
		return RoleAdmin
	}
	return RoleOwner
}
