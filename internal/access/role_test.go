package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solterra/lotmap/internal/logger"
)

// stubBlobStore returns a fixed raw user blob.
type stubBlobStore struct {
	raw string
	err error
}

func (s stubBlobStore) RawUser(ctx context.Context) (string, error) {
	return s.raw, s.err
}

// countingRefresher records Refresh calls.
type countingRefresher struct {
	calls int
	err   error
}

func (r *countingRefresher) Refresh(ctx context.Context) error {
	r.calls++
	return r.err
}

func newResolver(blobs BlobStore) *RoleResolver {
	return NewRoleResolver(blobs, logger.New("test"))
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"guest", "owner", "admin"} {
		role, err := ParseRole(valid)
		require.NoError(t, err)
		assert.Equal(t, Role(valid), role)
	}

	_, err := ParseRole("superuser")
	assert.Error(t, err)
}

func TestResolve_Unauthenticated(t *testing.T) {
	r := newResolver(nil)
	role := r.Resolve(context.Background(), SessionSnapshot{Authenticated: false})
	assert.Equal(t, RoleGuest, role)
}

func TestResolve_ClaimsFromSessionUser(t *testing.T) {
	r := newResolver(nil)

	owner := r.Resolve(context.Background(), SessionSnapshot{
		Authenticated: true,
		User:          &SessionUser{ID: "c1", Name: "Maria"},
	})
	assert.Equal(t, RoleOwner, owner)

	admin := r.Resolve(context.Background(), SessionSnapshot{
		Authenticated: true,
		User:          &SessionUser{ID: "a1", IsAdmin: true},
	})
	assert.Equal(t, RoleAdmin, admin)
}

func TestResolve_RecoversFromPersistedBlob(t *testing.T) {
	r := newResolver(stubBlobStore{raw: `{"id":"c7","name":"Jorge","isAdmin":true}`})

	// Authenticated flag set but the user object is missing: the known
	// inconsistency between the two session state sources.
	role, user := r.ResolveUser(context.Background(), SessionSnapshot{Authenticated: true})

	assert.Equal(t, RoleAdmin, role)
	require.NotNil(t, user)
	assert.Equal(t, "c7", user.ID)
}

func TestResolve_DegradedBlobsYieldGuest(t *testing.T) {
	tests := []struct {
		name  string
		store BlobStore
	}{
		{"nil store", nil},
		{"empty blob", stubBlobStore{raw: ""}},
		{"literal undefined", stubBlobStore{raw: "undefined"}},
		{"literal null", stubBlobStore{raw: "null"}},
		{"unparsable blob", stubBlobStore{raw: "{broken"}},
		{"store error", stubBlobStore{err: errors.New("storage unavailable")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newResolver(tt.store)
			role := r.Resolve(context.Background(), SessionSnapshot{Authenticated: true})
			assert.Equal(t, RoleGuest, role)
		})
	}
}

func TestResolve_IsIdempotent(t *testing.T) {
	r := newResolver(stubBlobStore{raw: `{"id":"c7"}`})
	snap := SessionSnapshot{Authenticated: true}

	first := r.Resolve(context.Background(), snap)
	second := r.Resolve(context.Background(), snap)
	assert.Equal(t, first, second)
}

func TestResync_IsExplicit(t *testing.T) {
	r := newResolver(nil)
	refresher := &countingRefresher{}

	// Resolving never touches the session.
	r.Resolve(context.Background(), SessionSnapshot{Authenticated: true})
	assert.Equal(t, 0, refresher.calls)

	require.NoError(t, r.Resync(context.Background(), refresher))
	assert.Equal(t, 1, refresher.calls)
}

func TestResync_PropagatesFailure(t *testing.T) {
	r := newResolver(nil)
	refresher := &countingRefresher{err: errors.New("session backend down")}

	err := r.Resync(context.Background(), refresher)
	assert.Error(t, err)
}
