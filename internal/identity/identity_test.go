package identity

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func TestParseBearer(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{
		"sub":   "8f14e45f-ea1a-4bbf-8c4f-2f60ddf25c5a",
		"email": "jo@example.com",
		"name":  "Jo Doe",
		"organizations": map[string]any{
			"a3bb1896-6f26-4b8f-b774-2e4e7d0a5f6c": map[string]any{
				"name":  "acme-corp",
				"roles": []any{"admin", "billing"},
			},
		},
	})

	claims, err := ParseBearer(raw)
	require.NoError(t, err)
	assert.Equal(t, "8f14e45f-ea1a-4bbf-8c4f-2f60ddf25c5a", claims.Subject)
	assert.Equal(t, "jo@example.com", claims.Email)
	assert.Equal(t, "Jo Doe", claims.Name)
	assert.True(t, claims.IsMember("a3bb1896-6f26-4b8f-b774-2e4e7d0a5f6c"))
	assert.Equal(t, []string{"admin", "billing"}, claims.OrgRoles("a3bb1896-6f26-4b8f-b774-2e4e7d0a5f6c"))
}

func TestParseBearerGarbage(t *testing.T) {
	_, err := ParseBearer("not-a-token")
	assert.Error(t, err)
}

func TestOrgRolesMalformedShapes(t *testing.T) {
	orgID := "a3bb1896-6f26-4b8f-b774-2e4e7d0a5f6c"

	tests := []struct {
		name string
		orgs map[string]any
	}{
		{"no organizations claim", nil},
		{"entry is a string", map[string]any{orgID: "admin"}},
		{"entry missing roles", map[string]any{orgID: map[string]any{"name": "acme"}}},
		{"roles is not a list", map[string]any{orgID: map[string]any{"roles": "admin"}}},
		{"roles holds non-strings", map[string]any{orgID: map[string]any{"roles": []any{1, true}}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			claims := &TokenClaims{Organizations: tc.orgs}
			roles := claims.OrgRoles(orgID)
			assert.NotNil(t, roles)
			assert.Empty(t, roles)
		})
	}
}

func TestIsMemberIndependentOfRoles(t *testing.T) {
	orgID := "a3bb1896-6f26-4b8f-b774-2e4e7d0a5f6c"
	claims := &TokenClaims{Organizations: map[string]any{
		orgID: map[string]any{"roles": []any{}},
	}}

	assert.True(t, claims.IsMember(orgID))
	assert.Empty(t, claims.OrgRoles(orgID))
	assert.False(t, claims.IsMember("b3bb1896-6f26-4b8f-b774-2e4e7d0a5f6c"))
}

func TestUserIDPrefersSubject(t *testing.T) {
	claims := &TokenClaims{
		Subject: "8f14e45f-ea1a-4bbf-8c4f-2f60ddf25c5a",
		Email:   "jo@example.com",
	}
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uuid.MustParse("8f14e45f-ea1a-4bbf-8c4f-2f60ddf25c5a"), id)
}

func TestUserIDEmailFallbackIsDeterministic(t *testing.T) {
	a := &TokenClaims{Email: "jo@example.com"}
	b := &TokenClaims{Email: "jo@example.com"}
	c := &TokenClaims{Email: "other@example.com"}

	idA, err := a.UserID()
	require.NoError(t, err)
	idB, err := b.UserID()
	require.NoError(t, err)
	idC, err := c.UserID()
	require.NoError(t, err)

	assert.Equal(t, idA, idB)
	assert.NotEqual(t, idA, idC)
	assert.Equal(t, uuid.Version(3), idA.Version())
	assert.Equal(t, uuid.RFC4122, idA.Variant())
}

func TestUserIDNonUUIDSubjectFallsBack(t *testing.T) {
	withSub := &TokenClaims{Subject: "legacy-user-42", Email: "jo@example.com"}
	emailOnly := &TokenClaims{Email: "jo@example.com"}

	idA, err := withSub.UserID()
	require.NoError(t, err)
	idB, err := emailOnly.UserID()
	require.NoError(t, err)
	assert.Equal(t, idB, idA)
}

func TestUserIDMissingEverything(t *testing.T) {
	claims := &TokenClaims{}
	_, err := claims.UserID()
	assert.ErrorIs(t, err, ErrNoSubject)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Jo Doe", (&TokenClaims{Name: "Jo Doe", Email: "jo@example.com"}).DisplayName())
	assert.Equal(t, "jo@example.com", (&TokenClaims{Email: "jo@example.com"}).DisplayName())
	assert.Equal(t, "Unknown", (&TokenClaims{}).DisplayName())
}
