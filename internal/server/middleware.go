package server

import (
	"errors"
	"strings"

	"github.com/coverbase/claims/internal/identity"
	obscontext "github.com/coverbase/claims/internal/observability/context"
	"github.com/coverbase/claims/internal/orgcontext"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerOrganizationID = "X-Organization-Id"

	ctxKeyTokenClaims = "token_claims"
)

// AuthMiddleware decodes the bearer token into the trusted claim set. The
// gateway has already verified the signature; an absent or undecodable token
// is rejected here.
func (s *Server) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		token, found := strings.CutPrefix(raw, "Bearer ")
		if !found {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		claims, err := identity.ParseBearer(token)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(ctxKeyTokenClaims, claims)
		c.Next()
	}
}

// OrgContextMiddleware resolves the X-Organization-Id header against the
// caller's memberships and threads the validated org context through the
// request context. A member with an empty role list still gets a context;
// the lifecycle gates decide what it can do.
func (s *Server) OrgContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := tokenClaims(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		rawOrgID := strings.TrimSpace(c.GetHeader(headerOrganizationID))
		if rawOrgID == "" {
			AbortWithError(c, ErrMissingOrgID)
			return
		}
		orgID, err := uuid.Parse(rawOrgID)
		if err != nil {
			AbortWithError(c, ErrMissingOrgID)
			return
		}

		if !claims.IsMember(rawOrgID) {
			AbortWithError(c, ErrNotMember)
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			if errors.Is(err, identity.ErrNoSubject) {
				AbortWithError(c, ErrUnauthorized)
				return
			}
			AbortWithError(c, err)
			return
		}

		oc := orgcontext.OrgContext{
			OrganizationID: orgID,
			UserID:         userID,
			DisplayName:    claims.DisplayName(),
			Roles:          claims.OrgRoles(rawOrgID),
		}

		ctx := orgcontext.WithOrgContext(c.Request.Context(), oc)
		ctx = obscontext.WithOrgID(ctx, rawOrgID)
		ctx = obscontext.WithActor(ctx, "user", userID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func tokenClaims(c *gin.Context) (*identity.TokenClaims, bool) {
	value, ok := c.Get(ctxKeyTokenClaims)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*identity.TokenClaims)
	return claims, ok && claims != nil
}

func requestOrgContext(c *gin.Context) (orgcontext.OrgContext, bool) {
	return orgcontext.FromContext(c.Request.Context())
}
