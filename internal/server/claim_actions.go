package server

import (
	"context"
	"net/http"

	claimdomain "github.com/coverbase/claims/internal/claim/domain"
	"github.com/coverbase/claims/internal/orgcontext"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) SubmitClaim(c *gin.Context) {
	s.transitionClaim(c, s.claimSvc.Submit)
}

func (s *Server) ReviewClaim(c *gin.Context) {
	s.transitionClaim(c, s.claimSvc.Review)
}

func (s *Server) ApproveClaim(c *gin.Context) {
	s.transitionClaim(c, s.claimSvc.Approve)
}

func (s *Server) DenyClaim(c *gin.Context) {
	s.transitionClaim(c, s.claimSvc.Deny)
}

func (s *Server) CloseClaim(c *gin.Context) {
	s.transitionClaim(c, s.claimSvc.Close)
}

func (s *Server) transitionClaim(c *gin.Context, op func(context.Context, orgcontext.OrgContext, uuid.UUID) (*claimdomain.Claim, error)) {
	oc, ok := requestOrgContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	claimID, err := parseClaimID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	claim, err := op(c.Request.Context(), oc, claimID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": s.claimResponse(claim)})
}
