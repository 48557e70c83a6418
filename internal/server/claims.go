package server

import (
	"net/http"
	"strings"

	claimdomain "github.com/coverbase/claims/internal/claim/domain"
	"github.com/coverbase/claims/pkg/db/pagination"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type createClaimRequest struct {
	Type         string           `json:"type"`
	Description  string           `json:"description"`
	IncidentDate string           `json:"incident_date"`
	Amount       *decimal.Decimal `json:"amount"`
}

type updateClaimRequest struct {
	Type         *string          `json:"type"`
	Description  *string          `json:"description"`
	IncidentDate *string          `json:"incident_date"`
	Amount       *decimal.Decimal `json:"amount"`
}

// claimResponse decorates the stored claim with its computed priority.
type claimResponse struct {
	claimdomain.Claim
	claimdomain.Priority
}

func (s *Server) claimResponse(claim *claimdomain.Claim) claimResponse {
	return claimResponse{
		Claim:    *claim,
		Priority: s.claimSvc.Priority(claim),
	}
}

func (s *Server) claimResponses(claims []claimdomain.Claim) []claimResponse {
	responses := make([]claimResponse, 0, len(claims))
	for i := range claims {
		responses = append(responses, s.claimResponse(&claims[i]))
	}
	return responses
}

func (s *Server) CreateClaim(c *gin.Context) {
	oc, ok := requestOrgContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	violations := make([]ValidationError, 0, 2)
	claimType, ok := claimdomain.ParseType(strings.TrimSpace(req.Type))
	if !ok {
		violations = append(violations, ValidationError{
			Field: "type", Code: "invalid_type", Message: "invalid claim type",
		})
	}
	incidentDate, err := parseOptionalDate(req.IncidentDate)
	if err != nil {
		violations = append(violations, ValidationError{
			Field: "incident_date", Code: "invalid_incident_date", Message: "invalid incident_date",
		})
	}
	if req.Amount != nil && req.Amount.IsNegative() {
		violations = append(violations, ValidationError{
			Field: "amount", Code: "invalid_amount", Message: "amount must not be negative",
		})
	}
	if len(violations) > 0 {
		AbortWithError(c, &ValidationErrors{Errors: violations})
		return
	}

	claim, err := s.claimSvc.Create(c.Request.Context(), oc, claimdomain.CreateClaimRequest{
		Type:         claimType,
		Description:  strings.TrimSpace(req.Description),
		IncidentDate: incidentDate,
		Amount:       req.Amount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": s.claimResponse(claim)})
}

func (s *Server) ListClaims(c *gin.Context) {
	oc, ok := requestOrgContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var query struct {
		pagination.Pagination
		Status string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	filter := claimdomain.ListClaimsFilter{}
	if raw := strings.TrimSpace(query.Status); raw != "" {
		status, ok := claimdomain.ParseStatus(raw)
		if !ok {
			AbortWithError(c, newValidationError("status", "invalid_status", "invalid claim status"))
			return
		}
		filter.Status = &status
	}

	result, err := s.claimSvc.List(c.Request.Context(), oc, filter, query.Pagination)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      s.claimResponses(result.Claims),
		"page_info": result.PageInfo,
	})
}

func (s *Server) GetClaim(c *gin.Context) {
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

	claim, err := s.claimSvc.Get(c.Request.Context(), oc, claimID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": s.claimResponse(claim)})
}

func (s *Server) UpdateClaim(c *gin.Context) {
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

	var req updateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update := claimdomain.UpdateClaimRequest{
		Description: req.Description,
		Amount:      req.Amount,
	}
	violations := make([]ValidationError, 0, 2)
	if req.Type != nil {
		claimType, ok := claimdomain.ParseType(strings.TrimSpace(*req.Type))
		if !ok {
			violations = append(violations, ValidationError{
				Field: "type", Code: "invalid_type", Message: "invalid claim type",
			})
		} else {
			update.Type = &claimType
		}
	}
	if req.IncidentDate != nil {
		incidentDate, err := parseOptionalDate(*req.IncidentDate)
		if err != nil || incidentDate == nil {
			violations = append(violations, ValidationError{
				Field: "incident_date", Code: "invalid_incident_date", Message: "invalid incident_date",
			})
		} else {
			update.IncidentDate = incidentDate
		}
	}
	if req.Amount != nil && req.Amount.IsNegative() {
		violations = append(violations, ValidationError{
			Field: "amount", Code: "invalid_amount", Message: "amount must not be negative",
		})
	}
	if len(violations) > 0 {
		AbortWithError(c, &ValidationErrors{Errors: violations})
		return
	}

	claim, err := s.claimSvc.Update(c.Request.Context(), oc, claimID, update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": s.claimResponse(claim)})
}

func parseClaimID(c *gin.Context) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.Param("id"))
	claimID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, claimdomain.ErrNotFound
	}
	return claimID, nil
}
