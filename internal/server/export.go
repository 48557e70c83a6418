package server

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"time"

	claimdomain "github.com/coverbase/claims/internal/claim/domain"
	"github.com/gin-gonic/gin"
)

var exportHeader = []string{"Claim Number", "Type", "Status", "Amount", "Incident Date", "Filed Date", "Priority"}

// ExportClaims streams the organization's claims as CSV. Priority is the
// computed label, not a stored column.
func (s *Server) ExportClaims(c *gin.Context) {
	oc, ok := requestOrgContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	claims, err := s.claimSvc.ListAll(c.Request.Context(), oc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		AbortWithError(c, err)
		return
	}
	for i := range claims {
		if err := w.Write(s.exportRow(&claims[i])); err != nil {
			AbortWithError(c, err)
			return
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="claims-export.csv"`)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

func (s *Server) exportRow(claim *claimdomain.Claim) []string {
	amount := ""
	if claim.Amount != nil {
		amount = claim.Amount.String()
	}
	incidentDate := ""
	if claim.IncidentDate != nil {
		incidentDate = claim.IncidentDate.Format(time.DateOnly)
	}
	filedDate := ""
	if !claim.FiledDate.IsZero() {
		filedDate = claim.FiledDate.Format(time.RFC3339)
	}

	return []string{
		claim.ClaimNumber,
		string(claim.Type),
		string(claim.Status),
		amount,
		incidentDate,
		filedDate,
		s.claimSvc.Priority(claim).Label,
	}
}
