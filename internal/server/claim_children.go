package server

import (
	"net/http"
	"strconv"
	"strings"

	claimdomain "github.com/coverbase/claims/internal/claim/domain"
	"github.com/gin-gonic/gin"
)

type addNoteRequest struct {
	Content string `json:"content"`
}

type addAttachmentRequest struct {
	Filename      string `json:"filename"`
	FileSizeBytes int64  `json:"file_size_bytes"`
	MimeType      string `json:"mime_type"`
}

func (s *Server) ListClaimEvents(c *gin.Context) {
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

	events, err := s.claimSvc.Events(c.Request.Context(), oc, claimID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": events})
}

func (s *Server) ClaimRiskSignals(c *gin.Context) {
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

	assessment, err := s.claimSvc.AssessRisk(c.Request.Context(), oc, claimID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": assessment})
}

func (s *Server) ListClaimNotes(c *gin.Context) {
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

	notes, err := s.claimSvc.ListNotes(c.Request.Context(), oc, claimID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": notes})
}

func (s *Server) AddClaimNote(c *gin.Context) {
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

	var req addNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		AbortWithError(c, newValidationError("content", "invalid_content", "content is required"))
		return
	}

	note, err := s.claimSvc.AddNote(c.Request.Context(), oc, claimID, content)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": note})
}

func (s *Server) ListClaimAttachments(c *gin.Context) {
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

	attachments, err := s.claimSvc.ListAttachments(c.Request.Context(), oc, claimID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": attachments})
}

func (s *Server) AddClaimAttachment(c *gin.Context) {
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

	var req addAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	violations := make([]ValidationError, 0, 2)
	if strings.TrimSpace(req.Filename) == "" {
		violations = append(violations, ValidationError{
			Field: "filename", Code: "invalid_filename", Message: "filename is required",
		})
	}
	if req.FileSizeBytes < 0 {
		violations = append(violations, ValidationError{
			Field: "file_size_bytes", Code: "invalid_file_size_bytes", Message: "file_size_bytes must not be negative",
		})
	}
	if len(violations) > 0 {
		AbortWithError(c, &ValidationErrors{Errors: violations})
		return
	}

	attachment, err := s.claimSvc.AddAttachment(c.Request.Context(), oc, claimID, claimdomain.AddAttachmentRequest{
		Filename:      strings.TrimSpace(req.Filename),
		FileSizeBytes: req.FileSizeBytes,
		MimeType:      strings.TrimSpace(req.MimeType),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": attachment})
}

func (s *Server) DeleteClaimAttachment(c *gin.Context) {
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

	attachmentID, err := strconv.ParseInt(strings.TrimSpace(c.Param("attachmentID")), 10, 64)
	if err != nil {
		AbortWithError(c, claimdomain.ErrAttachmentNotFound)
		return
	}

	if err := s.claimSvc.DeleteAttachment(c.Request.Context(), oc, claimID, attachmentID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
