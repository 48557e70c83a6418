package domain

import (
	"context"
	"time"

	"github.com/coverbase/claims/internal/orgcontext"
	"github.com/coverbase/claims/pkg/db/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateClaimRequest carries the fields an admin supplies when filing a
// claim. FiledDate, status and the claim number are server-assigned.
type CreateClaimRequest struct {
	Type         ClaimType
	Description  string
	IncidentDate *time.Time
	Amount       *decimal.Decimal
}

// UpdateClaimRequest patches a DRAFT claim. Nil fields preserve the prior
// value; there is no way to clear a field.
type UpdateClaimRequest struct {
	Type         *ClaimType
	Description  *string
	IncidentDate *time.Time
	Amount       *decimal.Decimal
}

type ListClaimsFilter struct {
	Status *ClaimStatus
}

type ListClaimsResult struct {
	pagination.PageInfo
	Claims []Claim
}

// Priority is the derived urgency of a claim, recomputed on every read.
type Priority struct {
	Label string `json:"priority"`
	Score int    `json:"priority_score"`
}

// RiskSignal is one weighted risk indicator.
type RiskSignal struct {
	Severity    string `json:"severity"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// RiskAssessment is the ordered output of the risk rules for one claim.
type RiskAssessment struct {
	OverallRisk string       `json:"overall_risk"`
	RiskScore   int          `json:"risk_score"`
	Signals     []RiskSignal `json:"signals"`
}

// Stats summarizes an organization's claims for dashboards.
type Stats struct {
	TotalClaims      int64            `json:"total_claims"`
	OpenClaims       int64            `json:"open_claims"`
	ClaimsByStatus   map[string]int64 `json:"claims_by_status"`
	ClaimsByType     map[string]int64 `json:"claims_by_type"`
	ClaimsByPriority map[string]int64 `json:"claims_by_priority"`
	TotalExposure    decimal.Decimal  `json:"total_exposure"`
	ApprovalRate     float64          `json:"approval_rate"`
	ClaimsThisWeek   int64            `json:"claims_this_week"`
}

// AddAttachmentRequest carries uploaded file metadata.
type AddAttachmentRequest struct {
	Filename      string
	FileSizeBytes int64
	MimeType      string
}

// Service is the claim lifecycle. Every method takes the validated request
// org context explicitly; reads outside the context's organization surface
// as ErrNotFound.
type Service interface {
	Create(ctx context.Context, oc orgcontext.OrgContext, req CreateClaimRequest) (*Claim, error)
	Update(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID, req UpdateClaimRequest) (*Claim, error)
	Submit(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) (*Claim, error)
	Review(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) (*Claim, error)
	Approve(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) (*Claim, error)
	Deny(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) (*Claim, error)
	Close(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) (*Claim, error)

	Get(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) (*Claim, error)
	List(ctx context.Context, oc orgcontext.OrgContext, filter ListClaimsFilter, page pagination.Pagination) (*ListClaimsResult, error)
	ListAll(ctx context.Context, oc orgcontext.OrgContext) ([]Claim, error)
	Events(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) ([]ClaimEvent, error)
	Stats(ctx context.Context, oc orgcontext.OrgContext) (*Stats, error)

	Priority(claim *Claim) Priority
	AssessRisk(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) (*RiskAssessment, error)

	ListNotes(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) ([]ClaimNote, error)
	AddNote(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID, content string) (*ClaimNote, error)

	ListAttachments(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) ([]ClaimAttachment, error)
	AddAttachment(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID, req AddAttachmentRequest) (*ClaimAttachment, error)
	DeleteAttachment(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID, attachmentID int64) error
}
