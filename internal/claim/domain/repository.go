package domain

import (
	"context"
	"time"

	"github.com/coverbase/claims/pkg/db/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository is the persistence collaborator for claims and their children.
// All lookups are scoped by organization; a claim in another organization is
// indistinguishable from a missing one.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	InsertClaim(ctx context.Context, claim *Claim) error
	UpdateClaim(ctx context.Context, claim *Claim) error
	FindClaim(ctx context.Context, orgID, claimID uuid.UUID) (*Claim, error)
	ListClaims(ctx context.Context, orgID uuid.UUID, filter ListClaimsFilter, limit int, cursor *pagination.Cursor) ([]Claim, error)
	ListAllClaims(ctx context.Context, orgID uuid.UUID) ([]Claim, error)
	CountClaimsByNumberPrefix(ctx context.Context, prefix string) (int64, error)

	InsertEvent(ctx context.Context, event *ClaimEvent) error
	ListEvents(ctx context.Context, claimID uuid.UUID) ([]ClaimEvent, error)

	InsertNote(ctx context.Context, note *ClaimNote) error
	ListNotes(ctx context.Context, claimID uuid.UUID) ([]ClaimNote, error)

	InsertAttachment(ctx context.Context, attachment *ClaimAttachment) error
	ListAttachments(ctx context.Context, claimID uuid.UUID) ([]ClaimAttachment, error)
	FindAttachment(ctx context.Context, claimID uuid.UUID, attachmentID int64) (*ClaimAttachment, error)
	DeleteAttachment(ctx context.Context, claimID uuid.UUID, attachmentID int64) error

	CountClaims(ctx context.Context, orgID uuid.UUID) (int64, error)
	CountClaimsByStatus(ctx context.Context, orgID uuid.UUID, status ClaimStatus) (int64, error)
	CountClaimsCreatedAfter(ctx context.Context, orgID uuid.UUID, cutoff time.Time) (int64, error)
	SumAmountExcludingStatuses(ctx context.Context, orgID uuid.UUID, excluded []ClaimStatus) (decimal.Decimal, error)
	CountUserClaimsSince(ctx context.Context, orgID, userID uuid.UUID, cutoff time.Time) (int64, error)
	CountUserClaims(ctx context.Context, orgID, userID uuid.UUID) (int64, error)
	AverageAmountByType(ctx context.Context, orgID uuid.UUID, claimType ClaimType) (*decimal.Decimal, error)
}
