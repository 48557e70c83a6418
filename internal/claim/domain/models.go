// Package domain contains the claim aggregate and its child records.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClaimStatus is the lifecycle state of a claim. Transitions are enforced by
// the lifecycle table in the service layer; nothing else writes this field.
type ClaimStatus string

const (
	StatusDraft       ClaimStatus = "DRAFT"
	StatusSubmitted   ClaimStatus = "SUBMITTED"
	StatusUnderReview ClaimStatus = "UNDER_REVIEW"
	StatusApproved    ClaimStatus = "APPROVED"
	StatusDenied      ClaimStatus = "DENIED"
	StatusClosed      ClaimStatus = "CLOSED"
)

// Statuses lists all lifecycle states in display order.
func Statuses() []ClaimStatus {
	return []ClaimStatus{StatusDraft, StatusSubmitted, StatusUnderReview, StatusApproved, StatusDenied, StatusClosed}
}

// ParseStatus validates a caller-supplied status filter value.
func ParseStatus(raw string) (ClaimStatus, bool) {
	for _, s := range Statuses() {
		if string(s) == raw {
			return s, true
		}
	}
	return "", false
}

type ClaimType string

const (
	TypeAuto      ClaimType = "AUTO"
	TypeProperty  ClaimType = "PROPERTY"
	TypeHealth    ClaimType = "HEALTH"
	TypeLiability ClaimType = "LIABILITY"
)

// Types lists all claim types in display order.
func Types() []ClaimType {
	return []ClaimType{TypeAuto, TypeProperty, TypeHealth, TypeLiability}
}

// ParseType validates a caller-supplied claim type value.
func ParseType(raw string) (ClaimType, bool) {
	for _, t := range Types() {
		if string(t) == raw {
			return t, true
		}
	}
	return "", false
}

type EventType string

const (
	EventCreated   EventType = "CREATED"
	EventUpdated   EventType = "UPDATED"
	EventSubmitted EventType = "SUBMITTED"
	EventReviewed  EventType = "REVIEWED"
	EventApproved  EventType = "APPROVED"
	EventDenied    EventType = "DENIED"
	EventClosed    EventType = "CLOSED"
)

// Claim is the primary workflow entity. ClaimNumber is unique and sequential
// per calendar year (CLM-<year>-<5-digit-seq>).
type Claim struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	ClaimNumber    string           `gorm:"type:varchar(20);not null;uniqueIndex:ux_claims_number" json:"claim_number"`
	OrganizationID uuid.UUID        `gorm:"type:uuid;not null;index" json:"organization_id"`
	UserID         uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Status         ClaimStatus      `gorm:"type:varchar(20);not null" json:"status"`
	Type           ClaimType        `gorm:"type:varchar(20);not null" json:"type"`
	Description    string           `gorm:"type:text" json:"description"`
	IncidentDate   *time.Time       `gorm:"type:date" json:"incident_date,omitempty"`
	FiledDate      time.Time        `gorm:"not null" json:"filed_date"`
	Amount         *decimal.Decimal `gorm:"type:numeric(15,2)" json:"amount,omitempty"`
	CreatedAt      time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Claim) TableName() string { return "claims" }

// ClaimEvent is the append-only audit record of one lifecycle transition.
// Events are never mutated or deleted.
type ClaimEvent struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	ClaimID          uuid.UUID    `gorm:"type:uuid;not null;index" json:"claim_id"`
	ActorUserID      uuid.UUID    `gorm:"type:uuid;not null" json:"actor_user_id"`
	ActorDisplayName string       `gorm:"type:text" json:"actor_display_name,omitempty"`
	EventType        EventType    `gorm:"type:varchar(20);not null" json:"event_type"`
	Note             string       `gorm:"type:text" json:"note,omitempty"`
	Timestamp        time.Time    `gorm:"not null" json:"timestamp"`
}

// TableName sets the database table name.
func (ClaimEvent) TableName() string { return "claim_events" }

// ClaimNote is an org-scoped note on a claim. Notes cannot be deleted.
type ClaimNote struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	ClaimID           uuid.UUID    `gorm:"type:uuid;not null;index" json:"claim_id"`
	AuthorUserID      uuid.UUID    `gorm:"type:uuid;not null" json:"author_user_id"`
	AuthorDisplayName string       `gorm:"type:text;not null" json:"author_display_name"`
	Content           string       `gorm:"type:text;not null" json:"content"`
	CreatedAt         time.Time    `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (ClaimNote) TableName() string { return "claim_notes" }

// ClaimAttachment records uploaded file metadata for a claim.
type ClaimAttachment struct {
	ID                    snowflake.ID `gorm:"primaryKey" json:"id"`
	ClaimID               uuid.UUID    `gorm:"type:uuid;not null;index" json:"claim_id"`
	Filename              string       `gorm:"type:varchar(500);not null" json:"filename"`
	FileSizeBytes         int64        `gorm:"not null" json:"file_size_bytes"`
	MimeType              string       `gorm:"type:varchar(100);not null" json:"mime_type"`
	UploadedByUserID      uuid.UUID    `gorm:"type:uuid;not null" json:"uploaded_by_user_id"`
	UploadedByDisplayName string       `gorm:"type:text;not null" json:"uploaded_by_display_name"`
	CreatedAt             time.Time    `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (ClaimAttachment) TableName() string { return "claim_attachments" }
