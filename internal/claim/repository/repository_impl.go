package repository

import (
	"context"
	"errors"
	"time"

	"github.com/coverbase/claims/internal/claim/domain"
	"github.com/coverbase/claims/pkg/db/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) InsertClaim(ctx context.Context, claim *domain.Claim) error {
	return r.db.WithContext(ctx).Create(claim).Error
}

func (r *repository) UpdateClaim(ctx context.Context, claim *domain.Claim) error {
	return r.db.WithContext(ctx).Save(claim).Error
}

func (r *repository) FindClaim(ctx context.Context, orgID, claimID uuid.UUID) (*domain.Claim, error) {
	var claim domain.Claim
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, claimID).
		First(&claim).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &claim, nil
}

func (r *repository) ListClaims(ctx context.Context, orgID uuid.UUID, filter domain.ListClaimsFilter, limit int, cursor *pagination.Cursor) ([]domain.Claim, error) {
	var claims []domain.Claim
	stmt := r.db.WithContext(ctx).
		Model(&domain.Claim{}).
		Where("organization_id = ?", orgID)
	if filter.Status != nil {
		stmt = stmt.Where("status = ?", *filter.Status)
	}
	if cursor != nil {
		// Bind the cursor timestamp as time.Time so the driver renders it in
		// the same format it stores.
		ts, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return nil, err
		}
		stmt = stmt.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			ts, ts, cursor.ID,
		)
	}
	err := stmt.
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&claims).Error
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (r *repository) ListAllClaims(ctx context.Context, orgID uuid.UUID) ([]domain.Claim, error) {
	var claims []domain.Claim
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at desc, id desc").
		Find(&claims).Error
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (r *repository) CountClaimsByNumberPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Claim{}).
		Where("claim_number LIKE ?", prefix+"%").
		Count(&count).Error
	return count, err
}

func (r *repository) InsertEvent(ctx context.Context, event *domain.ClaimEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) ListEvents(ctx context.Context, claimID uuid.UUID) ([]domain.ClaimEvent, error) {
	var events []domain.ClaimEvent
	err := r.db.WithContext(ctx).
		Where("claim_id = ?", claimID).
		Order("timestamp asc, id asc").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) InsertNote(ctx context.Context, note *domain.ClaimNote) error {
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *repository) ListNotes(ctx context.Context, claimID uuid.UUID) ([]domain.ClaimNote, error) {
	var notes []domain.ClaimNote
	err := r.db.WithContext(ctx).
		Where("claim_id = ?", claimID).
		Order("created_at asc, id asc").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *repository) InsertAttachment(ctx context.Context, attachment *domain.ClaimAttachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

func (r *repository) ListAttachments(ctx context.Context, claimID uuid.UUID) ([]domain.ClaimAttachment, error) {
	var attachments []domain.ClaimAttachment
	err := r.db.WithContext(ctx).
		Where("claim_id = ?", claimID).
		Order("created_at desc, id desc").
		Find(&attachments).Error
	if err != nil {
		return nil, err
	}
	return attachments, nil
}

func (r *repository) FindAttachment(ctx context.Context, claimID uuid.UUID, attachmentID int64) (*domain.ClaimAttachment, error) {
	var attachment domain.ClaimAttachment
	err := r.db.WithContext(ctx).
		Where("claim_id = ? AND id = ?", claimID, attachmentID).
		First(&attachment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAttachmentNotFound
		}
		return nil, err
	}
	return &attachment, nil
}

func (r *repository) DeleteAttachment(ctx context.Context, claimID uuid.UUID, attachmentID int64) error {
	tx := r.db.WithContext(ctx).
		Where("claim_id = ? AND id = ?", claimID, attachmentID).
		Delete(&domain.ClaimAttachment{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrAttachmentNotFound
	}
	return nil
}

func (r *repository) CountClaims(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Claim{}).
		Where("organization_id = ?", orgID).
		Count(&count).Error
	return count, err
}

func (r *repository) CountClaimsByStatus(ctx context.Context, orgID uuid.UUID, status domain.ClaimStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Claim{}).
		Where("organization_id = ? AND status = ?", orgID, status).
		Count(&count).Error
	return count, err
}

func (r *repository) CountClaimsCreatedAfter(ctx context.Context, orgID uuid.UUID, cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Claim{}).
		Where("organization_id = ? AND created_at >= ?", orgID, cutoff).
		Count(&count).Error
	return count, err
}

func (r *repository) SumAmountExcludingStatuses(ctx context.Context, orgID uuid.UUID, excluded []domain.ClaimStatus) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&domain.Claim{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("organization_id = ? AND status NOT IN ?", orgID, excluded).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

func (r *repository) CountUserClaimsSince(ctx context.Context, orgID, userID uuid.UUID, cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Claim{}).
		Where("organization_id = ? AND user_id = ? AND created_at >= ?", orgID, userID, cutoff).
		Count(&count).Error
	return count, err
}

func (r *repository) CountUserClaims(ctx context.Context, orgID, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Claim{}).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Count(&count).Error
	return count, err
}

func (r *repository) AverageAmountByType(ctx context.Context, orgID uuid.UUID, claimType domain.ClaimType) (*decimal.Decimal, error) {
	var row struct {
		Average *decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&domain.Claim{}).
		Select("AVG(amount) AS average").
		Where("organization_id = ? AND type = ? AND amount IS NOT NULL", orgID, claimType).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return row.Average, nil
}
