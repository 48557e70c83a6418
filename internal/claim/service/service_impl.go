package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/coverbase/claims/internal/claim/domain"
	"github.com/coverbase/claims/internal/clock"
	"github.com/coverbase/claims/internal/config"
	"github.com/coverbase/claims/internal/observability/metrics"
	"github.com/coverbase/claims/internal/orgcontext"
	"github.com/coverbase/claims/pkg/db"
	"github.com/coverbase/claims/pkg/db/pagination"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	GenID   *snowflake.Node
	Config  config.Config
	Repo    domain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	genID   *snowflake.Node
	repo    domain.Repository
	metrics *metrics.Metrics

	numberRetries int
}

func NewService(p Params) domain.Service {
	retries := p.Config.ClaimNumberRetries
	if retries < 1 {
		retries = 1
	}
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("claim.service"),
		clock:         p.Clock,
		genID:         p.GenID,
		repo:          p.Repo,
		metrics:       p.Metrics,
		numberRetries: retries,
	}
}

func (s *Service) Create(ctx context.Context, oc orgcontext.OrgContext, req domain.CreateClaimRequest) (*domain.Claim, error) {
	rule := domain.Transitions[domain.OpCreate]
	if !rule.Permitted(oc, false) {
		return nil, &domain.PermissionError{Operation: domain.OpCreate, Required: rule.RequiredLabel}
	}

	if _, ok := domain.ParseType(string(req.Type)); !ok {
		return nil, domain.ErrInvalidType
	}

	now := s.clock.Now()
	claim := &domain.Claim{
		ID:             uuid.New(),
		OrganizationID: oc.OrganizationID,
		UserID:         oc.UserID,
		Status:         rule.To,
		Type:           req.Type,
		Description:    strings.TrimSpace(req.Description),
		IncidentDate:   req.IncidentDate,
		FiledDate:      now,
		Amount:         req.Amount,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// The year-scoped sequence is derived by counting, so two concurrent
	// creates can pick the same number. The unique index rejects the loser
	// and we re-derive under a fresh count.
	for attempt := 0; attempt < s.numberRetries; attempt++ {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)

			number, err := nextClaimNumber(ctx, repo, now)
			if err != nil {
				return err
			}
			claim.ClaimNumber = number

			if err := repo.InsertClaim(ctx, claim); err != nil {
				return err
			}
			return repo.InsertEvent(ctx, s.newEvent(claim.ID, oc, rule.Event, rule.EventNote))
		})
		if err == nil {
			s.metrics.RecordTransition(ctx, string(domain.OpCreate))
			s.log.Info("claim created",
				zap.String("claim_id", claim.ID.String()),
				zap.String("claim_number", claim.ClaimNumber),
				zap.String("org_id", oc.OrganizationID.String()),
			)
			return claim, nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return nil, err
		}
		s.metrics.RecordNumberRetry(ctx)
		s.log.Warn("claim number conflict, retrying",
			zap.String("claim_number", claim.ClaimNumber),
			zap.Int("attempt", attempt+1),
		)
	}

	return nil, domain.ErrNumberExhausted
}

func (s *Service) Update(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID, req domain.UpdateClaimRequest) (*domain.Claim, error) {
	rule := domain.Transitions[domain.OpUpdate]

	if req.Type != nil {
		if _, ok := domain.ParseType(string(*req.Type)); !ok {
			return nil, domain.ErrInvalidType
		}
	}

	// Load, status check and write share one transaction so a submit racing
	// this update cannot have its SUBMITTED status clobbered by a stale save.
	var claim *domain.Claim
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		found, err := repo.FindClaim(ctx, oc.OrganizationID, claimID)
		if err != nil {
			return err
		}
		if !rule.AllowsFrom(found.Status) {
			return &domain.TransitionError{Operation: domain.OpUpdate, Required: rule.From}
		}
		if !rule.Permitted(oc, found.UserID == oc.UserID) {
			return &domain.PermissionError{Operation: domain.OpUpdate, Required: rule.RequiredLabel}
		}

		if req.Type != nil {
			found.Type = *req.Type
		}
		if req.Description != nil {
			found.Description = strings.TrimSpace(*req.Description)
		}
		if req.IncidentDate != nil {
			found.IncidentDate = req.IncidentDate
		}
		if req.Amount != nil {
			found.Amount = req.Amount
		}
		found.UpdatedAt = s.clock.Now()

		if err := repo.UpdateClaim(ctx, found); err != nil {
			return err
		}
		if err := repo.InsertEvent(ctx, s.newEvent(found.ID, oc, rule.Event, rule.EventNote)); err != nil {
			return err
		}
		claim = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(ctx, string(domain.OpUpdate))
	return claim, nil
}

func (s *Service) Submit(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) (*domain.Claim, error) {
	return s.transition(ctx, oc, claimID, domain.OpSubmit)
}

func (s *Service) Review(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) (*domain.Claim, error) {
	return s.transition(ctx, oc, claimID, domain.OpReview)
}

func (s *Service) Approve(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) (*domain.Claim, error) {
	return s.transition(ctx, oc, claimID, domain.OpApprove)
}

func (s *Service) Deny(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) (*domain.Claim, error) {
	return s.transition(ctx, oc, claimID, domain.OpDeny)
}

func (s *Service) Close(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) (*domain.Claim, error) {
	return s.transition(ctx, oc, claimID, domain.OpClose)
}

// transition drives one lifecycle operation through the permission table.
// Rules with RoleGateFirst fail the role check before touching the claim, so
// callers without the role cannot probe claim existence or state. Everything
// else checks status first, then the owner-or-role gate. The status check
// runs in the same transaction as the write, so two conflicting transitions
// that both read UNDER_REVIEW cannot both commit.
func (s *Service) transition(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID, op domain.Operation) (*domain.Claim, error) {
	rule := domain.Transitions[op]

	if rule.RoleGateFirst && !rule.Permitted(oc, false) {
		return nil, &domain.PermissionError{Operation: op, Required: rule.RequiredLabel}
	}

	var claim *domain.Claim
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		found, err := repo.FindClaim(ctx, oc.OrganizationID, claimID)
		if err != nil {
			return err
		}
		if !rule.AllowsFrom(found.Status) {
			return &domain.TransitionError{Operation: op, Required: rule.From}
		}
		if !rule.RoleGateFirst && !rule.Permitted(oc, found.UserID == oc.UserID) {
			return &domain.PermissionError{Operation: op, Required: rule.RequiredLabel}
		}

		found.Status = rule.To
		found.UpdatedAt = s.clock.Now()

		if err := repo.UpdateClaim(ctx, found); err != nil {
			return err
		}
		if err := repo.InsertEvent(ctx, s.newEvent(found.ID, oc, rule.Event, rule.EventNote)); err != nil {
			return err
		}
		claim = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(ctx, string(op))
	s.log.Info("claim transitioned",
		zap.String("claim_id", claim.ID.String()),
		zap.String("operation", string(op)),
		zap.String("status", string(claim.Status)),
	)
	return claim, nil
}

func (s *Service) Get(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) (*domain.Claim, error) {
	return s.repo.FindClaim(ctx, oc.OrganizationID, claimID)
}

func (s *Service) List(ctx context.Context, oc orgcontext.OrgContext, filter domain.ListClaimsFilter, page pagination.Pagination) (*domain.ListClaimsResult, error) {
	var cursor *pagination.Cursor
	if page.PageToken != "" {
		decoded, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, err
		}
		cursor = decoded
	}

	limit := page.Limit()
	claims, err := s.repo.ListClaims(ctx, oc.OrganizationID, filter, limit+1, cursor)
	if err != nil {
		return nil, err
	}

	result := &domain.ListClaimsResult{Claims: claims}
	if len(claims) > limit {
		result.Claims = claims[:limit]
		last := result.Claims[limit-1]
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        last.ID.String(),
			CreatedAt: last.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return nil, err
		}
		result.NextPageToken = token
		result.HasMore = true
	}
	return result, nil
}

func (s *Service) ListAll(ctx context.Context, oc orgcontext.OrgContext) ([]domain.Claim, error) {
	return s.repo.ListAllClaims(ctx, oc.OrganizationID)
}

func (s *Service) Events(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) ([]domain.ClaimEvent, error) {
	if _, err := s.repo.FindClaim(ctx, oc.OrganizationID, claimID); err != nil {
		return nil, err
	}
	return s.repo.ListEvents(ctx, claimID)
}

func (s *Service) Stats(ctx context.Context, oc orgcontext.OrgContext) (*domain.Stats, error) {
	orgID := oc.OrganizationID
	stats := &domain.Stats{
		ClaimsByStatus:   make(map[string]int64, len(domain.Statuses())),
		ClaimsByType:     make(map[string]int64, len(domain.Types())),
		ClaimsByPriority: make(map[string]int64, 4),
	}

	total, err := s.repo.CountClaims(ctx, orgID)
	if err != nil {
		return nil, err
	}
	stats.TotalClaims = total

	for _, status := range domain.Statuses() {
		count, err := s.repo.CountClaimsByStatus(ctx, orgID, status)
		if err != nil {
			return nil, err
		}
		stats.ClaimsByStatus[string(status)] = count
	}

	closed := stats.ClaimsByStatus[string(domain.StatusClosed)]
	denied := stats.ClaimsByStatus[string(domain.StatusDenied)]
	approved := stats.ClaimsByStatus[string(domain.StatusApproved)]
	stats.OpenClaims = total - closed - denied

	exposure, err := s.repo.SumAmountExcludingStatuses(ctx, orgID, []domain.ClaimStatus{domain.StatusClosed, domain.StatusDenied})
	if err != nil {
		return nil, err
	}
	stats.TotalExposure = exposure

	if decided := approved + denied + closed; decided > 0 {
		stats.ApprovalRate = float64(approved) / float64(decided) * 100
	}

	thisWeek, err := s.repo.CountClaimsCreatedAfter(ctx, orgID, s.clock.Now().Add(-7*24*time.Hour))
	if err != nil {
		return nil, err
	}
	stats.ClaimsThisWeek = thisWeek

	all, err := s.repo.ListAllClaims(ctx, orgID)
	if err != nil {
		return nil, err
	}
	for _, t := range domain.Types() {
		stats.ClaimsByType[string(t)] = 0
	}
	for _, label := range []string{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow} {
		stats.ClaimsByPriority[label] = 0
	}
	now := s.clock.Now()
	for i := range all {
		stats.ClaimsByType[string(all[i].Type)]++
		stats.ClaimsByPriority[calculatePriority(&all[i], now).Label]++
	}

	return stats, nil
}

func (s *Service) Priority(claim *domain.Claim) domain.Priority {
	return calculatePriority(claim, s.clock.Now())
}

func (s *Service) AssessRisk(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) (*domain.RiskAssessment, error) {
	claim, err := s.repo.FindClaim(ctx, oc.OrganizationID, claimID)
	if err != nil {
		return nil, err
	}
	assessment, err := s.assessRisk(ctx, oc.OrganizationID, claim)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRiskAssessment(ctx, assessment.OverallRisk)
	return assessment, nil
}

func (s *Service) ListNotes(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) ([]domain.ClaimNote, error) {
	if _, err := s.repo.FindClaim(ctx, oc.OrganizationID, claimID); err != nil {
		return nil, err
	}
	return s.repo.ListNotes(ctx, claimID)
}

func (s *Service) AddNote(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID, content string) (*domain.ClaimNote, error) {
	if _, err := s.repo.FindClaim(ctx, oc.OrganizationID, claimID); err != nil {
		return nil, err
	}

	note := &domain.ClaimNote{
		ID:                s.genID.Generate(),
		ClaimID:           claimID,
		AuthorUserID:      oc.UserID,
		AuthorDisplayName: oc.DisplayName,
		Content:           content,
		CreatedAt:         s.clock.Now(),
	}
	if err := s.repo.InsertNote(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *Service) ListAttachments(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) ([]domain.ClaimAttachment, error) {
	if _, err := s.repo.FindClaim(ctx, oc.OrganizationID, claimID); err != nil {
		return nil, err
	}
	return s.repo.ListAttachments(ctx, claimID)
}

func (s *Service) AddAttachment(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID, req domain.AddAttachmentRequest) (*domain.ClaimAttachment, error) {
	if _, err := s.repo.FindClaim(ctx, oc.OrganizationID, claimID); err != nil {
		return nil, err
	}

	attachment := &domain.ClaimAttachment{
		ID:                    s.genID.Generate(),
		ClaimID:               claimID,
		Filename:              req.Filename,
		FileSizeBytes:         req.FileSizeBytes,
		MimeType:              req.MimeType,
		UploadedByUserID:      oc.UserID,
		UploadedByDisplayName: oc.DisplayName,
		CreatedAt:             s.clock.Now(),
	}
	if err := s.repo.InsertAttachment(ctx, attachment); err != nil {
		return nil, err
	}
	return attachment, nil
}

func (s *Service) DeleteAttachment(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID, attachmentID int64) error {
	if _, err := s.repo.FindClaim(ctx, oc.OrganizationID, claimID); err != nil {
		return err
	}
	return s.repo.DeleteAttachment(ctx, claimID, attachmentID)
}

func (s *Service) newEvent(claimID uuid.UUID, oc orgcontext.OrgContext, eventType domain.EventType, note string) *domain.ClaimEvent {
	return &domain.ClaimEvent{
		ID:               s.genID.Generate(),
		ClaimID:          claimID,
		ActorUserID:      oc.UserID,
		ActorDisplayName: oc.DisplayName,
		EventType:        eventType,
		Note:             note,
		Timestamp:        s.clock.Now(),
	}
}
