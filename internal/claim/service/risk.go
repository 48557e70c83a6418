package service

import (
	"context"
	"fmt"
	"time"

	"github.com/coverbase/claims/internal/claim/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RiskHigh   = "HIGH"
	RiskMedium = "MEDIUM"
	RiskLow    = "LOW"
)

var (
	two              = decimal.NewFromInt(2)
	highValueCeiling = decimal.NewFromInt(100000)
)

// assessRisk evaluates the risk rules in a fixed order and aggregates a
// weighted score. Rules that lack their inputs (no amount, no org average)
// are skipped rather than treated as risky.
func (s *Service) assessRisk(ctx context.Context, orgID uuid.UUID, claim *domain.Claim) (*domain.RiskAssessment, error) {
	signals := make([]domain.RiskSignal, 0, 5)
	score := 0

	avg, err := s.repo.AverageAmountByType(ctx, orgID, claim.Type)
	if err != nil {
		return nil, err
	}
	if avg != nil && claim.Amount != nil && claim.Amount.GreaterThan(avg.Mul(two)) {
		signals = append(signals, domain.RiskSignal{
			Severity:    RiskHigh,
			Label:       "Above Average Amount",
			Description: "Claim amount is more than 2x the average for this type",
		})
		score += 30
	}

	recent, err := s.repo.CountUserClaimsSince(ctx, orgID, claim.UserID, s.clock.Now().Add(-90*24*time.Hour))
	if err != nil {
		return nil, err
	}
	if recent > 3 {
		signals = append(signals, domain.RiskSignal{
			Severity:    RiskHigh,
			Label:       "Frequent Claimant",
			Description: fmt.Sprintf("%d claims filed by this user in the last 90 days", recent),
		})
		score += 25
	} else if recent > 1 {
		signals = append(signals, domain.RiskSignal{
			Severity:    RiskMedium,
			Label:       "Multiple Recent Claims",
			Description: fmt.Sprintf("%d claims filed by this user in the last 90 days", recent),
		})
		score += 10
	}

	if claim.Amount != nil && claim.Amount.GreaterThan(highValueCeiling) {
		signals = append(signals, domain.RiskSignal{
			Severity:    RiskHigh,
			Label:       "High Value Claim",
			Description: "Claim exceeds $100,000 threshold",
		})
		score += 20
	}

	if claim.IncidentDate != nil && !claim.FiledDate.IsZero() {
		incidentDay := claim.IncidentDate.Truncate(24 * time.Hour)
		if int(claim.FiledDate.Sub(incidentDay).Hours()/24) == 0 {
			signals = append(signals, domain.RiskSignal{
				Severity:    RiskLow,
				Label:       "Same-Day Filing",
				Description: "Claim filed on the same day as the incident",
			})
			score += 5
		}
	}

	lifetime, err := s.repo.CountUserClaims(ctx, orgID, claim.UserID)
	if err != nil {
		return nil, err
	}
	if lifetime > 10 {
		signals = append(signals, domain.RiskSignal{
			Severity:    RiskMedium,
			Label:       "High Claim History",
			Description: fmt.Sprintf("%d total claims from this user", lifetime),
		})
		score += 15
	}

	if len(signals) == 0 {
		signals = append(signals, domain.RiskSignal{
			Severity:    RiskLow,
			Label:       "No Risk Signals",
			Description: "No elevated risk factors detected",
		})
	}

	overall := RiskLow
	switch {
	case score >= 50:
		overall = RiskHigh
	case score >= 25:
		overall = RiskMedium
	}

	return &domain.RiskAssessment{
		OverallRisk: overall,
		RiskScore:   score,
		Signals:     signals,
	}, nil
}
