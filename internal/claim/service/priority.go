package service

import (
	"time"

	"github.com/coverbase/claims/internal/claim/domain"
	"github.com/shopspring/decimal"
)

const (
	PriorityCritical = "CRITICAL"
	PriorityHigh     = "HIGH"
	PriorityMedium   = "MEDIUM"
	PriorityLow      = "LOW"
)

var (
	amountTier1 = decimal.NewFromInt(100000)
	amountTier2 = decimal.NewFromInt(50000)
	amountTier3 = decimal.NewFromInt(10000)
	amountTier4 = decimal.NewFromInt(1000)
)

// calculatePriority scores a claim's urgency from amount, type, age and
// status. Scores are additive and recomputed on every read; a missing
// amount simply contributes nothing.
func calculatePriority(claim *domain.Claim, now time.Time) domain.Priority {
	score := 0

	if claim.Amount != nil {
		switch {
		case claim.Amount.GreaterThanOrEqual(amountTier1):
			score += 40
		case claim.Amount.GreaterThanOrEqual(amountTier2):
			score += 30
		case claim.Amount.GreaterThanOrEqual(amountTier3):
			score += 20
		case claim.Amount.GreaterThanOrEqual(amountTier4):
			score += 10
		}
	}

	switch claim.Type {
	case domain.TypeLiability:
		score += 20
	case domain.TypeProperty:
		score += 15
	case domain.TypeHealth:
		score += 10
	case domain.TypeAuto:
		score += 5
	}

	if !claim.FiledDate.IsZero() {
		daysOld := int(now.Sub(claim.FiledDate).Hours() / 24)
		switch {
		case daysOld > 30:
			score += 20
		case daysOld > 14:
			score += 10
		case daysOld > 7:
			score += 5
		}
	}

	if claim.Status == domain.StatusSubmitted || claim.Status == domain.StatusUnderReview {
		score += 10
	}

	label := PriorityLow
	switch {
	case score >= 70:
		label = PriorityCritical
	case score >= 50:
		label = PriorityHigh
	case score >= 30:
		label = PriorityMedium
	}

	return domain.Priority{Label: label, Score: score}
}
