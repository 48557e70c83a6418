package service

import (
	"context"
	"fmt"
	"time"

	"github.com/coverbase/claims/internal/claim/domain"
)

// nextClaimNumber derives the next sequential number for the calendar year,
// CLM-<year>-<5-digit-seq>. The count-then-insert window is racy, so the
// caller treats a unique violation on insert as a signal to re-derive and
// retry rather than an error.
func nextClaimNumber(ctx context.Context, repo domain.Repository, now time.Time) (string, error) {
	prefix := fmt.Sprintf("CLM-%d-", now.Year())
	count, err := repo.CountClaimsByNumberPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}
