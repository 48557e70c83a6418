package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound           = errors.New("claim_not_found")
	ErrAttachmentNotFound = errors.New("attachment_not_found")
	ErrInvalidStatus      = errors.New("invalid_status")
	ErrInvalidType        = errors.New("invalid_type")
	ErrNumberExhausted    = errors.New("claim_number_conflict")
)

// PermissionError reports a failed role gate. The message names only the
// role class the operation requires, never the caller's actual roles.
type PermissionError struct {
	Operation Operation
	Required  string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s requires %s", e.Operation, e.Required)
}

// TransitionError reports an operation attempted against a claim in the
// wrong lifecycle state. The message names the required status.
type TransitionError struct {
	Operation Operation
	Required  []ClaimStatus
}

func (e *TransitionError) Error() string {
	names := make([]string, 0, len(e.Required))
	for _, s := range e.Required {
		names = append(names, string(s))
	}
	return fmt.Sprintf("can only %s claims in %s status", e.Operation, strings.Join(names, " or "))
}
