package ledger

import "github.com/google/uuid"

// ApprovalCodeFunc mints a unique, opaque approval code.
type ApprovalCodeFunc func() string

// NewApprovalCode returns a random UUID. Callers must treat it as opaque.
func NewApprovalCode() string {
	return uuid.NewString()
}
