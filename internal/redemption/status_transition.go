// ==============================================================================
// REDEMPTION STATUS TRANSITIONS - internal/redemption/status_transition.go
// ==============================================================================
package redemption

import (
	"fmt"

	"pitboss/pkg/domain"
	"pitboss/pkg/errors"
)

// allowedTransitions is the full lifecycle of a mint-pass redemption.
// requested -> processing -> fulfilled | failed. A failed redemption may be
// retried by moving it back to processing.
var allowedTransitions = map[domain.RedemptionStatus][]domain.RedemptionStatus{
	domain.RedemptionStatusRequested:  {domain.RedemptionStatusProcessing, domain.RedemptionStatusFailed},
	domain.RedemptionStatusProcessing: {domain.RedemptionStatusFulfilled, domain.RedemptionStatusFailed},
	domain.RedemptionStatusFailed:     {domain.RedemptionStatusProcessing},
	domain.RedemptionStatusFulfilled:  {},
}

// ValidateTransition returns a typed error when from -> to is not allowed.
func ValidateTransition(from, to domain.RedemptionStatus) error {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", errors.ErrInvalidStatusTransition, from, to)
}

// IsTerminal reports whether no further transitions are possible.
func IsTerminal(status domain.RedemptionStatus) bool {
	return len(allowedTransitions[status]) == 0
}
