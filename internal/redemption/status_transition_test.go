package redemption

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pitboss/pkg/domain"
	"pitboss/pkg/errors"
)

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.RedemptionStatus
		to      domain.RedemptionStatus
		allowed bool
	}{
		{"requested to processing", domain.RedemptionStatusRequested, domain.RedemptionStatusProcessing, true},
		{"requested to failed", domain.RedemptionStatusRequested, domain.RedemptionStatusFailed, true},
		{"requested to fulfilled skips processing", domain.RedemptionStatusRequested, domain.RedemptionStatusFulfilled, false},
		{"processing to fulfilled", domain.RedemptionStatusProcessing, domain.RedemptionStatusFulfilled, true},
		{"processing to failed", domain.RedemptionStatusProcessing, domain.RedemptionStatusFailed, true},
		{"processing back to requested", domain.RedemptionStatusProcessing, domain.RedemptionStatusRequested, false},
		{"failed retried to processing", domain.RedemptionStatusFailed, domain.RedemptionStatusProcessing, true},
		{"failed to fulfilled directly", domain.RedemptionStatusFailed, domain.RedemptionStatusFulfilled, false},
		{"fulfilled is terminal", domain.RedemptionStatusFulfilled, domain.RedemptionStatusProcessing, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransition(tt.from, tt.to)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, errors.ErrInvalidStatusTransition)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(domain.RedemptionStatusFulfilled))
	assert.False(t, IsTerminal(domain.RedemptionStatusRequested))
	assert.False(t, IsTerminal(domain.RedemptionStatusProcessing))
	assert.False(t, IsTerminal(domain.RedemptionStatusFailed))
}
