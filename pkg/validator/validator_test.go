package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type balanceQuery struct {
	Address string `validate:"required,eth_address"`
	Network string `validate:"omitempty,oneof=base base-sepolia local"`
}

func TestValidateEthAddress(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&balanceQuery{
		Address: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
	}))
	assert.Error(t, v.Validate(&balanceQuery{Address: "0x123"}))
	assert.Error(t, v.Validate(&balanceQuery{Address: ""}))
}

func TestValidateStructuredFieldMessages(t *testing.T) {
	v := New()

	fields := v.ValidateStructured(&balanceQuery{
		Address: "nothex",
		Network: "dogecoin",
	})

	assert.Len(t, fields, 2)
	assert.Contains(t, fields["Address"], "Invalid wallet address")
	assert.Contains(t, fields["Network"], "Must be one of")
}

func TestValidateStructuredCleanInputReturnsNil(t *testing.T) {
	v := New()

	fields := v.ValidateStructured(&balanceQuery{
		Address: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		Network: "local",
	})

	assert.Nil(t, fields)
}

func TestIsEthAddress(t *testing.T) {
	assert.True(t, IsEthAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"))
	assert.True(t, IsEthAddress("  0x70997970c51812dc3a010c7d01b50e0d17dc79c8  "))
	assert.False(t, IsEthAddress("0x123"))
	assert.False(t, IsEthAddress("70997970C51812dc3A010C7d01b50e0d17dc79C8"))
	assert.False(t, IsEthAddress(""))
}
