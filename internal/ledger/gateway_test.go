package ledger

import (
	"context"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedABIParses(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(contractABIJSON))
	require.NoError(t, err)

	writes := []string{
		"addProduct", "logCare", "updateProduct",
		"approvePlanting", "rejectPlanting",
		"approveHarvest", "rejectHarvest",
		"updateReceive", "updateDelivery",
		"updateManagerInfo", "deactivateProduct",
	}
	for _, method := range writes {
		_, ok := parsed.Methods[method]
		assert.True(t, ok, "missing write method %s", method)
	}

	reads := []string{"nextProductId", "indexToProductId", "getTrace", "getCareLogs"}
	for _, method := range reads {
		_, ok := parsed.Methods[method]
		assert.True(t, ok, "missing read method %s", method)
	}

	// addProduct carries the full creation tuple, zero-padded slots included.
	assert.Len(t, parsed.Methods["addProduct"].Inputs, 13)
	assert.Len(t, parsed.Methods["logCare"].Inputs, 7)
}

func TestNewGatewayRequiresPrivateKey(t *testing.T) {
	_, err := NewGateway(context.Background(), Config{
		RPCURL:          "http://localhost:8545",
		ContractAddress: "0x0000000000000000000000000000000000000001",
	})
	assert.ErrorIs(t, err, ErrMissingPrivateKey)
}

func TestTraceInfoExists(t *testing.T) {
	assert.False(t, (*TraceInfo)(nil).Exists())
	assert.False(t, (&TraceInfo{}).Exists())
	assert.False(t, (&TraceInfo{ProductId: "0x0000000000000000000000000000000000000000"}).Exists())
	assert.True(t, (&TraceInfo{ProductId: "P001"}).Exists())
}
