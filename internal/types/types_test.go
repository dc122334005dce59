package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionTimePrecedence(t *testing.T) {
	tests := []struct {
		name string
		tx   Transaction
		want time.Time
		ok   bool
	}{
		{
			name: "burn chain ISO wins",
			tx: Transaction{
				BurnBlockTimeISO: "2025-01-01T00:00:00Z",
				BlockTimeISO:     "2025-06-01T00:00:00Z",
				BurnBlockTime:    1750000000,
			},
			want: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			ok:   true,
		},
		{
			name: "block ISO when burn ISO absent",
			tx: Transaction{
				BlockTimeISO: "2025-06-01T00:00:00Z",
				BlockTime:    1750000000,
			},
			want: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			ok:   true,
		},
		{
			name: "numeric fallback",
			tx:   Transaction{BurnBlockTime: 1735689600},
			want: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			ok:   true,
		},
		{
			name: "malformed ISO falls through to numeric",
			tx: Transaction{
				BurnBlockTimeISO: "not a timestamp",
				BlockTime:        1735689600,
			},
			want: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			ok:   true,
		},
		{
			name: "nothing resolves",
			tx:   Transaction{TxID: "0x1"},
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.tx.Time()
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
			}
		})
	}
}

func TestAssetDisplayName(t *testing.T) {
	assert.Equal(t, "WELSH", AssetDisplayName("SP2.welsh::WELSH"))
	assert.Equal(t, "SP2.welsh", AssetDisplayName("SP2.welsh"))
	assert.Equal(t, "SP2.welsh", AssetDisplayName("SP2.welsh::"))
}

func TestContractPrincipal(t *testing.T) {
	assert.Equal(t, "SP2.welsh", ContractPrincipal("SP2.welsh::WELSH"))
	assert.Equal(t, "SP2.welsh", ContractPrincipal("SP2.welsh"))
}

func TestNftHoldingTokenID(t *testing.T) {
	h := NftHolding{Value: &NftValue{Repr: "u42"}}
	assert.Equal(t, "42", h.TokenID())

	h = NftHolding{Value: &NftValue{Repr: "42"}}
	assert.Equal(t, "42", h.TokenID())

	h = NftHolding{}
	assert.Empty(t, h.TokenID())
}

func TestTokenTransferSymbolOrNative(t *testing.T) {
	var nilTransfer *TokenTransfer
	assert.Equal(t, "STX", nilTransfer.SymbolOrNative())

	tt := &TokenTransfer{}
	assert.Equal(t, "STX", tt.SymbolOrNative())
	assert.True(t, tt.IsNative())

	tt = &TokenTransfer{Token: &TokenAsset{Symbol: "stx"}}
	assert.True(t, tt.IsNative(), "native check is case-insensitive")

	tt = &TokenTransfer{Asset: &TokenAsset{Symbol: "WELSH"}}
	assert.Equal(t, "WELSH", tt.SymbolOrNative())
	assert.False(t, tt.IsNative())
}

func TestFtBalanceHasActivity(t *testing.T) {
	assert.False(t, (&FtBalance{}).HasActivity())
	assert.False(t, (&FtBalance{Balance: "0"}).HasActivity())
	assert.True(t, (&FtBalance{Balance: "1"}).HasActivity())
	assert.True(t, (&FtBalance{Balance: "0", TotalSent: "5"}).HasActivity())
	assert.True(t, (&FtBalance{TotalReceived: "7"}).HasActivity())
}
