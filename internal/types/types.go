// Package types provides the normalized record variants the wrapped pipeline
// operates on. Loosely-shaped indexer payloads are decoded into these types at
// the provider boundary; everything downstream is strongly typed.
package types

import (
	"strings"
	"time"
)

// TxType represents the kind of a Stacks transaction
type TxType string

const (
	// TxTokenTransfer represents a native or fungible token transfer
	TxTokenTransfer TxType = "token_transfer"
	// TxContractCall represents a call into a deployed contract
	TxContractCall TxType = "contract_call"
	// TxSmartContract represents a contract deployment
	TxSmartContract TxType = "smart_contract"
	// TxOther represents any transaction kind the pipeline does not score
	TxOther TxType = "other"
)

// EventType represents the kind of an event embedded in a transaction
type EventType string

const (
	// EventNftAsset represents a non-fungible token transfer event
	EventNftAsset EventType = "non_fungible_token_asset"
	// EventFtAsset represents a fungible token transfer event
	EventFtAsset EventType = "fungible_token_asset"
)

// NativeSymbol is the base unit of the Stacks chain. The indexer reports
// native amounts in micro-STX.
const NativeSymbol = "STX"

// MicroUnitsPerNative converts micro-STX amounts to whole STX.
const MicroUnitsPerNative = 1_000_000

// ContractCall holds the contract-call portion of a transaction
type ContractCall struct {
	ContractID   string `json:"contract_id"`
	FunctionName string `json:"function_name,omitempty"`
}

// TokenAsset identifies the asset moved by a token transfer
type TokenAsset struct {
	Symbol string `json:"symbol,omitempty"`
}

// TokenTransfer holds the transfer portion of a token_transfer transaction.
// Amount is kept as the indexer's decimal string; native amounts are micro-STX.
type TokenTransfer struct {
	RecipientAddress string      `json:"recipient_address,omitempty"`
	Amount           string      `json:"amount,omitempty"`
	Memo             string      `json:"memo,omitempty"`
	Token            *TokenAsset `json:"token,omitempty"`
	Asset            *TokenAsset `json:"asset,omitempty"`
}

// SymbolOrNative resolves the transfer's asset symbol, defaulting to the
// native unit when the indexer reports none.
func (t *TokenTransfer) SymbolOrNative() string {
	if t == nil {
		return NativeSymbol
	}
	if t.Token != nil && t.Token.Symbol != "" {
		return t.Token.Symbol
	}
	if t.Asset != nil && t.Asset.Symbol != "" {
		return t.Asset.Symbol
	}
	return NativeSymbol
}

// IsNative reports whether the transfer moves the chain's base unit.
func (t *TokenTransfer) IsNative() bool {
	return strings.EqualFold(t.SymbolOrNative(), NativeSymbol)
}

// EventAsset identifies the asset an embedded event touches
type EventAsset struct {
	AssetID string `json:"asset_id"`
}

// Event represents a transfer event embedded in a transaction
type Event struct {
	EventType EventType   `json:"event_type"`
	Asset     *EventAsset `json:"asset,omitempty"`
}

// AssetIdentifier returns the event's composite asset key, empty if absent.
func (e *Event) AssetIdentifier() string {
	if e.Asset == nil {
		return ""
	}
	return e.Asset.AssetID
}

// NftTransfer represents an entry of a transaction-level NFT transfer list
type NftTransfer struct {
	AssetID   string `json:"asset_identifier"`
	Recipient string `json:"recipient,omitempty"`
	Sender    string `json:"sender,omitempty"`
}

// Transaction is the normalized form of an indexer transaction record.
// Immutable once fetched; the pipeline only reads it.
type Transaction struct {
	TxID             string         `json:"tx_id"`
	TxType           TxType         `json:"tx_type"`
	BlockHeight      uint64         `json:"block_height,omitempty"`
	BurnBlockTimeISO string         `json:"burn_block_time_iso,omitempty"`
	BlockTimeISO     string         `json:"block_time_iso,omitempty"`
	BurnBlockTime    int64          `json:"burn_block_time,omitempty"`
	BlockTime        int64          `json:"block_time,omitempty"`
	Memo             string         `json:"memo,omitempty"`
	ContractCall     *ContractCall  `json:"contract_call,omitempty"`
	TokenTransfer    *TokenTransfer `json:"token_transfer,omitempty"`
	Events           []Event        `json:"events,omitempty"`
	NftTransfers     []NftTransfer  `json:"nft_transfers,omitempty"`
}

// Time resolves the transaction's effective timestamp by first-non-null
// precedence: burn-chain ISO, block ISO, burn-chain numeric, block numeric.
// Returns false when none resolve; the record still counts toward raw totals.
func (t *Transaction) Time() (time.Time, bool) {
	for _, iso := range []string{t.BurnBlockTimeISO, t.BlockTimeISO} {
		if iso == "" {
			continue
		}
		if ts, err := time.Parse(time.RFC3339, iso); err == nil {
			return ts.UTC(), true
		}
	}
	for _, unix := range []int64{t.BurnBlockTime, t.BlockTime} {
		if unix > 0 {
			return time.Unix(unix, 0).UTC(), true
		}
	}
	return time.Time{}, false
}

// FtBalance represents a current fungible-token balance row
type FtBalance struct {
	AssetID       string `json:"asset_identifier"`
	Symbol        string `json:"symbol,omitempty"`
	Balance       string `json:"balance"`
	TotalSent     string `json:"total_sent,omitempty"`
	TotalReceived string `json:"total_received,omitempty"`
}

// HasActivity reports whether the balance row shows any historical movement.
func (b *FtBalance) HasActivity() bool {
	nonzero := func(s string) bool {
		return s != "" && s != "0"
	}
	return nonzero(b.Balance) || nonzero(b.TotalSent) || nonzero(b.TotalReceived)
}

// NftValue is the raw on-chain representation of an NFT token id
type NftValue struct {
	Repr string `json:"repr,omitempty"`
	Hex  string `json:"hex,omitempty"`
}

// NftHolding represents one held NFT as reported by the indexer
type NftHolding struct {
	AssetID     string    `json:"asset_identifier"`
	Value       *NftValue `json:"value,omitempty"`
	TxID        string    `json:"tx_id,omitempty"`
	BlockHeight uint64    `json:"block_height,omitempty"`
	Count       int64     `json:"count,omitempty"`
	BlockTime   int64     `json:"block_time,omitempty"`
}

// TokenID returns the holding's display token id with the Clarity uint
// prefix stripped (`u123` renders as `123`).
func (h *NftHolding) TokenID() string {
	if h.Value == nil {
		return ""
	}
	return strings.TrimPrefix(h.Value.Repr, "u")
}

// TransferEvent is one entry of the supplementary per-token transfer feed
type TransferEvent struct {
	AssetID      string `json:"asset_identifier"`
	Amount       string `json:"amount,omitempty"`
	TxID         string `json:"tx_id,omitempty"`
	BlockTime    int64  `json:"block_time,omitempty"`
	BlockTimeISO string `json:"block_time_iso,omitempty"`
}

// Time resolves the feed entry's timestamp, ISO field first.
func (e *TransferEvent) Time() (time.Time, bool) {
	if e.BlockTimeISO != "" {
		if ts, err := time.Parse(time.RFC3339, e.BlockTimeISO); err == nil {
			return ts.UTC(), true
		}
	}
	if e.BlockTime > 0 {
		return time.Unix(e.BlockTime, 0).UTC(), true
	}
	return time.Time{}, false
}

// AssetDisplayName recovers the human-readable collection/token name from a
// composite `contractPrincipal::assetName` identifier. Falls back to the
// whole identifier when no separator is present.
func AssetDisplayName(assetID string) string {
	parts := strings.SplitN(assetID, "::", 2)
	if len(parts) == 2 && parts[1] != "" {
		return parts[1]
	}
	return parts[0]
}

// ContractPrincipal returns the contract portion of a composite asset key.
func ContractPrincipal(assetID string) string {
	return strings.SplitN(assetID, "::", 2)[0]
}

// TokenMetadata is best-effort display metadata for a fungible token
// contract. Absent fields stay empty when enrichment fails.
type TokenMetadata struct {
	Name     string `json:"name,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
	ImageURI string `json:"image_uri,omitempty"`
}

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}
