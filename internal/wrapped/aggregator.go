package wrapped

import (
	"strconv"
	"time"

	"github.com/stacks-wrapped/internal/types"
)

// Index holds the per-asset and per-protocol indices derived from one pass
// over the fetched activity. Rebuilt per request, never persisted.
type Index struct {
	// TotalTransactions counts every fetched record, timestamped or not.
	TotalTransactions int

	// EarliestTx is the earliest resolved transaction timestamp, used as a
	// fallback acquisition date. Zero when no transaction resolved a time.
	EarliestTx time.Time

	// HoldingAcquired maps asset identifier to the latest transfer-in
	// timestamp touching that asset. Latest-wins.
	HoldingAcquired map[string]time.Time

	// TokenFirstSeen maps token display name to the earliest timestamp seen
	// across all transfer/event sources. Earliest-wins.
	TokenFirstSeen map[string]time.Time

	// TokenSeenInYear mirrors TokenFirstSeen restricted to the target year.
	TokenSeenInYear map[string]time.Time

	// ProtocolCalls counts contract-call transactions per contract id,
	// restricted to the target year.
	ProtocolCalls map[string]int

	// LargestNativeMicro is the biggest single native transfer inside the
	// target year, in micro-units, with its transaction id.
	LargestNativeMicro uint64
	LargestNativeTxID  string

	// VolumeMicro sums token_transfer amounts across all fetched
	// transactions, not restricted to the target year.
	VolumeMicro uint64

	// Timestamp lookups for the NFT in-scope fallback ladder.
	txTimeByID     map[string]time.Time
	txTimeByHeight map[uint64]time.Time

	// sawNftActivity records whether any transaction carried NFT transfer
	// evidence, driving the show-something fallback.
	sawNftActivity bool
}

// Aggregator reduces raw activity into an Index in a single pass. It never
// fails: malformed or missing fields contribute nothing to the indices and
// processing continues.
type Aggregator struct {
	targetYear int
}

// NewAggregator creates an aggregator scoped to the given target year.
func NewAggregator(targetYear int) *Aggregator {
	return &Aggregator{targetYear: targetYear}
}

// Aggregate walks the transaction list once, merges the supplementary
// transfer feed, and seeds first-seen dates from current balances.
func (a *Aggregator) Aggregate(txs []types.Transaction, feed []types.TransferEvent, balances []types.FtBalance) *Index {
	idx := &Index{
		HoldingAcquired: make(map[string]time.Time),
		TokenFirstSeen:  make(map[string]time.Time),
		TokenSeenInYear: make(map[string]time.Time),
		ProtocolCalls:   make(map[string]int),
		txTimeByID:      make(map[string]time.Time),
		txTimeByHeight:  make(map[uint64]time.Time),
	}

	for i := range txs {
		a.indexTransaction(idx, &txs[i])
	}
	for i := range feed {
		a.mergeTransferEvent(idx, &feed[i])
	}
	a.seedFromBalances(idx, balances)

	return idx
}

func (a *Aggregator) indexTransaction(idx *Index, tx *types.Transaction) {
	idx.TotalTransactions++

	// Volume is not time-sensitive; sum it before the timestamp gate.
	if tx.TxType == types.TxTokenTransfer && tx.TokenTransfer != nil {
		if amount, err := strconv.ParseUint(tx.TokenTransfer.Amount, 10, 64); err == nil {
			idx.VolumeMicro += amount
		}
	}

	ts, ok := tx.Time()
	if !ok {
		return
	}

	if idx.EarliestTx.IsZero() || ts.Before(idx.EarliestTx) {
		idx.EarliestTx = ts
	}
	if tx.TxID != "" {
		if _, seen := idx.txTimeByID[tx.TxID]; !seen {
			idx.txTimeByID[tx.TxID] = ts
		}
	}
	if tx.BlockHeight > 0 {
		if _, seen := idx.txTimeByHeight[tx.BlockHeight]; !seen {
			idx.txTimeByHeight[tx.BlockHeight] = ts
		}
	}

	inYear := ts.Year() == a.targetYear

	// NFT transfer evidence: latest-wins acquisition date per asset.
	for i := range tx.Events {
		ev := &tx.Events[i]
		if ev.EventType != types.EventNftAsset {
			continue
		}
		if assetID := ev.AssetIdentifier(); assetID != "" {
			idx.sawNftActivity = true
			latestWins(idx.HoldingAcquired, assetID, ts)
		}
	}
	for i := range tx.NftTransfers {
		if assetID := tx.NftTransfers[i].AssetID; assetID != "" {
			idx.sawNftActivity = true
			latestWins(idx.HoldingAcquired, assetID, ts)
		}
	}

	// FT transfer evidence: earliest-wins first-seen date per token name.
	for i := range tx.Events {
		ev := &tx.Events[i]
		if ev.EventType != types.EventFtAsset {
			continue
		}
		if assetID := ev.AssetIdentifier(); assetID != "" {
			a.recordTokenSeen(idx, types.AssetDisplayName(assetID), ts, inYear)
		}
	}

	switch tx.TxType {
	case types.TxTokenTransfer:
		if tx.TokenTransfer != nil {
			a.recordTokenSeen(idx, tx.TokenTransfer.SymbolOrNative(), ts, inYear)

			if inYear && tx.TokenTransfer.IsNative() {
				if amount, err := strconv.ParseUint(tx.TokenTransfer.Amount, 10, 64); err == nil {
					if amount > idx.LargestNativeMicro {
						idx.LargestNativeMicro = amount
						idx.LargestNativeTxID = tx.TxID
					}
				}
			}
		}
	case types.TxContractCall:
		if inYear && tx.ContractCall != nil && tx.ContractCall.ContractID != "" {
			idx.ProtocolCalls[tx.ContractCall.ContractID]++
		}
	}
}

// mergeTransferEvent folds the supplementary per-token feed into the
// first-seen maps using the same earliest-wins rule.
func (a *Aggregator) mergeTransferEvent(idx *Index, ev *types.TransferEvent) {
	if ev.AssetID == "" {
		return
	}
	ts, ok := ev.Time()
	if !ok {
		return
	}
	a.recordTokenSeen(idx, types.AssetDisplayName(ev.AssetID), ts, ts.Year() == a.targetYear)
}

// seedFromBalances gives tokens with transfer history outside the fetched
// window a first-seen date, so current holdings still rank. Seeds with the
// earliest known transaction timestamp, else the start of the target year.
func (a *Aggregator) seedFromBalances(idx *Index, balances []types.FtBalance) {
	fallback := idx.EarliestTx
	if fallback.IsZero() {
		fallback = time.Date(a.targetYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	}

	for i := range balances {
		b := &balances[i]
		if !b.HasActivity() {
			continue
		}
		name := b.Symbol
		if name == "" {
			name = types.AssetDisplayName(b.AssetID)
		}
		if name == "" {
			continue
		}
		if _, seen := idx.TokenFirstSeen[name]; !seen {
			idx.TokenFirstSeen[name] = fallback
		}
	}
}

func (a *Aggregator) recordTokenSeen(idx *Index, name string, ts time.Time, inYear bool) {
	if name == "" {
		return
	}
	earliestWins(idx.TokenFirstSeen, name, ts)
	if inYear {
		earliestWins(idx.TokenSeenInYear, name, ts)
	}
}

// FilterHoldingsInYear returns the holdings acquired in the target year,
// resolved through the fallback ladder: acquisition map, same transaction
// id, same block height, then the holding's own timestamp. When transaction
// evidence shows NFT activity but the filter matches nothing, all holdings
// are treated as in-scope rather than showing an empty card.
func (a *Aggregator) FilterHoldingsInYear(idx *Index, holdings []types.NftHolding) []types.NftHolding {
	var inScope []types.NftHolding
	for i := range holdings {
		h := &holdings[i]
		if ts, ok := a.acquisitionTime(idx, h); ok && ts.Year() == a.targetYear {
			inScope = append(inScope, *h)
		}
	}

	if len(inScope) == 0 && idx.sawNftActivity && len(holdings) > 0 {
		return holdings
	}
	return inScope
}

func (a *Aggregator) acquisitionTime(idx *Index, h *types.NftHolding) (time.Time, bool) {
	if ts, ok := idx.HoldingAcquired[h.AssetID]; ok {
		return ts, true
	}
	if h.TxID != "" {
		if ts, ok := idx.txTimeByID[h.TxID]; ok {
			return ts, true
		}
	}
	if h.BlockHeight > 0 {
		if ts, ok := idx.txTimeByHeight[h.BlockHeight]; ok {
			return ts, true
		}
	}
	if h.BlockTime > 0 {
		return time.Unix(h.BlockTime, 0).UTC(), true
	}
	return time.Time{}, false
}

func latestWins(m map[string]time.Time, key string, ts time.Time) {
	if current, ok := m[key]; !ok || ts.After(current) {
		m[key] = ts
	}
}

func earliestWins(m map[string]time.Time, key string, ts time.Time) {
	if current, ok := m[key]; !ok || ts.Before(current) {
		m[key] = ts
	}
}
