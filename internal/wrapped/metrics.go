package wrapped

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/stacks-wrapped/internal/types"
)

const (
	topN = 5

	// assumedNftSupply is used when the indexer reports no supply count for
	// a holding.
	assumedNftSupply = 10000

	secondsPerDay = 86400
)

// MetricsBuilder turns an Index plus the raw fetched collections into the
// flat Metrics record.
type MetricsBuilder struct {
	targetYear     int
	lookbackMonths int
	now            time.Time
}

// NewMetricsBuilder creates a builder evaluating hold durations and the
// monthly series relative to now.
func NewMetricsBuilder(targetYear, lookbackMonths int, now time.Time) *MetricsBuilder {
	if lookbackMonths <= 0 {
		lookbackMonths = 12
	}
	return &MetricsBuilder{
		targetYear:     targetYear,
		lookbackMonths: lookbackMonths,
		now:            now.UTC(),
	}
}

// Build derives every metric from the index and the fetched collections.
func (b *MetricsBuilder) Build(idx *Index, txs []types.Transaction, holdings, inScope []types.NftHolding) Metrics {
	m := Metrics{
		TotalTransactions:     idx.TotalTransactions,
		VolumeSTX:             idx.VolumeMicro / types.MicroUnitsPerNative,
		NftCount:              len(inScope),
		TopNfts:               b.rankNfts(inScope),
		TopTokens:             b.rankTokens(idx),
		TopProtocols:          b.rankProtocols(idx),
		TotalCollectionsOwned: countCollections(holdings),
	}

	for _, count := range idx.ProtocolCalls {
		m.TotalContractInteractions += count
	}

	if idx.LargestNativeTxID != "" {
		m.LargestTransfer = &LargestTransfer{
			AmountSTX: idx.LargestNativeMicro / types.MicroUnitsPerNative,
			TxID:      idx.LargestNativeTxID,
		}
	}

	if len(m.TopTokens) > 0 {
		m.LongestHoldDays = m.TopTokens[0].DaysHeld
	}

	if !idx.EarliestTx.IsZero() {
		m.FirstTxDate = idx.EarliestTx.Format("2006-01-02")
	}

	m.MonthlyActivity, m.BusiestMonth = b.bucketByMonth(txs)

	return m
}

// daysHeld computes whole days between first-seen and now, floored at zero.
func (b *MetricsBuilder) daysHeld(firstSeen time.Time) int {
	days := int(b.now.Sub(firstSeen).Seconds() / secondsPerDay)
	if days < 0 {
		return 0
	}
	return days
}

// rankTokens merges the all-time and target-year first-seen maps and ranks
// the union by days held. Days held always come from the combined earliest
// date; the target-year map only widens the candidate set.
func (b *MetricsBuilder) rankTokens(idx *Index) []TokenHolding {
	firstSeen := make(map[string]time.Time, len(idx.TokenFirstSeen)+len(idx.TokenSeenInYear))
	for name, ts := range idx.TokenFirstSeen {
		firstSeen[name] = ts
	}
	for name, ts := range idx.TokenSeenInYear {
		if current, ok := firstSeen[name]; !ok || ts.Before(current) {
			firstSeen[name] = ts
		}
	}

	tokens := make([]TokenHolding, 0, len(firstSeen))
	for name, ts := range firstSeen {
		tokens = append(tokens, TokenHolding{
			Name:      name,
			DaysHeld:  b.daysHeld(ts),
			FirstSeen: ts,
		})
	}

	sort.Slice(tokens, func(i, j int) bool {
		if tokens[i].DaysHeld != tokens[j].DaysHeld {
			return tokens[i].DaysHeld > tokens[j].DaysHeld
		}
		return tokens[i].Name < tokens[j].Name
	})

	if len(tokens) > topN {
		tokens = tokens[:topN]
	}
	return tokens
}

// rankNfts scores each in-scope holding by rarity and keeps the top five.
func (b *MetricsBuilder) rankNfts(inScope []types.NftHolding) []RankedNft {
	nfts := make([]RankedNft, 0, len(inScope))
	for i := range inScope {
		h := &inScope[i]
		collection := types.AssetDisplayName(h.AssetID)
		tokenID := h.TokenID()

		supply := h.Count
		if supply <= 0 {
			supply = assumedNftSupply
		}

		nfts = append(nfts, RankedNft{
			Name:       fmt.Sprintf("%s #%s", collection, tokenID),
			Collection: collection,
			TokenID:    tokenID,
			AssetID:    h.AssetID,
			Rarity:     RarityScore(supply),
		})
	}

	sort.Slice(nfts, func(i, j int) bool {
		if nfts[i].Rarity != nfts[j].Rarity {
			return nfts[i].Rarity > nfts[j].Rarity
		}
		return nfts[i].Name < nfts[j].Name
	})

	if len(nfts) > topN {
		nfts = nfts[:topN]
	}
	return nfts
}

// RarityScore derives a 1-99 score inversely related to supply:
// round(100 * (1 - log(supply+1)/log(10000))), clamped. Lower supply means
// a higher score.
func RarityScore(supply int64) int {
	if supply < 0 {
		supply = 0
	}
	score := int(math.Round(100 * (1 - math.Log(float64(supply)+1)/math.Log(10000))))
	if score < 1 {
		return 1
	}
	if score > 99 {
		return 99
	}
	return score
}

// rankProtocols canonicalizes contract ids, keeps only known protocols,
// sums interaction counts per display name and ranks them.
func (b *MetricsBuilder) rankProtocols(idx *Index) []ProtocolUsage {
	byName := make(map[string]int)
	for contractID, count := range idx.ProtocolCalls {
		display := canonicalProtocolName(contractID)
		if !isKnownProtocol(display) {
			continue
		}
		byName[display] += count
	}

	protocols := make([]ProtocolUsage, 0, len(byName))
	for name, count := range byName {
		protocols = append(protocols, ProtocolUsage{Name: name, Interactions: count})
	}

	sort.Slice(protocols, func(i, j int) bool {
		if protocols[i].Interactions != protocols[j].Interactions {
			return protocols[i].Interactions > protocols[j].Interactions
		}
		return protocols[i].Name < protocols[j].Name
	})

	if len(protocols) > topN {
		protocols = protocols[:topN]
	}
	return protocols
}

// bucketByMonth groups transactions by calendar month over the lookback
// window and picks the busiest bucket. Returns "N/A" when the window holds
// no datable activity.
func (b *MetricsBuilder) bucketByMonth(txs []types.Transaction) ([]MonthCount, string) {
	type bucket struct {
		label string
		count int
	}

	// Oldest month first, ending with the current month.
	buckets := make([]bucket, b.lookbackMonths)
	keys := make(map[string]int, b.lookbackMonths)
	for i := 0; i < b.lookbackMonths; i++ {
		month := time.Date(b.now.Year(), b.now.Month(), 1, 0, 0, 0, 0, time.UTC).
			AddDate(0, i-b.lookbackMonths+1, 0)
		buckets[i] = bucket{label: month.Format("Jan")}
		keys[month.Format("2006-01")] = i
	}

	for i := range txs {
		ts, ok := txs[i].Time()
		if !ok {
			continue
		}
		if pos, ok := keys[ts.Format("2006-01")]; ok {
			buckets[pos].count++
		}
	}

	series := make([]MonthCount, len(buckets))
	busiest := "N/A"
	best := 0
	for i, bk := range buckets {
		series[i] = MonthCount{Month: bk.label, Count: bk.count}
		if bk.count > best {
			best = bk.count
			busiest = bk.label
		}
	}
	return series, busiest
}

// countCollections counts distinct collections across all held NFTs.
func countCollections(holdings []types.NftHolding) int {
	collections := make(map[string]bool)
	for i := range holdings {
		if name := types.AssetDisplayName(holdings[i].AssetID); name != "" {
			collections[name] = true
		}
	}
	return len(collections)
}
