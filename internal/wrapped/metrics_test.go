package wrapped

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacks-wrapped/internal/types"
)

var testNow = time.Date(2025, 12, 15, 12, 0, 0, 0, time.UTC)

func newTestBuilder() *MetricsBuilder {
	return NewMetricsBuilder(testYear, 12, testNow)
}

func emptyIndex() *Index {
	return NewAggregator(testYear).Aggregate(nil, nil, nil)
}

func TestBuildLargestTransferConversion(t *testing.T) {
	idx := emptyIndex()
	idx.LargestNativeMicro = 1234567890 // 1234.56789 STX
	idx.LargestNativeTxID = "0xbig"

	m := newTestBuilder().Build(idx, nil, nil, nil)

	require.NotNil(t, m.LargestTransfer)
	assert.Equal(t, uint64(1234), m.LargestTransfer.AmountSTX, "micro-units floor to whole STX")
	assert.Equal(t, "0xbig", m.LargestTransfer.TxID)
}

func TestBuildNoLargestTransfer(t *testing.T) {
	m := newTestBuilder().Build(emptyIndex(), nil, nil, nil)
	assert.Nil(t, m.LargestTransfer)
}

func TestBuildTopTokensRanking(t *testing.T) {
	idx := emptyIndex()
	idx.TokenFirstSeen = map[string]time.Time{
		"OLD":   testNow.AddDate(-2, 0, 0),
		"MID":   testNow.AddDate(0, -6, 0),
		"NEW":   testNow.AddDate(0, 0, -10),
		"A":     testNow.AddDate(0, 0, -5),
		"B":     testNow.AddDate(0, 0, -5),
		"EXTRA": testNow.AddDate(0, 0, -1),
	}

	m := newTestBuilder().Build(idx, nil, nil, nil)

	require.Len(t, m.TopTokens, 5)
	assert.Equal(t, "OLD", m.TopTokens[0].Name)
	assert.Equal(t, m.TopTokens[0].DaysHeld, m.LongestHoldDays)
	// Equal days held falls back to name order.
	assert.Equal(t, "A", m.TopTokens[3].Name)
	assert.Equal(t, "B", m.TopTokens[4].Name)
	for i := 1; i < len(m.TopTokens); i++ {
		assert.GreaterOrEqual(t, m.TopTokens[i-1].DaysHeld, m.TopTokens[i].DaysHeld)
	}
}

func TestBuildTargetYearMapWidensCandidates(t *testing.T) {
	idx := emptyIndex()
	idx.TokenFirstSeen = map[string]time.Time{
		"ALEX": testNow.AddDate(-1, 0, 0),
	}
	idx.TokenSeenInYear = map[string]time.Time{
		// Seen earlier in the year than the all-time map knows about.
		"ALEX":  testNow.AddDate(-1, -2, 0),
		"FRESH": testNow.AddDate(0, -1, 0),
	}

	m := newTestBuilder().Build(idx, nil, nil, nil)

	require.Len(t, m.TopTokens, 2)
	assert.Equal(t, "ALEX", m.TopTokens[0].Name)
	// Days held uses the combined earliest date.
	assert.True(t, m.TopTokens[0].FirstSeen.Equal(testNow.AddDate(-1, -2, 0)))
}

func TestBuildDaysHeldNeverNegative(t *testing.T) {
	idx := emptyIndex()
	idx.TokenFirstSeen = map[string]time.Time{
		"FUTURE": testNow.AddDate(0, 0, 7),
	}

	m := newTestBuilder().Build(idx, nil, nil, nil)

	require.Len(t, m.TopTokens, 1)
	assert.Equal(t, 0, m.TopTokens[0].DaysHeld)
}

func TestDaysHeldMonotonicInClock(t *testing.T) {
	properties := gopter.NewProperties(nil)

	firstSeen := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	// Moving the clock forward never shrinks a token's days-held figure.
	properties.Property("days held never decreases as time passes", prop.ForAll(
		func(offsetHours1, offsetHours2 int64) bool {
			lo, hi := offsetHours1, offsetHours2
			if lo > hi {
				lo, hi = hi, lo
			}
			earlier := NewMetricsBuilder(testYear, 12, firstSeen.Add(time.Duration(lo)*time.Hour))
			later := NewMetricsBuilder(testYear, 12, firstSeen.Add(time.Duration(hi)*time.Hour))
			return later.daysHeld(firstSeen) >= earlier.daysHeld(firstSeen)
		},
		gen.Int64Range(-24*365, 24*365*10),
		gen.Int64Range(-24*365, 24*365*10),
	))

	properties.Property("days held is never negative", prop.ForAll(
		func(offsetHours int64) bool {
			b := NewMetricsBuilder(testYear, 12, firstSeen.Add(time.Duration(offsetHours)*time.Hour))
			return b.daysHeld(firstSeen) >= 0
		},
		gen.Int64Range(-24*365*10, 24*365*10),
	))

	properties.TestingRun(t)
}

func TestRarityScoreBounds(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("rarity stays within [1, 99]", prop.ForAll(
		func(supply int64) bool {
			score := RarityScore(supply)
			return score >= 1 && score <= 99
		},
		gen.Int64Range(0, 1<<40),
	))

	properties.Property("lower supply never scores lower", prop.ForAll(
		func(a, b int64) bool {
			lo, hi := a, b
			if lo > hi {
				lo, hi = hi, lo
			}
			return RarityScore(lo) >= RarityScore(hi)
		},
		gen.Int64Range(0, 1<<30),
		gen.Int64Range(0, 1<<30),
	))

	properties.TestingRun(t)
}

func TestBuildTopNftsRankingAndNaming(t *testing.T) {
	inScope := []types.NftHolding{
		{AssetID: "SP1.megapont::Megapont-Ape", Value: &types.NftValue{Repr: "u42"}, Count: 50},
		{AssetID: "SP2.punks::punk", Value: &types.NftValue{Repr: "u7"}, Count: 5000},
		{AssetID: "SP3.unknown::thing", Value: &types.NftValue{Repr: "u1"}}, // supply assumed
	}

	m := newTestBuilder().Build(emptyIndex(), nil, inScope, inScope)

	require.Len(t, m.TopNfts, 3)
	assert.Equal(t, "Megapont-Ape #42", m.TopNfts[0].Name)
	assert.Equal(t, "42", m.TopNfts[0].TokenID)
	for i := 1; i < len(m.TopNfts); i++ {
		assert.GreaterOrEqual(t, m.TopNfts[i-1].Rarity, m.TopNfts[i].Rarity)
	}
	assert.Equal(t, 3, m.NftCount)
}

func TestBuildTopProtocolsCanonicalized(t *testing.T) {
	idx := emptyIndex()
	idx.ProtocolCalls = map[string]int{
		"SP1.alex-vault":        10,
		"SP1.amm-pool-v2":       5,  // also ALEX
		"SP2.arkadiko-dao":      7,
		"SP3.random-contract":   99, // not on the allow-list
	}

	m := newTestBuilder().Build(idx, nil, nil, nil)

	require.Len(t, m.TopProtocols, 2)
	assert.Equal(t, ProtocolUsage{Name: "ALEX", Interactions: 15}, m.TopProtocols[0])
	assert.Equal(t, ProtocolUsage{Name: "Arkadiko", Interactions: 7}, m.TopProtocols[1])
	// Raw interaction total still counts everything.
	assert.Equal(t, 121, m.TotalContractInteractions)
}

func TestBuildMonthlyActivity(t *testing.T) {
	txs := []types.Transaction{
		isoTx("0x1", types.TxOther, "2025-11-02T00:00:00Z"),
		isoTx("0x2", types.TxOther, "2025-11-20T00:00:00Z"),
		isoTx("0x3", types.TxOther, "2025-03-05T00:00:00Z"),
		isoTx("0x4", types.TxOther, "2019-03-05T00:00:00Z"), // outside lookback
		{TxID: "0x5", TxType: types.TxOther},                // undated
	}

	m := newTestBuilder().Build(emptyIndex(), txs, nil, nil)

	require.Len(t, m.MonthlyActivity, 12)
	assert.Equal(t, "Nov", m.BusiestMonth)
	assert.Equal(t, "Jan", m.MonthlyActivity[0].Month)
	assert.Equal(t, "Dec", m.MonthlyActivity[11].Month)

	total := 0
	for _, mc := range m.MonthlyActivity {
		total += mc.Count
	}
	assert.Equal(t, 3, total)
}

func TestBuildBusiestMonthEmptyHistory(t *testing.T) {
	m := newTestBuilder().Build(emptyIndex(), nil, nil, nil)
	assert.Equal(t, "N/A", m.BusiestMonth)
}

func TestBuildCollectionsCountedAcrossAllHoldings(t *testing.T) {
	holdings := []types.NftHolding{
		{AssetID: "SP1.punks::punk", Value: &types.NftValue{Repr: "u1"}},
		{AssetID: "SP1.punks::punk", Value: &types.NftValue{Repr: "u2"}},
		{AssetID: "SP2.apes::ape", Value: &types.NftValue{Repr: "u3"}},
	}

	// Only one holding is in scope for the year; collections span everything.
	m := newTestBuilder().Build(emptyIndex(), nil, holdings, holdings[:1])

	assert.Equal(t, 2, m.TotalCollectionsOwned)
	assert.Equal(t, 1, m.NftCount)
}

func TestBuildFirstTxDate(t *testing.T) {
	idx := emptyIndex()
	idx.EarliestTx = time.Date(2021, 7, 4, 10, 30, 0, 0, time.UTC)

	m := newTestBuilder().Build(idx, nil, nil, nil)
	assert.Equal(t, "2021-07-04", m.FirstTxDate)
}
