package wrapped

import (
	"regexp"

	"github.com/stacks-wrapped/internal/types"
)

// Scoring weights for the legacy badge classifier. One bucket per
// transaction, highest-priority match only.
const (
	weightDefi      = 5
	weightNft       = 3
	weightTransfer  = 1
	weightLongevity = 10
)

var (
	defiContractPattern = regexp.MustCompile(`(?i)alex|bitflow|friedger|arkadiko`)
	nftKeywordPattern   = regexp.MustCompile(`(?i)nft|megapont|bns`)
)

// badges is the legacy club-badge label set.
var badges = map[string]Classification{
	"HODL_HERO": {
		Title:       "HODL Hero",
		Description: "Held through thick and thin — a true long-term believer.",
		BadgeIcon:   "HodlHeroBadge.svg",
	},
	"YIELD_MASTER": {
		Title:       "DeFi Guru",
		Description: "Deep in the DeFi trenches, farming across protocols.",
		BadgeIcon:   "DeFiGuru.svg",
	},
	"STACKS_CURATOR": {
		Title:       "Stacks Curator",
		Description: "An eye for digital collectibles across the ecosystem.",
		BadgeIcon:   "StacksCurator.svg",
	},
	"EXPLORER": {
		Title:       "Explorer",
		Description: "Charting the Stacks frontier, one transaction at a time.",
		BadgeIcon:   "Explorer.svg",
	},
}

// titles is the metrics-based title label set.
var titles = map[string]Classification{
	"WHALE_TRADER": {
		Title:       "Whale Trader",
		Description: "Massive on-chain activity with 1,200+ transactions in 2025.",
		BadgeIcon:   "WhaleTrader.svg",
	},
	"DEFI_GURU": {
		Title:       "DeFi Guru",
		Description: "A power user of DeFi protocols with 300+ contract interactions.",
		BadgeIcon:   "DeFiGuru.svg",
	},
	"HODL_HERO": {
		Title:       "HODL Hero",
		Description: "Diamond hands — held all top 5 tokens for 300+ days.",
		BadgeIcon:   "HodlHeroBadge.svg",
	},
	"ELITE_COLLECTOR": {
		Title:       "Elite Collector",
		Description: "Owns 10+ NFT collections across the Stacks ecosystem.",
		BadgeIcon:   "EliteCollector.svg",
	},
	"STACKS_VOYAGER": {
		Title:       "The Stacks Voyager",
		Description: "Exploring the Stacks ecosystem — keep going, the best is ahead.",
		BadgeIcon:   "StacksVoyager.svg",
	},
}

func isDefiContractCall(tx *types.Transaction) bool {
	if tx.ContractCall == nil {
		return false
	}
	return defiContractPattern.MatchString(tx.ContractCall.ContractID)
}

func isNftTransfer(tx *types.Transaction) bool {
	if tx.TxType == types.TxSmartContract {
		return true
	}
	text := tx.Memo
	for i := range tx.Events {
		text += string(tx.Events[i].EventType)
	}
	return nftKeywordPattern.MatchString(text)
}

// ClassifyBadge assigns the legacy club badge from a single scoring pass over
// the transaction list plus the longest hold duration. Pure: no I/O, no
// randomness, same inputs always yield the same badge.
func ClassifyBadge(txs []types.Transaction, longestHoldDays int) Classification {
	var defi, nft, transfer, longevity int

	for i := range txs {
		tx := &txs[i]
		switch {
		case isDefiContractCall(tx):
			defi += weightDefi
		case isNftTransfer(tx):
			nft += weightNft
		case tx.TxType == types.TxTokenTransfer:
			transfer += weightTransfer
		}
	}

	switch {
	case longestHoldDays >= 365:
		longevity = weightLongevity * 2
	case longestHoldDays >= 180:
		longevity = weightLongevity
	}

	switch {
	case longestHoldDays >= 300:
		return badges["HODL_HERO"]
	case nft > defi && nft > transfer:
		return badges["STACKS_CURATOR"]
	case defi > nft && defi > transfer && longestHoldDays >= 100:
		return badges["YIELD_MASTER"]
	case longevity >= weightLongevity && longestHoldDays >= 180:
		return badges["HODL_HERO"]
	default:
		return badges["EXPLORER"]
	}
}

// ClassifyTitle assigns the activity title from the derived metrics. First
// matching rule wins; the voyager default always terminates the chain.
func ClassifyTitle(m Metrics) Classification {
	switch {
	case m.TotalTransactions >= 1200:
		return titles["WHALE_TRADER"]
	case m.TotalContractInteractions > 300:
		return titles["DEFI_GURU"]
	case allHeldBeyond(m.TopTokens, 300):
		return titles["HODL_HERO"]
	case m.TotalCollectionsOwned >= 10:
		return titles["ELITE_COLLECTOR"]
	default:
		return titles["STACKS_VOYAGER"]
	}
}

// allHeldBeyond reports whether the ranked list holds a full top five and
// every entry exceeds the day threshold.
func allHeldBeyond(tokens []TokenHolding, days int) bool {
	if len(tokens) < topN {
		return false
	}
	for _, t := range tokens {
		if t.DaysHeld <= days {
			return false
		}
	}
	return true
}
