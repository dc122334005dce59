package wrapped

import "time"

// TokenHolding is one ranked entry of the tokens-held-longest list.
type TokenHolding struct {
	Name      string    `json:"name"`
	DaysHeld  int       `json:"daysHeld"`
	FirstSeen time.Time `json:"firstSeen"`
	LogoURL   string    `json:"logoUrl,omitempty"`
}

// RankedNft is one ranked entry of the rarest-NFT list.
type RankedNft struct {
	Name       string `json:"name"`
	Collection string `json:"collection"`
	TokenID    string `json:"tokenId,omitempty"`
	AssetID    string `json:"-"`
	Rarity     int    `json:"rarity"`
	ImageURL   string `json:"imageUrl,omitempty"`
}

// ProtocolUsage is one ranked entry of the top-protocols list.
type ProtocolUsage struct {
	Name         string `json:"name"`
	Interactions int    `json:"interactions"`
}

// LargestTransfer is the single biggest native transfer, in whole STX.
type LargestTransfer struct {
	AmountSTX uint64 `json:"amountStx"`
	TxID      string `json:"txId"`
}

// MonthCount is one bucket of the monthly activity series.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// Metrics is the flat, derived output record of the pipeline. Everything is
// recomputed per request; nothing is persisted.
type Metrics struct {
	TotalTransactions         int              `json:"totalTransactions"`
	FirstTxDate               string           `json:"firstTxDate,omitempty"`
	BusiestMonth              string           `json:"busiestMonth"`
	MonthlyActivity           []MonthCount     `json:"monthlyActivity,omitempty"`
	VolumeSTX                 uint64           `json:"volumeStx"`
	NftCount                  int              `json:"nftCount"`
	TopNfts                   []RankedNft      `json:"topNfts,omitempty"`
	TopTokens                 []TokenHolding   `json:"topTokens,omitempty"`
	TopProtocols              []ProtocolUsage  `json:"topProtocols,omitempty"`
	LargestTransfer           *LargestTransfer `json:"largestTransfer,omitempty"`
	LongestHoldDays           int              `json:"longestHoldDays"`
	TotalContractInteractions int              `json:"totalContractInteractions"`
	TotalCollectionsOwned     int              `json:"totalCollectionsOwned"`
}

// Classification is one discrete label with its descriptive text and the
// badge icon key resolved by the presentation layer.
type Classification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	BadgeIcon   string `json:"badgeIcon"`
}

// WrappedResult is what the pipeline hands to the presentation layer.
type WrappedResult struct {
	Address string         `json:"address"`
	Year    int            `json:"year"`
	Metrics Metrics        `json:"metrics"`
	Badge   Classification `json:"badge"`
	Title   Classification `json:"title"`
}
