// Package wrapped implements the aggregation-and-classification pipeline:
// it reduces an address's raw transaction/event stream into derived metrics
// and assigns a badge and a title from deterministic rule sets.
package wrapped

import (
	"context"

	"github.com/stacks-wrapped/internal/types"
)

// ChainDataProvider is the capability the pipeline requires from the remote
// indexing service. Implementations return explicit errors; the pipeline
// applies a single degrade-to-partial policy at its call sites.
type ChainDataProvider interface {
	// FetchAllTransactions returns up to maxCount transactions for the
	// address, most recent first.
	FetchAllTransactions(ctx context.Context, address string, maxCount int) ([]types.Transaction, error)

	// FetchFungibleTokenBalances returns the address's current token balances.
	FetchFungibleTokenBalances(ctx context.Context, address string) ([]types.FtBalance, error)

	// FetchAllNftHoldings returns the address's NFT holdings and the total
	// reported by the indexer. Partial results with a nil error are valid.
	FetchAllNftHoldings(ctx context.Context, address string) ([]types.NftHolding, int, error)

	// FetchTokenTransferEvents returns the supplementary per-token transfer
	// feed for the address.
	FetchTokenTransferEvents(ctx context.Context, address string) ([]types.TransferEvent, error)

	// FetchTokenMetadata resolves display metadata for a token contract.
	FetchTokenMetadata(ctx context.Context, contractID string) (*types.TokenMetadata, error)

	// FetchNftImage resolves the image URL for one held NFT.
	FetchNftImage(ctx context.Context, assetID, tokenID string) (string, error)
}
