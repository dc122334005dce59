package wrapped

import (
	"context"
	"errors"

	"github.com/alitto/pond/v2"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/stacks-wrapped/internal/logging"
	"github.com/stacks-wrapped/internal/types"
)

// Enricher resolves token logos and NFT images concurrently, memoized per
// key so a given contract or asset is fetched at most once per request.
// Every lookup is best-effort: a failure leaves the field empty and never
// affects sibling lookups. Request-scoped, not shared across requests.
type Enricher struct {
	provider ChainDataProvider
	pool     pond.Pool

	tokenLogos *xsync.Map[string, string]
	nftImages  *xsync.Map[string, string]
}

// NewEnricher creates an enricher with its own bounded worker pool.
func NewEnricher(provider ChainDataProvider, concurrency int) *Enricher {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Enricher{
		provider:   provider,
		pool:       pond.NewPool(concurrency),
		tokenLogos: xsync.NewMap[string, string](),
		nftImages:  xsync.NewMap[string, string](),
	}
}

// Stop releases the worker pool. The enricher is unusable afterwards.
func (e *Enricher) Stop() {
	e.pool.StopAndWait()
}

// EnrichTokens resolves a logo URL per distinct token contract and fills it
// into the ranked entries in place.
func (e *Enricher) EnrichTokens(ctx context.Context, tokens []TokenHolding, contractByName map[string]string) {
	log := logging.FromContext(ctx)

	distinct := make(map[string]bool)
	for i := range tokens {
		if contractID := contractByName[tokens[i].Name]; contractID != "" {
			distinct[contractID] = true
		}
	}
	if len(distinct) == 0 {
		return
	}

	group := e.pool.NewGroupContext(ctx)
	for contractID := range distinct {
		group.Submit(func() {
			if _, loaded := e.tokenLogos.Load(contractID); loaded {
				return
			}
			meta, err := e.provider.FetchTokenMetadata(ctx, contractID)
			if err != nil {
				log.WithError(err).WithField("contract_id", contractID).
					Debug("token metadata lookup failed, leaving logo empty")
				return
			}
			if meta != nil && meta.ImageURI != "" {
				e.tokenLogos.Store(contractID, meta.ImageURI)
			}
		})
	}
	waitGroup(ctx, group)

	for i := range tokens {
		contractID := contractByName[tokens[i].Name]
		if contractID == "" {
			continue
		}
		if logo, ok := e.tokenLogos.Load(contractID); ok {
			tokens[i].LogoURL = logo
		}
	}
}

// EnrichNfts resolves an image URL per distinct held NFT and fills it into
// the ranked entries in place.
func (e *Enricher) EnrichNfts(ctx context.Context, nfts []RankedNft) {
	log := logging.FromContext(ctx)

	type nftKey struct {
		assetID string
		tokenID string
	}
	distinct := make(map[nftKey]bool)
	for i := range nfts {
		if nfts[i].AssetID != "" {
			distinct[nftKey{nfts[i].AssetID, nfts[i].TokenID}] = true
		}
	}
	if len(distinct) == 0 {
		return
	}

	group := e.pool.NewGroupContext(ctx)
	for key := range distinct {
		group.Submit(func() {
			cacheKey := key.assetID + "#" + key.tokenID
			if _, loaded := e.nftImages.Load(cacheKey); loaded {
				return
			}
			image, err := e.provider.FetchNftImage(ctx, key.assetID, key.tokenID)
			if err != nil {
				log.WithError(err).WithField("asset_id", key.assetID).
					Debug("nft image lookup failed, leaving image empty")
				return
			}
			if image != "" {
				e.nftImages.Store(cacheKey, image)
			}
		})
	}
	waitGroup(ctx, group)

	for i := range nfts {
		if image, ok := e.nftImages.Load(nfts[i].AssetID + "#" + nfts[i].TokenID); ok {
			nfts[i].ImageURL = image
		}
	}
}

// waitGroup drains a task group, logging only unexpected pool errors. Task
// failures are handled inside each task.
func waitGroup(ctx context.Context, group pond.TaskGroup) {
	if err := group.Wait(); err != nil &&
		!errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		logging.FromContext(ctx).WithError(err).Warn("enrichment group ended with error")
	}
}

// tokenContractIndex maps token display names back to the contract that can
// serve their metadata, built from balances. Symbol aliases map too so a
// symbol-named entry still resolves.
func tokenContractIndex(balances []types.FtBalance) map[string]string {
	idx := make(map[string]string, len(balances))
	for i := range balances {
		b := &balances[i]
		contract := types.ContractPrincipal(b.AssetID)
		if contract == "" {
			continue
		}
		if name := types.AssetDisplayName(b.AssetID); name != "" {
			idx[name] = contract
		}
		if b.Symbol != "" {
			idx[b.Symbol] = contract
		}
	}
	return idx
}
