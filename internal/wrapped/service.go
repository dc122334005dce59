package wrapped

import (
	"context"
	"errors"
	"time"

	"github.com/alitto/pond/v2"

	"github.com/stacks-wrapped/internal/logging"
	"github.com/stacks-wrapped/internal/types"
)

// Service error codes surfaced to the transport layer.
const (
	CodeMissingAddress      = "MISSING_ADDRESS"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
)

// ResultCache memoizes whole results per address and year for a short TTL.
// Purely an optimization: the pipeline produces identical output with or
// without it.
type ResultCache interface {
	Get(ctx context.Context, address string, year int) (*WrappedResult, bool, error)
	Set(ctx context.Context, result *WrappedResult) error
}

// Options configures a Service.
type Options struct {
	Provider          ChainDataProvider
	Cache             ResultCache // nil disables caching
	TargetYear        int
	MaxTransactions   int
	LookbackMonths    int
	EnrichConcurrency int
	Logger            *logging.Logger

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Service runs the whole pipeline for one address: fetch, aggregate, derive
// metrics, classify, assemble.
type Service struct {
	provider          ChainDataProvider
	cache             ResultCache
	targetYear        int
	maxTransactions   int
	lookbackMonths    int
	enrichConcurrency int
	logger            *logging.Logger
	now               func() time.Time
}

// NewService wires the pipeline from its collaborators.
func NewService(opts Options) *Service {
	if opts.TargetYear == 0 {
		opts.TargetYear = time.Now().UTC().Year()
	}
	if opts.MaxTransactions <= 0 {
		opts.MaxTransactions = 5000
	}
	if opts.LookbackMonths <= 0 {
		opts.LookbackMonths = 12
	}
	if opts.EnrichConcurrency <= 0 {
		opts.EnrichConcurrency = 4
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewLogger(logging.LevelInfo, logging.FormatJSON)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		provider:          opts.Provider,
		cache:             opts.Cache,
		targetYear:        opts.TargetYear,
		maxTransactions:   opts.MaxTransactions,
		lookbackMonths:    opts.LookbackMonths,
		enrichConcurrency: opts.EnrichConcurrency,
		logger:            opts.Logger,
		now:               opts.Now,
	}
}

// ComputeWrapped builds the year-in-review result for one address. The
// transaction fetch is the only fatal dependency; every other fetch and all
// enrichment degrade to partial data with a warning.
func (s *Service) ComputeWrapped(ctx context.Context, address string, year int) (*WrappedResult, error) {
	if address == "" {
		return nil, &types.ServiceError{
			Code:    CodeMissingAddress,
			Message: "address is required",
		}
	}
	if year == 0 {
		year = s.targetYear
	}

	log := s.logger.WithFields(map[string]interface{}{
		"address": address,
		"year":    year,
	})
	ctx = logging.WithLogger(ctx, log)

	if s.cache != nil {
		if cached, ok, err := s.cache.Get(ctx, address, year); err != nil {
			log.WithError(err).Warn("result cache lookup failed, recomputing")
		} else if ok {
			log.Debug("serving wrapped result from cache")
			return cached, nil
		}
	}

	fetched, err := s.fetchAll(ctx, address)
	if err != nil {
		return nil, err
	}

	agg := NewAggregator(year)
	idx := agg.Aggregate(fetched.txs, fetched.feed, fetched.balances)
	inScope := agg.FilterHoldingsInYear(idx, fetched.holdings)

	builder := NewMetricsBuilder(year, s.lookbackMonths, s.now())
	metrics := builder.Build(idx, fetched.txs, fetched.holdings, inScope)

	enricher := NewEnricher(s.provider, s.enrichConcurrency)
	enricher.EnrichTokens(ctx, metrics.TopTokens, tokenContractIndex(fetched.balances))
	enricher.EnrichNfts(ctx, metrics.TopNfts)
	enricher.Stop()

	result := &WrappedResult{
		Address: address,
		Year:    year,
		Metrics: metrics,
		Badge:   ClassifyBadge(fetched.txs, metrics.LongestHoldDays),
		Title:   ClassifyTitle(metrics),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, result); err != nil {
			log.WithError(err).Warn("result cache store failed")
		}
	}

	log.WithFields(map[string]interface{}{
		"transactions": metrics.TotalTransactions,
		"title":        result.Title.Title,
		"badge":        result.Badge.Title,
	}).Info("wrapped result computed")

	return result, nil
}

type fetchedData struct {
	txs      []types.Transaction
	balances []types.FtBalance
	holdings []types.NftHolding
	feed     []types.TransferEvent
}

// fetchAll fans out the independent reads and joins them before aggregation.
// A failed transaction fetch is fatal; the other resources degrade to empty
// with a warning.
func (s *Service) fetchAll(ctx context.Context, address string) (*fetchedData, error) {
	log := logging.FromContext(ctx)
	data := &fetchedData{}

	var txErr error
	pool := pond.NewPool(4)
	group := pool.NewGroupContext(ctx)

	group.Submit(func() {
		data.txs, txErr = s.provider.FetchAllTransactions(ctx, address, s.maxTransactions)
	})
	group.Submit(func() {
		balances, err := s.provider.FetchFungibleTokenBalances(ctx, address)
		if err != nil {
			log.WithError(err).Warn("balance fetch failed, continuing without balances")
			return
		}
		data.balances = balances
	})
	group.Submit(func() {
		holdings, total, err := s.provider.FetchAllNftHoldings(ctx, address)
		if err != nil {
			log.WithError(err).Warn("nft holdings fetch failed, continuing without holdings")
			return
		}
		if len(holdings) < total {
			log.WithFields(map[string]interface{}{
				"fetched": len(holdings),
				"total":   total,
			}).Warn("nft holdings fetch returned partial results")
		}
		data.holdings = holdings
	})
	group.Submit(func() {
		feed, err := s.provider.FetchTokenTransferEvents(ctx, address)
		if err != nil {
			log.WithError(err).Warn("transfer feed fetch failed, continuing without feed")
			return
		}
		data.feed = feed
	})

	if err := group.Wait(); err != nil &&
		!errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		log.WithError(err).Warn("fetch group ended with error")
	}
	pool.StopAndWait()

	if txErr != nil {
		log.WithError(txErr).Error("transaction fetch failed")
		return nil, &types.ServiceError{
			Code:    CodeUpstreamUnavailable,
			Message: "failed to fetch transaction history",
			Details: map[string]interface{}{"address": address},
		}
	}
	return data, nil
}
