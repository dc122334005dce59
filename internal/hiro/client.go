// Package hiro implements the chain data provider against the Hiro Stacks
// indexing API. All methods return explicit errors; the degrade-to-partial
// policy lives with the caller.
package hiro

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/stacks-wrapped/internal/logging"
	"github.com/stacks-wrapped/internal/retry"
	"github.com/stacks-wrapped/internal/types"
)

// Client fetches address activity from the Hiro extended API.
type Client struct {
	baseURL  string
	client   *http.Client
	limiter  *rate.Limiter
	pageSize int
	retryCfg *retry.Config
}

// Options configures a Client.
type Options struct {
	BaseURL        string
	RequestTimeout time.Duration
	PageSize       int
	RequestsPerSec float64
}

// NewClient creates a Hiro API client. Zero-valued options fall back to the
// public mainnet endpoint, a 30s request timeout, 50-row pages and 5 req/s.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.mainnet.hiro.so"
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}
	if opts.RequestsPerSec <= 0 {
		opts.RequestsPerSec = 5
	}

	return &Client{
		baseURL:  opts.BaseURL,
		client:   &http.Client{Timeout: opts.RequestTimeout},
		limiter:  rate.NewLimiter(rate.Limit(opts.RequestsPerSec), int(opts.RequestsPerSec)+1),
		pageSize: opts.PageSize,
		retryCfg: retry.DefaultConfig(),
	}
}

// PageSize returns the configured page size for paginated fetches.
func (c *Client) PageSize() int {
	return c.pageSize
}

// TransactionsPage is one page of an address's transaction history.
type TransactionsPage struct {
	Total   int                 `json:"total"`
	Results []types.Transaction `json:"results"`
}

type holdingsPage struct {
	Total   int                `json:"total"`
	Results []types.NftHolding `json:"results"`
}

type balancesResponse struct {
	FungibleTokens map[string]struct {
		Balance       string `json:"balance"`
		TotalSent     string `json:"total_sent"`
		TotalReceived string `json:"total_received"`
	} `json:"fungible_tokens"`
}

type assetEventsPage struct {
	Results []struct {
		EventType string `json:"event_type"`
		TxID      string `json:"tx_id"`
		Asset     struct {
			AssetID string `json:"asset_id"`
			Amount  string `json:"amount"`
		} `json:"asset"`
		BlockTime    int64  `json:"block_time,omitempty"`
		BlockTimeISO string `json:"block_time_iso,omitempty"`
	} `json:"results"`
}

type nftMetadataResponse struct {
	Metadata struct {
		Name  string `json:"name"`
		Image string `json:"image"`
	} `json:"metadata"`
}

// statusError marks a non-2xx indexer response.
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("hiro: unexpected status %d", e.status)
}

// retryable reports whether a request should be reattempted. Client errors
// other than 429 are final; the indexer will not change its mind.
func retryable(err error) bool {
	if se, ok := err.(*statusError); ok {
		return se.status == http.StatusTooManyRequests || se.status >= 500
	}
	return true
}

// getJSON performs a throttled GET with bounded retries and decodes the body.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	return retry.Do(ctx, c.retryCfg, func(ctx context.Context, attempt int) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			err := &statusError{status: resp.StatusCode}
			if !retryable(err) {
				return retry.Permanent(err)
			}
			return err
		}

		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return fmt.Errorf("hiro: decode %s: %w", path, err)
		}
		return nil
	})
}

// FetchTransactionsPage fetches one page of the address's transaction
// history. A 400 or 404 from the indexer means it could not resolve the
// address query and is treated as an empty page, matching end-of-data.
func (c *Client) FetchTransactionsPage(ctx context.Context, address string, limit, offset int) (*TransactionsPage, error) {
	query := url.Values{}
	query.Set("limit", fmt.Sprintf("%d", limit))
	query.Set("offset", fmt.Sprintf("%d", offset))

	var page TransactionsPage
	err := c.getJSON(ctx, "/extended/v1/address/"+url.PathEscape(address)+"/transactions", query, &page)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && (se.status == http.StatusBadRequest || se.status == http.StatusNotFound) {
			return &TransactionsPage{}, nil
		}
		return nil, err
	}
	return &page, nil
}

// FetchAllTransactions pages through the address's history until maxCount
// records are accumulated, an empty page is returned, or a short page signals
// end-of-data. A failure on the first page is fatal; later page failures
// degrade to the records fetched so far.
func (c *Client) FetchAllTransactions(ctx context.Context, address string, maxCount int) ([]types.Transaction, error) {
	logger := logging.FromContext(ctx)

	var all []types.Transaction
	offset := 0
	for len(all) < maxCount {
		page, err := c.FetchTransactionsPage(ctx, address, c.pageSize, offset)
		if err != nil {
			if offset == 0 {
				return nil, fmt.Errorf("fetch transactions for %s: %w", address, err)
			}
			logger.WithFields(map[string]interface{}{
				"address": address,
				"offset":  offset,
				"error":   err.Error(),
			}).Warn("Transaction page fetch failed, returning partial history")
			break
		}
		if len(page.Results) == 0 {
			break
		}

		all = append(all, page.Results...)
		offset += c.pageSize
		if len(page.Results) < c.pageSize {
			break
		}
	}

	if len(all) > maxCount {
		all = all[:maxCount]
	}
	return all, nil
}

// FetchFungibleTokenBalances returns the address's current fungible-token
// balances keyed by composite asset identifier.
func (c *Client) FetchFungibleTokenBalances(ctx context.Context, address string) ([]types.FtBalance, error) {
	var resp balancesResponse
	if err := c.getJSON(ctx, "/extended/v1/address/"+url.PathEscape(address)+"/balances", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch balances for %s: %w", address, err)
	}

	balances := make([]types.FtBalance, 0, len(resp.FungibleTokens))
	for assetID, entry := range resp.FungibleTokens {
		balances = append(balances, types.FtBalance{
			AssetID:       assetID,
			Symbol:        types.AssetDisplayName(assetID),
			Balance:       entry.Balance,
			TotalSent:     entry.TotalSent,
			TotalReceived: entry.TotalReceived,
		})
	}
	return balances, nil
}

// FetchAllNftHoldings pages through the address's NFT holdings. The total is
// taken from the first page that reports one and bounds the loop. A per-page
// failure stops the loop and returns what has been accumulated; partial
// results are acceptable.
func (c *Client) FetchAllNftHoldings(ctx context.Context, address string) ([]types.NftHolding, int, error) {
	logger := logging.FromContext(ctx)

	var all []types.NftHolding
	offset := 0
	total := -1
	for total < 0 || offset < total {
		query := url.Values{}
		query.Set("principal", address)
		query.Set("limit", fmt.Sprintf("%d", c.pageSize))
		query.Set("offset", fmt.Sprintf("%d", offset))

		var page holdingsPage
		if err := c.getJSON(ctx, "/extended/v1/tokens/nft/holdings", query, &page); err != nil {
			if offset == 0 {
				return nil, 0, fmt.Errorf("fetch nft holdings for %s: %w", address, err)
			}
			logger.WithFields(map[string]interface{}{
				"address": address,
				"offset":  offset,
				"error":   err.Error(),
			}).Warn("NFT holdings page fetch failed, returning partial holdings")
			break
		}

		if total < 0 && page.Total > 0 {
			total = page.Total
		}
		if len(page.Results) == 0 {
			break
		}

		all = append(all, page.Results...)
		offset += len(page.Results)
		if len(page.Results) < c.pageSize {
			break
		}
	}

	if total < 0 {
		total = len(all)
	}
	return all, total, nil
}

// FetchTokenTransferEvents returns the supplementary fungible-token transfer
// feed for the address, one page of the most recent asset events.
func (c *Client) FetchTokenTransferEvents(ctx context.Context, address string) ([]types.TransferEvent, error) {
	query := url.Values{}
	query.Set("limit", fmt.Sprintf("%d", c.pageSize))

	var page assetEventsPage
	if err := c.getJSON(ctx, "/extended/v1/address/"+url.PathEscape(address)+"/assets", query, &page); err != nil {
		return nil, fmt.Errorf("fetch asset events for %s: %w", address, err)
	}

	events := make([]types.TransferEvent, 0, len(page.Results))
	for _, raw := range page.Results {
		if types.EventType(raw.EventType) != types.EventFtAsset {
			continue
		}
		events = append(events, types.TransferEvent{
			AssetID:      raw.Asset.AssetID,
			Amount:       raw.Asset.Amount,
			TxID:         raw.TxID,
			BlockTime:    raw.BlockTime,
			BlockTimeISO: raw.BlockTimeISO,
		})
	}
	return events, nil
}

// FetchTokenMetadata resolves display metadata for a fungible token contract.
// Best-effort enrichment; callers drop the field on error.
func (c *Client) FetchTokenMetadata(ctx context.Context, contractID string) (*types.TokenMetadata, error) {
	var meta types.TokenMetadata
	if err := c.getJSON(ctx, "/metadata/v1/ft/"+url.PathEscape(contractID), nil, &meta); err != nil {
		return nil, fmt.Errorf("fetch token metadata for %s: %w", contractID, err)
	}
	return &meta, nil
}

// FetchNftImage resolves the image URL for one held NFT. Best-effort
// enrichment; callers drop the field on error.
func (c *Client) FetchNftImage(ctx context.Context, assetID, tokenID string) (string, error) {
	contract := types.ContractPrincipal(assetID)
	path := "/metadata/v1/nft/" + url.PathEscape(contract) + "/" + url.PathEscape(tokenID)

	var resp nftMetadataResponse
	if err := c.getJSON(ctx, path, nil, &resp); err != nil {
		return "", fmt.Errorf("fetch nft metadata for %s #%s: %w", assetID, tokenID, err)
	}
	return resp.Metadata.Image, nil
}
