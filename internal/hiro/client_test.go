package hiro

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacks-wrapped/internal/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(Options{
		BaseURL:        server.URL,
		PageSize:       10,
		RequestsPerSec: 1000,
	})
}

// fakeTransactions serves a fixed-size transaction history page by page.
func fakeTransactions(t *testing.T, total int) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		page := TransactionsPage{Total: total}
		for i := offset; i < offset+limit && i < total; i++ {
			page.Results = append(page.Results, types.Transaction{
				TxID:   fmt.Sprintf("0x%04d", i),
				TxType: types.TxTokenTransfer,
			})
		}
		json.NewEncoder(w).Encode(page)
	}
}

func TestFetchAllTransactionsStopsOnShortPage(t *testing.T) {
	client := newTestClient(t, fakeTransactions(t, 25))

	txs, err := client.FetchAllTransactions(context.Background(), "SP123", 5000)
	require.NoError(t, err)
	assert.Len(t, txs, 25)
	assert.Equal(t, "0x0000", txs[0].TxID)
	assert.Equal(t, "0x0024", txs[24].TxID)
}

func TestFetchAllTransactionsStopsOnEmptyFirstPage(t *testing.T) {
	client := newTestClient(t, fakeTransactions(t, 0))

	txs, err := client.FetchAllTransactions(context.Background(), "SP123", 5000)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestFetchAllTransactionsCapsAtMax(t *testing.T) {
	client := newTestClient(t, fakeTransactions(t, 100))

	txs, err := client.FetchAllTransactions(context.Background(), "SP123", 35)
	require.NoError(t, err)
	// The loop stops after the page crossing the cap and trims the overshoot.
	assert.Len(t, txs, 35)
}

func TestFetchAllTransactionsFirstPageFailureIsFatal(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.FetchAllTransactions(context.Background(), "SP123", 100)
	assert.Error(t, err)
}

func TestFetchAllTransactionsLaterPageFailureReturnsPartial(t *testing.T) {
	requests := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests > 1 {
			// Permanent failure so the retry loop gives up immediately.
			http.Error(w, "gone", http.StatusForbidden)
			return
		}
		fakeTransactions(t, 100)(w, r)
	})

	txs, err := client.FetchAllTransactions(context.Background(), "SP123", 100)
	require.NoError(t, err)
	assert.Len(t, txs, 10, "first full page kept despite later failure")
}

func TestFetchTransactionsPageUnresolvableAddressIsEmptyPage(t *testing.T) {
	// The indexer answers 400 for malformed principals and 404 for unknown
	// ones; both mean there is no history to page through.
	for _, status := range []int{http.StatusBadRequest, http.StatusNotFound} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "no such address", status)
			})

			page, err := client.FetchTransactionsPage(context.Background(), "not-an-address", 10, 0)
			require.NoError(t, err)
			assert.Empty(t, page.Results)

			txs, err := client.FetchAllTransactions(context.Background(), "not-an-address", 100)
			require.NoError(t, err)
			assert.Empty(t, txs)
		})
	}
}

func TestFetchAllNftHoldingsPagesToTotal(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		page := struct {
			Total   int                `json:"total"`
			Results []types.NftHolding `json:"results"`
		}{Total: 15}
		for i := offset; i < offset+limit && i < 15; i++ {
			page.Results = append(page.Results, types.NftHolding{
				AssetID: fmt.Sprintf("SP1.punks::punk-%d", i),
			})
		}
		json.NewEncoder(w).Encode(page)
	})

	holdings, total, err := client.FetchAllNftHoldings(context.Background(), "SP123")
	require.NoError(t, err)
	assert.Equal(t, 15, total)
	assert.Len(t, holdings, 15)
}

func TestFetchAllNftHoldingsPartialOnLaterFailure(t *testing.T) {
	requests := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests > 1 {
			http.Error(w, "gone", http.StatusForbidden)
			return
		}
		page := struct {
			Total   int                `json:"total"`
			Results []types.NftHolding `json:"results"`
		}{Total: 30}
		for i := 0; i < 10; i++ {
			page.Results = append(page.Results, types.NftHolding{
				AssetID: fmt.Sprintf("SP1.punks::punk-%d", i),
			})
		}
		json.NewEncoder(w).Encode(page)
	})

	holdings, total, err := client.FetchAllNftHoldings(context.Background(), "SP123")
	require.NoError(t, err)
	assert.Equal(t, 30, total)
	assert.Len(t, holdings, 10)
}

func TestFetchFungibleTokenBalances(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"fungible_tokens": {
				"SP2.welsh::WELSH": {"balance": "100", "total_sent": "5", "total_received": "105"}
			}
		}`)
	})

	balances, err := client.FetchFungibleTokenBalances(context.Background(), "SP123")
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "WELSH", balances[0].Symbol)
	assert.Equal(t, "100", balances[0].Balance)
}

func TestFetchTokenTransferEventsFiltersFtOnly(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"results": [
				{"event_type": "fungible_token_asset", "tx_id": "0x1", "asset": {"asset_id": "SP2.welsh::WELSH", "amount": "10"}},
				{"event_type": "non_fungible_token_asset", "tx_id": "0x2", "asset": {"asset_id": "SP1.punks::punk"}}
			]
		}`)
	})

	events, err := client.FetchTokenTransferEvents(context.Background(), "SP123")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "SP2.welsh::WELSH", events[0].AssetID)
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	requests := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			http.Error(w, "flaky", http.StatusInternalServerError)
			return
		}
		fakeTransactions(t, 1)(w, r)
	})

	txs, err := client.FetchAllTransactions(context.Background(), "SP123", 10)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
	assert.Equal(t, 3, requests)
}
