package clob

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Cursor sentinels used by the CLOB /markets pagination.
const (
	startCursor = "MA=="
	endCursor   = "LTE="
)

type Client struct {
	host       string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host string) *Client {
	if host == "" {
		host = "https://clob.polymarket.com"
	}
	host = strings.TrimRight(host, "/")
	return &Client{
		host:       host,
		httpClient: httpClient,
	}
}

func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.host + path
	if len(query) > 0 {
		fullURL = fullURL + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// ListTradableMarkets pages through /markets and returns every market that is
// currently accepting orders. The feed offers no change stream, only full
// snapshots, so callers always get the complete tradable set.
func (c *Client) ListTradableMarkets(ctx context.Context) ([]Market, error) {
	var tradable []Market
	cursor := startCursor
	for cursor != endCursor {
		query := url.Values{}
		query.Set("next_cursor", cursor)
		body, err := c.doRequest(ctx, "/markets", query)
		if err != nil {
			return nil, err
		}
		var page marketsPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to decode markets page: %w", err)
		}
		for _, m := range page.Data {
			if m.EnableOrderBook && m.AcceptingOrders {
				tradable = append(tradable, m)
			}
		}
		if page.NextCursor == "" || page.NextCursor == cursor {
			break
		}
		cursor = page.NextCursor
	}
	return tradable, nil
}

// GetMarket fetches a single market by condition ID, including each token's
// winner flag once the market has resolved.
func (c *Client) GetMarket(ctx context.Context, conditionID string) (*Market, error) {
	if conditionID == "" {
		return nil, fmt.Errorf("condition_id is required")
	}
	body, err := c.doRequest(ctx, "/markets/"+url.PathEscape(conditionID), nil)
	if err != nil {
		return nil, err
	}
	var m Market
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("failed to decode market: %w", err)
	}
	return &m, nil
}

func (c *Client) GetBook(ctx context.Context, tokenID string) (*OrderBook, error) {
	if tokenID == "" {
		return nil, fmt.Errorf("token_id is required")
	}
	query := url.Values{}
	query.Set("token_id", tokenID)
	body, err := c.doRequest(ctx, "/book", query)
	if err != nil {
		return nil, err
	}
	return parseOrderBook(body)
}
