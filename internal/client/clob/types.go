package clob

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

type Token struct {
	TokenID string `json:"token_id"`
	Outcome string `json:"outcome"`
	Winner  bool   `json:"winner"`
}

type Market struct {
	ConditionID     string  `json:"condition_id"`
	Question        string  `json:"question"`
	Description     string  `json:"description"`
	Tokens          []Token `json:"tokens"`
	EnableOrderBook bool    `json:"enable_order_book"`
	AcceptingOrders bool    `json:"accepting_orders"`
}

// WinningTokenIDs returns the token IDs flagged as winners. More than one
// token may win (void/split outcomes); an unresolved market returns none.
func (m *Market) WinningTokenIDs() []string {
	var ids []string
	for _, t := range m.Tokens {
		if t.Winner && t.TokenID != "" {
			ids = append(ids, t.TokenID)
		}
	}
	return ids
}

type marketsPage struct {
	Data       []Market `json:"data"`
	NextCursor string   `json:"next_cursor"`
}

// Level is one price level of a liquidity book. The feed serializes levels
// either as {"price","size"} objects or as [price, size] pairs, with values
// as strings or numbers; both forms are accepted.
type Level struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

func (l *Level) UnmarshalJSON(b []byte) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(b, &arr); err == nil && len(arr) >= 2 {
		price, err := parseDecimalRaw(arr[0])
		if err != nil {
			return err
		}
		size, err := parseDecimalRaw(arr[1])
		if err != nil {
			return err
		}
		l.Price = price
		l.Size = size
		return nil
	}
	var obj struct {
		Price json.RawMessage `json:"price"`
		Size  json.RawMessage `json:"size"`
	}
	if err := json.Unmarshal(b, &obj); err == nil && len(obj.Price) > 0 {
		price, err := parseDecimalRaw(obj.Price)
		if err != nil {
			return err
		}
		size, err := parseDecimalRaw(obj.Size)
		if err != nil {
			return err
		}
		l.Price = price
		l.Size = size
		return nil
	}
	return fmt.Errorf("invalid book level: %s", string(b))
}

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

type OrderBook struct {
	Bids []Level `json:"bids"`
	Asks []Level `json:"asks"`
}

// SideLevels returns the liquidity a taker on the given side trades against:
// asks for a buyer, bids for a seller.
func (b *OrderBook) SideLevels(side Side) ([]Level, error) {
	switch side {
	case SideBuy:
		return b.Asks, nil
	case SideSell:
		return b.Bids, nil
	default:
		return nil, fmt.Errorf("invalid side: %q", side)
	}
}

func parseOrderBook(body []byte) (*OrderBook, error) {
	var book OrderBook
	if err := json.Unmarshal(body, &book); err != nil {
		return nil, fmt.Errorf("failed to decode order book: %w", err)
	}
	return &book, nil
}

func parseDecimalRaw(b json.RawMessage) (decimal.Decimal, error) {
	if len(b) == 0 || string(b) == "null" {
		return decimal.Zero, nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return decimal.NewFromString(s)
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		return decimal.NewFromFloat(f), nil
	}
	return decimal.Zero, fmt.Errorf("invalid decimal: %s", string(b))
}
