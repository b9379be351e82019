package clob

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelUnmarshal_ObjectForm(t *testing.T) {
	var l Level
	require.NoError(t, json.Unmarshal([]byte(`{"price":"0.55","size":"120.5"}`), &l))
	assert.True(t, l.Price.Equal(decimal.RequireFromString("0.55")))
	assert.True(t, l.Size.Equal(decimal.RequireFromString("120.5")))
}

func TestLevelUnmarshal_ArrayForm(t *testing.T) {
	var l Level
	require.NoError(t, json.Unmarshal([]byte(`[0.55, 120.5]`), &l))
	assert.True(t, l.Price.Equal(decimal.RequireFromString("0.55")))
	assert.True(t, l.Size.Equal(decimal.RequireFromString("120.5")))
}

func TestLevelUnmarshal_NumericObjectForm(t *testing.T) {
	var l Level
	require.NoError(t, json.Unmarshal([]byte(`{"price":0.1,"size":1500}`), &l))
	assert.True(t, l.Price.Equal(decimal.RequireFromString("0.1")))
	assert.True(t, l.Size.Equal(decimal.RequireFromString("1500")))
}

func TestLevelUnmarshal_Invalid(t *testing.T) {
	var l Level
	assert.Error(t, json.Unmarshal([]byte(`"not a level"`), &l))
}

func TestOrderBookSideLevels(t *testing.T) {
	book := OrderBook{
		Bids: []Level{{Price: decimal.New(40, -2), Size: decimal.New(10, 0)}},
		Asks: []Level{{Price: decimal.New(60, -2), Size: decimal.New(20, 0)}},
	}

	asks, err := book.SideLevels(SideBuy)
	require.NoError(t, err)
	require.Len(t, asks, 1)
	assert.True(t, asks[0].Price.Equal(decimal.New(60, -2)))

	bids, err := book.SideLevels(SideSell)
	require.NoError(t, err)
	require.Len(t, bids, 1)
	assert.True(t, bids[0].Price.Equal(decimal.New(40, -2)))

	_, err = book.SideLevels(Side("HOLD"))
	assert.Error(t, err)
}

func TestMarketWinningTokenIDs(t *testing.T) {
	m := Market{
		Tokens: []Token{
			{TokenID: "t1", Winner: true},
			{TokenID: "t2"},
			{TokenID: "", Winner: true},
		},
	}
	assert.Equal(t, []string{"t1"}, m.WinningTokenIDs())

	unresolved := Market{Tokens: []Token{{TokenID: "t1"}}}
	assert.Empty(t, unresolved.WinningTokenIDs())
}
