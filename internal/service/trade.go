package service

import (
	"sort"

	"github.com/shopspring/decimal"

	"papertrade/internal/client/clob"
)

type FillStatus string

const (
	FillStatusFilled           FillStatus = "filled"
	FillStatusExceedsLiquidity FillStatus = "exceeds_liquidity"
)

// Fill is one liquidity level consumed by a simulated trade. Price and shares
// are kept at intermediate precision; only result totals are truncated.
type Fill struct {
	Price  decimal.Decimal `json:"fill_price"`
	Shares decimal.Decimal `json:"fill_shares"`
}

// FillResult is the verdict of a trade simulation. On FillStatusFilled,
// Shares and Total carry the executed quantities. On
// FillStatusExceedsLiquidity, MaxShares and MaxAmount carry the most the book
// can absorb so the caller can offer a smaller retry; the trade must be
// rejected, never partially applied.
type FillResult struct {
	Status    FillStatus      `json:"status"`
	Shares    decimal.Decimal `json:"shares"`
	Total     decimal.Decimal `json:"total"`
	MaxShares decimal.Decimal `json:"max_shares"`
	MaxAmount decimal.Decimal `json:"max_amount"`
	Fills     []Fill          `json:"fills"`
}

// SimulateBuy walks the ask book best-price-first and spends up to amount.
// All arithmetic is exact decimal; totals are truncated toward zero to two
// decimal places.
func SimulateBuy(amount decimal.Decimal, book []clob.Level) FillResult {
	levels := sortedLevels(book, false)

	amountLeft := amount
	totalShares := decimal.Zero
	totalCost := decimal.Zero
	fills := make([]Fill, 0, len(levels))

	for _, level := range levels {
		levelCost := level.Price.Mul(level.Size)
		if levelCost.LessThanOrEqual(amountLeft) {
			// Whole level is affordable.
			totalShares = totalShares.Add(level.Size)
			totalCost = totalCost.Add(levelCost)
			fills = append(fills, Fill{Price: level.Price, Shares: level.Size})
			amountLeft = amountLeft.Sub(levelCost)
			continue
		}

		shares := amountLeft.Div(level.Price)
		if shares.IsPositive() {
			cost := shares.Mul(level.Price)
			if cost.GreaterThan(amountLeft) {
				cost = amountLeft
			}
			totalShares = totalShares.Add(shares)
			totalCost = totalCost.Add(cost)
			fills = append(fills, Fill{Price: level.Price, Shares: shares})
		}
		break
	}

	if totalCost.LessThan(amount) {
		return FillResult{
			Status:    FillStatusExceedsLiquidity,
			MaxAmount: totalCost.Truncate(2),
			MaxShares: totalShares.Truncate(2),
			Fills:     fills,
		}
	}

	return FillResult{
		Status: FillStatusFilled,
		Shares: totalShares.Truncate(2),
		Total:  totalCost.Truncate(2),
		Fills:  fills,
	}
}

// SimulateSell walks the bid book best-price-first and sells up to the
// requested share quantity.
func SimulateSell(shares decimal.Decimal, book []clob.Level) FillResult {
	levels := sortedLevels(book, true)

	sharesLeft := shares
	totalShares := decimal.Zero
	totalProceeds := decimal.Zero
	fills := make([]Fill, 0, len(levels))

	for _, level := range levels {
		fillShares := level.Size
		if fillShares.GreaterThan(sharesLeft) {
			fillShares = sharesLeft
		}
		if fillShares.IsPositive() {
			totalShares = totalShares.Add(fillShares)
			totalProceeds = totalProceeds.Add(fillShares.Mul(level.Price))
			fills = append(fills, Fill{Price: level.Price, Shares: fillShares})
			sharesLeft = sharesLeft.Sub(fillShares)
		}
		if !sharesLeft.IsPositive() {
			break
		}
	}

	if totalShares.LessThan(shares) {
		return FillResult{
			Status:    FillStatusExceedsLiquidity,
			MaxShares: totalShares.Truncate(2),
			MaxAmount: totalProceeds.Truncate(2),
			Fills:     fills,
		}
	}

	return FillResult{
		Status: FillStatusFilled,
		Shares: totalShares.Truncate(2),
		Total:  totalProceeds.Truncate(2),
		Fills:  fills,
	}
}

// sortedLevels filters out degenerate levels (zero price or size) and orders
// the rest best-price-first for the requested direction.
func sortedLevels(book []clob.Level, descending bool) []clob.Level {
	levels := make([]clob.Level, 0, len(book))
	for _, l := range book {
		if l.Price.IsPositive() && l.Size.IsPositive() {
			levels = append(levels, l)
		}
	}
	sort.SliceStable(levels, func(i, j int) bool {
		if descending {
			return levels[i].Price.GreaterThan(levels[j].Price)
		}
		return levels[i].Price.LessThan(levels[j].Price)
	})
	return levels
}
