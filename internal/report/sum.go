package report

import (
	"encoding/json"
	"math"
	"math/big"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rebeliceyang/lazyreport/internal/models"
	"github.com/shopspring/decimal"
)

// SumRows folds one row into a running subtotal.
// A nil accumulator is the identity: the row's numeric cells are taken as-is.
// Afterwards a column stays numeric only while every folded cell is numeric;
// any non-numeric cell turns the column's subtotal into nil for good.
func SumRows(acc []any, row []any) []any {
	if acc == nil {
		out := make([]any, len(row))
		for i, v := range row {
			if d, ok := toDecimal(v); ok {
				out[i] = d
			}
		}
		return out
	}

	n := len(acc)
	if len(row) > n {
		n = len(row)
	}

	out := make([]any, n)
	for i := 0; i < n; i++ {
		a, aok := toDecimal(cellAt(acc, i))
		b, bok := toDecimal(cellAt(row, i))
		if aok && bok {
			out[i] = a.Add(b)
		}
	}
	return out
}

// SumAll folds every row with SumRows
func SumAll(rows [][]any) []any {
	var acc []any
	for _, row := range rows {
		acc = SumRows(acc, row)
	}
	return acc
}

// GrandTotals folds the subtotals of top level groups into one report total
func GrandTotals(groups []models.GroupedData) []any {
	var acc []any
	for _, g := range groups {
		acc = SumRows(acc, g.Subtotals)
	}
	return acc
}

// IsNumeric reports whether a cell takes part in subtotals
func IsNumeric(v any) bool {
	_, ok := toDecimal(v)
	return ok
}

// FormatNumber renders a numeric cell in plain decimal notation, or "" for
// anything else
func FormatNumber(v any) string {
	d, ok := toDecimal(v)
	if !ok {
		return ""
	}
	return d.String()
}

func cellAt(row []any, i int) any {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

// toDecimal converts the numeric cell types produced by the report sources
func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int8:
		return decimal.NewFromInt(int64(n)), true
	case int16:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt32(n), true
	case int64:
		return decimal.NewFromInt(n), true
	case uint:
		return fromUint(uint64(n)), true
	case uint8:
		return fromUint(uint64(n)), true
	case uint16:
		return fromUint(uint64(n)), true
	case uint32:
		return fromUint(uint64(n)), true
	case uint64:
		return fromUint(n), true
	case float32:
		f := float64(n)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat32(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(n), true
	case decimal.Decimal:
		return n, true
	case *decimal.Decimal:
		if n == nil {
			return decimal.Decimal{}, false
		}
		return *n, true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case pgtype.Numeric:
		if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite || n.Int == nil {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromBigInt(n.Int, n.Exp), true
	default:
		return decimal.Decimal{}, false
	}
}

func fromUint(n uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0)
}
