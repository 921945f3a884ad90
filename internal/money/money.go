// Package money holds integer minor-unit arithmetic. Amounts are int64 cents;
// decimal text and rates go through shopspring/decimal so no float rounding
// leaks into stored amounts.
package money

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseCents converts free-form currency text ("$1,234.50", "-5.80 USD",
// "(n/a)") into minor units. Everything except digits, a leading minus and
// the decimal point is discarded. Blank input is zero.
func ParseCents(text string) (int64, error) {
	var b strings.Builder
	negative := false
	seenDigit := false
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9':
			seenDigit = true
			b.WriteRune(r)
		case r == '.':
			b.WriteRune(r)
		case r == '-' && !seenDigit && b.Len() == 0:
			negative = true
		}
	}

	cleaned := b.String()
	if cleaned == "" || cleaned == "." {
		return 0, nil
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("unable to parse amount: %s (cleaned: %s)", text, cleaned)
	}
	if negative {
		d = d.Neg()
	}
	return d.Mul(hundred).Round(0).IntPart(), nil
}

// FormatCents renders minor units as a plain two-decimal string.
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// PercentOf returns round(cents × rate / 100), half away from zero.
func PercentOf(cents int64, ratePercent float64) int64 {
	if cents == 0 || ratePercent == 0 {
		return 0
	}
	return decimal.NewFromInt(cents).
		Mul(decimal.NewFromFloat(ratePercent)).
		Div(hundred).
		Round(0).
		IntPart()
}

// Multiply returns round(cents × factor), e.g. labor hours × hourly rate.
func Multiply(cents int64, factor float64) int64 {
	return decimal.NewFromInt(cents).Mul(decimal.NewFromFloat(factor)).Round(0).IntPart()
}

// Abs returns the absolute amount.
func Abs(cents int64) int64 {
	if cents < 0 {
		return -cents
	}
	return cents
}

// Sum adds amounts.
func Sum(amounts ...int64) int64 {
	var total int64
	for _, a := range amounts {
		total += a
	}
	return total
}

// Allocate splits total across weights proportionally. When every weight is
// zero the split is equal. Rounding residue goes to the largest remainders,
// earliest index first, so the result always sums to total.
func Allocate(total int64, weights []int64) []int64 {
	n := len(weights)
	if n == 0 {
		return nil
	}
	if total < 0 {
		shares := Allocate(-total, weights)
		for i := range shares {
			shares[i] = -shares[i]
		}
		return shares
	}

	w := make([]int64, n)
	var sum int64
	for i, weight := range weights {
		if weight > 0 {
			w[i] = weight
			sum += weight
		}
	}
	if sum == 0 {
		for i := range w {
			w[i] = 1
		}
		sum = int64(n)
	}

	shares := make([]int64, n)
	remainders := make([]int64, n)
	var allocated int64
	for i := range w {
		shares[i] = total * w[i] / sum
		remainders[i] = total * w[i] % sum
		allocated += shares[i]
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})
	for k := 0; allocated < total; k++ {
		shares[order[k%n]]++
		allocated++
	}
	return shares
}
