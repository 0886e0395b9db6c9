package pricing

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatEUR renders cents the way de-DE currency formatting does: "1.234,50 €".
func FormatEUR(m Money) string {
	neg := m < 0
	if neg {
		m = -m
	}
	euros := strconv.FormatInt(m/100, 10)
	cents := m % 100

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range euros {
		if i > 0 && (len(euros)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	fmt.Fprintf(&b, ",%02d €", cents)
	return b.String()
}

// Decimal renders cents as "33.60".
func Decimal(m Money) string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	return fmt.Sprintf("%s%d.%02d", sign, m/100, m%100)
}

// MinimumNotice is the customer-facing breakdown shown while the minimum area
// is billed, e.g.
// "Mindestpreis (_1_1 (Standard)): €33.60/m² × max(0.720, 1,0) m² = €33.60".
func MinimumNotice(q Quote, code MPC, special bool) string {
	class := "Standard"
	if special {
		class = "Sonderfarbe"
	}
	minArea := strings.Replace(strconv.FormatFloat(q.MinAreaM2, 'f', 1, 64), ".", ",", 1)
	return fmt.Sprintf("Mindestpreis (%s (%s)): €%s/m² × max(%.3f, %s) m² = €%s",
		code, class, Decimal(q.PricePerM2), q.AreaM2, minArea, Decimal(q.TotalPrice))
}
