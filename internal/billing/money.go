package billing

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor units. Conversion to major units happens only when rendering.
type Money struct {
	Minor    int64
	Currency string
}

func NewMoney(minor int64, currency string) Money {
	if currency == "" {
		currency = "usd"
	}
	return Money{Minor: minor, Currency: strings.ToLower(currency)}
}

// Major returns the amount divided by 100.
func (m Money) Major() decimal.Decimal {
	return decimal.New(m.Minor, -2)
}

// String renders the amount as "$1,234.56" for usd, "EUR 12.00" otherwise.
func (m Money) String() string {
	major := m.Major()
	sign := ""
	if major.IsNegative() {
		sign = "-"
		major = major.Abs()
	}
	fixed := major.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	grouped := groupThousands(whole) + "." + frac

	if m.Currency == "" || m.Currency == "usd" {
		return sign + "$" + grouped
	}
	return sign + strings.ToUpper(m.Currency) + " " + grouped
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
