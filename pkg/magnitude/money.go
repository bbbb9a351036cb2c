package magnitude

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

var currencySymbols = []string{"US$", "$", "€", "£", "¥", "Rp"}

// Money is a currency amount such as "$2.5M" held as number, scale and currency.
// The raw text is kept so values round-trip unchanged to presentation.
type Money struct {
	Number   float64
	Scale    Scale
	Currency string

	raw   string
	valid bool
}

// ParseMoney interprets strings like "$2.5M", "$650K", "1,200,000 USD".
func ParseMoney(raw string) (Money, error) {
	m := Money{raw: raw}
	s := strings.TrimSpace(raw)
	if s == "" {
		return m, fmt.Errorf("%w: empty amount", ErrUnparsable)
	}
	for _, sym := range currencySymbols {
		if strings.HasPrefix(s, sym) {
			m.Currency = sym
			s = strings.TrimSpace(strings.TrimPrefix(s, sym))
			break
		}
	}
	if fields := strings.Fields(s); len(fields) == 2 && isCurrencyCode(fields[1]) {
		m.Currency = fields[1]
		s = fields[0]
	}
	if n := len(s); n > 0 {
		if scale, ok := scaleFromSuffix(rune(s[n-1])); ok {
			m.Scale = scale
			s = s[:n-1]
		}
	}
	v, err := parseNumber(s)
	if err != nil {
		return Money{raw: raw}, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	m.Number = v
	m.valid = true
	return m, nil
}

// MoneyOf parses raw and returns an invalid Money instead of an error.
func MoneyOf(raw string) Money {
	m, _ := ParseMoney(raw)
	return m
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// Valid reports whether the raw text was understood.
func (m Money) Valid() bool { return m.valid }

// Amount returns the value in base currency units.
func (m Money) Amount() float64 {
	if !m.valid {
		return 0
	}
	return m.Number * m.Scale.Multiplier()
}

// String returns the text the amount was parsed from.
func (m Money) String() string { return m.raw }

// MarshalJSON emits the original formatted string.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.raw)
}

// UnmarshalJSON accepts a formatted string; unparsable text yields an invalid Money.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = MoneyOf(raw)
	return nil
}

// Scan implements sql.Scanner.
func (m *Money) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = Money{}
	case string:
		*m = MoneyOf(v)
	case []byte:
		*m = MoneyOf(string(v))
	default:
		return fmt.Errorf("scan money: unsupported type %T", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (m Money) Value() (driver.Value, error) {
	return m.raw, nil
}
