package magnitude

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

var powerUnits = map[string]float64{
	"W":  1e-6,
	"KW": 1e-3,
	"MW": 1,
	"GW": 1e3,
}

// Power is an installed capacity such as "50MW".
type Power struct {
	Number float64
	Unit   string

	raw   string
	valid bool
}

// ParsePower interprets strings like "50MW", "500 kW", "1.2GW".
func ParsePower(raw string) (Power, error) {
	p := Power{raw: raw}
	s := strings.TrimSpace(raw)
	idx := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.' && r != ','
	})
	if idx <= 0 {
		return p, fmt.Errorf("parse capacity %q: %w", raw, ErrUnparsable)
	}
	unit := strings.ToUpper(strings.TrimSpace(s[idx:]))
	if _, ok := powerUnits[unit]; !ok {
		return p, fmt.Errorf("parse capacity %q: %w: unit %q", raw, ErrUnparsable, unit)
	}
	v, err := parseNumber(s[:idx])
	if err != nil {
		return p, fmt.Errorf("parse capacity %q: %w", raw, err)
	}
	p.Number = v
	p.Unit = unit
	p.valid = true
	return p, nil
}

// PowerOf parses raw and returns an invalid Power instead of an error.
func PowerOf(raw string) Power {
	p, _ := ParsePower(raw)
	return p
}

// Valid reports whether the raw text was understood.
func (p Power) Valid() bool { return p.valid }

// Megawatts returns the capacity normalised to MW.
func (p Power) Megawatts() float64 {
	if !p.valid {
		return 0
	}
	return p.Number * powerUnits[p.Unit]
}

// String returns the text the capacity was parsed from.
func (p Power) String() string { return p.raw }

// MarshalJSON emits the original formatted string.
func (p Power) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.raw)
}

// UnmarshalJSON accepts a formatted string.
func (p *Power) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = PowerOf(raw)
	return nil
}

// Scan implements sql.Scanner.
func (p *Power) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*p = Power{}
	case string:
		*p = PowerOf(v)
	case []byte:
		*p = PowerOf(string(v))
	default:
		return fmt.Errorf("scan capacity: unsupported type %T", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (p Power) Value() (driver.Value, error) {
	return p.raw, nil
}
