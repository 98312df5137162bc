// Package competency models the year-month periods a closing cycle belongs to.
package competency

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinYear is the earliest year accepted for a competency.
const MinYear = 1970

// ErrInvalid is returned when a competency cannot be parsed or is out of range.
var ErrInvalid = errors.New("competency: invalid year-month")

var monthAbbrev = [12]string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}

// YearMonth identifies one accounting closing cycle.
type YearMonth struct {
	Year  int
	Month time.Month
}

// New builds a validated YearMonth.
func New(year int, month time.Month) (YearMonth, error) {
	ym := YearMonth{Year: year, Month: month}
	if !ym.Valid() {
		return YearMonth{}, fmt.Errorf("%w: %04d-%02d", ErrInvalid, year, int(month))
	}
	return ym, nil
}

// MustNew is New for literals known to be valid.
func MustNew(year int, month time.Month) YearMonth {
	ym, err := New(year, month)
	if err != nil {
		panic(err)
	}
	return ym
}

// Of returns the competency containing t, in t's location.
func Of(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// Parse reads the canonical "YYYY-MM" form.
func Parse(value string) (YearMonth, error) {
	value = strings.TrimSpace(value)
	year, month, ok := strings.Cut(value, "-")
	if !ok || len(year) != 4 || len(month) != 2 {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalid, value)
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalid, value)
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalid, value)
	}
	return New(y, time.Month(m))
}

// Valid reports whether the year is past MinYear and the month is in 1..12.
func (ym YearMonth) Valid() bool {
	return ym.Year >= MinYear && ym.Year <= 9999 && ym.Month >= time.January && ym.Month <= time.December
}

// IsZero reports whether ym is the zero value.
func (ym YearMonth) IsZero() bool {
	return ym.Year == 0 && ym.Month == 0
}

// String returns "YYYY-MM".
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// Label returns the display form, e.g. "Mar/2024".
func (ym YearMonth) Label() string {
	if !ym.Valid() {
		return ym.String()
	}
	return monthAbbrev[ym.Month-1] + "/" + strconv.Itoa(ym.Year)
}

// Compare orders by year then month.
func (ym YearMonth) Compare(other YearMonth) int {
	switch {
	case ym.Year < other.Year:
		return -1
	case ym.Year > other.Year:
		return 1
	case ym.Month < other.Month:
		return -1
	case ym.Month > other.Month:
		return 1
	default:
		return 0
	}
}

// Before reports whether ym is strictly earlier than other.
func (ym YearMonth) Before(other YearMonth) bool { return ym.Compare(other) < 0 }

// After reports whether ym is strictly later than other.
func (ym YearMonth) After(other YearMonth) bool { return ym.Compare(other) > 0 }

// AddMonths shifts ym by n months (n may be negative).
func (ym YearMonth) AddMonths(n int) YearMonth {
	idx := ym.Year*12 + int(ym.Month-1) + n
	return YearMonth{Year: idx / 12, Month: time.Month(idx%12 + 1)}
}

// Next returns the following competency.
func (ym YearMonth) Next() YearMonth { return ym.AddMonths(1) }

// Range lists every competency from through to, inclusive and chronological.
// An empty slice is returned when from is after to.
func Range(from, to YearMonth) []YearMonth {
	if from.After(to) {
		return nil
	}
	out := make([]YearMonth, 0, (to.Year-from.Year)*12+int(to.Month-from.Month)+1)
	for cur := from; !cur.After(to); cur = cur.Next() {
		out = append(out, cur)
	}
	return out
}

// MarshalJSON encodes as "YYYY-MM".
func (ym YearMonth) MarshalJSON() ([]byte, error) {
	return json.Marshal(ym.String())
}

// UnmarshalJSON decodes "YYYY-MM".
func (ym *YearMonth) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, string(data))
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*ym = parsed
	return nil
}

// MarshalText lets YearMonth act as a map key or flag value.
func (ym YearMonth) MarshalText() ([]byte, error) {
	return []byte(ym.String()), nil
}

// UnmarshalText parses "YYYY-MM".
func (ym *YearMonth) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*ym = parsed
	return nil
}
