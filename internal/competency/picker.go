package competency

import "time"

// Picker sizes used by the board gallery and the company form.
const (
	BoardPickerMonths   = 12
	CompanyPickerMonths = 24
)

// Option is one selectable entry of a competency picker.
type Option struct {
	Value    YearMonth `json:"value"`
	Label    string    `json:"label"`
	Month    string    `json:"month"`
	Year     int       `json:"year"`
	Selected bool      `json:"selected"`
}

// Recent returns the n competencies ending at the one containing now, newest first.
func Recent(now time.Time, n int, selected YearMonth) []Option {
	if n <= 0 {
		return nil
	}
	current := Of(now)
	out := make([]Option, 0, n)
	for i := 0; i < n; i++ {
		ym := current.AddMonths(-i)
		out = append(out, Option{
			Value:    ym,
			Label:    ym.Label(),
			Month:    monthAbbrev[ym.Month-1],
			Year:     ym.Year,
			Selected: ym == selected,
		})
	}
	return out
}
