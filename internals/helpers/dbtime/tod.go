// file: internals/helpers/dbtime/tod.go
package dbtime

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Minutes = menit sejak tengah malam (0..1439).
type Minutes int

const (
	// Jam operasional default institusi: 07:00 – 21:00
	DefaultOpenMinutes  Minutes = 7 * 60
	DefaultCloseMinutes Minutes = 21 * 60

	minutesPerDay Minutes = 24 * 60
)

// ParseClock: "H:MM AM/PM" → menit sejak tengah malam.
// Meridiem case-insensitive, spasi sebelum meridiem opsional ("7:30AM" juga diterima).
// Token rusak → (0, false), tidak pernah panic.
func ParseClock(token string) (Minutes, bool) {
	s := strings.ToUpper(strings.TrimSpace(token))
	if len(s) < 6 {
		return 0, false
	}

	var pm bool
	switch {
	case strings.HasSuffix(s, "AM"):
	case strings.HasSuffix(s, "PM"):
		pm = true
	default:
		return 0, false
	}
	clock := strings.TrimSpace(s[:len(s)-2])

	hh, mm, ok := strings.Cut(clock, ":")
	if !ok || len(hh) < 1 || len(hh) > 2 || len(mm) != 2 || !isDigits(hh) || !isDigits(mm) {
		return 0, false
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 1 || h > 12 {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m > 59 {
		return 0, false
	}

	// 12 AM = 00:xx, 12 PM = 12:xx
	h %= 12
	if pm {
		h += 12
	}
	return Minutes(h*60 + m), true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// String memformat tanpa clamp: 0 → "12:00 AM", 780 → "1:00 PM".
func (m Minutes) String() string {
	v := int(m) % int(minutesPerDay)
	if v < 0 {
		v += int(minutesPerDay)
	}
	h, mi := v/60, v%60
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h %= 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, mi, suffix)
}

// FormatMinutes: kebalikan ParseClock, di-clamp dulu ke jam operasional default.
func FormatMinutes(m Minutes) string {
	return DefaultWindow().Clamp(m).String()
}

func (m Minutes) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON menerima "H:MM AM/PM" atau angka menit.
func (m *Minutes) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n int
		if err2 := json.Unmarshal(b, &n); err2 != nil {
			return err
		}
		*m = Minutes(n)
		return nil
	}
	v, ok := ParseClock(s)
	if !ok {
		return fmt.Errorf("dbtime: invalid clock %q", s)
	}
	*m = v
	return nil
}
