package dbtime

import (
	"fmt"
	"strings"
)

// Weekday: enum hari tertutup, Senin = 0 … Minggu = 6.
type Weekday uint8

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// DaySeparator: field hari multi-hari digabung dengan "/" ("Monday/Wednesday").
const DaySeparator = "/"

var weekdayNames = [...]string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

var weekdayAliases = map[string]Weekday{
	"mon": Monday, "monday": Monday,
	"tue": Tuesday, "tues": Tuesday, "tuesday": Tuesday,
	"wed": Wednesday, "weds": Wednesday, "wednesday": Wednesday,
	"thu": Thursday, "thur": Thursday, "thurs": Thursday, "thursday": Thursday,
	"fri": Friday, "friday": Friday,
	"sat": Saturday, "saturday": Saturday,
	"sun": Sunday, "sunday": Sunday,
}

// AllWeekdays urut Senin..Minggu.
func AllWeekdays() []Weekday {
	return []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

// String → nama kanonik lowercase ("monday").
func (d Weekday) String() string {
	if int(d) < len(weekdayNames) {
		return weekdayNames[d]
	}
	return ""
}

// Title → "Monday" (untuk disimpan / ditampilkan).
func (d Weekday) Title() string {
	s := d.String()
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseWeekday menerima nama penuh atau singkatan, case-insensitive.
func ParseWeekday(token string) (Weekday, bool) {
	d, ok := weekdayAliases[strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(token), ".")))]
	return d, ok
}

// MarshalText → "Monday" (dipakai JSON & query param).
func (d Weekday) MarshalText() ([]byte, error) {
	if int(d) >= len(weekdayNames) {
		return nil, fmt.Errorf("dbtime: invalid weekday %d", d)
	}
	return []byte(d.Title()), nil
}

func (d *Weekday) UnmarshalText(b []byte) error {
	v, ok := ParseWeekday(string(b))
	if !ok {
		return fmt.Errorf("dbtime: unknown weekday %q", string(b))
	}
	*d = v
	return nil
}

/* =========================
   DaySet
   ========================= */

// DaySet: bitset hari. Bit ke-n = Weekday(n).
type DaySet uint8

func NewDaySet(days ...Weekday) DaySet {
	var s DaySet
	for _, d := range days {
		s = s.With(d)
	}
	return s
}

// ParseDays memecah field hari ("Mon/Wed", "Monday / wednesday").
// Token yang tidak dikenal dibuang, bukan error.
func ParseDays(field string) DaySet {
	var s DaySet
	for _, tok := range strings.Split(field, DaySeparator) {
		if d, ok := ParseWeekday(tok); ok {
			s = s.With(d)
		}
	}
	return s
}

// DayTokens: set nama hari kanonik lowercase, urut Senin..Minggu.
func DayTokens(field string) []string {
	return ParseDays(field).Tokens()
}

func (s DaySet) With(d Weekday) DaySet {
	if int(d) >= len(weekdayNames) {
		return s
	}
	return s | 1<<d
}

func (s DaySet) Has(d Weekday) bool { return s&(1<<d) != 0 }
func (s DaySet) Empty() bool { return s == 0 }
func (s DaySet) Intersect(o DaySet) DaySet { return s & o }
func (s DaySet) Intersects(o DaySet) bool { return s&o != 0 }

func (s DaySet) Days() []Weekday {
	out := make([]Weekday, 0, 7)
	for _, d := range AllWeekdays() {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

func (s DaySet) Tokens() []string {
	days := s.Days()
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.String()
	}
	return out
}

// String → bentuk simpan kanonik "Monday/Wednesday".
func (s DaySet) String() string {
	days := s.Days()
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = d.Title()
	}
	return strings.Join(parts, DaySeparator)
}
