package dbtime

import (
	"fmt"
	"sort"
	"strings"
)

// RangeSeparator memisahkan jam mulai & selesai: "7:30 AM - 9:00 AM".
const RangeSeparator = " - "

// Interval: pasangan [Start, End) dalam menit.
type Interval struct {
	Start Minutes `json:"start"`
	End   Minutes `json:"end"`
}

func (iv Interval) Empty() bool { return iv.End <= iv.Start }

func (iv Interval) Duration() Minutes {
	if iv.Empty() {
		return 0
	}
	return iv.End - iv.Start
}

// Overlaps: half-open, ujung yang bersentuhan (9:00 selesai vs 9:00 mulai) tidak bentrok.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start < o.End && iv.End > o.Start
}

func (iv Interval) String() string {
	return iv.Start.String() + RangeSeparator + iv.End.String()
}

// Range adalah rentang jam yang sudah tervalidasi.
// Hanya bisa dibuat lewat ParseRange / NewRange (zero value dianggap invalid).
type Range struct {
	iv    Interval
	valid bool
}

// ParseRange: "H:MM AM/PM - H:MM AM/PM". Separator harus muncul tepat satu kali,
// End harus > Start (tidak mendukung lintas tengah malam).
func ParseRange(s string) (Range, bool) {
	s = strings.TrimSpace(s)
	if strings.Count(s, RangeSeparator) != 1 {
		return Range{}, false
	}
	left, right, _ := strings.Cut(s, RangeSeparator)
	start, ok := ParseClock(left)
	if !ok {
		return Range{}, false
	}
	end, ok := ParseClock(right)
	if !ok {
		return Range{}, false
	}
	return NewRange(start, end)
}

func NewRange(start, end Minutes) (Range, bool) {
	if start < 0 || end > minutesPerDay || end <= start {
		return Range{}, false
	}
	return Range{iv: Interval{Start: start, End: end}, valid: true}, true
}

// MustParseRange dipakai di test & seed.
func MustParseRange(s string) Range {
	r, ok := ParseRange(s)
	if !ok {
		panic(fmt.Sprintf("dbtime: invalid range %q", s))
	}
	return r
}

func (r Range) Valid() bool { return r.valid }
func (r Range) Start() Minutes { return r.iv.Start }
func (r Range) End() Minutes { return r.iv.End }
func (r Range) Interval() Interval { return r.iv }
func (r Range) Overlaps(o Range) bool {
	return r.valid && o.valid && r.iv.Overlaps(o.iv)
}

// String menghasilkan bentuk kanonik "7:30 AM - 9:00 AM".
func (r Range) String() string {
	if !r.valid {
		return ""
	}
	return r.iv.String()
}

/* =========================
   Operating window
   ========================= */

// Window = jam operasional institusi (default 07:00–21:00 → [420, 1260]).
type Window struct {
	Open  Minutes
	Close Minutes
}

func DefaultWindow() Window {
	return Window{Open: DefaultOpenMinutes, Close: DefaultCloseMinutes}
}

func (w Window) Valid() bool {
	return w.Open >= 0 && w.Close <= minutesPerDay && w.Open < w.Close
}

func (w Window) Interval() Interval { return Interval{Start: w.Open, End: w.Close} }

func (w Window) Clamp(m Minutes) Minutes {
	if m < w.Open {
		return w.Open
	}
	if m > w.Close {
		return w.Close
	}
	return m
}

// Clip memotong interval ke jendela; hasil bisa kosong.
func (w Window) Clip(iv Interval) Interval {
	return Interval{Start: w.Clamp(iv.Start), End: w.Clamp(iv.End)}
}

/* =========================
   Interval math
   ========================= */

// MergeIntervals: urutkan by Start lalu gabungkan yang overlap / bersentuhan
// (start <= end sebelumnya). Input tidak dimodifikasi. Idempotent.
func MergeIntervals(list []Interval) []Interval {
	if len(list) == 0 {
		return []Interval{}
	}
	sorted := make([]Interval, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End < sorted[j].End
		}
		return sorted[i].Start < sorted[j].Start
	})

	out := make([]Interval, 0, len(sorted))
	cur := sorted[0]
	for _, iv := range sorted[1:] {
		if iv.Start <= cur.End {
			if iv.End > cur.End {
				cur.End = iv.End
			}
			continue
		}
		out = append(out, cur)
		cur = iv
	}
	return append(out, cur)
}

// FreeGaps: komplemen dari interval busy (sudah di-merge & di-clip) di dalam jendela,
// termasuk celah sebelum interval pertama dan sesudah interval terakhir.
func FreeGaps(merged []Interval, w Window) []Interval {
	free := make([]Interval, 0, len(merged)+1)
	cursor := w.Open
	for _, iv := range merged {
		if iv.Start > cursor {
			free = append(free, Interval{Start: cursor, End: iv.Start})
		}
		if iv.End > cursor {
			cursor = iv.End
		}
	}
	if cursor < w.Close {
		free = append(free, Interval{Start: cursor, End: w.Close})
	}
	return free
}
