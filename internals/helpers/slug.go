package helper

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	reHyphen   = regexp.MustCompile(`-+`)
)

// Slugify mengubah teks bebas jadi slug [a-z0-9-], hilangkan diakritik,
// kompres "-", trim ujung, enforce maxLen (default 100 jika <=0), fallback "item".
func Slugify(s string, maxLen int) string {
	if out, ok := TrySlugify(s, maxLen); ok {
		return out
	}
	return "item"
}

// TrySlugify sama dengan Slugify tapi tanpa fallback: ok=false kalau tidak ada huruf/angka.
func TrySlugify(s string, maxLen int) (string, bool) {
	if maxLen <= 0 {
		maxLen = 100
	}
	s = strings.ToLower(strings.TrimSpace(s))

	// Strip diakritik (é → e, dll)
	var buf []rune
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) { // mark nonspacing
			continue
		}
		buf = append(buf, r)
	}
	s = string(buf)

	// Keep [a-z0-9-]
	s = reNonAlnum.ReplaceAllString(s, "-")
	s = reHyphen.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	// Hard-limit panjang
	if utf8.RuneCountInString(s) > maxLen {
		rs := []rune(s)
		s = strings.Trim(string(rs[:maxLen]), "-")
	}
	return s, s != ""
}
