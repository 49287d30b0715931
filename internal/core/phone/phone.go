// Package phone formats Russian mobile numbers as +7 (xxx) xxx-xx-xx.
package phone

import (
	"strings"
	"unicode/utf8"
)

const (
	// MaxDigits is the digit count of a complete number.
	MaxDigits = 11
	trunk     = "7"
)

// Digits strips everything but ASCII digits.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Format renders a partial number progressively. The first digit is always
// shown as the +7 trunk prefix.
func Format(s string) string {
	d := Digits(s)
	n := len(d)

	var b strings.Builder
	b.WriteString("+7")
	if n <= 1 {
		return b.String()
	}
	b.WriteString(" (")
	b.WriteString(d[1:min(n, 4)])
	if n < 4 {
		return b.String()
	}
	b.WriteByte(')')
	if n == 4 {
		return b.String()
	}
	b.WriteByte(' ')
	b.WriteString(d[4:min(n, 7)])
	if n <= 7 {
		return b.String()
	}
	b.WriteByte('-')
	b.WriteString(d[7:min(n, 9)])
	if n <= 9 {
		return b.String()
	}
	b.WriteByte('-')
	b.WriteString(d[9:min(n, MaxDigits)])
	return b.String()
}

// Prefix is what an empty field shows once it takes focus.
const Prefix = "+7 ("

// Focus returns the field value after it takes focus. An empty field gets
// the country code prefilled, so the first typed digit goes to the area code.
func Focus(value string) string {
	if value == "" {
		return Prefix
	}
	return value
}

// Input applies one edit of the phone field. prev is the value shown before
// the edit, typed is the raw field content after it.
func Input(prev, typed string) string {
	d := Digits(typed)
	if d == "" {
		return ""
	}

	if utf8.RuneCountInString(typed) < utf8.RuneCountInString(prev) {
		return Format(trunk + d[1:])
	}

	if !strings.HasPrefix(d, trunk) {
		d = trunk + d
	}
	if len(d) > MaxDigits {
		d = d[:MaxDigits]
	}
	return Format(d)
}

// Valid reports whether s holds a complete number.
func Valid(s string) bool {
	d := Digits(s)
	return len(d) == MaxDigits && strings.HasPrefix(d, trunk)
}

// Pretty formats a complete number and returns anything else unchanged.
func Pretty(s string) string {
	if !Valid(s) {
		return s
	}
	return Format(s)
}
