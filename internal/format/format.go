// Package format holds the pure display helpers: countdowns, currency
// and pool-magnitude abbreviation. Amounts are int64 cents throughout.
package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeLeft is the decomposed remaining time until a raffle ends.
// All fields are zero once the deadline has passed.
type TimeLeft struct {
	Days    int           `json:"days"`
	Hours   int           `json:"hours"`
	Minutes int           `json:"minutes"`
	Seconds int           `json:"seconds"`
	Total   time.Duration `json:"total"`
}

// Until computes the time left between now and endsAt by floor
// division into days/hours/minutes/seconds.
func Until(endsAt, now time.Time) TimeLeft {
	diff := endsAt.Sub(now)
	if diff <= 0 {
		return TimeLeft{}
	}
	return TimeLeft{
		Days:    int(diff / (24 * time.Hour)),
		Hours:   int(diff % (24 * time.Hour) / time.Hour),
		Minutes: int(diff % time.Hour / time.Minute),
		Seconds: int(diff % time.Minute / time.Second),
		Total:   diff,
	}
}

// Countdown renders the time left as "2d 03h 12m 05s", dropping leading
// zero units, or "Ended" once the deadline has passed.
func Countdown(endsAt, now time.Time) string {
	t := Until(endsAt, now)
	if t.Total <= 0 {
		return "Ended"
	}
	var parts []string
	if t.Days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", t.Days))
	}
	if t.Hours > 0 || t.Days > 0 {
		parts = append(parts, fmt.Sprintf("%02dh", t.Hours))
	}
	parts = append(parts, fmt.Sprintf("%02dm", t.Minutes), fmt.Sprintf("%02ds", t.Seconds))
	return strings.Join(parts, " ")
}

// Date renders a timestamp as "Jan 2, 2006".
func Date(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

// USDC renders cents as a grouped decimal with 0-2 fraction digits:
// 1245000 -> "12,450", 1050 -> "10.5", 1234 -> "12.34".
func USDC(cents int64) string {
	return group(plain(cents))
}

// Pool abbreviates a pool total: millions of USDC get an "M" suffix,
// thousands a "K", smaller pools render as-is.
func Pool(cents int64) string {
	switch {
	case cents >= 100_000_000:
		return trimFixed(float64(cents)/100_000_000) + "M"
	case cents >= 100_000:
		return trimFixed(float64(cents)/100_000) + "K"
	default:
		return plain(cents)
	}
}

// plain renders cents as an ungrouped decimal with 0-2 fraction digits.
func plain(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := cents / 100
	frac := cents % 100
	if frac == 0 {
		return sign + strconv.FormatInt(whole, 10)
	}
	s := fmt.Sprintf("%s%d.%02d", sign, whole, frac)
	return strings.TrimSuffix(s, "0")
}

// trimFixed renders one fraction digit, dropping it when zero:
// 1.0 -> "1", 1.2 -> "1.2".
func trimFixed(v float64) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0")
}

// group inserts thousands separators into the integer part of s.
func group(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	out := b.String()
	if hasFrac {
		out += "." + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}
