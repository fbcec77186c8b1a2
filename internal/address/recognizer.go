// Package address finds email-like tokens in extracted text, including
// disguised forms such as "jane_at_example_dot_com" or "jane at example dot com",
// and rewrites them to canonical user@domain form.
package address

import (
	"regexp"
	"strings"
)

// Building blocks of the address grammar. The local part is one or more
// segments joined by single dots; the domain is dot-joined labels with an
// alphabetic final label.
const (
	localSegment = "[a-z0-9!#$&'*+=?^_`{|}~-]+"
	localPart    = localSegment + `(?:\.` + localSegment + `)*`
	label        = `[a-z0-9](?:[a-z0-9-]*[a-z0-9])?`
	tld          = `[a-z]+`
	domain       = `(?:` + label + `\.)+` + tld
	gap          = `[ \t]+`
)

var (
	variants = []string{
		// user@example.com
		localPart + `@` + domain,
		// user at example.com
		localPart + gap + `at` + gap + domain,
		// user_at_example.com
		localPart + `_at_` + domain,
		// user @ example.com
		localPart + gap + `@` + gap + domain,
		// user dot name at example dot com
		localSegment + `(?:` + gap + `dot` + gap + localSegment + `)*` + gap + `at` + gap +
			`(?:` + label + gap + `dot` + gap + `)+` + tld,
		// user_dot_name_at_example_dot_com
		localPart + `_at_(?:` + label + `_dot_)+` + tld,
	}

	// The trailing \b keeps a final label such as "c0m" from being cut to "c".
	addressPattern = compileLongest(`(?i)(?:` + strings.Join(variants, `|`) + `)\b`)

	spacedAt  = regexp.MustCompile(`(?i)[ \t]+at[ \t]+`)
	spacedDot = regexp.MustCompile(`(?i)[ \t]+dot[ \t]+`)
	aroundAt  = regexp.MustCompile(`[ \t]*@[ \t]*`)

	// Digit runs shaped like phone numbers, e.g. +1 555 123-4567 glued onto a token.
	phoneRun = regexp.MustCompile(`\+?[0-9]{0,3}[0-9]{3,5}-?[0-9]{3,4}-?[0-9]{3,5}`)
)

func compileLongest(expr string) *regexp.Regexp {
	re := regexp.MustCompile(expr)
	re.Longest()
	return re
}

// Recognize returns every address-shaped token in text, leftmost first,
// in whichever disguised or literal form it appeared.
func Recognize(text string) []string {
	if text == "" {
		return nil
	}
	return addressPattern.FindAllString(text, -1)
}

// Normalize rewrites a recognized token to canonical user@domain form.
// It reports false when the result is not a well-formed address.
func Normalize(raw string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	underscored := strings.Contains(s, "_at_")

	s = spacedAt.ReplaceAllString(s, "@")
	s = strings.ReplaceAll(s, "_at_", "@")
	s = spacedDot.ReplaceAllString(s, ".")
	if underscored {
		s = strings.ReplaceAll(s, "_dot_", ".")
	}
	s = aroundAt.ReplaceAllString(s, "@")
	s = phoneRun.ReplaceAllString(s, "")

	if !Valid(s) {
		return "", false
	}
	return s, true
}

// Valid reports whether s has exactly one @, a non-empty local part, and a
// domain of at least two non-empty dot-separated labels.
func Valid(s string) bool {
	if strings.Count(s, "@") != 1 {
		return false
	}
	local, host, _ := strings.Cut(s, "@")
	if local == "" || host == "" {
		return false
	}
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if l == "" {
			return false
		}
	}
	return true
}

// Extract recognizes and normalizes every address in text, keeping match order.
// Tokens that fail normalization are dropped.
func Extract(text string) []string {
	raws := Recognize(text)
	if len(raws) == 0 {
		return nil
	}
	out := make([]string, 0, len(raws))
	for _, raw := range raws {
		if addr, ok := Normalize(raw); ok {
			out = append(out, addr)
		}
	}
	return out
}
