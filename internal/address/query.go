package address

import "strings"

// Query decides whether a discovered address is of interest to the caller.
// Only the part of the query before its first dot is used, with any @ removed,
// and it is matched as a literal substring.
type Query struct {
	raw    string
	needle string
}

// NewQuery derives the match needle from a free-form query such as
// "jane@anything" (needle "jane") or "@example.com" (needle "example").
func NewQuery(q string) Query {
	s := strings.TrimLeft(strings.TrimSpace(q), "@")
	s, _, _ = strings.Cut(s, ".")
	s, _, _ = strings.Cut(s, "@")
	return Query{raw: q, needle: strings.ToLower(s)}
}

// String returns the query as supplied.
func (q Query) String() string { return q.raw }

// Needle returns the lower-cased substring addresses are tested against.
func (q Query) Needle() string { return q.needle }

// Matches reports whether addr contains the needle, ignoring case.
// An empty needle is a substring of everything, so it matches every address.
func (q Query) Matches(addr string) bool {
	return strings.Contains(strings.ToLower(addr), q.needle)
}
