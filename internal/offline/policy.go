package offline

import (
	"net/http"
	"strings"
)

// Rule selects a strategy for the requests it matches.
type Rule struct {
	Name     string
	Match    func(req *http.Request) bool
	Strategy Strategy
}

// Policy is an ordered rule table; the first matching rule wins.
type Policy []Rule

// Select returns the first rule matching req.
func (p Policy) Select(req *http.Request) (Rule, bool) {
	for _, r := range p {
		if r.Match(req) {
			return r, true
		}
	}
	return Rule{}, false
}

// DefaultPolicy sends the data endpoints network-first and everything
// else cache-first.
func DefaultPolicy(dataURLs ...string) Policy {
	return Policy{
		{Name: "data", Match: ExactURL(dataURLs...), Strategy: NetworkFirst{}},
		{Name: "assets", Match: Any, Strategy: CacheFirst{}},
	}
}

// ExactURL matches requests whose full URL is one of urls.
func ExactURL(urls ...string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		set[u] = struct{}{}
	}
	return func(req *http.Request) bool {
		_, ok := set[req.URL.String()]
		return ok
	}
}

// URLPrefix matches requests whose full URL starts with prefix.
func URLPrefix(prefix string) func(*http.Request) bool {
	return func(req *http.Request) bool {
		return strings.HasPrefix(req.URL.String(), prefix)
	}
}

// Any matches every request.
func Any(*http.Request) bool { return true }
