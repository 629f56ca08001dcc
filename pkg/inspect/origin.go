package inspect

import (
	"net/http"
	"net/url"
)

// SameOriginCheck accepts websocket requests without an Origin header or
// whose origin host matches the request host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if r.Host == "" {
		return false
	}
	return originURL.Host == r.Host
}

// allowOrigins accepts same-origin requests and the listed origins.
func allowOrigins(origins []string) func(*http.Request) bool {
	if len(origins) == 0 {
		return SameOriginCheck
	}
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		if allowed["*"] || allowed[r.Header.Get("Origin")] {
			return true
		}
		return SameOriginCheck(r)
	}
}
