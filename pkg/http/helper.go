package http

import (
	"net/http"
	"strings"
)

// QueryList splits a comma separated query parameter, dropping blanks and
// duplicates while keeping the first-seen order.
func QueryList(r *http.Request, key string) []string {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// RequesterID returns the caller identity set by the upstream API gateway.
func RequesterID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(HeaderRequesterID))
}

const HeaderRequesterID = "X-Requester-ID"
