// README: Allow-list authorization gate built once from configuration.
package auth

import (
	"sort"
	"strings"
)

// Gate holds the set of identities permitted to use the service. It is built
// once at startup and never mutated, so it is safe for concurrent reads.
// An empty or blank allow-list denies everyone: the gate fails closed.
type Gate struct {
	allowed map[string]struct{}
}

// NewGate parses a comma-separated allow-list. Entries are trimmed and blank
// entries are dropped.
func NewGate(allowList string) *Gate {
	allowed := make(map[string]struct{})
	for _, entry := range strings.Split(allowList, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		allowed[entry] = struct{}{}
	}
	return &Gate{allowed: allowed}
}

// IsAuthorized reports whether identity may use the service.
func (g *Gate) IsAuthorized(identity string) bool {
	_, ok := g.allowed[identity]
	return ok
}

// Authorized returns the allow-list sorted for administrative reporting.
func (g *Gate) Authorized() []string {
	ids := make([]string, 0, len(g.allowed))
	for id := range g.allowed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
