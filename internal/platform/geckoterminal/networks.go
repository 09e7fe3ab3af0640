package geckoterminal

import (
	"fmt"
	"strings"

	"github.com/mtarnawa/dexpulse/internal/domain"
)

// networkSlugs maps human network names to the provider's own slugs. The
// translation happens only at this client boundary; nothing outside the
// package deals in provider slugs.
var networkSlugs = map[string]string{
	"ethereum":  "eth",
	"bsc":       "bsc",
	"polygon":   "polygon_pos",
	"arbitrum":  "arbitrum",
	"optimism":  "optimism",
	"base":      "base",
	"avalanche": "avax",
}

// knownSlugs is the reverse set, so callers already holding a provider slug
// pass through unchanged.
var knownSlugs = func() map[string]bool {
	m := make(map[string]bool, len(networkSlugs))
	for _, slug := range networkSlugs {
		m[slug] = true
	}
	return m
}()

// ResolveNetwork translates a human network name (e.g. "ethereum") or an
// already-resolved provider slug (e.g. "eth") into the provider slug. Unknown
// names are a configuration error, reported before any network call.
func ResolveNetwork(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if slug, ok := networkSlugs[n]; ok {
		return slug, nil
	}
	if knownSlugs[n] {
		return n, nil
	}
	return "", fmt.Errorf("geckoterminal: network %q: %w", name, domain.ErrUnsupportedNetwork)
}

// SupportedNetworks returns the set of display-name/slug pairs the client can
// translate, for the reference-data surface.
func SupportedNetworks() []domain.Network {
	out := []domain.Network{
		{ID: "eth", Name: "Ethereum"},
		{ID: "bsc", Name: "BSC"},
		{ID: "polygon_pos", Name: "Polygon"},
		{ID: "arbitrum", Name: "Arbitrum"},
		{ID: "optimism", Name: "Optimism"},
		{ID: "base", Name: "Base"},
		{ID: "avax", Name: "Avalanche"},
	}
	return out
}
