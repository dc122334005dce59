package wrapped

import (
	"sort"
	"strings"
)

// knownProtocols maps contract-name fragments to canonical protocol display
// names. Lookup is exact first, then substring against these keys.
var knownProtocols = map[string]string{
	"alex":      "ALEX",
	"amm":       "ALEX",
	"arkadiko":  "Arkadiko",
	"bitflow":   "Bitflow",
	"xyk":       "Bitflow",
	"velar":     "Velar",
	"stackswap": "StackSwap",
	"zest":      "Zest",
	"gamma":     "Gamma",
	"bns":       "BNS",
	"citycoin":  "CityCoins",
	"friedger":  "Friedger Pool",
	"stackingdao": "StackingDAO",
	"lisa":      "LISA",
}

// protocolAllowList restricts the top-protocols ranking to names the
// presentation layer knows how to render.
var protocolAllowList = map[string]bool{
	"ALEX":          true,
	"Arkadiko":      true,
	"Bitflow":       true,
	"Velar":         true,
	"StackSwap":     true,
	"Zest":          true,
	"Gamma":         true,
	"BNS":           true,
	"CityCoins":     true,
	"Friedger Pool": true,
	"StackingDAO":   true,
	"LISA":          true,
}

// canonicalProtocolName maps a contract id to a protocol display name:
// exact match on the contract name, else substring match against known
// protocol keys, else the raw contract name.
func canonicalProtocolName(contractID string) string {
	name := contractID
	if idx := strings.Index(contractID, "."); idx >= 0 {
		name = contractID[idx+1:]
	}
	lower := strings.ToLower(name)

	if display, ok := knownProtocols[lower]; ok {
		return display
	}
	for _, key := range knownProtocolKeys() {
		if strings.Contains(lower, key) {
			return knownProtocols[key]
		}
	}
	return name
}

// knownProtocolKeys returns the fragment keys in a stable order so substring
// matching is deterministic when a name matches more than one fragment.
func knownProtocolKeys() []string {
	keys := make([]string, 0, len(knownProtocols))
	for key := range knownProtocols {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// isKnownProtocol reports whether a display name is on the allow-list.
func isKnownProtocol(display string) bool {
	return protocolAllowList[display]
}
