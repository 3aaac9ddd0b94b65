// Package semantic implements the highlight-query-to-LSP-token pipeline:
// raw capture collection (host and injected trees), sort/dedup/delta
// encoding, range filtering, and a parallel variant for top-level
// injections.
package semantic

import "strings"

// TokenTypes is the LSP standard semantic-token-type legend, in index
// order — the order the client receives in ServerCapabilities and the
// order token_type_idx values index into.
var TokenTypes = []string{
	"namespace", "type", "class", "enum", "interface", "struct",
	"typeParameter", "parameter", "variable", "property", "enumMember",
	"event", "function", "method", "macro", "keyword", "modifier",
	"comment", "string", "number", "regexp", "operator", "decorator",
}

// TokenModifiers is the LSP standard semantic-token-modifier legend, in
// bit-position order.
var TokenModifiers = []string{
	"declaration", "definition", "readonly", "static", "deprecated",
	"abstract", "async", "modification", "documentation", "defaultLibrary",
}

var (
	tokenTypeIndex     map[string]uint32
	tokenModifierIndex map[string]uint32
)

func init() {
	tokenTypeIndex = make(map[string]uint32, len(TokenTypes))
	for i, name := range TokenTypes {
		tokenTypeIndex[name] = uint32(i)
	}
	tokenModifierIndex = make(map[string]uint32, len(TokenModifiers))
	for i, name := range TokenModifiers {
		tokenModifierIndex[name] = uint32(i)
	}
}

// TypeIndex returns the legend index for an LSP token type name.
func TypeIndex(name string) (uint32, bool) {
	idx, ok := tokenTypeIndex[name]
	return idx, ok
}

// ModifierBit returns the bitmask for an LSP token modifier name.
func ModifierBit(name string) (uint32, bool) {
	idx, ok := tokenModifierIndex[name]
	if !ok {
		return 0, false
	}
	return 1 << idx, true
}

// ResolveCapture maps a dotted capture name ("keyword.control.async") to
// a (type index, modifiers bitset) pair. The first dotted segment is the
// base type; it must be a known LSP token type or the capture is
// skipped entirely (a hint-only capture like "spell" must not block
// other captures at the same span). Remaining segments that are known
// modifiers contribute their bit; unknown segments are ignored.
func ResolveCapture(mappedName string) (typeIndex uint32, modifiers uint32, ok bool) {
	if mappedName == "" {
		return 0, 0, false
	}
	parts := strings.Split(mappedName, ".")
	base, ok := TypeIndex(parts[0])
	if !ok {
		return 0, 0, false
	}
	var mods uint32
	for _, part := range parts[1:] {
		if bit, ok := ModifierBit(part); ok {
			mods |= bit
		}
	}
	return base, mods, true
}
