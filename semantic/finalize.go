package semantic

import "sort"

// Finalize sorts raw tokens by (line, column), drops zero-length
// tokens, deduplicates tokens at an identical (line, column) keeping
// the first one encountered after the sort, and delta-encodes the
// result into LSP's flat quintuple form: (delta_line, delta_start,
// length, token_type, modifiers_bitset) repeated per token.
//
// Tokens at the same (line, column) can come from overlapping captures
// (e.g. a keyword inside a region also matched by an outer highlight
// pattern); "first wins" after the sort makes this deterministic
// without needing capture-priority metadata.
func Finalize(tokens []RawToken) []uint32 {
	filtered := make([]RawToken, 0, len(tokens))
	for _, t := range tokens {
		if t.LengthUTF16 > 0 {
			filtered = append(filtered, t)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Line != filtered[j].Line {
			return filtered[i].Line < filtered[j].Line
		}
		return filtered[i].ColumnUTF16 < filtered[j].ColumnUTF16
	})

	deduped := dedupeBySpan(filtered)
	return encodeDelta(deduped)
}

func dedupeBySpan(sorted []RawToken) []RawToken {
	out := make([]RawToken, 0, len(sorted))
	var lastLine, lastCol int
	hasLast := false
	for _, t := range sorted {
		if hasLast && t.Line == lastLine && t.ColumnUTF16 == lastCol {
			continue
		}
		out = append(out, t)
		lastLine, lastCol = t.Line, t.ColumnUTF16
		hasLast = true
	}
	return out
}

// encodeDelta converts sorted, deduplicated tokens into the LSP flat
// encoding: token 0 is absolute; token i>0's delta_start is
// column_i-column_{i-1} when on the same line as token i-1, else
// column_i itself.
func encodeDelta(tokens []RawToken) []uint32 {
	out := make([]uint32, 0, len(tokens)*5)
	var prevLine, prevCol int
	for i, t := range tokens {
		var deltaLine, deltaStart uint32
		if i == 0 {
			deltaLine = uint32(t.Line)
			deltaStart = uint32(t.ColumnUTF16)
		} else {
			deltaLine = uint32(t.Line - prevLine)
			if deltaLine == 0 {
				deltaStart = uint32(t.ColumnUTF16 - prevCol)
			} else {
				deltaStart = uint32(t.ColumnUTF16)
			}
		}
		out = append(out, deltaLine, deltaStart, uint32(t.LengthUTF16), t.TypeIndex, t.ModifiersBits)
		prevLine, prevCol = t.Line, t.ColumnUTF16
	}
	return out
}
