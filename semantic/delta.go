package semantic

// Edit is one LSP SemanticTokensEdit: replace DeleteCount integer slots
// starting at Start (both measured in integer slots, 5 per token) with
// Data.
type Edit struct {
	Start       uint32
	DeleteCount uint32
	Data        []uint32
}

// ComputeDelta produces the single edit that turns prev's encoded token
// stream into cur's. Both arrays are already delta-encoded quintuples
// (as produced by Finalize). Matching works at token (5-slot)
// granularity: a common prefix and a common suffix of whole tokens are
// found, and everything between becomes the edit's replacement data.
//
// Safety rule: if the total line advance (the sum of every token's
// delta_line) differs between prev and cur, suffix matching is
// disabled — two tokens with byte-for-byte identical delta encoding
// can still sit at different absolute positions once the total line
// count has shifted, so trusting a tail match would silently corrupt
// positions for every token after the edit.
func ComputeDelta(prev, cur []uint32) Edit {
	prevTokens := prev
	curTokens := cur

	prevCount := len(prevTokens) / 5
	curCount := len(curTokens) / 5

	prefixTokens := commonPrefixTokens(prevTokens, curTokens, prevCount, curCount)

	allowSuffix := sumDeltaLines(prevTokens) == sumDeltaLines(curTokens)

	suffixTokens := 0
	if allowSuffix {
		maxSuffix := prevCount - prefixTokens
		if curCount-prefixTokens < maxSuffix {
			maxSuffix = curCount - prefixTokens
		}
		suffixTokens = commonSuffixTokens(prevTokens, curTokens, prevCount, curCount, prefixTokens, maxSuffix)
	}

	start := uint32(prefixTokens * 5)
	deleteCount := uint32((prevCount - prefixTokens - suffixTokens) * 5)
	dataStart := prefixTokens * 5
	dataEnd := (curCount - suffixTokens) * 5

	return Edit{Start: start, DeleteCount: deleteCount, Data: append([]uint32{}, curTokens[dataStart:dataEnd]...)}
}

func commonPrefixTokens(a, b []uint32, countA, countB int) int {
	n := countA
	if countB < n {
		n = countB
	}
	i := 0
	for i < n && tokenEqual(a, b, i, i) {
		i++
	}
	return i
}

func commonSuffixTokens(a, b []uint32, countA, countB, prefix, maxSuffix int) int {
	i := 0
	for i < maxSuffix && tokenEqual(a, b, countA-1-i, countB-1-i) {
		i++
	}
	return i
}

func tokenEqual(a, b []uint32, tokenIdxA, tokenIdxB int) bool {
	ai, bi := tokenIdxA*5, tokenIdxB*5
	for k := 0; k < 5; k++ {
		if a[ai+k] != b[bi+k] {
			return false
		}
	}
	return true
}

func sumDeltaLines(tokens []uint32) uint64 {
	var sum uint64
	for i := 0; i*5 < len(tokens); i++ {
		sum += uint64(tokens[i*5])
	}
	return sum
}
