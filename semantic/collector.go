package semantic

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/teranos/treesitter-ls/document"
)

// MaxInjectionDepth bounds recursive token collection into nested
// injections, mirroring injection.MaxDepth — kept as its own constant
// so this package does not need to import injection just for the
// number.
const MaxInjectionDepth = 10

// RawToken is one highlight capture translated into host-document
// coordinates, before sort/dedup/delta encoding.
type RawToken struct {
	Line          int
	ColumnUTF16   int
	LengthUTF16   int
	TypeIndex     uint32
	ModifiersBits uint32
	Depth         int
}

// CaptureMapper resolves a raw tree-sitter capture name (e.g.
// "variable.parameter") to the dotted LSP capture name configured for
// it ("" means suppress). This is the filetype-specific-over-wildcard
// captureMappings lookup; the settings package supplies the concrete
// implementation.
type CaptureMapper func(captureName string) (mapped string, suppress bool)

// Collect runs query over root and emits RawTokens in host-document
// coordinates. contentStartByte is 0 for the host document's own tree;
// for an injection's tree it is the byte offset of the injection's
// effective content within the host document, so every node position
// (relative to the text actually parsed) becomes host-absolute before
// it is translated through hostIndex.
func Collect(query *tree_sitter.Query, root tree_sitter.Node, text []byte, hostIndex *document.LineIndex, contentStartByte uint, mapper CaptureMapper, multilineSupport bool, depth int) []RawToken {
	if query == nil {
		return nil
	}

	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()

	captureNames := query.CaptureNames()

	var out []RawToken

	matches := cursor.Matches(query, &root, text)
	for {
		match := matches.Next()
		if match == nil {
			break
		}
		for _, capture := range match.Captures {
			if int(capture.Index) >= len(captureNames) {
				continue
			}
			rawName := captureNames[capture.Index]
			mapped, suppress := mapper(rawName)
			if suppress {
				continue
			}
			typeIdx, mods, ok := ResolveCapture(mapped)
			if !ok {
				continue
			}

			startByte := contentStartByte + capture.Node.StartByte()
			endByte := contentStartByte + capture.Node.EndByte()
			if endByte <= startByte {
				continue
			}

			out = append(out, tokensForSpan(hostIndex, startByte, endByte, typeIdx, mods, depth, multilineSupport)...)
		}
	}

	return out
}

// tokensForSpan classifies a capture's host-absolute byte span as
// single-line, trailing-newline, or multiline, and emits one or more
// RawTokens per the multilineTokenSupport policy.
func tokensForSpan(hostIndex *document.LineIndex, startByte, endByte uint, typeIdx, mods uint32, depth int, multilineSupport bool) []RawToken {
	startLine, _ := hostIndex.ByteToPoint(int(startByte))
	endLine, endCol := hostIndex.ByteToPoint(int(endByte))

	// Trailing-newline: the node's end sits at column 0 of the next
	// row. Coerce to end-of-line of the start row instead of treating
	// it as a genuine multiline span.
	if endLine > startLine && endCol == 0 {
		endLine--
		_, lineEnd := hostIndex.LineByteRange(endLine)
		endByte = uint(lineEnd)
	}

	startCol := hostIndex.ByteToUTF16Column(int(startByte))

	if startLine == endLine {
		length := hostIndex.ByteToUTF16Column(int(endByte)) - startCol
		if length <= 0 {
			return nil
		}
		return []RawToken{{
			Line: startLine, ColumnUTF16: startCol, LengthUTF16: length,
			TypeIndex: typeIdx, ModifiersBits: mods, Depth: depth,
		}}
	}

	if multilineSupport {
		length := utf16SpanLength(hostIndex, startByte, endByte, startLine, endLine)
		if length <= 0 {
			return nil
		}
		return []RawToken{{
			Line: startLine, ColumnUTF16: startCol, LengthUTF16: length,
			TypeIndex: typeIdx, ModifiersBits: mods, Depth: depth,
		}}
	}

	var out []RawToken
	for line := startLine; line <= endLine; line++ {
		lineStart, lineEnd := hostIndex.LineByteRange(line)
		segStart := lineStart
		if line == startLine {
			segStart = int(startByte)
		}
		segEnd := lineEnd
		if line == endLine {
			segEnd = int(endByte)
		}
		if segEnd <= segStart {
			continue
		}
		col := 0
		if line == startLine {
			col = startCol
		}
		length := hostIndex.ByteToUTF16Column(segEnd) - col
		if line != startLine {
			length = hostIndex.ByteToUTF16Column(segEnd)
		}
		if length <= 0 {
			continue
		}
		out = append(out, RawToken{
			Line: line, ColumnUTF16: col, LengthUTF16: length,
			TypeIndex: typeIdx, ModifiersBits: mods, Depth: depth,
		})
	}
	return out
}

// utf16SpanLength sums the UTF-16 length of every spanned line plus one
// code unit per newline between them, per the "client supports
// multiline tokens" encoding.
func utf16SpanLength(hostIndex *document.LineIndex, startByte, endByte uint, startLine, endLine int) int {
	total := 0
	for line := startLine; line <= endLine; line++ {
		lineStart, lineEnd := hostIndex.LineByteRange(line)
		segStart := lineStart
		if line == startLine {
			segStart = int(startByte)
		}
		segEnd := lineEnd
		if line == endLine {
			segEnd = int(endByte)
		}
		if segEnd > segStart {
			total += hostIndex.ByteToUTF16Column(segEnd) - hostIndex.ByteToUTF16Column(segStart)
		}
		if line != endLine {
			total++ // the newline between this line and the next
		}
	}
	return total
}
