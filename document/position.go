package document

import "unicode/utf16"

// LineIndex maps between byte offsets and (line, UTF-16 column) positions
// for a single text snapshot. LSP positions are UTF-16 code-unit columns;
// tree-sitter works in bytes, so every edit and every semantic-token
// position must cross this bridge exactly once.
type LineIndex struct {
	text        []byte
	lineStarts  []int // byte offset of the start of each line
}

// NewLineIndex builds a LineIndex over text. Rebuilt on every edit since
// line boundaries can shift anywhere in the document.
func NewLineIndex(text []byte) *LineIndex {
	starts := []int{0}
	for i, b := range text {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{text: text, lineStarts: starts}
}

// LineCount returns the number of lines, counting a trailing unterminated
// line as one.
func (l *LineIndex) LineCount() int {
	return len(l.lineStarts)
}

// ByteToPoint converts a byte offset into a (line, byte-column) pair.
func (l *LineIndex) ByteToPoint(byteOffset int) (line, col int) {
	line = l.lineForByte(byteOffset)
	return line, byteOffset - l.lineStarts[line]
}

// ByteToUTF16Column converts a byte offset within its line to a UTF-16
// code-unit column: ASCII text yields byte_to_utf16_col == byte; each
// 3-byte UTF-8 CJK codepoint contributes one code unit; each 4-byte
// emoji contributes two.
func (l *LineIndex) ByteToUTF16Column(byteOffset int) int {
	line := l.lineForByte(byteOffset)
	lineStart := l.lineStarts[line]
	return utf16ColumnWithinLine(l.text[lineStart:byteOffset])
}

// utf16ColumnWithinLine counts the UTF-16 code units represented by the
// UTF-8 bytes in lineSlice (a prefix of one line).
func utf16ColumnWithinLine(lineSlice []byte) int {
	col := 0
	for _, r := range string(lineSlice) {
		col += len(utf16.Encode([]rune{r}))
	}
	return col
}

func (l *LineIndex) lineForByte(byteOffset int) int {
	// Binary search for the last line start <= byteOffset.
	lo, hi := 0, len(l.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if l.lineStarts[mid] <= byteOffset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// LineByteRange returns the [start, end) byte range of line (end excludes
// the trailing newline, if any).
func (l *LineIndex) LineByteRange(line int) (start, end int) {
	start = l.lineStarts[line]
	if line+1 < len(l.lineStarts) {
		end = l.lineStarts[line+1]
		for end > start && (l.text[end-1] == '\n' || l.text[end-1] == '\r') {
			end--
		}
		return start, end
	}
	return start, len(l.text)
}

// UTF16ColumnToByte converts a UTF-16 column on the given line back to a
// byte offset, for translating incoming LSP positions to byte offsets.
func (l *LineIndex) UTF16ColumnToByte(line, utf16Col int) int {
	start, end := l.LineByteRange(line)
	lineBytes := l.text[start:end]

	units := 0
	for i, r := range string(lineBytes) {
		width := len(utf16.Encode([]rune{r}))
		if units+width > utf16Col {
			return start + i
		}
		units += width
	}
	return end
}
