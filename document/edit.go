package document

import tree_sitter "github.com/tree-sitter/go-tree-sitter"

// Edit is one incremental change to a document's text, expressed as an
// LSP-style [StartLine:StartUTF16Col, EndLine:EndUTF16Col) replacement.
// A negative EndLine signals a full-document replacement; the other
// range fields are then ignored.
type Edit struct {
	StartLine, StartUTF16Col int
	EndLine, EndUTF16Col     int
	NewText                  string
}

// ApplyEdit rewrites text per e, returning the new byte slice and the
// tree_sitter.InputEdit describing the same change in byte + point
// coordinates, so the caller can drive Tree.Edit before reparsing.
func ApplyEdit(text []byte, index *LineIndex, e Edit) ([]byte, tree_sitter.InputEdit) {
	if e.EndLine < 0 {
		// Full-document replacement (e.g. didChange with no range).
		newText := []byte(e.NewText)
		oldEnd := pointAtEnd(text)
		return newText, tree_sitter.InputEdit{
			StartByte:   0,
			OldEndByte:  uint(len(text)),
			NewEndByte:  uint(len(newText)),
			StartPoint:  tree_sitter.NewPoint(0, 0),
			OldEndPoint: oldEnd,
			NewEndPoint: pointAtEnd(newText),
		}
	}

	startByte := lineColToByte(index, e.StartLine, e.StartUTF16Col)
	endByte := lineColToByte(index, e.EndLine, e.EndUTF16Col)

	startPoint := tree_sitter.NewPoint(uint(e.StartLine), uint(byteColOnLine(index, e.StartLine, startByte)))
	oldEndPoint := tree_sitter.NewPoint(uint(e.EndLine), uint(byteColOnLine(index, e.EndLine, endByte)))

	newBytes := []byte(e.NewText)
	newText := make([]byte, 0, len(text)-(endByte-startByte)+len(newBytes))
	newText = append(newText, text[:startByte]...)
	newText = append(newText, newBytes...)
	newText = append(newText, text[endByte:]...)

	newEndByte := startByte + len(newBytes)
	newIndex := NewLineIndex(newText)
	newEndLine, newEndCol := newIndex.ByteToPoint(newEndByte)
	newEndPoint := tree_sitter.NewPoint(uint(newEndLine), uint(newEndCol))

	return newText, tree_sitter.InputEdit{
		StartByte:   uint(startByte),
		OldEndByte:  uint(endByte),
		NewEndByte:  uint(newEndByte),
		StartPoint:  startPoint,
		OldEndPoint: oldEndPoint,
		NewEndPoint: newEndPoint,
	}
}

func lineColToByte(index *LineIndex, line, utf16Col int) int {
	if line >= index.LineCount() {
		return len(index.text)
	}
	return index.UTF16ColumnToByte(line, utf16Col)
}

func byteColOnLine(index *LineIndex, line, byteOffset int) int {
	if line >= index.LineCount() {
		return 0
	}
	start, _ := index.LineByteRange(line)
	return byteOffset - start
}

func pointAtEnd(text []byte) tree_sitter.Point {
	idx := NewLineIndex(text)
	line, col := idx.ByteToPoint(len(text))
	return tree_sitter.NewPoint(uint(line), uint(col))
}
