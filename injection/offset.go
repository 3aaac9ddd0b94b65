package injection

import (
	"strconv"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// OffsetDirective is a parsed `#offset! @capture r1 c1 r2 c2` directive:
// four (row, column) deltas applied to a capture's start and end points
// to trim (or, with negative deltas, extend) its effective range.
type OffsetDirective struct {
	StartRowDelta, StartColDelta int
	EndRowDelta, EndColDelta     int
}

// offsetDirectiveForPattern inspects query's general predicates for
// patternIndex and returns the parsed #offset! directive targeting the
// @injection.content capture, if present. Tree-sitter treats #offset! as
// an ordinary predicate (not a #set!-style property), so it surfaces
// through GeneralPredicates rather than PropertySettings.
func offsetDirectiveForPattern(query *tree_sitter.Query, patternIndex uint) *OffsetDirective {
	for _, pred := range query.GeneralPredicates(patternIndex) {
		if pred.Operator != "offset!" {
			continue
		}
		// Operand 0 is the @capture reference; operands 1-4 are the
		// four integer deltas, as string literals.
		if len(pred.Args) < 5 {
			return nil
		}
		nums := make([]int, 0, 4)
		for _, arg := range pred.Args[1:5] {
			if arg.Str == nil {
				return nil
			}
			n, err := strconv.Atoi(*arg.Str)
			if err != nil {
				return nil
			}
			nums = append(nums, n)
		}
		return &OffsetDirective{
			StartRowDelta: nums[0],
			StartColDelta: nums[1],
			EndRowDelta:   nums[2],
			EndColDelta:   nums[3],
		}
	}
	return nil
}

// applyOffset computes the effective byte range and start point for a
// content node given an optional offset directive. Arithmetic is
// performed in bytes against the full document text so a column delta
// can be resolved against the actual line content; out-of-bounds offsets
// clamp to the content range itself rather than escaping it.
func applyOffset(text []byte, contentStart, contentEnd uint, startPoint, endPoint tree_sitter.Point, offset *OffsetDirective) (effStart, effEnd uint, effStartPoint tree_sitter.Point) {
	if offset == nil {
		return contentStart, contentEnd, startPoint
	}

	effStart = shiftByte(text, contentStart, startPoint, offset.StartRowDelta, offset.StartColDelta)
	effEnd = shiftByte(text, contentEnd, endPoint, offset.EndRowDelta, offset.EndColDelta)

	if effStart > effEnd {
		effStart, effEnd = contentStart, contentEnd
	}
	if effStart < contentStart {
		effStart = contentStart
	}
	if effEnd > contentEnd {
		// #offset! is only ever used to trim, never to extend past the
		// captured node's own range in practice; clamp defensively.
		effEnd = contentEnd
	}

	effStartPoint = tree_sitter.NewPoint(uint(int(startPoint.Row)+offset.StartRowDelta), pointCol(startPoint, offset.StartRowDelta, offset.StartColDelta))
	return effStart, effEnd, effStartPoint
}

func pointCol(p tree_sitter.Point, rowDelta, colDelta int) uint {
	if rowDelta != 0 {
		// A row shift resets the column basis to the delta itself: the
		// new row's own indentation, not an offset from the old column.
		if colDelta < 0 {
			return 0
		}
		return uint(colDelta)
	}
	col := int(p.Column) + colDelta
	if col < 0 {
		col = 0
	}
	return uint(col)
}

// shiftByte walks forward/backward from (byteOffset, point) by rowDelta
// lines and then colDelta bytes, clamping to the document bounds.
func shiftByte(text []byte, byteOffset uint, point tree_sitter.Point, rowDelta, colDelta int) uint {
	off := int(byteOffset)

	if rowDelta > 0 {
		for rowDelta > 0 && off < len(text) {
			if text[off] == '\n' {
				rowDelta--
			}
			off++
		}
	} else if rowDelta < 0 {
		for rowDelta < 0 && off > 0 {
			off--
			if text[off] == '\n' {
				rowDelta++
			}
		}
		// The walk stops on the newline that ends the target line; move
		// back to that line's start.
		for off > 0 && text[off-1] != '\n' {
			off--
		}
	}

	// colDelta is relative to the new line's start when rowDelta shifted
	// us onto a different line, and relative to byteOffset's own line
	// otherwise; either way it is just added to the byte offset we've
	// already advanced to.
	off += colDelta

	if off < 0 {
		off = 0
	}
	if off > len(text) {
		off = len(text)
	}
	return uint(off)
}
