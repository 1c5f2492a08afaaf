package expression

import (
	"fmt"
	"strings"
)

// Match is one {!...} occurrence inside a markup body.
type Match struct {
	Ref   PropertyReference
	Start int // byte offset of "{!"
	End   int // byte offset just past "}"
}

// Scan finds every {!expr} in body. Locations are 1-based and point at "{!".
// An unterminated or unparsable expression fails the whole scan.
func Scan(body, file string) ([]Match, error) {
	var matches []Match
	offset := 0
	for {
		i := strings.Index(body[offset:], "{!")
		if i < 0 {
			return matches, nil
		}
		start := offset + i
		loc := locate(body, start, file)

		j := strings.IndexByte(body[start:], '}')
		if j < 0 {
			return nil, &InvalidExpressionError{
				Ref: PropertyReference{loc: loc},
				Msg: "unterminated expression",
			}
		}
		end := start + j + 1

		ref, err := Parse(body[start+2:end-1], loc)
		if err != nil {
			return nil, &InvalidExpressionError{
				Ref: PropertyReference{loc: loc},
				Msg: fmt.Sprintf("invalid expression %q: %v", body[start:end], err),
			}
		}
		matches = append(matches, Match{Ref: ref, Start: start, End: end})
		offset = end
	}
}

func locate(body string, pos int, file string) Location {
	line := 1 + strings.Count(body[:pos], "\n")
	col := pos + 1
	if nl := strings.LastIndexByte(body[:pos], '\n'); nl >= 0 {
		col = pos - nl
	}
	return Location{File: file, Line: line, Column: col}
}
