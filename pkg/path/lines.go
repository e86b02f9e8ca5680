package path

import (
	"fmt"
	"iter"
	"unicode/utf8"

	"github.com/sidkik/treesync/pkg/errors"
)

// InvalidEncodingError is yielded by ReadLines when a line isn't valid UTF-8.
type InvalidEncodingError struct {
	Path string
	Line int
}

func (err InvalidEncodingError) Error() string {
	return fmt.Sprintf("%s: line %d is not valid UTF-8", err.Path, err.Line)
}

// singlePass wraps seq so that it can only be ranged over once. Later ranges
// yield errors.ErrLinesConsumed without touching the backend.
func singlePass(seq iter.Seq2[string, error]) iter.Seq2[string, error] {
	consumed := false
	return func(yield func(string, error) bool) {
		if consumed {
			yield("", errors.ErrLinesConsumed)
			return
		}
		consumed = true
		seq(yield)
	}
}

func checkEncoding(path string, lineNumber int, line string) error {
	if utf8.ValidString(line) {
		return nil
	}
	return InvalidEncodingError{Path: path, Line: lineNumber}
}
