package catalog

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

const (
	quoteChar  = '"'
	escapeChar = '\\'
)

// errUnterminatedQuote is returned for a record whose quoted field runs to end of input.
var errUnterminatedQuote = errors.New("unterminated quoted field")

// recordReader splits delimited text into records.
//
// Quoted fields may contain the delimiter and line breaks; a doubled quote inside
// a quoted field is a literal quote. The escape character makes the following
// rune literal both inside and outside quotes. A quote that appears after the
// start of an unquoted field is kept as text.
type recordReader struct {
	r     *bufio.Reader
	delim rune
	line  int // Line number of the next rune to be read, 1-based
}

func newRecordReader(r io.Reader, delim rune) *recordReader {
	return &recordReader{
		r:     bufio.NewReader(r),
		delim: delim,
		line:  1,
	}
}

// read returns the next non-blank record and the line it started on.
// It returns io.EOF when the input is exhausted. errUnterminatedQuote is
// returned together with the partial record; any other error is an I/O failure.
func (rr *recordReader) read() ([]string, int, error) {
	for {
		fields, start, blank, err := rr.readRaw()
		if err != nil {
			return fields, start, err
		}
		if blank {
			continue
		}
		return fields, start, nil
	}
}

// readRaw reads one physical record. blank reports an empty line.
func (rr *recordReader) readRaw() (fields []string, start int, blank bool, err error) {
	start = rr.line

	var (
		field    strings.Builder
		inQuotes bool
		quoted   bool // Current field opened with a quote
		consumed bool // Any rune read for this record
	)

	endField := func() {
		fields = append(fields, field.String())
		field.Reset()
		quoted = false
	}

	for {
		r, _, readErr := rr.r.ReadRune()
		if readErr != nil {
			if readErr != io.EOF {
				return nil, start, false, readErr
			}
			if !consumed {
				return nil, start, false, io.EOF
			}
			endField()
			if inQuotes {
				return fields, start, false, errUnterminatedQuote
			}
			return fields, start, false, nil
		}
		consumed = true

		if r == '\n' {
			rr.line++
		}

		switch {
		case r == escapeChar:
			next, _, nextErr := rr.r.ReadRune()
			if nextErr != nil {
				if nextErr != io.EOF {
					return nil, start, false, nextErr
				}
				field.WriteRune(r)
				continue
			}
			if next == '\n' {
				rr.line++
			}
			field.WriteRune(next)

		case inQuotes:
			if r != quoteChar {
				field.WriteRune(r)
				continue
			}
			next, _, peekErr := rr.r.ReadRune()
			if peekErr == nil && next == quoteChar {
				field.WriteRune(quoteChar)
				continue
			}
			if peekErr == nil {
				if unreadErr := rr.r.UnreadRune(); unreadErr != nil {
					return nil, start, false, unreadErr
				}
			}
			inQuotes = false

		case r == quoteChar && field.Len() == 0 && !quoted:
			inQuotes = true
			quoted = true

		case r == rr.delim:
			endField()

		case r == '\r' || r == '\n':
			if r == '\r' {
				next, _, peekErr := rr.r.ReadRune()
				if peekErr == nil && next != '\n' {
					if unreadErr := rr.r.UnreadRune(); unreadErr != nil {
						return nil, start, false, unreadErr
					}
				} else if peekErr == nil {
					rr.line++
				}
			}
			if len(fields) == 0 && field.Len() == 0 && !quoted {
				return nil, start, true, nil
			}
			endField()
			return fields, start, false, nil

		default:
			field.WriteRune(r)
		}
	}
}
