package etl

import (
	"bufio"
	"encoding/csv"
	"io"
)

// Reader streams raw field records from a comma-delimited source. The
// first record is treated as a header and discarded. Records are not
// validated for field count or content; that is the sanitizer's job.
type Reader struct {
	csv    *csv.Reader
	row    int
	header bool
}

// NewReader wraps r in a forward-only CSV record stream.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(&lineEndingReader{r: bufio.NewReader(r)})
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return &Reader{csv: cr}
}

// Next returns the next data record and its 1-based position among the
// data rows (the header does not count). It returns io.EOF when the
// source is exhausted.
func (r *Reader) Next() ([]string, int, error) {
	if !r.header {
		r.header = true
		if _, err := r.csv.Read(); err != nil {
			if err == io.EOF {
				return nil, 0, io.EOF
			}
			return nil, 0, err
		}
	}

	fields, err := r.csv.Read()
	if err != nil {
		if err == io.EOF {
			return nil, r.row, io.EOF
		}
		r.row++
		return nil, r.row, err
	}
	r.row++
	return fields, r.row, nil
}

// lineEndingReader normalizes classic-Mac bare carriage returns to
// newlines so encoding/csv sees a single convention. CRLF pairs are
// collapsed to a newline; bare LF passes through untouched.
type lineEndingReader struct {
	r *bufio.Reader
}

func (l *lineEndingReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		b, err := l.r.ReadByte()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}
		if b == '\r' {
			if next, err := l.r.Peek(1); err == nil && next[0] == '\n' {
				continue // drop the CR, the LF follows
			}
			b = '\n'
		}
		p[n] = b
		n++
	}
	return n, nil
}
