package pipeline

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/couchcryptid/airquality-ingest-service/internal/domain"
)

// Record is one decoded data row addressed by header name.
type Record struct {
	header map[string]int
	values []string
}

// Get returns the raw value of the named column, or "" if the column is
// absent from the header or the row is short.
func (r Record) Get(column string) string {
	i, ok := r.header[column]
	if !ok || i >= len(r.values) {
		return ""
	}
	return r.values[i]
}

func newReader(data []byte, sep rune) *csv.Reader {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sep
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true
	return r
}

// ParseSeparator converts a user-supplied delimiter to a rune. It must be
// exactly one character and usable as a field delimiter.
func ParseSeparator(s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%w: %q must be a single character", domain.ErrInvalidSeparator, s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if !validSeparator(r) {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidSeparator, s)
	}
	return r, nil
}

func validSeparator(sep rune) bool {
	return sep != 0 && sep != '"' && sep != '\r' && sep != '\n' &&
		sep != utf8.RuneError && utf8.ValidRune(sep)
}

// countRows streams the data once and counts data rows, excluding the header.
func countRows(data []byte, sep rune) (int, error) {
	r := newReader(data, sep)
	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, err
	}

	n := 0
	for {
		_, err := r.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}

// eachRecord streams the data and calls fn for every data row. The Record is
// only valid for the duration of the call.
func eachRecord(data []byte, sep rune, fn func(Record)) error {
	r := newReader(data, sep)
	head, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	header := indexHeader(head)

	for {
		values, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		fn(Record{header: header, values: values})
	}
}

func indexHeader(names []string) map[string]int {
	header := make(map[string]int, len(names))
	for i, name := range names {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := header[name]; !dup {
			header[name] = i
		}
	}
	return header
}
