// Package export serializes expense lists to CSV and JSON and tracks export
// progress.
package export

import (
	"fmt"
	"strings"
)

// Format is the artifact format of an export.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
	PDF  Format = "pdf"
)

// Formats lists every supported format.
func Formats() []Format { return []Format{CSV, JSON, PDF} }

// ParseFormat accepts a format name in any case.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("unsupported export format %q", s)
	}
	return f, nil
}

func (f Format) Valid() bool {
	switch f {
	case CSV, JSON, PDF:
		return true
	}
	return false
}

func (f Format) Extension() string { return "." + string(f) }

func (f Format) ContentType() string {
	switch f {
	case CSV:
		return "text/csv"
	case JSON:
		return "application/json"
	case PDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

func (f Format) String() string { return strings.ToUpper(string(f)) }
