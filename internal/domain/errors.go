package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrFileNotFound means the page source file does not exist. Fatal for the page.
	ErrFileNotFound = errors.New("source file not found")

	// ErrMalformedCSV means the source could not be parsed as CSV. Fatal for the page.
	ErrMalformedCSV = errors.New("malformed csv")

	// ErrEmptyAfterFilter means every row was removed by the record filter.
	// The page stops rendering and reports that there is nothing to analyze.
	ErrEmptyAfterFilter = errors.New("no rows left to analyze after filtering")

	// ErrLocationNotFound is returned by a Geocoder when the provider has no match.
	ErrLocationNotFound = errors.New("location not found")

	// ErrUnknownPage is returned for a page id the dashboard does not serve.
	ErrUnknownPage = errors.New("unknown page")
)

// MissingColumnError reports an expected column that is absent from the
// source. The affected section is skipped; the rest of the page still renders.
type MissingColumnError struct {
	Section string
	Column  string
}

func (e *MissingColumnError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("column %q not found", e.Column)
	}
	return fmt.Sprintf("column %q not found, section %q skipped", e.Column, e.Section)
}

// MissingColumns builds one MissingColumnError per absent column.
func MissingColumns(t Table, section string, cols ...string) []error {
	var errs []error
	for _, c := range t.Missing(cols...) {
		errs = append(errs, &MissingColumnError{Section: section, Column: c})
	}
	return errs
}
