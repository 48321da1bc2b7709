package pipeline

import (
	"fmt"

	"github.com/sells-group/revgeo/pkg/geocode"
)

// InputFormatError reports an input table that cannot be processed. Load
// returns it as a fatal error; a Result carries it for a single row whose
// coordinates are outside the valid range.
type InputFormatError struct {
	Path   string
	Row    int // 1-based line including the header; 0 when not row-specific
	Column string
	Reason string
	Err    error
}

func (e *InputFormatError) Error() string {
	msg := "pipeline: invalid input"
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Row > 0 {
		msg += fmt.Sprintf(": line %d", e.Row)
	}
	if e.Column != "" {
		msg += fmt.Sprintf(": column %q", e.Column)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InputFormatError) Unwrap() error { return e.Err }

// CredentialError reports a missing credential or one the provider rejected.
// It always aborts the run.
type CredentialError struct {
	Provider string
	Err      error
}

func (e *CredentialError) Error() string {
	msg := fmt.Sprintf("pipeline: %s credential rejected", e.Provider)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CredentialError) Unwrap() error { return e.Err }

// ProviderLookupError reports a failed lookup for one row. The row receives
// the sentinel address and processing continues.
type ProviderLookupError struct {
	Row  int
	Kind geocode.Kind
	Err  error
}

func (e *ProviderLookupError) Error() string {
	msg := fmt.Sprintf("pipeline: line %d: lookup failed (%s)", e.Row, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderLookupError) Unwrap() error { return e.Err }

// OutputWriteError reports that the output table could not be written.
type OutputWriteError struct {
	Path string
	Err  error
}

func (e *OutputWriteError) Error() string {
	msg := "pipeline: write output " + e.Path
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OutputWriteError) Unwrap() error { return e.Err }
