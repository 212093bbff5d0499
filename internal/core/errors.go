package core

import "fmt"

// ParseError is a structural failure reading the input document: not a DOCX,
// corrupt archive, missing document part. Structural failures are fatal and
// never retried.
type ParseError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot parse %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("cannot parse %s: %s", e.Path, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IntegrationError is a terminal failure writing the output package (disk
// full, permissions, broken archive). Per-comment anchoring failures are not
// IntegrationErrors; they are counted and skipped.
type IntegrationError struct {
	Op  string
	Err error
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("integration failed during %s: %v", e.Op, e.Err)
}

func (e *IntegrationError) Unwrap() error { return e.Err }
