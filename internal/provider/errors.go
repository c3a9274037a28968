package provider

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedModel is returned when a model name matches no vendor family.
	ErrUnsupportedModel = errors.New("provider: unsupported model")
	// ErrMissingCredentials is returned when the selected vendor has no API key or client configured.
	ErrMissingCredentials = errors.New("provider: missing credentials")
	// ErrEmptyResponse is returned when a vendor answers without any text.
	ErrEmptyResponse = errors.New("provider: empty response")
)

// BlockedResponseError reports a response that was refused by the vendor's
// safety layer or ended for a reason other than normal completion.
type BlockedResponseError struct {
	Provider string
	Reason   string
}

func (e *BlockedResponseError) Error() string {
	return fmt.Sprintf("provider: %s response blocked or incomplete (%s)", e.Provider, e.Reason)
}

// SectionNotFoundError reports that the raw analysis lacks the section a
// follow-up request needs. No vendor call is made in that case.
type SectionNotFoundError struct {
	Section string
}

func (e *SectionNotFoundError) Error() string {
	return fmt.Sprintf("provider: could not find '%s' in the original analysis", e.Section)
}

// InvalidJSONError carries a vendor reply that could not be decoded as JSON.
type InvalidJSONError struct {
	Raw string
	Err error
}

func (e *InvalidJSONError) Error() string {
	return fmt.Sprintf("provider: failed to decode JSON response: %v", e.Err)
}

func (e *InvalidJSONError) Unwrap() error { return e.Err }
