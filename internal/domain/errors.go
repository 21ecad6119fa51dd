package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every stage. Stages never return these across
// their boundary; they tag an Outcome with them instead.
var (
	// ErrMissingCredential marks a collaborating service whose key is not configured.
	ErrMissingCredential = errors.New("missing credential")
	// ErrRemoteService marks a non-success response, transport failure or malformed body.
	ErrRemoteService = errors.New("remote service error")
	// ErrParse marks service or model output that does not match the expected shape.
	ErrParse = errors.New("unparseable response")
	// ErrNoRequirementSource is returned when neither a locator nor a document was supplied.
	ErrNoRequirementSource = errors.New("no requirement locator or document provided")
	// ErrNoDocuments is returned when the proposal package is empty.
	ErrNoDocuments = errors.New("no proposal documents provided")
)

// RemoteError carries the upstream status of a failed service call.
type RemoteError struct {
	Service string
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s returned status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.Status, e.Message)
}

// Unwrap lets errors.Is(err, ErrRemoteService) classify every RemoteError.
func (e *RemoteError) Unwrap() error {
	return ErrRemoteService
}

// MissingCredential builds the configuration error for a named service.
func MissingCredential(service string) error {
	return fmt.Errorf("%s: %w", service, ErrMissingCredential)
}
