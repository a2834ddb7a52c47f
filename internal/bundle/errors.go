package bundle

import "fmt"

// ValidationError reports a precondition the user can fix before building.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ResolutionError reports a failed server-jar lookup.
type ResolutionError struct {
	Loader  string
	Version string
	Err     error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving server jar for %s %s: %v", e.Loader, e.Version, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// NetworkError reports a failed asset download.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("downloading %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ArchiveError reports a failure while assembling the bundle archive.
type ArchiveError struct {
	Err error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("assembling bundle archive: %v", e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }
