package tripface

import "fmt"

// DatasetConfigurationError indicates that a dataset
// directory cannot be used for triplet sampling at all.
//
// The underlying error (if any) can be accessed via
// errors.Unwrap.
type DatasetConfigurationError struct {
	Path   string
	Reason string
	cause  error
}

func (e *DatasetConfigurationError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("dataset %s: %s: %v", e.Path, e.Reason, e.cause)
	}
	return fmt.Sprintf("dataset %s: %s", e.Path, e.Reason)
}

func (e *DatasetConfigurationError) Unwrap() error { return e.cause }

// InsufficientSamplesError is returned when an identity
// has too few images to form a distinct anchor/positive
// pair.
type InsufficientSamplesError struct {
	Identity string
	Count    int
}

func (e *InsufficientSamplesError) Error() string {
	return fmt.Sprintf("identity %q has %d image(s), need at least 2", e.Identity, e.Count)
}

// ImageDecodeError indicates that an image file could not
// be decoded or converted into a tensor.
//
// The underlying error (if any) can be accessed via
// errors.Unwrap.
type ImageDecodeError struct {
	Path  string
	cause error
}

func (e *ImageDecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.cause)
}

func (e *ImageDecodeError) Unwrap() error { return e.cause }
