package landcover

import "fmt"

// DataError reports invalid input: mismatched coordinate systems, empty
// rasters or polygon sets, malformed geometry. It aborts a run.
type DataError struct {
	Reason string
	Err    error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error: %s: %v", e.Reason, e.Err)
	}
	return "data error: " + e.Reason
}

func (e *DataError) Unwrap() error { return e.Err }

// SamplingError reports that a class has no polygons or pixels where some
// are required.
type SamplingError struct {
	Class  Class
	Reason string
}

func (e *SamplingError) Error() string {
	return fmt.Sprintf("sampling error: class %s (%d): %s", e.Class, uint8(e.Class), e.Reason)
}

// ModelingError reports a class that cannot be modeled, e.g. a singular
// covariance or no training pixels. Err carries the underlying cause, which
// may itself be a *SamplingError.
type ModelingError struct {
	Class  Class
	Reason string
	Err    error
}

func (e *ModelingError) Error() string {
	msg := fmt.Sprintf("modeling error: class %s (%d): %s", e.Class, uint8(e.Class), e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ModelingError) Unwrap() error { return e.Err }
