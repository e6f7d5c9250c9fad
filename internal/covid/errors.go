package covid

import (
	"errors"
	"fmt"
)

// every failure of a run wraps one of these, callers should match with errors.Is
var (
	// ErrNetwork means the statistics site or image host could not be reached
	// or answered with a non-success status.
	ErrNetwork = errors.New("network error")
	// ErrParse means the fetched page did not have the expected structure.
	ErrParse = errors.New("parse error")
	// ErrDataAnomaly means an observation would make the cumulative counts decrease.
	ErrDataAnomaly = errors.New("data anomaly")
	// ErrDataInsufficient means there are not enough observations for the operation.
	ErrDataInsufficient = errors.New("insufficient data")
	// ErrUpload means the image host rejected an upload.
	ErrUpload = errors.New("upload rejected")
)

// AnomalyError describes an observation that was rejected because it would
// make the series non-monotonic.
type AnomalyError struct {
	Incoming Observation
	// Conflict is the stored observation the incoming one disagrees with.
	Conflict Observation
}

func (e *AnomalyError) Error() string {
	return fmt.Sprintf(
		"%s: %s (cases %d, deaths %d) conflicts with %s (cases %d, deaths %d)",
		ErrDataAnomaly,
		e.Incoming.Date.Format(DateLayout), e.Incoming.Cases, e.Incoming.Deaths,
		e.Conflict.Date.Format(DateLayout), e.Conflict.Cases, e.Conflict.Deaths,
	)
}

func (e *AnomalyError) Unwrap() error {
	return ErrDataAnomaly
}
