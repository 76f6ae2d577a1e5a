package errors

import "fmt"

// TransportFailure is the sentinel HTTP status recorded on an AnalysisError
// when the analysis engine could not be reached at all (connection refused,
// timeout, malformed response body).
const TransportFailure = 0

// AnalysisError is returned when the speech analysis engine responds with a
// non-success status or the call fails before a status is available. The
// recording intake flow branches on HTTPStatus to pick user-facing feedback,
// so it must survive wrapping; match it with errors.As.
type AnalysisError struct {
	HTTPStatus int
	Body       string
}

// Error implements the error interface.
func (e *AnalysisError) Error() string {
	if e.HTTPStatus == TransportFailure {
		return fmt.Sprintf("speech analysis request failed: %s", e.Body)
	}
	return fmt.Sprintf("speech analysis API returned HTTP %d: %s", e.HTTPStatus, e.Body)
}

// NewAnalysisError creates an AnalysisError for an engine response.
func NewAnalysisError(httpStatus int, body string) *AnalysisError {
	return &AnalysisError{HTTPStatus: httpStatus, Body: body}
}
