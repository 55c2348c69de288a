package reliability

// Failure classes attached to NLU gateway errors and metric labels.
const (
	ClassNetwork   = "network"
	ClassTransient = "transient"
	ClassRejected  = "rejected"
	ClassMalformed = "malformed"
)

// IsTransientHTTPStatus reports status codes that usually clear up on their own.
func IsTransientHTTPStatus(code int) bool {
	switch code {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// ClassifyHTTPStatus maps a non-success status code to a failure class.
// Success codes map to the empty string.
func ClassifyHTTPStatus(code int) string {
	if code >= 200 && code < 300 {
		return ""
	}
	if IsTransientHTTPStatus(code) {
		return ClassTransient
	}
	return ClassRejected
}
