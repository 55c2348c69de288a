package nlu

import (
	"errors"
	"fmt"
)

// ErrGatewayUnavailable matches every failure returned by Client.
var ErrGatewayUnavailable = errors.New("nlu gateway unavailable")

// GatewayError describes a failed gateway call. errors.Is(err,
// ErrGatewayUnavailable) holds for every GatewayError.
type GatewayError struct {
	Op         string
	StatusCode int
	Class      string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("nlu %s: http status %d (%s)", e.Op, e.StatusCode, e.Class)
	}
	if e.Err == nil {
		return fmt.Sprintf("nlu %s: %s", e.Op, e.Class)
	}
	return fmt.Sprintf("nlu %s: %s: %v", e.Op, e.Class, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

func (e *GatewayError) Is(target error) bool { return target == ErrGatewayUnavailable }
