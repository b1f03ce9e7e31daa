package content

import (
	"errors"
	"fmt"
	"net"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrNotAuthenticated = errors.New("not authenticated")
)

// UpstreamError carries the content store's HTTP status and error message for
// a request that was sent but not accepted.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("content store: status %d", e.Status)
	}
	return fmt.Sprintf("content store: status %d: %s", e.Status, e.Message)
}

type ErrorClass int

const (
	ErrorClassPermanent ErrorClass = iota
	ErrorClassTransient
)

func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrorClassPermanent
	}

	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		switch {
		case upstream.Status >= 500:
			return ErrorClassTransient
		case upstream.Status == 408, upstream.Status == 429:
			return ErrorClassTransient
		}
		return ErrorClassPermanent
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorClassTransient
	}

	return ErrorClassPermanent
}

func IsRetryable(err error) bool {
	return ClassifyError(err) == ErrorClassTransient
}
