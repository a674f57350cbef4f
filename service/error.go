package service

import (
	"errors"
	"fmt"

	"github.com/bnb-chain/keys-hub/db"
)

// Verify Interface Compliance
var _ error = (*Err)(nil)

// Err defines service errors.
type Err struct {
	Code    int64  `json:"code"`
	Message string `json:"error"`
}

func (e Err) Enrich(message string) Err {
	return Err{
		Code:    e.Code,
		Message: fmt.Sprintf("%s: %s", e.Message, message),
	}
}

func (e Err) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

var (
	NoErr         = Err{Code: 0, Message: ""}
	BadRequestErr = Err{Code: 400, Message: "bad request"}
	NotFoundErr   = Err{Code: 404, Message: "not found"}
	TooEarlyErr   = Err{Code: 425, Message: "too early, el meta is not available yet"}
	InternalErr   = Err{Code: 500, Message: "internal error"}

	// ErrConsistencyViolation means a module was stored at a block later than the el meta row.
	ErrConsistencyViolation = errors.New("stored registry is ahead of el meta")
)

func BadRequestWithError(err error) Err {
	return BadRequestErr.Enrich(err.Error())
}

func InternalErrorWithError(err error) Err {
	return InternalErr.Enrich(err.Error())
}

// ToErr maps storage and sync errors to the service error returned to clients.
func ToErr(err error) error {
	if err == nil {
		return nil
	}
	var svcErr Err
	if errors.As(err, &svcErr) {
		return svcErr
	}
	switch {
	case errors.Is(err, db.ErrNotFound):
		return NotFoundErr.Enrich(err.Error())
	case errors.Is(err, db.ErrDataNotYetAvailable):
		return TooEarlyErr
	default:
		return InternalErrorWithError(err)
	}
}
