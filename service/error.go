package service

import (
	"fmt"
)

// Verify Interface Compliance
var _ error = (*Err)(nil)

// Err defines service errors.
type Err struct {
	Code    int64  `json:"code"`
	Message string `json:"error"`
}

var (
	ErrTooLargeRequest = Err{Code: -38004, Message: "Too large request"}
	ErrInvalidParams   = Err{Code: -32602, Message: "Invalid params"}
	ErrInternal        = Err{Code: -32603, Message: "Internal error"}
)

func (e Err) Enrich(message string) Err {
	return Err{
		Code:    e.Code,
		Message: fmt.Sprintf("%s: %s", e.Message, message),
	}
}

func (e Err) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

func InternalErrorWithError(err error) Err {
	return ErrInternal.Enrich(err.Error())
}

func BadRequestWithError(err error) Err {
	return ErrInvalidParams.Enrich(err.Error())
}
