package blobstore

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

var (
	// ErrMissingSidecar is matched by every *MissingSidecarError.
	ErrMissingSidecar = errors.New("blob sidecar not found")

	errNilSidecar = errors.New("nil sidecar")
)

// MissingSidecarError is returned when a sidecar was required but not found.
type MissingSidecarError struct {
	TxHash common.Hash
}

func (e *MissingSidecarError) Error() string {
	return fmt.Sprintf("blob sidecar not found for transaction %s", e.TxHash.Hex())
}

func (e *MissingSidecarError) Is(target error) bool {
	return target == ErrMissingSidecar
}

// DecodeError is returned when stored sidecar bytes cannot be decoded. The entry
// should be treated as lost.
type DecodeError struct {
	TxHash common.Hash
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode blob data of transaction %s: %v", e.TxHash.Hex(), e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// OtherError carries any implementation specific failure.
type OtherError struct {
	Msg string
	Err error
}

// NewOtherError wraps err with a formatted context message.
func NewOtherError(err error, format string, args ...interface{}) *OtherError {
	return &OtherError{
		Msg: fmt.Sprintf(format, args...),
		Err: errors.WithStack(err),
	}
}

func (e *OtherError) Error() string {
	if e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *OtherError) Unwrap() error {
	return e.Err
}

// IsMissingSidecar reports whether err signals a missing sidecar.
func IsMissingSidecar(err error) bool {
	return errors.Is(err, ErrMissingSidecar)
}

// IsDecodeError reports whether err signals undecodable stored data.
func IsDecodeError(err error) bool {
	var decodeErr *DecodeError
	return errors.As(err, &decodeErr)
}
