package cli

import (
	"errors"

	"github.com/mesh-intelligence/wmslite/pkg/types"
)

// sysError marks a failure of the environment rather than of the request.
type sysError struct{ err error }

func (e sysError) Error() string { return e.err.Error() }
func (e sysError) Unwrap() error { return e.err }

func systemErr(err error) error {
	if err == nil {
		return nil
	}
	return sysError{err: err}
}

// systemSentinels are storage failures the user cannot fix by changing the
// request.
var systemSentinels = []error{
	types.ErrPoolExhausted,
	types.ErrPoolCorruption,
	types.ErrPoolClosed,
	types.ErrCommitFailure,
	types.ErrStoreDetached,
}

// exitCode maps an error to the process exit code. Anything not known to be
// a system failure is reported as a user error.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var se sysError
	if errors.As(err, &se) {
		return exitSysError
	}
	for _, target := range systemSentinels {
		if errors.Is(err, target) {
			return exitSysError
		}
	}
	return exitUserError
}
