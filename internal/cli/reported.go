package cli

import (
	"context"
	"errors"
)

// reportedError marks a failure that has already been shown to the user
// through a notification.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// reported wraps err so that main exits non-zero without printing it again.
func reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err: err}
}

// failed returns a reported error for a command that signalled failure
// with a boolean.
func failed(ok bool, op, id string) error {
	if ok {
		return nil
	}
	return reported(errors.New(op + " " + id + " failed"))
}

// Reported reports whether err was already printed.
func Reported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

// spinOK runs a command that reports success as a boolean under a spinner.
// A failure caused by cancellation returns the context error, so main exits
// with the interrupt status instead of printing a generic failure.
func spinOK(ctx context.Context, message, op, id string, fn func(context.Context) bool) error {
	var ok bool
	err := spin(ctx, message, func(ctx context.Context) error {
		if ok = fn(ctx); !ok {
			return ctx.Err()
		}
		return nil
	})
	if err != nil {
		return err
	}
	return failed(ok, op, id)
}
