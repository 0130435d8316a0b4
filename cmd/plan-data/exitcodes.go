package main

import (
	"errors"

	"github.com/NASA-AMMOS/aerie-gateway/pkg/serrors"
)

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

const (
	exitOK            = 0
	exitInternal      = 1
	exitInput         = 2
	exitUsage         = 3
	exitUpstream      = 4
	exitCountMismatch = 5
)

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

// exitCode prefers an explicit code, then the pipeline error kind.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	switch serrors.KindOf(err) {
	case serrors.KindInput:
		return exitInput
	case serrors.KindUpstream:
		return exitUpstream
	case serrors.KindCountMismatch:
		return exitCountMismatch
	default:
		return exitInternal
	}
}
