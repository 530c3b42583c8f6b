package errcode

import (
	"errors"

	"bmscode-go/drivers/ltc681x"
)

// Code is a stable, console/log-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK             Code = "ok"
	Busy           Code = "busy"
	InvalidParams  Code = "invalid_params"
	UnknownCommand Code = "unknown_command"
	NoChain        Code = "no_chain"

	PECMismatch    Code = "pec_mismatch"
	Timeout        Code = "timeout"
	SelfTestFailed Code = "selftest_failed"
	OpenWire       Code = "open_wire"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return MapDriverErr(err)
}

// MapDriverErr maps LTC681x driver errors to a Code.
func MapDriverErr(err error) Code {
	switch {
	case err == nil:
		return OK
	case errors.Is(err, ltc681x.ErrPEC):
		return PECMismatch
	case errors.Is(err, ltc681x.ErrInvalidRegister), errors.Is(err, ltc681x.ErrChainLength):
		return InvalidParams
	case errors.Is(err, ltc681x.ErrNoBus):
		return NoChain
	}
	return Error
}
