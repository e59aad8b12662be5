package errors

import (
	"errors"
	"net/http"
	"strings"
)

type ErrCode string

const (
	ErrCodeNotImplemented    ErrCode = "NotImplemented"
	ErrCodeNotFound          ErrCode = "NotFound"
	ErrCodeServiceFailure    ErrCode = "ServiceFailure"
	ErrCodeAPIBadRequest     ErrCode = "BadRequest"
	ErrCodeDependencyFailure ErrCode = "DependencyFailure"
	ErrCodeSpam              ErrCode = "Spam"
	ErrCodeOversized         ErrCode = "Oversized"
	ErrCodeBusy              ErrCode = "Busy"
)

// Err is the error type shared by all chronos components. Build it with one of the New* constructors
// and attach the underlying error with WithCause.
type Err struct {
	Code  ErrCode
	msg   string
	cause error
}

func (e *Err) Error() string {
	return e.msg
}

// Trace returns the chain of messages of e and its causes, one cause per indented line
func (e *Err) Trace() string {
	b := &strings.Builder{}
	b.WriteString(e.msg)
	indent := "\n"
	err := errors.Unwrap(e)
	for err != nil {
		indent += "\t"
		b.WriteString(indent)
		b.WriteString("Caused by: ")
		b.WriteString(err.Error())
		err = errors.Unwrap(err)
	}
	return b.String()
}

func (e *Err) Unwrap() error {
	return e.cause
}

func (e *Err) WithCause(c error) *Err {
	e.cause = c
	return e
}

func (e *Err) WithMsg(m string) *Err {
	e.msg = m
	return e
}

// prefer NewXXX(msg) over NewXXX(msg, cause) since the latter's signature has less readability - user needs
// to look up docs to know the 2nd param is for cause, while the first one can use WithCause() to be explicit
func NewServiceFailure(m string) *Err {
	return &Err{Code: ErrCodeServiceFailure, msg: m}
}

func NewDependencyFailure(m string) *Err {
	return &Err{Code: ErrCodeDependencyFailure, msg: m}
}

func NewNotFound(m string) *Err {
	return &Err{Code: ErrCodeNotFound, msg: m}
}

func NewBadInput(m string) *Err {
	return &Err{Code: ErrCodeAPIBadRequest, msg: m}
}

func NewBusy(m string) *Err {
	return &Err{Code: ErrCodeBusy, msg: m}
}

func NewNotImplemented() *Err {
	return &Err{Code: ErrCodeNotImplemented, msg: "Not implemented"}
}

func NewSpam() *Err {
	return &Err{Code: ErrCodeSpam, msg: "request rejected"}
}

func NewOversized() *Err {
	return &Err{Code: ErrCodeOversized, msg: "data oversized"}
}

// As returns the *Err in err's chain, if any
func As(err error) (*Err, bool) {
	var e *Err
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// StatusCode returns the http response status code associated with the Err value
func (e *Err) StatusCode() int {
	switch e.Code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeAPIBadRequest:
		return http.StatusBadRequest
	case ErrCodeSpam:
		return http.StatusForbidden
	case ErrCodeBusy:
		return http.StatusConflict
	case ErrCodeOversized:
		return http.StatusRequestEntityTooLarge
	case ErrCodeNotImplemented:
		return http.StatusNotImplemented
	case ErrCodeDependencyFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
