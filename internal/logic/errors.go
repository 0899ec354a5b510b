package logic

import (
	"fmt"
	"net/http"
)

// CodeError carries the HTTP status a logic failure should map to.
type CodeError struct {
	Code int    `json:"code"`
	Msg  string `json:"error"`
}

func (e *CodeError) Error() string { return e.Msg }

func newCodeError(code int, format string, args ...any) error {
	return &CodeError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

func badRequest(err error) error {
	return &CodeError{Code: http.StatusBadRequest, Msg: err.Error()}
}
