package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/adityaadep2008/TrioAgent/internal/logic"
)

// ErrorHandler maps logic errors onto status codes; anything untyped is a
// bad request, as httpx does by default.
func ErrorHandler(_ context.Context, err error) (int, any) {
	var ce *logic.CodeError
	if errors.As(err, &ce) {
		return ce.Code, ce
	}
	return http.StatusBadRequest, &logic.CodeError{Code: http.StatusBadRequest, Msg: err.Error()}
}
