package server

import (
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	slidererr "slider/pkg/errors"
)

// apiError is the JSON error body: {"error": "...", "code": "area.op.reason"}.
type apiError struct {
	status  int
	Message string `json:"error"`
	Code    string `json:"code"`
}

func (e *apiError) Error() string  { return e.Message }
func (e *apiError) GetStatus() int { return e.status }

func init() {
	// huma's own validation and decoding errors use the same body shape.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		details := make([]string, 0, len(errs))
		for _, err := range errs {
			if err != nil {
				details = append(details, err.Error())
			}
		}
		if len(details) > 0 {
			msg += ": " + strings.Join(details, "; ")
		}
		code := slidererr.CodeServerInternalFailure
		if status < http.StatusInternalServerError {
			code = slidererr.CodeServerRequestInvalid
		}
		return &apiError{status: status, Message: msg, Code: string(code)}
	}
}

// toAPIError maps a coded error to its HTTP status.
func toAPIError(err error) error {
	code := slidererr.CodeOf(err)
	if code == "" {
		code = slidererr.CodeServerInternalFailure
	}
	return &apiError{status: slidererr.HTTPStatus(err), Message: err.Error(), Code: string(code)}
}

func badRequest(msg string) error {
	return &apiError{status: http.StatusBadRequest, Message: msg, Code: string(slidererr.CodeServerRequestInvalid)}
}
