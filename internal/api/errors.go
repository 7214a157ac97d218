package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/seqgen/internal/decoder"
	"github.com/samcharles93/seqgen/internal/translate"
)

var ErrInvalidRequest = errors.New("invalid_request")

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

type ErrorBody struct {
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
	Param   string `json:"param,omitempty"`
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, "")
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "")
}

func writeError(c *echo.Context, status int, errType, msg, param string) error {
	return c.JSON(status, map[string]any{
		"error": ErrorBody{
			Message: msg,
			Type:    errType,
			Param:   param,
		},
	})
}

// writeTranslateError maps a translation failure to a status code.
// Caller mistakes are 400s; model failures are 500s.
func writeTranslateError(c *echo.Context, err error) error {
	var cfgErr *decoder.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error(), cfgErr.Field)
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, translate.ErrUnknownWord):
		return writeBadRequest(c, err.Error())
	case errors.Is(err, decoder.ErrModelInvocation):
		return writeError(c, http.StatusInternalServerError, "model_error", err.Error(), "")
	default:
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "")
	}
}
