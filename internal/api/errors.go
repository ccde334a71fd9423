package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/s2s/internal/decode"
	"github.com/samcharles93/s2s/internal/translate"
	"github.com/samcharles93/s2s/internal/vocab"
)

var ErrInvalidRequest = errors.New("invalid_request")

type invalidRequestError struct {
	msg   string
	param string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(param, msg string) error {
	return invalidRequestError{msg: msg, param: param}
}

// isClientError reports whether err was caused by the request contents.
func isClientError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, translate.ErrEmptyInput) ||
		errors.Is(err, translate.ErrMaxLengthExceeded) ||
		errors.Is(err, vocab.ErrUnknownSymbol) ||
		errors.Is(err, vocab.ErrSequenceTooLong) ||
		errors.Is(err, decode.ErrInvalidConfig)
}

func writeTranslateError(c *echo.Context, err error) error {
	if isClientError(err) {
		var ire invalidRequestError
		if errors.As(err, &ire) {
			return writeError(c, http.StatusBadRequest, "invalid_request_error", ire.msg, ire.param, "")
		}
		if errors.Is(err, translate.ErrMaxLengthExceeded) {
			return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error(), "max_length", "")
		}
		return writeBadRequest(c, err.Error())
	}
	return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, "", "")
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "", "")
}

func writeError(c *echo.Context, status int, errType, msg, param, code string) error {
	return c.JSON(status, map[string]any{
		"error": ErrorBody{
			Message: msg,
			Type:    errType,
			Code:    code,
			Param:   param,
		},
	})
}
