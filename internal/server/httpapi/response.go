package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophmatch/internal/common"
	"github.com/go-chi/render"
)

// Response is the envelope of every JSON body.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

const (
	StatusOK    = "OK"
	StatusError = "Error"
)

func ok(w http.ResponseWriter, r *http.Request, data any) {
	render.JSON(w, r, Response{Status: StatusOK, Data: data})
}

func fail(w http.ResponseWriter, r *http.Request, code int, msg string) {
	render.Status(r, code)
	render.JSON(w, r, Response{Status: StatusError, Error: msg})
}

// statusOf maps service errors onto HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
