package api

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/stock-ledger/core"
	"github.com/sksmith/stock-ledger/core/inventory"
	"github.com/sksmith/stock-ledger/core/user"
	"github.com/sksmith/stock-ledger/lock"
)

// ErrResponse renderer type for handling all sorts of errors.
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText string         `json:"status"`          // user-level status message
	Kind       inventory.Kind `json:"kind,omitempty"`  // ledger error kind
	ErrorText  string         `json:"error,omitempty"` // application-level error message, for debugging
}

func (e *ErrResponse) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

var ErrNotFound = &ErrResponse{HTTPStatusCode: http.StatusNotFound, StatusText: "Resource not found."}
var ErrConflict = &ErrResponse{
	HTTPStatusCode: http.StatusConflict,
	StatusText:     "Conflict.",
	ErrorText:      "The resource was modified concurrently, retry the request.",
}
var ErrUnavailable = &ErrResponse{
	HTTPStatusCode: http.StatusServiceUnavailable,
	StatusText:     "Service unavailable.",
	ErrorText:      "The resource is busy, retry the request.",
}
var ErrInternalServer = &ErrResponse{
	Err:            nil,
	HTTPStatusCode: http.StatusInternalServerError,
	StatusText:     "Internal server error.",
	ErrorText:      "An internal server error has occurred.",
}

// ErrRejected is a ledger operation that was refused because of the stock it found.
func ErrRejected(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusUnprocessableEntity,
		StatusText:     "Operation rejected.",
		Kind:           inventory.KindOf(err),
		ErrorText:      err.Error(),
	}
}

// ErrFromService maps an error returned by a service onto the response a client sees.
func ErrFromService(err error) render.Renderer {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, core.ErrVersionConflict):
		return ErrConflict
	case errors.Is(err, lock.ErrLockTimeout):
		return ErrUnavailable
	case errors.Is(err, user.ErrInvalidRequest):
		return ErrInvalidRequest(err)
	}

	switch kind := inventory.KindOf(err); kind {
	case inventory.KindInvalidQuantity, inventory.KindInvalidArgument, inventory.KindInvalidConfiguration:
		e := ErrInvalidRequest(err).(*ErrResponse)
		e.Kind = kind
		return e
	case inventory.KindLocationNotFound:
		return &ErrResponse{
			Err:            err,
			HTTPStatusCode: http.StatusNotFound,
			StatusText:     "Resource not found.",
			Kind:           kind,
			ErrorText:      err.Error(),
		}
	case inventory.KindInsufficientStock, inventory.KindInsufficientReservedStock, inventory.KindNegativeStockRejected:
		return ErrRejected(err)
	}

	log.Error().Err(err).Msg("unexpected service error")
	return ErrInternalServer
}

func Render(w http.ResponseWriter, r *http.Request, rnd render.Renderer) {
	if err := render.Render(w, r, rnd); err != nil {
		log.Warn().Err(err).Msg("failed to render")
	}
}

func RenderList(w http.ResponseWriter, r *http.Request, l []render.Renderer) {
	if err := render.RenderList(w, r, l); err != nil {
		log.Warn().Err(err).Msg("failed to render")
	}
}
