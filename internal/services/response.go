package services

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/pionia-project/pionia/internal/errors"
)

// Response is the uniform envelope returned by every action. A return
// code of zero denotes success; failures carry the HTTP status of
// their error kind as the return code.
type Response struct {
	ReturnCode int    `json:"returnCode"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

// Render implements the render.Renderer interface. The envelope is
// always delivered with HTTP 200; the outcome lives in the return code.
func (resp Response) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, http.StatusOK)
	return nil
}

// OK creates a success response.
func OK(message string, data any) Response {
	return Response{ReturnCode: 0, Message: message, Data: data}
}

// Fail converts an error into a failure response using the error
// kind's HTTP status as the return code.
func Fail(err error) Response {
	apiErr := errors.AsAPIError(err)
	return Response{
		ReturnCode: apiErr.Kind.HTTPStatus(),
		Message:    apiErr.Message,
		Data:       apiErr.Details,
	}
}
