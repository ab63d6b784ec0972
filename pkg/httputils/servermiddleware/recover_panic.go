package servermiddleware

import (
	"net/http"

	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
)

// RecoverPanic converts a panicking handler into a 500 response and reports
// the panic through the error monitor of the request context.
//
// Should be executed only after SetupContext.
func RecoverPanic(
	handler func(http.ResponseWriter, *http.Request),
) func(http.ResponseWriter, *http.Request) {
	return func(response http.ResponseWriter, request *http.Request) {
		defer func() {
			if event := errmon.ObserveRecoverCtx(request.Context(), recover()); event != nil {
				http.Error(response, "internal server error", http.StatusInternalServerError)
			}
		}()
		handler(response, request)
	}
}
