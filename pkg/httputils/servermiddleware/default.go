package servermiddleware

import (
	"net/http"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
)

// AddDefaultMiddleware wraps an HTTP handler with the standard stack of the
// layer API: context/belt setup, request logging and panic recovery.
//
// For description of arguments see SetupContext.
func AddDefaultMiddleware(
	handler func(http.ResponseWriter, *http.Request),
	belt *belt.Belt,
	overridableLogLevel bool,
	defaultLogLevel logger.Level,
) func(http.ResponseWriter, *http.Request) {
	return SetupContext(RecoverPanic(LogRequests(handler)), belt, overridableLogLevel, defaultLogLevel)
}
