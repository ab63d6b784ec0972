package servermiddleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/facebookincubator/go-belt/beltctx"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/stretchr/testify/require"
)

func wrapTestHandler(handler func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	obsBelt := beltctx.Belt(context.Background())
	return AddDefaultMiddleware(handler, obsBelt, true, logger.LevelWarning)
}

func TestMiddlewarePassThrough(t *testing.T) {
	handler := wrapTestHandler(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})

	recorder := httptest.NewRecorder()
	handler(recorder, httptest.NewRequest(http.MethodGet, "/layers/1/download", nil))

	response := recorder.Result()
	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusTeapot, response.StatusCode)
	require.Equal(t, "short and stout", string(body))
}

func TestRecoverPanicReturns500(t *testing.T) {
	handler := wrapTestHandler(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	})

	recorder := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	})
	require.Equal(t, http.StatusInternalServerError, recorder.Result().StatusCode)
}
