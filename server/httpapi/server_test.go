package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vasuse7en/geosafe/pkg/catalog"
)

func newTestServer(t *testing.T) (context.Context, *catalog.Catalog, *httptest.Server) {
	ctx, cancelFn := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancelFn)

	dbName := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dbURL := fmt.Sprintf("sqlite3://file:%s?mode=memory&cache=shared", dbName)

	cat, err := catalog.New(ctx, dbURL, "fs://"+t.TempDir(), nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, cat.Close())
	})
	require.NoError(t, cat.InitSchema(ctx))

	httpServer := httptest.NewServer(NewServer(cat).Handler(ctx, logger.LevelWarning))
	t.Cleanup(httpServer.Close)
	return ctx, cat, httpServer
}

func fetchStatus(t *testing.T, baseURL string, urlPath string) (int, []byte) {
	response, err := http.Get(baseURL + urlPath)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, response.Body.Close())
	}()
	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	return response.StatusCode, body
}

func TestHealthz(t *testing.T) {
	_, _, httpServer := newTestServer(t)

	status, body := fetchStatus(t, httpServer.URL, "/healthz")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "OK\n", string(body))
}

func TestLayerMetadata(t *testing.T) {
	ctx, cat, httpServer := newTestServer(t)

	layer := &catalog.Layer{
		UUID:      uuid.New(),
		Name:      "flood",
		Title:     "Flood hazard",
		StorePath: "layers/flood.shp",
	}
	require.NoError(t, cat.CreateLayer(ctx, layer))
	require.NoError(t, cat.PutLayerFileBytes(ctx, "layers/flood.xml", []byte("<qgis/>")))
	require.NoError(t, cat.PutLayerFileBytes(ctx, "layers/flood.shp", []byte("shp-bytes")))

	t.Run("metadata", func(t *testing.T) {
		status, body := fetchStatus(t, httpServer.URL, fmt.Sprintf("/layers/%d/metadata.xml", layer.ID))
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, "<qgis/>", string(body))
	})

	t.Run("download", func(t *testing.T) {
		status, body := fetchStatus(t, httpServer.URL, fmt.Sprintf("/layers/%d/download", layer.ID))
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, "shp-bytes", string(body))
	})

	t.Run("unknown_layer", func(t *testing.T) {
		status, _ := fetchStatus(t, httpServer.URL, "/layers/424242/metadata.xml")
		require.Equal(t, http.StatusNotFound, status)
	})

	t.Run("unknown_verb", func(t *testing.T) {
		status, _ := fetchStatus(t, httpServer.URL, fmt.Sprintf("/layers/%d/thumbnail", layer.ID))
		require.Equal(t, http.StatusNotFound, status)
	})
}

func TestLayerWithoutDataset(t *testing.T) {
	ctx, cat, httpServer := newTestServer(t)

	layer := &catalog.Layer{
		UUID: uuid.New(),
		Name: "pending",
	}
	require.NoError(t, cat.CreateLayer(ctx, layer))

	status, _ := fetchStatus(t, httpServer.URL, fmt.Sprintf("/layers/%d/metadata.xml", layer.ID))
	require.Equal(t, http.StatusNotFound, status)
}

func TestMissingSidecar(t *testing.T) {
	ctx, cat, httpServer := newTestServer(t)

	layer := &catalog.Layer{
		UUID:      uuid.New(),
		Name:      "nosidecar",
		StorePath: "layers/nosidecar.tif",
	}
	require.NoError(t, cat.CreateLayer(ctx, layer))

	status, _ := fetchStatus(t, httpServer.URL, fmt.Sprintf("/layers/%d/metadata.xml", layer.ID))
	require.Equal(t, http.StatusNotFound, status)
}
