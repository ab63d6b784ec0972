// Package httpapi is the small HTTP surface of the coordinator. Its main
// consumer is the headless worker: when no shared volume is configured,
// the worker reads layer metadata documents and datasets through these
// endpoints instead of the filesystem.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/facebookincubator/go-belt/beltctx"
	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/vasuse7en/geosafe/pkg/catalog"
	"github.com/vasuse7en/geosafe/pkg/httputils/servermiddleware"
)

const shutdownTimeout = 5 * time.Second

// Server serves the layer endpoints:
//
//	GET /healthz                    -> 200 "OK"
//	GET /layers/<id>/metadata.xml   -> the metadata sidecar document
//	GET /layers/<id>/download       -> the main dataset file
type Server struct {
	Catalog *catalog.Catalog
}

// NewServer returns an instance of Server.
func NewServer(cat *catalog.Catalog) *Server {
	return &Server{Catalog: cat}
}

// Handler returns the http.Handler of the API, wrapped into the standard
// middleware stack (context/belt setup, request logging, panic recovery).
// ctx provides the observability tooling inherited by every request.
func (srv *Server) Handler(ctx context.Context, defaultLogLevel logger.Level) http.Handler {
	mux := http.NewServeMux()
	obsBelt := beltctx.Belt(ctx)

	mux.HandleFunc("/healthz", servermiddleware.AddDefaultMiddleware(
		srv.handleHealthz, obsBelt, true, defaultLogLevel,
	))
	mux.HandleFunc("/layers/", servermiddleware.AddDefaultMiddleware(
		srv.handleLayers, obsBelt, true, defaultLogLevel,
	))
	return mux
}

// Serve listens on bindAddr until ctx is canceled, then shuts down
// gracefully.
func (srv *Server) Serve(ctx context.Context, bindAddr string, defaultLogLevel logger.Level) error {
	httpServer := &http.Server{
		Addr:    bindAddr,
		Handler: srv.Handler(ctx, defaultLogLevel),
	}

	shutdownResult := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancelFn := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelFn()
		shutdownResult <- httpServer.Shutdown(shutdownCtx)
	}()

	logger.FromCtx(ctx).Infof("listening on '%s'", bindAddr)
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("unable to serve '%s': %w", bindAddr, err)
	}
	return <-shutdownResult
}

func (srv *Server) handleHealthz(response http.ResponseWriter, request *http.Request) {
	response.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = response.Write([]byte("OK\n"))
}

// handleLayers dispatches "/layers/<id>/<verb>". The stdlib mux has no
// path parameters, so the ID is cut out of the path here.
func (srv *Server) handleLayers(response http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet && request.Method != http.MethodHead {
		http.Error(response, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(request.URL.Path, "/layers/")
	layerIDString, verb, found := strings.Cut(rest, "/")
	if !found {
		http.NotFound(response, request)
		return
	}
	layerID, err := strconv.ParseInt(layerIDString, 10, 64)
	if err != nil {
		http.NotFound(response, request)
		return
	}

	switch verb {
	case "metadata.xml":
		srv.serveLayerFile(response, request, layerID, metadataSidecar)
	case "download":
		srv.serveLayerFile(response, request, layerID, mainDataset)
	default:
		http.NotFound(response, request)
	}
}

type layerFileKind int

const (
	metadataSidecar = layerFileKind(iota)
	mainDataset
)

func (srv *Server) serveLayerFile(
	response http.ResponseWriter,
	request *http.Request,
	layerID int64,
	kind layerFileKind,
) {
	ctx := request.Context()
	log := logger.FromCtx(ctx)

	layer, err := srv.Catalog.Layer(ctx, layerID)
	if err != nil {
		var notFound catalog.ErrNotFound
		if errors.As(err, &notFound) {
			http.NotFound(response, request)
			return
		}
		log.Errorf("unable to load layer %d: %v", layerID, err)
		http.Error(response, "internal error", http.StatusInternalServerError)
		return
	}
	if !layer.FullyInitialized() {
		http.NotFound(response, request)
		return
	}

	var filePath, contentType string
	switch kind {
	case metadataSidecar:
		filePath = layer.MetadataFilePath()
		contentType = "application/xml"
	case mainDataset:
		filePath = layer.StorePath
		contentType = "application/octet-stream"
	}

	blob, err := srv.Catalog.LayerFileBytes(ctx, filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.NotFound(response, request)
			return
		}
		log.Errorf("unable to read '%s' of layer %d: %v", filePath, layerID, err)
		http.Error(response, "internal error", http.StatusInternalServerError)
		return
	}

	response.Header().Set("Content-Type", contentType)
	if kind == mainDataset {
		response.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="%s"`, path.Base(filePath)))
	}
	response.Header().Set("Content-Length", strconv.Itoa(len(blob)))
	if request.Method == http.MethodHead {
		return
	}
	_, _ = response.Write(blob)
}
