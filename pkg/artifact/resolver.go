package artifact

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/vasuse7en/geosafe/pkg/catalog"
)

// Resolver translates catalog records and worker-reported URLs into
// addresses the other side can actually reach.
//
// Two optional shared volumes shape the translation:
//
//   - the file store mounted on the worker at WorkerStoreDir (layers are
//     then addressed as files instead of download URLs),
//   - the worker's impact output mounted locally at ImpactDir (impact
//     URLs are then rewritten to local paths instead of downloaded).
type Resolver struct {
	// PublicBaseURL is the externally reachable base URL of this daemon,
	// for example "https://geosafe.example.org".
	PublicBaseURL string

	// WorkerStoreDir is the worker-side mount point of the file store
	// root. Empty disables direct layer file access.
	WorkerStoreDir string

	// MirrorStoreDir is the locally reachable path of the worker's
	// private copy of the store, receiving sidecar mirrors. Empty
	// disables the mirror sink.
	MirrorStoreDir string

	// ImpactBaseURL is the public URL prefix the worker reports impact
	// artifacts under; ImpactDir is where these artifacts are mounted
	// locally. Empty ImpactDir disables URL rewriting.
	ImpactBaseURL string
	ImpactDir     string
}

// DirectLayerAccess reports whether the worker reads layer datasets
// straight from a shared volume.
func (resolver *Resolver) DirectLayerAccess() bool {
	return resolver.WorkerStoreDir != ""
}

// LayerAddress returns the address of the layer's dataset as the worker
// should load it: a file URL on the shared volume when direct access is
// configured and the layer is not proxied from a remote service, the
// public download URL otherwise.
func (resolver *Resolver) LayerAddress(layer *catalog.Layer) (string, error) {
	if !layer.FullyInitialized() {
		return "", catalog.ErrNotInitialized{LayerID: layer.ID}
	}
	if resolver.DirectLayerAccess() && !layer.RemoteService.Valid {
		return "file://" + path.Join(resolver.WorkerStoreDir, layer.StorePath), nil
	}
	return resolver.LayerDownloadURL(layer), nil
}

// MetadataPath returns the file store path of the layer's metadata
// sidecar.
func (resolver *Resolver) MetadataPath(layer *catalog.Layer) string {
	return layer.MetadataFilePath()
}

// MetadataAddress returns the worker-visible file URL of the layer's
// metadata sidecar.
func (resolver *Resolver) MetadataAddress(layer *catalog.Layer) (string, error) {
	if !resolver.DirectLayerAccess() {
		return "", fmt.Errorf("direct layer file access is not configured")
	}
	if !layer.FullyInitialized() {
		return "", catalog.ErrNotInitialized{LayerID: layer.ID}
	}
	return "file://" + path.Join(resolver.WorkerStoreDir, resolver.MetadataPath(layer)), nil
}

// MirrorPath returns the local path of the worker-side sidecar mirror,
// or "" when mirroring is not configured.
func (resolver *Resolver) MirrorPath(layer *catalog.Layer) string {
	if resolver.MirrorStoreDir == "" || !layer.FullyInitialized() {
		return ""
	}
	return filepath.Join(resolver.MirrorStoreDir, filepath.FromSlash(resolver.MetadataPath(layer)))
}

// LayerMetadataURL returns the public URL of the daemon's metadata
// endpoint for the layer.
func (resolver *Resolver) LayerMetadataURL(layerID int64) string {
	return joinURL(resolver.PublicBaseURL, fmt.Sprintf("/layers/%d/metadata.xml", layerID))
}

// LayerDownloadURL returns the public URL the layer's dataset can be
// downloaded from.
func (resolver *Resolver) LayerDownloadURL(layer *catalog.Layer) string {
	return joinURL(resolver.PublicBaseURL, fmt.Sprintf("/layers/%d/download", layer.ID))
}

// RewriteImpactURL translates the worker-reported address of an impact
// artifact into the cheapest address this daemon can fetch it from.
//
// An "http"/"https" URL under ImpactBaseURL becomes a file URL inside the
// locally mounted ImpactDir; other "http"/"https" URLs, file URLs and
// bare paths pass through unchanged. Anything else is refused.
func (resolver *Resolver) RewriteImpactURL(impactURL string) (string, error) {
	parsedURL, err := url.Parse(impactURL)
	if err != nil {
		return "", ErrParseURL{Err: err, URL: impactURL}
	}

	switch parsedURL.Scheme {
	case "http", "https":
		if resolver.ImpactDir == "" || resolver.ImpactBaseURL == "" {
			return impactURL, nil
		}
		base := strings.TrimSuffix(resolver.ImpactBaseURL, "/")
		rel, found := strings.CutPrefix(impactURL, base)
		if !found {
			return impactURL, nil
		}
		return "file://" + path.Join(resolver.ImpactDir, rel), nil
	case "file", "":
		return impactURL, nil
	default:
		return "", ErrUnknownScheme{URL: impactURL}
	}
}

func joinURL(baseURL string, urlPath string) string {
	return strings.TrimSuffix(baseURL, "/") + urlPath
}
