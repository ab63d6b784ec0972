// Copyright 2023 Meta Platforms, Inc. and affiliates.
//
// Redistribution and use in source and binary forms, with or without modification, are permitted provided that the following conditions are met:
//
// 1. Redistributions of source code must retain the above copyright notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright notice, this list of conditions and the following disclaimer in the documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its contributors may be used to endorse or promote products derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.

package artifact

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// Some artifact servers answer command-line user agents with HTML landing
// pages, so the fetcher presents itself as a regular browser.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/39.0.2171.95 Safari/537.36"

const fallbackFileName = "artifact"

// Fetcher turns artifact URLs into local files.
type Fetcher struct {
	// ScratchBaseDir is where per-artifact scratch directories are
	// created; empty means the system temp directory.
	ScratchBaseDir string

	// HTTPClient overrides http.DefaultClient.
	HTTPClient *http.Client
}

// Fetch makes the artifact behind rawURL available as a local file and
// returns its path.
//
// "http"/"https" resources are always downloaded into a fresh scratch
// directory; the file name is recovered from the Content-Disposition
// header when the server provides one. "file" URLs and bare paths are
// returned as-is when directAccess is set, and copied into a scratch
// directory otherwise.
func (fetcher *Fetcher) Fetch(ctx context.Context, rawURL string, directAccess bool) (string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", ErrParseURL{Err: err, URL: rawURL}
	}

	switch parsedURL.Scheme {
	case "http", "https":
		return fetcher.httpFetch(ctx, rawURL, parsedURL)
	case "file", "":
		localPath := parsedURL.Path
		if parsedURL.Scheme == "" {
			localPath = rawURL
		}
		if directAccess {
			return localPath, nil
		}
		return fetcher.copyToScratch(ctx, localPath)
	default:
		return "", ErrUnknownScheme{URL: rawURL}
	}
}

func (fetcher *Fetcher) httpFetch(ctx context.Context, rawURL string, parsedURL *url.URL) (string, error) {
	log := logger.FromCtx(ctx)
	log.Debugf("downloading a file from '%s'", rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		err = ErrHTTPMakeRequest{Err: err, URL: rawURL}
		log.Errorf("internal error: %v", err)
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	httpClient := fetcher.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", ErrHTTPGet{Err: err, URL: rawURL}
	}
	defer resp.Body.Close()
	log.Debugf("status code: %d", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warnf("invalid response status code: %d", resp.StatusCode)
		return "", ErrHTTPGet{Err: fmt.Errorf("invalid status code: %d", resp.StatusCode), URL: rawURL}
	}

	fileName := fileNameFromResponse(resp, parsedURL)

	scratchDir, err := fetcher.newScratchDir()
	if err != nil {
		return "", err
	}
	localPath := filepath.Join(scratchDir, fileName)
	if err := writeStream(localPath, resp.Body); err != nil {
		return "", ErrHTTPGetBody{Err: err, URL: rawURL}
	}
	return localPath, nil
}

// fileNameFromResponse recovers the artifact file name (most importantly:
// its extension) from the Content-Disposition header, falling back to the
// last segment of the URL path.
func fileNameFromResponse(resp *http.Response, parsedURL *url.URL) string {
	if contentDisposition := resp.Header.Get("Content-Disposition"); contentDisposition != "" {
		if _, params, err := mime.ParseMediaType(contentDisposition); err == nil {
			if name := filepath.Base(params["filename"]); name != "." && name != "/" && name != "" {
				return name
			}
		}
	}
	if name := path.Base(parsedURL.Path); name != "." && name != "/" {
		return name
	}
	return fallbackFileName
}

func (fetcher *Fetcher) copyToScratch(ctx context.Context, localPath string) (string, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("unable to open '%s': %w", localPath, err)
	}
	defer src.Close()

	scratchDir, err := fetcher.newScratchDir()
	if err != nil {
		return "", err
	}
	dstPath := filepath.Join(scratchDir, filepath.Base(localPath))
	if err := writeStream(dstPath, src); err != nil {
		return "", fmt.Errorf("unable to copy '%s' to the scratch directory: %w", localPath, err)
	}
	logger.FromCtx(ctx).Debugf("copied '%s' to '%s'", localPath, dstPath)
	return dstPath, nil
}

func (fetcher *Fetcher) newScratchDir() (string, error) {
	scratchDir, err := os.MkdirTemp(fetcher.ScratchBaseDir, "geosafe-artifact-")
	if err != nil {
		return "", ErrScratchDir{Err: err}
	}
	return scratchDir, nil
}

func writeStream(dstPath string, src io.Reader) error {
	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0640)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
