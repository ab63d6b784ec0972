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
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vasuse7en/geosafe/pkg/catalog/helpers"
	"github.com/vasuse7en/geosafe/pkg/lockmap"
	"github.com/vasuse7en/geosafe/pkg/objhash"
)

// layersStoreDir is the file store directory the layer datasets live in.
const layersStoreDir = "layers"

// Layer returns the layer with the given ID.
func (cat *Catalog) Layer(ctx context.Context, layerID int64) (*Layer, error) {
	return cat.selectOneLayer(ctx, "`id` = ?", layerID)
}

// LayerByName returns the layer with the given unique name.
func (cat *Catalog) LayerByName(ctx context.Context, name string) (*Layer, error) {
	return cat.selectOneLayer(ctx, "`name` = ?", name)
}

func (cat *Catalog) selectOneLayer(ctx context.Context, whereConds string, whereArgs ...any) (*Layer, error) {
	_, columns, err := helpers.GetValuesAndColumns(&Layer{}, nil)
	if err != nil {
		return nil, ErrSelect{Err: err}
	}

	query := fmt.Sprintf("SELECT %s FROM `layers` WHERE %s", strings.Join(columns, ","), whereConds)
	var result []*Layer
	if err := sqlx.Select(cat.DB, &result, query, whereArgs...); err != nil {
		return nil, ErrSelect{Err: err}
	}

	switch len(result) {
	case 0:
		return nil, ErrNotFound{Query: fmt.Sprintf("%s %v", query, whereArgs)}
	case 1:
		return result[0], nil
	default:
		return nil, ErrTooManyEntries{Count: uint(len(result))}
	}
}

// CreateLayer registers a layer row. The ID of the inserted row is stored
// back into the passed structure; a zero UUID and CreatedAt are filled in.
func (cat *Catalog) CreateLayer(ctx context.Context, layer *Layer) error {
	if layer.UUID == uuid.Nil {
		layer.UUID = uuid.New()
	}
	if layer.CreatedAt.IsZero() {
		layer.CreatedAt = time.Now()
	}

	id, err := cat.insertRow(ctx, "layers", layer, fmt.Sprintf("layer '%s'", layer.Name))
	if err != nil {
		return err
	}
	layer.ID = id
	return nil
}

// UpdateLayer stores the current state of the layer row.
func (cat *Catalog) UpdateLayer(ctx context.Context, layer *Layer) error {
	return cat.updateRow(ctx, "layers", layer, layer.ID, fmt.Sprintf("layer '%s'", layer.Name))
}

// SaveLayerFile ingests a dataset file from a local directory into the file
// store and upserts the layer row describing it.
//
// Companion files sharing the base name travel together with the main file
// (the ".shx"/".dbf"/".prj" of a shapefile, the ".xml" metadata sidecar).
// An existing layer of the same name is replaced when overwrite is set and
// reported as ErrAlreadyExists otherwise. Layer-saved hooks fire on success.
//
// fileName may carry a directory component (an archive member keeps its
// stored path): the dataset and its companions are then read from that
// subdirectory of srcDir, and the store names are flattened to the bare
// file name.
func (cat *Catalog) SaveLayerFile(ctx context.Context, srcDir string, fileName string, overwrite bool) (*Layer, error) {
	srcDir = filepath.Join(srcDir, filepath.Dir(filepath.FromSlash(fileName)))
	fileName = filepath.Base(filepath.FromSlash(fileName))
	baseName := baseNameOf(fileName)

	mainPath := filepath.Join(srcDir, fileName)
	if _, err := os.Stat(mainPath); err != nil {
		return nil, ErrUnableToUpload{Path: mainPath, Err: err}
	}

	var existing *Layer
	layer, err := cat.LayerByName(ctx, baseName)
	switch {
	case err == nil:
		if !overwrite {
			return nil, ErrAlreadyExists{insertedValue: fmt.Sprintf("layer '%s'", baseName), Err: nil}
		}
		existing = layer
	case errors.As(err, &ErrNotFound{}):
	default:
		return nil, err
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return nil, ErrUnableToUpload{Path: srcDir, Err: err}
	}
	for _, entry := range entries {
		if entry.IsDir() || baseNameOf(entry.Name()) != baseName {
			continue
		}
		blob, err := os.ReadFile(filepath.Join(srcDir, entry.Name()))
		if err != nil {
			return nil, ErrUnableToUpload{Path: entry.Name(), Err: err}
		}
		if err := cat.PutLayerFileBytes(ctx, path.Join(layersStoreDir, entry.Name()), blob); err != nil {
			return nil, err
		}
	}

	storePath := path.Join(layersStoreDir, fileName)
	if existing != nil {
		existing.StorePath = storePath
		if err := cat.UpdateLayer(ctx, existing); err != nil {
			return nil, err
		}
		layer = existing
	} else {
		layer = &Layer{
			Name:      baseName,
			Title:     baseName,
			StorePath: storePath,
		}
		if err := cat.CreateLayer(ctx, layer); err != nil {
			return nil, err
		}
	}

	cat.fireLayerSavedHooks(ctx, layer)
	return layer, nil
}

// DeleteLayer removes the layer row, its metadata record and the dataset
// files (companions and the metadata sidecar included).
//
// The rows go first: rows referencing deleted files would serve broken
// links, while orphaned files are merely garbage (and are reported to the
// log to not lose them silently).
func (cat *Catalog) DeleteLayer(ctx context.Context, layer *Layer) error {
	if err := cat.DeleteMetadataByLayer(ctx, layer.ID); err != nil {
		return err
	}

	_, err := cat.DB.ExecContext(ctx, "DELETE FROM `layers` WHERE `id` = ?", layer.ID)
	if err != nil {
		return ErrUnableToDelete{deletedValue: fmt.Sprintf("layer %d", layer.ID), Err: err}
	}

	if !layer.FullyInitialized() {
		return nil
	}

	dir := path.Dir(layer.StorePath)
	names, err := cat.FileStore.List(ctx, dir)
	if err != nil {
		cat.Logger.Warnf("unable to list directory '%s' to delete files of layer %d: %v", dir, layer.ID, err)
		return nil
	}

	baseName := layer.BaseName()
	for _, name := range names {
		if baseNameOf(name) != baseName {
			continue
		}
		if err := cat.FileStore.Delete(ctx, path.Join(dir, name)); err != nil {
			cat.Logger.Warnf("unable to delete file '%s' of layer %d: %v", name, layer.ID, err)
		}
	}
	return nil
}

// LayerFileBytes returns the content of a file store file, singleflighted
// and cached. Mutations must go through PutLayerFileBytes to keep the
// cache coherent.
func (cat *Catalog) LayerFileBytes(ctx context.Context, filePath string) (blob []byte, err error) {
	type layerFileBytesResult struct {
		blob []byte
		err  error
	}
	cacheKey, cacheKeyErr := objhash.Build("LayerFileBytes", filePath)
	var unlocker *lockmap.Unlocker
	if cacheKeyErr == nil {
		unlocker = cat.CacheLockMap.Lock(cacheKey)
		defer unlocker.Unlock()

		if result, ok := unlocker.UserData.(layerFileBytesResult); ok {
			return result.blob, result.err
		}

		cachedValue, ok := cat.Cache.Get(ctx, cacheKey).([]byte)
		if ok {
			return cachedValue, nil
		}
	}
	blob, err = cat.FileStore.Get(ctx, filePath)
	if unlocker != nil {
		unlocker.UserData = layerFileBytesResult{
			blob: blob,
			err:  err,
		}
	}
	if err != nil {
		return nil, ErrDownload{Err: err}
	}
	if cacheKeyErr == nil {
		cat.Cache.Set(ctx, cacheKey, blob, uint64(len(blob)))
	}
	return
}

// PutLayerFileBytes writes a file through to the file store and refreshes
// the read cache.
func (cat *Catalog) PutLayerFileBytes(ctx context.Context, filePath string, blob []byte) error {
	if err := cat.FileStore.Put(ctx, filePath, blob); err != nil {
		return ErrUnableToUpload{Path: filePath, Err: err}
	}
	if cacheKey, err := objhash.Build("LayerFileBytes", filePath); err == nil {
		cat.Cache.Set(ctx, cacheKey, blob, uint64(len(blob)))
	}
	return nil
}
