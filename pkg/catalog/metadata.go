package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/vasuse7en/geosafe/pkg/catalog/helpers"
)

// GetOrCreateMetadata returns the metadata record of the layer, creating
// an empty one when the layer has none yet.
//
// The operation is idempotent: an INSERT losing a race on the unique
// layer_id key falls back to re-reading the surviving row.
func (cat *Catalog) GetOrCreateMetadata(ctx context.Context, layerID int64) (*Metadata, error) {
	meta := Metadata{LayerID: layerID}
	id, err := cat.insertRow(ctx, "metadata", &meta, fmt.Sprintf("metadata of layer %d", layerID))
	if err == nil {
		meta.ID = id
		return &meta, nil
	}
	if errors.As(err, &ErrAlreadyExists{}) {
		return cat.MetadataByLayer(ctx, layerID)
	}
	return nil, err
}

// MetadataByLayer returns the metadata record of the layer.
func (cat *Catalog) MetadataByLayer(ctx context.Context, layerID int64) (*Metadata, error) {
	_, columns, err := helpers.GetValuesAndColumns(&Metadata{}, nil)
	if err != nil {
		return nil, ErrSelect{Err: err}
	}

	query := fmt.Sprintf("SELECT %s FROM `metadata` WHERE `layer_id` = ?", strings.Join(columns, ","))
	var result []*Metadata
	if err := sqlx.Select(cat.DB, &result, query, layerID); err != nil {
		return nil, ErrSelect{Err: err}
	}

	switch len(result) {
	case 0:
		return nil, ErrNotFound{Query: fmt.Sprintf("%s %v", query, layerID)}
	case 1:
		return result[0], nil
	default:
		return nil, ErrTooManyEntries{Count: uint(len(result))}
	}
}

// UpdateMetadata stores the current state of the metadata record.
func (cat *Catalog) UpdateMetadata(ctx context.Context, meta *Metadata) error {
	return cat.updateRow(ctx, "metadata", meta, meta.ID, fmt.Sprintf("metadata %d", meta.ID))
}

// FindMetadataFilter is a set of values to look for (concatenated through "AND"-s).
//
// If a field has a nil-value then it is not included to filter conditions.
type FindMetadataFilter struct {
	LayerID      *int64
	LayerPurpose *string
}

// FindMetadata returns the metadata records matching the filter.
func (cat *Catalog) FindMetadata(ctx context.Context, filter FindMetadataFilter) ([]*Metadata, error) {
	whereConds, whereArgs := compileWhereConds(Metadata{}, filter)
	if len(whereConds) == 0 {
		return nil, ErrEmptyFilters{}
	}

	_, columns, err := helpers.GetValuesAndColumns(&Metadata{}, nil)
	if err != nil {
		return nil, ErrSelect{Err: err}
	}

	query := fmt.Sprintf("SELECT %s FROM `metadata` WHERE %s", strings.Join(columns, ","), whereConds)
	var result []*Metadata
	if err := sqlx.Select(cat.DB, &result, query, whereArgs...); err != nil {
		return nil, ErrSelect{Err: err}
	}
	return result, nil
}

// DeleteMetadataByLayer removes the metadata record of the layer, if any.
func (cat *Catalog) DeleteMetadataByLayer(ctx context.Context, layerID int64) error {
	_, err := cat.DB.ExecContext(ctx, "DELETE FROM `metadata` WHERE `layer_id` = ?", layerID)
	if err != nil {
		return ErrUnableToDelete{deletedValue: fmt.Sprintf("metadata of layer %d", layerID), Err: err}
	}
	return nil
}
