package catalog

import (
	"database/sql"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vasuse7en/geosafe/pkg/types"
)

// Layer is a spatial dataset registered in the catalog. The dataset itself
// (a shapefile or a GeoTIFF together with its companion files) lives in the
// file store under StorePath; the row only describes it.
type Layer struct {
	// ID is the unique numeric identifier of the layer.
	ID int64 `db:"id"`

	// UUID is the stable identifier of the layer, it survives renames and
	// is the one embedded into metadata documents.
	UUID uuid.UUID `db:"uuid"`

	// Name is the unique short name of the layer, derived from the dataset
	// file name.
	Name string `db:"name"`

	// Title is the human-oriented display title.
	Title string `db:"title"`

	// StorePath is the file store path of the main dataset file. An empty
	// value means the dataset did not arrive yet.
	StorePath string `db:"store_path"`

	// MetadataXML is the catalog's cached copy of the full QGIS metadata
	// document of the layer.
	MetadataXML string `db:"metadata_xml"`

	// RemoteService is the URL of the service the layer was harvested
	// from, if any.
	RemoteService sql.NullString `db:"remote_service"`

	AnonView     bool `db:"anon_view"`
	AnonDownload bool `db:"anon_download"`

	CreatedAt time.Time `db:"created_at"`
}

// FullyInitialized reports whether the dataset of the layer has been saved
// to the file store already.
func (layer *Layer) FullyInitialized() bool {
	return layer.StorePath != ""
}

// FileName returns the name of the main dataset file.
func (layer *Layer) FileName() string {
	return path.Base(layer.StorePath)
}

// BaseName returns the file name cut at the first dot. Companion files of
// a dataset (for example the ".shx" and ".dbf" of a shapefile) share the
// base name with the main file.
func (layer *Layer) BaseName() string {
	return baseNameOf(layer.FileName())
}

// MetadataFilePath returns the file store path of the XML metadata document
// saved next to the dataset ("flood.shp" pairs with "flood.xml").
func (layer *Layer) MetadataFilePath() string {
	return strings.TrimSuffix(layer.StorePath, path.Ext(layer.StorePath)) + ".xml"
}

func baseNameOf(fileName string) string {
	if idx := strings.Index(fileName, "."); idx != -1 {
		return fileName[:idx]
	}
	return fileName
}

// Metadata is the searchable summary of a layer's metadata document.
type Metadata struct {
	// ID is the unique numeric identifier of the metadata record.
	ID int64 `db:"id"`

	// LayerID references the layer the record describes. There is at most
	// one record per layer.
	LayerID int64 `db:"layer_id"`

	// LayerPurpose is the role of the layer in an analysis, see
	// types.LayerPurpose for the known values.
	LayerPurpose string `db:"layer_purpose"`

	// Category is the hazard or exposure category reported by the layer
	// ("flood", "structure", ...).
	Category string `db:"category"`

	// KeywordsXML is the extracted keywords fragment of the metadata
	// document ("inasafe" and "inasafe_provenance" blocks).
	KeywordsXML string `db:"keywords_xml"`
}

// Analysis is one requested impact calculation.
type Analysis struct {
	// ID is the unique numeric identifier of the analysis.
	ID int64 `db:"id"`

	HazardLayerID   int64 `db:"hazard_layer_id"`
	ExposureLayerID int64 `db:"exposure_layer_id"`

	// ImpactFunctionID names the impact function to run, the value is
	// opaque to the coordinator and is interpreted by the headless worker.
	ImpactFunctionID string `db:"impact_function_id"`

	// Extent is the optional analysis extent as "minX,minY,maxX,maxY".
	Extent sql.NullString `db:"extent"`

	// UserTitle overrides the generated title of the impact layer.
	UserTitle sql.NullString `db:"user_title"`

	// TaskID is the identifier of the currently tracked pipeline task.
	TaskID types.TaskID `db:"task_id"`

	// TaskState mirrors the last observed state of the tracked task.
	TaskState types.TaskState `db:"task_state"`

	StartTime time.Time    `db:"start_time"`
	EndTime   sql.NullTime `db:"end_time"`

	// ImpactLayerID references the resulting impact layer once the
	// analysis succeeded.
	ImpactLayerID sql.NullInt64 `db:"impact_layer_id"`

	// ReportMap and ReportTable are the file store paths of the generated
	// PDF reports.
	ReportMap   sql.NullString `db:"report_map"`
	ReportTable sql.NullString `db:"report_table"`

	// Keep protects the analysis and its impact layer from the periodic
	// cleanup sweep.
	Keep bool `db:"keep"`
}
