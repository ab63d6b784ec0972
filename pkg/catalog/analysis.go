package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vasuse7en/geosafe/pkg/catalog/helpers"
	"github.com/vasuse7en/geosafe/pkg/types"
)

// CreateAnalysis registers a new analysis request. The ID of the inserted
// row is stored back into the passed structure.
func (cat *Catalog) CreateAnalysis(ctx context.Context, analysis *Analysis) error {
	if analysis.StartTime.IsZero() {
		analysis.StartTime = time.Now()
	}

	id, err := cat.insertRow(ctx, "analyses", analysis,
		fmt.Sprintf("analysis of layers %d/%d", analysis.HazardLayerID, analysis.ExposureLayerID))
	if err != nil {
		return err
	}
	analysis.ID = id
	return nil
}

// Analysis returns the analysis with the given ID.
func (cat *Catalog) Analysis(ctx context.Context, analysisID int64) (*Analysis, error) {
	_, columns, err := helpers.GetValuesAndColumns(&Analysis{}, nil)
	if err != nil {
		return nil, ErrSelect{Err: err}
	}

	query := fmt.Sprintf("SELECT %s FROM `analyses` WHERE `id` = ?", strings.Join(columns, ","))
	var result []*Analysis
	if err := sqlx.Select(cat.DB, &result, query, analysisID); err != nil {
		return nil, ErrSelect{Err: err}
	}

	switch len(result) {
	case 0:
		return nil, ErrNotFound{Query: fmt.Sprintf("%s %v", query, analysisID)}
	case 1:
		return result[0], nil
	default:
		return nil, ErrTooManyEntries{Count: uint(len(result))}
	}
}

// UpdateAnalysis stores the current state of the analysis row.
func (cat *Catalog) UpdateAnalysis(ctx context.Context, analysis *Analysis) error {
	return cat.updateRow(ctx, "analyses", analysis, analysis.ID, fmt.Sprintf("analysis %d", analysis.ID))
}

// SetAnalysisTask stamps the tracked task onto the analysis row; the
// mirrored task state is the checkpoint the UI polls.
func (cat *Catalog) SetAnalysisTask(ctx context.Context, analysisID int64, taskID types.TaskID, state types.TaskState) error {
	_, err := cat.DB.ExecContext(ctx,
		"UPDATE `analyses` SET `task_id` = ?, `task_state` = ? WHERE `id` = ?",
		taskID, state, analysisID)
	if err != nil {
		return ErrUnableToUpdate{updatedValue: fmt.Sprintf("analysis %d", analysisID), Err: err}
	}
	return nil
}

// AttachReportMap stores the file store path of the generated map report.
func (cat *Catalog) AttachReportMap(ctx context.Context, analysisID int64, reportPath string) error {
	return cat.setAnalysisColumn(ctx, analysisID, "report_map", reportPath)
}

// AttachReportTable stores the file store path of the generated table report.
func (cat *Catalog) AttachReportTable(ctx context.Context, analysisID int64, reportPath string) error {
	return cat.setAnalysisColumn(ctx, analysisID, "report_table", reportPath)
}

func (cat *Catalog) setAnalysisColumn(ctx context.Context, analysisID int64, column string, value any) error {
	query := fmt.Sprintf("UPDATE `analyses` SET `%s` = ? WHERE `id` = ?", column)
	if _, err := cat.DB.ExecContext(ctx, query, value, analysisID); err != nil {
		return ErrUnableToUpdate{updatedValue: fmt.Sprintf("analysis %d", analysisID), Err: err}
	}
	return nil
}

// FindAnalysesFilter is a set of values to look for (concatenated through "AND"-s).
//
// If a field has a nil-value then it is not included to filter conditions.
type FindAnalysesFilter struct {
	ID            *int64
	TaskID        *types.TaskID
	ImpactLayerID *int64
	Keep          *bool
}

// FindAnalyses returns the analyses matching the filter.
func (cat *Catalog) FindAnalyses(ctx context.Context, filter FindAnalysesFilter) ([]*Analysis, error) {
	whereConds, whereArgs := compileWhereConds(Analysis{}, filter)
	if len(whereConds) == 0 {
		return nil, ErrEmptyFilters{}
	}

	_, columns, err := helpers.GetValuesAndColumns(&Analysis{}, nil)
	if err != nil {
		return nil, ErrSelect{Err: err}
	}

	query := fmt.Sprintf("SELECT %s FROM `analyses` WHERE %s", strings.Join(columns, ","), whereConds)
	var result []*Analysis
	err = sqlx.Select(cat.DB, &result, query, whereArgs...)
	cat.Logger.Debugf("query: '%s' with args %v result: err:%v", query, whereArgs, err)
	if err != nil {
		return nil, ErrSelect{Err: err}
	}
	return result, nil
}

// DeleteAnalysis removes the analysis row and its report files.
//
// The row goes first: a row referencing deleted reports would serve
// broken links, while orphaned report files are merely garbage.
func (cat *Catalog) DeleteAnalysis(ctx context.Context, analysis *Analysis) error {
	_, err := cat.DB.ExecContext(ctx, "DELETE FROM `analyses` WHERE `id` = ?", analysis.ID)
	if err != nil {
		return ErrUnableToDelete{deletedValue: fmt.Sprintf("analysis %d", analysis.ID), Err: err}
	}

	for _, reportPath := range []sql.NullString{analysis.ReportMap, analysis.ReportTable} {
		if !reportPath.Valid {
			continue
		}
		if err := cat.FileStore.Delete(ctx, reportPath.String); err != nil {
			cat.Logger.Warnf("unable to delete report '%s' of analysis %d: %v",
				reportPath.String, analysis.ID, err)
		}
	}
	return nil
}
