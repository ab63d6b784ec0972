package helpers

import (
	"database/sql"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vasuse7en/geosafe/pkg/types"
)

type dummyRow struct {
	ID          int64          `db:"id"`
	Name        string         `db:"name"`
	TaskID      types.TaskID   `db:"task_id"`
	EndTime     sql.NullTime   `db:"end_time"`
	CreatedAt   time.Time      `db:"created_at"`
	Hidden      string         `db:"-"`
	NoTag       bool
	notExported string
}

func TestGetDBColumnName(t *testing.T) {
	typ := reflect.TypeOf(dummyRow{})

	columnName, err := GetDBColumnName(typ, "TaskID")
	require.NoError(t, err)
	require.Equal(t, "task_id", columnName)

	// a field without a tag falls back to the snake-cased field name
	columnName, err = GetDBColumnName(typ, "NoTag")
	require.NoError(t, err)
	require.Equal(t, "no_tag", columnName)

	_, err = GetDBColumnName(typ, "SuchFieldDoesNotExist")
	require.Error(t, err)
}

func TestGetValuesAndColumns(t *testing.T) {
	row := dummyRow{
		ID:          1,
		Name:        "flood_on_buildings",
		CreatedAt:   time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC),
		Hidden:      "should not surface",
		notExported: "should not surface either",
	}

	values, columns, err := GetValuesAndColumns(&row, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"id", "name", "task_id", "end_time", "created_at", "no_tag"}, columns)
	require.Len(t, values, len(columns))
	require.Equal(t, &row.Name, values[1])
}

func TestGetValuesAndColumnsSkip(t *testing.T) {
	values, columns, err := GetValuesAndColumns(&dummyRow{}, func(fieldName string, value interface{}) bool {
		return fieldName == "ID"
	})
	require.NoError(t, err)
	require.Equal(t, []string{"name", "task_id", "end_time", "created_at", "no_tag"}, columns)
	require.Len(t, values, len(columns))
}

func TestGetValuesAndColumnsNilSample(t *testing.T) {
	values, columns, err := GetValuesAndColumns((*dummyRow)(nil), nil)
	require.NoError(t, err)
	require.NotEmpty(t, columns)
	require.Len(t, values, len(columns))
}
