package catalog

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/vasuse7en/geosafe/pkg/catalog/helpers"
)

// insertError wraps a failed INSERT; unique-key violations become
// ErrAlreadyExists so the callers can fall back to re-reading the
// surviving row.
func insertError(insertedValue string, err error) error {
	if err == nil {
		return nil
	}
	if isDuplicateEntry(err) {
		return ErrAlreadyExists{insertedValue: insertedValue, Err: err}
	}
	return ErrUnableToInsert{insertedValue: insertedValue, Err: err}
}

// skipID excludes the auto-increment primary key from INSERTs and from
// the SET list of UPDATEs.
func skipID(fieldName string, value interface{}) bool {
	return fieldName == "ID"
}

func (cat *Catalog) insertRow(ctx context.Context, tableName string, row any, insertedValue string) (int64, error) {
	values, columns, err := helpers.GetValuesAndColumns(row, skipID)
	if err != nil {
		return 0, ErrUnableToInsert{insertedValue: insertedValue, Err: err}
	}

	query := "INSERT INTO `" + tableName + "` (" + constructColumns("", columns) + ") VALUES (" + constructPlaceholders(len(columns)) + ")"
	sqlResult, err := cat.DB.ExecContext(ctx, query, values...)
	if err != nil {
		return 0, insertError(insertedValue, err)
	}

	id, err := sqlResult.LastInsertId()
	if err != nil {
		return 0, ErrUnableToInsert{insertedValue: insertedValue, Err: fmt.Errorf("unable to get the inserted row ID: %w", err)}
	}
	return id, nil
}

func (cat *Catalog) updateRow(ctx context.Context, tableName string, row any, id int64, updatedValue string) error {
	values, columns, err := helpers.GetValuesAndColumns(row, skipID)
	if err != nil {
		return ErrUnableToUpdate{updatedValue: updatedValue, Err: err}
	}

	setExprs := make([]string, 0, len(columns))
	for _, column := range columns {
		setExprs = append(setExprs, "`"+column+"` = ?")
	}

	query := fmt.Sprintf("UPDATE `%s` SET %s WHERE `id` = ?", tableName, strings.Join(setExprs, ", "))
	args := append(values, id)
	if _, err := cat.DB.ExecContext(ctx, query, args...); err != nil {
		return ErrUnableToUpdate{updatedValue: updatedValue, Err: err}
	}
	return nil
}

// compileWhereConds constructs a WHERE string for Query() using selected filters.
//
// For example:
//
//	FindAnalysesFilter{ImpactLayerID: &[]int64{1}[0], Keep: &[]bool{false}[0]}
//
// will result into:
//
//	("`impact_layer_id` = ? AND `keep` = ?", []interface{}{1, false})
//
// And it could be used as:
//
//	db.Query("SELECT * FROM table WHERE "+whereConds, whereArgs...)
//
// Every field of the filter must name a field of the sample model (the
// db tag of the model field supplies the column name).
func compileWhereConds(sample any, filter any) (string, []interface{}) {
	var whereConds []string
	var whereArgs []interface{}

	sampleStruct := reflect.Indirect(reflect.ValueOf(sample))
	filtersStruct := reflect.Indirect(reflect.ValueOf(filter))
	for i := 0; i < filtersStruct.NumField(); i++ {
		filterField := filtersStruct.Field(i)
		if filterField.IsZero() {
			continue
		}
		filterStructField := filtersStruct.Type().Field(i)
		sampleStructField, ok := sampleStruct.Type().FieldByName(filterStructField.Name)
		if !ok {
			panic(fmt.Sprintf("filter field '%s' has no counterpart in %T", filterStructField.Name, sample))
		}
		sqlColumnName := strings.Split(sampleStructField.Tag.Get("db"), ",")[0]
		whereConds = append(whereConds, fmt.Sprintf("`%s` = ?", sqlColumnName))
		whereArgs = append(whereArgs, reflect.Indirect(filterField).Interface())
	}
	return strings.Join(whereConds, " AND "), whereArgs
}

func constructPlaceholders(cnt int) string {
	if cnt == 0 {
		return ""
	}
	return strings.Repeat("?, ", cnt-1) + "?"
}

func constructColumns(tableName string, columns []string) string {
	fullNames := make([]string, 0, len(columns))
	for _, column := range columns {
		if strings.Contains(column, "`") {
			panic(fmt.Sprintf("column <%s> contains a grave symbol", column))
		}
		var fullName string
		if tableName == "" {
			fullName = fmt.Sprintf("`%s`", column)
		} else {
			fullName = fmt.Sprintf("`%s`.`%s`", tableName, column)
		}
		fullNames = append(fullNames, fullName)
	}
	return strings.Join(fullNames, ",")
}
