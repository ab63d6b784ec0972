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
package helpers

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/stoewer/go-strcase"
)

func columnNameFromFieldName(fieldName string) string {
	return strcase.SnakeCase(fieldName)
}

// GetDBColumnName returns column name from sql tag string
func GetDBColumnName(t reflect.Type, fieldName string) (string, error) {
	f, ok := t.FieldByName(fieldName)
	if !ok {
		return "", fmt.Errorf("field '%s' is not found", fieldName)
	}
	value, found := f.Tag.Lookup("db")
	if !found {
		return columnNameFromFieldName(fieldName), nil
	}
	idx := strings.Index(value, ",")
	if idx == -1 {
		return value, nil
	}
	return value[0:idx], nil
}

// GetValuesAndColumns parses input's structure values and appropriate sql columns
func GetValuesAndColumns(obj interface{}, shouldSkip func(fieldName string, value interface{}) bool) ([]interface{}, []string, error) {
	v := reflect.ValueOf(obj)
	if v.Kind() == reflect.Pointer && !v.Elem().IsValid() {
		// the provided sample is a typed-nil, creating a non-nil value to avoid a panic below
		v = reflect.New(v.Type().Elem())
	}
	e := reflect.Indirect(v)
	t := e.Type()

	var columns []string
	var values []interface{}
	for i := 0; i < e.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			// not exported
			continue
		}
		if shouldSkip != nil {
			if skip := shouldSkip(f.Name, e.Field(i).Interface()); skip {
				continue
			}
		}

		columnName, err := GetDBColumnName(t, f.Name)
		if err != nil {
			return nil, nil, err
		}

		if columnName == "-" {
			// column name "-" means the field is not stored in the database, thus
			// skipping it here.
			continue
		}

		fieldValue := e.Field(i)
		// Some types have special support by the `sql` package and must be
		// passed as whole values instead of being decomposed into fields
		// (for example, `time.Time` has no public fields at all).
		switch fieldValue.Interface().(type) {
		case sql.NullBool, sql.NullFloat64, sql.NullInt64, sql.NullString, sql.NullTime, time.Time:
		default:
			if fieldValue.Kind() == reflect.Struct && !f.Type.Implements(reflect.ValueOf((*driver.Valuer)(nil)).Type().Elem()) {
				return nil, nil, fmt.Errorf("field '%s' is a structure which is not storable in a single column", f.Name)
			}
		}

		columns = append(columns, columnName)
		if fieldValue.CanAddr() {
			fieldValue = fieldValue.Addr()
		}
		values = append(values, fieldValue.Interface())
	}

	return values, columns, nil
}
