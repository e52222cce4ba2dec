package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// InsertModel builds an INSERT from the exported `db`-tagged fields of a
// struct, in declaration order.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	v := reflect.Indirect(reflect.ValueOf(model))
	if !v.IsValid() {
		return "", nil, fmt.Errorf("insert model: nil model")
	}
	if v.Kind() != reflect.Struct {
		return "", nil, fmt.Errorf("insert model: %s is not a struct", v.Kind())
	}

	var (
		cols []string
		vals []any
	)
	for _, f := range reflect.VisibleFields(v.Type()) {
		if !f.IsExported() || len(f.Index) > 1 {
			continue
		}
		col, _, _ := strings.Cut(f.Tag.Get("db"), ",")
		col = strings.TrimSpace(col)
		if col == "" || col == "-" {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, v.Field(f.Index[0]).Interface())
	}
	if len(cols) == 0 {
		return "", nil, fmt.Errorf("insert model: no db columns on %s", v.Type())
	}

	return InsertInto(table).Columns(cols...).Values(vals...).Suffix(suffix).ToSQL()
}
