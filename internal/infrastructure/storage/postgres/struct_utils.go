package postgres

import (
	"reflect"
	"strings"
)

// StructToMap converts a struct to a column->value map using db tags.
// Embedded structs are flattened; fields without a db tag or tagged "-"
// are skipped. Used by repositories to build INSERT/UPDATE statements
// without hand-listing columns.
func StructToMap(entity any) map[string]any {
	result := make(map[string]any)
	collectFields(reflect.ValueOf(entity), result)
	return result
}

func collectFields(v reflect.Value, out map[string]any) {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		if field.Anonymous {
			collectFields(v.Field(i), out)
			continue
		}

		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		column := strings.Split(tag, ",")[0]
		out[column] = v.Field(i).Interface()
	}
}

// ExtractDBColumns returns the ordered db-tagged column names of a struct
// type. Column order follows field declaration order with embedded structs
// flattened in place.
func ExtractDBColumns(entity any) []string {
	var columns []string
	collectColumns(reflect.TypeOf(entity), &columns)
	return columns
}

func collectColumns(t reflect.Type, out *[]string) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		if field.Anonymous {
			collectColumns(field.Type, out)
			continue
		}

		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		*out = append(*out, strings.Split(tag, ",")[0])
	}
}
