// Package cmdutil holds helpers shared by the CLI commands.
package cmdutil

import (
	"reflect"
	"strings"
	"time"
	"unicode"
)

var timeType = reflect.TypeOf(time.Time{})

// StructToMapOptions configures StructToMap behavior.
type StructToMapOptions struct {
	// OmitFields lists Go field names to leave out
	OmitFields map[string]bool
	// KeyOverrides maps Go field names to column names
	KeyOverrides map[string]string
	// JoinStringSlices stores []string fields as one comma-separated value
	JoinStringSlices bool
	// EmptyAsNull stores empty strings as NULL
	EmptyAsNull bool
}

// StructToMap flattens a struct into a database row keyed by snake_case field names.
// Embedded structs are inlined and unexported fields are skipped.
func StructToMap[T any](value T, opts StructToMapOptions) map[string]any {
	row := make(map[string]any)
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return row
		}
		v = v.Elem()
	}
	opts.collect(v, row)
	return row
}

func (opts StructToMapOptions) collect(v reflect.Value, row map[string]any) {
	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() || opts.OmitFields[field.Name] {
			continue
		}
		fv := v.Field(i)
		if field.Anonymous && fv.Kind() == reflect.Struct {
			opts.collect(fv, row)
			continue
		}

		key, ok := opts.KeyOverrides[field.Name]
		if !ok {
			key = columnName(field.Name)
		}
		row[key] = opts.cell(fv)
	}
}

// cell converts one field into a value a SQL driver or JSON encoder accepts
func (opts StructToMapOptions) cell(v reflect.Value) any {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch {
	case v.Type() == timeType:
		t := v.Interface().(time.Time)
		if t.IsZero() {
			return nil
		}
		return t.UTC().Format(time.RFC3339)
	case v.Kind() == reflect.String && v.Len() == 0 && opts.EmptyAsNull:
		return nil
	case v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.String && opts.JoinStringSlices:
		parts := make([]string, v.Len())
		for i := range parts {
			parts[i] = v.Index(i).String()
		}
		return strings.Join(parts, ",")
	}
	return v.Interface()
}

// columnName turns a Go identifier into snake_case, keeping acronyms together:
// CoverImageURL becomes cover_image_url and HTMLBody becomes html_body.
func columnName(name string) string {
	runes := []rune(name)
	var sb strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				sb.WriteByte('_')
			}
		}
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}
