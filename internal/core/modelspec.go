package core

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// TagName is the struct tag holding column declarations:
//
//	ID     int    `xl:"Id,key"`       // by header name, key column
//	Total  string `xl:"Total,readonly"`
//	Status Char   `xl:"#4"`           // by 1-based position
//	Note   string `xl:"pos=5"`        // same as "#5"
//	Cache  string `xl:"-"`            // not mapped
const TagName = "xl"

// fieldSpec is the static declaration of one mapped field.
type fieldSpec struct {
	property string
	index    []int
	typ      reflect.Type
	name     string
	position int
	readOnly bool
	key      bool
}

// modelSpec is the static declaration of a model type. Built once per type
// and shared by every TableContext of that type.
type modelSpec struct {
	typ       reflect.Type
	tableName string
	fields    []fieldSpec
}

type specResult struct {
	spec *modelSpec
	err  error
}

var specCache sync.Map // reflect.Type -> specResult

// specOf returns the cached declaration of T.
func specOf[T any]() (*modelSpec, error) {
	return specFor(reflect.TypeOf((*T)(nil)).Elem())
}

func specFor(t reflect.Type) (*modelSpec, error) {
	if cached, ok := specCache.Load(t); ok {
		r := cached.(specResult)
		return r.spec, r.err
	}
	spec, err := buildSpec(t)
	actual, _ := specCache.LoadOrStore(t, specResult{spec: spec, err: err})
	r := actual.(specResult)
	return r.spec, r.err
}

func buildSpec(t reflect.Type) (*modelSpec, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: model %s is not a struct", ErrConfiguration, t)
	}

	namer, ok := reflect.New(t).Interface().(TableNamer)
	if !ok {
		return nil, fmt.Errorf("%w: model %s has no TableName method", ErrConfiguration, t)
	}
	tableName := strings.TrimSpace(namer.TableName())
	if tableName == "" {
		return nil, fmt.Errorf("%w: model %s has an empty table name", ErrConfiguration, t)
	}

	spec := &modelSpec{typ: t, tableName: tableName}
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous || !reachable(t, f.Index) {
			continue
		}
		tag, ok := f.Tag.Lookup(TagName)
		if !ok || tag == "-" {
			continue
		}

		fs, mapped, err := parseTag(tag)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %v", ErrConfiguration, t.Name(), f.Name, err)
		}
		if !mapped {
			continue
		}
		if !Supported(f.Type) {
			return nil, fmt.Errorf("%w: %s.%s has type %s: %w", ErrConfiguration, t.Name(), f.Name, f.Type, ErrUnsupportedType)
		}
		fs.property = f.Name
		fs.index = f.Index
		fs.typ = f.Type
		spec.fields = append(spec.fields, fs)
	}
	return spec, nil
}

// reachable reports whether the field at index can be set without
// allocating: promoted fields behind embedded pointers are skipped.
func reachable(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		f := t.Field(i)
		if f.Type.Kind() != reflect.Struct {
			return false
		}
		t = f.Type
	}
	return true
}

// parseTag parses an xl tag. mapped is false when the tag declares neither a
// name nor a position.
func parseTag(tag string) (fs fieldSpec, mapped bool, err error) {
	parts := strings.Split(tag, ",")
	head := strings.TrimSpace(parts[0])

	if strings.HasPrefix(head, "#") {
		if fs.position, err = parsePosition(head[1:]); err != nil {
			return fs, false, err
		}
	} else {
		fs.name = head
	}

	for _, opt := range parts[1:] {
		opt = strings.TrimSpace(opt)
		switch {
		case opt == "":
		case strings.EqualFold(opt, "key"):
			fs.key = true
		case strings.EqualFold(opt, "readonly"):
			fs.readOnly = true
		case strings.HasPrefix(opt, "pos="):
			if fs.position, err = parsePosition(opt[len("pos="):]); err != nil {
				return fs, false, err
			}
		default:
			return fs, false, fmt.Errorf("unknown tag option %q", opt)
		}
	}

	if fs.name != "" && fs.position != 0 {
		return fs, false, fmt.Errorf("column declares both name %q and position %d", fs.name, fs.position)
	}
	return fs, fs.name != "" || fs.position != 0, nil
}

func parsePosition(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid column position %q", s)
	}
	return n, nil
}
