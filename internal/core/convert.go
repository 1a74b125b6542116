package core

// convert.go coerces raw cell values into declared property types and back.
//
// Raw values come from the workbook as string, float64 (or another numeric
// kind), bool, time.Time or nil. Coercion rules:
//   - Pointers and the nullable pgtype wrappers are the optional forms: an
//     empty cell yields nil / Valid=false, anything else converts the
//     underlying type.
//   - Integers round half to even and fail on overflow.
//   - Dates are lenient: unreadable values become MinDate.
//   - Numeric text may carry currency symbols, thousands separators or the
//     accounting "(123.45)" negative form.

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/xuri/excelize/v2"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would land more than this many years in the future are moved
// to the previous century.
var TwoDigitYearPivot = 20

var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006-01-02", "2006/01/02", "2006.01.02",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
	}
)

var (
	timeType      = reflect.TypeOf(time.Time{})
	charType      = reflect.TypeOf(Char(0))
	textType      = reflect.TypeOf(pgtype.Text{})
	int4Type      = reflect.TypeOf(pgtype.Int4{})
	int8Type      = reflect.TypeOf(pgtype.Int8{})
	float8Type    = reflect.TypeOf(pgtype.Float8{})
	boolType      = reflect.TypeOf(pgtype.Bool{})
	dateType      = reflect.TypeOf(pgtype.Date{})
	timestampType = reflect.TypeOf(pgtype.Timestamp{})
	numericType   = reflect.TypeOf(pgtype.Numeric{})
)

// nullable holds the coercion rule of every supported pgtype wrapper.
// Empty cells are handled before the rule runs.
var nullable = map[reflect.Type]func(raw any) (any, error){
	textType: func(raw any) (any, error) {
		return pgtype.Text{String: toString(raw), Valid: true}, nil
	},
	int4Type: func(raw any) (any, error) {
		n, err := toInt(raw, 32, int4Type)
		return pgtype.Int4{Int32: int32(n), Valid: err == nil}, err
	},
	int8Type: func(raw any) (any, error) {
		n, err := toInt(raw, 64, int8Type)
		return pgtype.Int8{Int64: n, Valid: err == nil}, err
	},
	float8Type: func(raw any) (any, error) {
		f, err := toFloat(raw, float8Type)
		return pgtype.Float8{Float64: f, Valid: err == nil}, err
	},
	boolType: func(raw any) (any, error) {
		b, err := toBool(raw, boolType)
		return pgtype.Bool{Bool: b, Valid: err == nil}, err
	},
	dateType: func(raw any) (any, error) {
		return pgtype.Date{Time: toDate(raw), Valid: true}, nil
	},
	timestampType: func(raw any) (any, error) {
		return pgtype.Timestamp{Time: toDate(raw), Valid: true}, nil
	},
	numericType: func(raw any) (any, error) {
		return toNumeric(raw)
	},
}

// Supported reports whether t has a coercion rule.
func Supported(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if _, ok := nullable[t]; ok {
		return true
	}
	if t == timeType || t == charType {
		return true
	}
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// ToTyped converts a raw cell value into a value of type t.
func ToTyped(t reflect.Type, raw any) (reflect.Value, error) {
	if t.Kind() == reflect.Pointer {
		if raw == nil {
			return reflect.Zero(t), nil
		}
		v, err := ToTyped(t.Elem(), raw)
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(v)
		return p, nil
	}

	if conv, ok := nullable[t]; ok {
		if raw == nil {
			return reflect.Zero(t), nil
		}
		v, err := conv(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(v), nil
	}

	switch t {
	case timeType:
		return reflect.ValueOf(toDate(raw)), nil
	case charType:
		c, err := toChar(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(c), nil
	}

	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		v.SetString(toString(raw))
	case reflect.Bool:
		b, err := toBool(raw, t)
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt(raw, t.Bits(), t)
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := toUint(raw, t.Bits(), t)
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := toFloat(raw, t)
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetFloat(f)
	default:
		return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	return v, nil
}

// ToRaw converts a property value into the raw form written to a cell.
// Absent optionals become nil.
func ToRaw(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return ToRaw(v.Elem())
	}

	switch x := v.Interface().(type) {
	case time.Time:
		return x
	case Char:
		return string(rune(x))
	case pgtype.Text:
		if !x.Valid {
			return nil
		}
		return x.String
	case pgtype.Int4:
		if !x.Valid {
			return nil
		}
		return int64(x.Int32)
	case pgtype.Int8:
		if !x.Valid {
			return nil
		}
		return x.Int64
	case pgtype.Float8:
		if !x.Valid {
			return nil
		}
		return x.Float64
	case pgtype.Bool:
		if !x.Valid {
			return nil
		}
		return x.Bool
	case pgtype.Date:
		if !x.Valid {
			return nil
		}
		return x.Time
	case pgtype.Timestamp:
		if !x.Valid {
			return nil
		}
		return x.Time
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	}

	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}
	return v.Interface()
}

// RawEqual compares two raw values the way a cell match does: numbers
// compare by value regardless of kind, times by instant.
func RawEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := asFloat(a); ok {
		fb, ok := asFloat(b)
		return ok && fa == fb
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	}
	return reflect.DeepEqual(a, b)
}

// asFloat reports the float64 value of a numeric raw value.
func asFloat(raw any) (float64, bool) {
	v := reflect.ValueOf(raw)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return 0, false
}

func isNumericTarget(t reflect.Type) bool {
	if t == nil {
		return false
	}
	switch t {
	case int4Type, int8Type, float8Type, numericType:
		return true
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// isIntegerType reports whether t (or the type it points to) holds whole
// numbers. Integer keys get surrogate values on create.
func isIntegerType(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == int4Type || t == int8Type {
		return true
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func toString(raw any) string {
	switch x := raw.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	}
	if f, ok := asFloat(raw); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(raw)
}

// cleanNumber strips currency symbols, thousands separators and the
// accounting negative form. Returns false if the result is not numeric.
func cleanNumber(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if negative {
		s = "-" + s
	}
	return s, numericRegex.MatchString(s)
}

func toFloat(raw any, target reflect.Type) (float64, error) {
	switch x := raw.(type) {
	case nil:
		return 0, nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		s, ok := cleanNumber(x)
		if !ok {
			return 0, &ConversionError{Value: raw, Target: target}
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, &ConversionError{Value: raw, Target: target, Err: err}
		}
		return f, nil
	}
	if f, ok := asFloat(raw); ok {
		return f, nil
	}
	return 0, &ConversionError{Value: raw, Target: target}
}

func toInt(raw any, bits int, target reflect.Type) (int64, error) {
	if n, ok := raw.(int64); ok && bits == 64 {
		return n, nil
	}
	f, err := toFloat(raw, target)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &ConversionError{Value: raw, Target: target}
	}
	r := math.RoundToEven(f)
	limit := math.Ldexp(1, bits-1)
	if r < -limit || r >= limit {
		return 0, &ConversionError{Value: raw, Target: target, Err: strconv.ErrRange}
	}
	return int64(r), nil
}

func toUint(raw any, bits int, target reflect.Type) (uint64, error) {
	if n, ok := raw.(uint64); ok && bits == 64 {
		return n, nil
	}
	f, err := toFloat(raw, target)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &ConversionError{Value: raw, Target: target}
	}
	r := math.RoundToEven(f)
	if r < 0 || r >= math.Ldexp(1, bits) {
		return 0, &ConversionError{Value: raw, Target: target, Err: strconv.ErrRange}
	}
	return uint64(r), nil
}

func toBool(raw any, target reflect.Type) (bool, error) {
	switch x := raw.(type) {
	case nil:
		return false, nil
	case bool:
		return x, nil
	case string:
		s := strings.TrimSpace(x)
		switch strings.ToLower(s) {
		case "yes", "y":
			return true, nil
		case "no", "n":
			return false, nil
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return false, &ConversionError{Value: raw, Target: target}
		}
		return b, nil
	}
	if f, ok := asFloat(raw); ok {
		return f != 0, nil
	}
	return false, &ConversionError{Value: raw, Target: target}
}

// toDate never fails. Serial numbers use the 1900 date system.
func toDate(raw any) time.Time {
	switch x := raw.(type) {
	case time.Time:
		return x
	case string:
		return parseDate(x)
	}
	if f, ok := asFloat(raw); ok {
		t, err := excelize.ExcelDateToTime(f, false)
		if err != nil {
			return MinDate
		}
		return t
	}
	return MinDate
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return MinDate
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t
		}
	}

	return MinDate
}

func toChar(raw any) (Char, error) {
	switch x := raw.(type) {
	case nil:
		return 0, nil
	case string:
		if utf8.RuneCountInString(x) != 1 {
			return 0, &ConversionError{Value: raw, Target: charType}
		}
		r, _ := utf8.DecodeRuneInString(x)
		return Char(r), nil
	}
	if f, ok := asFloat(raw); ok && f >= 0 && f <= utf8.MaxRune && f == math.Trunc(f) {
		return Char(rune(f)), nil
	}
	return 0, &ConversionError{Value: raw, Target: charType}
}

func toNumeric(raw any) (pgtype.Numeric, error) {
	var s string
	switch x := raw.(type) {
	case string:
		clean, ok := cleanNumber(x)
		if !ok {
			return pgtype.Numeric{}, &ConversionError{Value: raw, Target: numericType}
		}
		s = clean
	case bool:
		s = "0"
		if x {
			s = "1"
		}
	default:
		f, ok := asFloat(raw)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return pgtype.Numeric{}, &ConversionError{Value: raw, Target: numericType}
		}
		s = strconv.FormatFloat(f, 'f', -1, 64)
	}

	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return pgtype.Numeric{}, &ConversionError{Value: raw, Target: numericType, Err: err}
	}
	return n, nil
}
