package core

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// ----------------------------------------------------------------------------
// Numeric Tests
// ----------------------------------------------------------------------------

func TestToTyped_Float(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  float64
	}{
		{"float64", 12.5, 12.5},
		{"int64", int64(7), 7},
		{"empty cell", nil, 0},
		{"true", true, 1},
		{"plain text", "123.45", 123.45},
		{"leading decimal point", ".99", 0.99},
		{"dollar sign", "$1,234.56", 1234.56},
		{"euro sign", "€99", 99},
		{"pound sign", "£5.10", 5.10},
		{"accounting negative", "(123.45)", -123.45},
		{"accounting negative with currency", "($1,000)", -1000},
		{"scientific", "1.5e3", 1500},
		{"surrounding spaces", "  42  ", 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ToTyped(typeOf[float64](), tt.input)
			if err != nil {
				t.Fatalf("ToTyped(%v) error = %v", tt.input, err)
			}
			if got := v.Float(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ToTyped(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestToTyped_FloatInvalid(t *testing.T) {
	inputs := []any{"abc", "", "12abc", "1,2,3.4.5", time.Now()}

	for _, in := range inputs {
		_, err := ToTyped(typeOf[float64](), in)
		if !errors.Is(err, ErrConversion) {
			t.Errorf("ToTyped(%v) error = %v, want ErrConversion", in, err)
		}
	}
}

func TestToTyped_Integer(t *testing.T) {
	tests := []struct {
		name  string
		typ   reflect.Type
		input any
		want  int64
	}{
		{"whole float", typeOf[int](), 42.0, 42},
		{"half rounds to even down", typeOf[int](), 2.5, 2},
		{"half rounds to even up", typeOf[int](), 3.5, 4},
		{"negative half", typeOf[int](), -2.5, -2},
		{"below half", typeOf[int](), 2.4, 2},
		{"numeric text", typeOf[int](), "1,024", 1024},
		{"int8 max", typeOf[int8](), 127.0, 127},
		{"int8 min", typeOf[int8](), -128.0, -128},
		{"int64 exact", typeOf[int64](), int64(math.MaxInt64), math.MaxInt64},
		{"empty cell", typeOf[int32](), nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ToTyped(tt.typ, tt.input)
			if err != nil {
				t.Fatalf("ToTyped(%s, %v) error = %v", tt.typ, tt.input, err)
			}
			if got := v.Int(); got != tt.want {
				t.Errorf("ToTyped(%s, %v) = %d, want %d", tt.typ, tt.input, got, tt.want)
			}
		})
	}
}

func TestToTyped_IntegerFailures(t *testing.T) {
	tests := []struct {
		name  string
		typ   reflect.Type
		input any
	}{
		{"text", typeOf[int](), "abc"},
		{"int8 overflow", typeOf[int8](), 128.0},
		{"int8 underflow", typeOf[int8](), -129.0},
		{"uint negative", typeOf[uint](), -1.0},
		{"uint8 overflow", typeOf[uint8](), 256.0},
		{"NaN", typeOf[int](), math.NaN()},
		{"infinity", typeOf[int64](), math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToTyped(tt.typ, tt.input)
			if !errors.Is(err, ErrConversion) {
				t.Fatalf("ToTyped(%s, %v) error = %v, want ErrConversion", tt.typ, tt.input, err)
			}
			if !strings.Contains(err.Error(), "to number") {
				t.Errorf("error %q should name the number target", err)
			}
		})
	}
}

func TestConversionError_Message(t *testing.T) {
	_, err := ToTyped(typeOf[int](), "abc")
	var ce *ConversionError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %T, want *ConversionError", err)
	}
	if got, want := err.Error(), `cannot convert value "abc" to number`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	ce.Column = "Orders"
	if got := ce.Error(); !strings.HasPrefix(got, `column "Orders": `) {
		t.Errorf("Error() = %q, want column prefix", got)
	}
}

func TestToTyped_Numeric(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  float64
	}{
		{"float", 1234.5, 1234.5},
		{"currency text", "$1,234.56", 1234.56},
		{"accounting negative", "(50)", -50},
		{"bool", true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ToTyped(numericType, tt.input)
			if err != nil {
				t.Fatalf("ToTyped(%v) error = %v", tt.input, err)
			}
			n := v.Interface().(pgtype.Numeric)
			if !n.Valid {
				t.Fatalf("ToTyped(%v) returned invalid numeric", tt.input)
			}
			f, err := n.Float64Value()
			if err != nil {
				t.Fatalf("Float64Value() error: %v", err)
			}
			if math.Abs(f.Float64-tt.want) > 1e-9 {
				t.Errorf("ToTyped(%v) = %v, want %v", tt.input, f.Float64, tt.want)
			}
		})
	}

	v, err := ToTyped(numericType, nil)
	if err != nil || v.Interface().(pgtype.Numeric).Valid {
		t.Errorf("ToTyped(nil) = %v, %v; want invalid numeric", v, err)
	}
	if _, err := ToTyped(numericType, "n/a"); !errors.Is(err, ErrConversion) {
		t.Errorf("ToTyped(\"n/a\") error = %v, want ErrConversion", err)
	}
}

// ----------------------------------------------------------------------------
// Date Tests
// ----------------------------------------------------------------------------

func TestToTyped_Date(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		wantYear  int
		wantMonth time.Month
		wantDay   int
	}{
		{"ISO format", "2024-01-15", 2024, time.January, 15},
		{"ISO leap day", "2024-02-29", 2024, time.February, 29},
		{"US slash", "03/15/2024", 2024, time.March, 15},
		{"US slash single digits", "3/5/2024", 2024, time.March, 5},
		{"dot format", "12.31.2023", 2023, time.December, 31},
		{"month name", "Jan 2, 2006", 2006, time.January, 2},
		{"compact", "20240115", 2024, time.January, 15},
		{"RFC3339", "2024-06-01T10:30:00Z", 2024, time.June, 1},
		{"excel serial", 45306.0, 2024, time.January, 15},
		{"time value", time.Date(2020, 5, 17, 0, 0, 0, 0, time.UTC), 2020, time.May, 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ToTyped(timeType, tt.input)
			if err != nil {
				t.Fatalf("ToTyped(%v) error = %v", tt.input, err)
			}
			got := v.Interface().(time.Time)
			if got.Year() != tt.wantYear || got.Month() != tt.wantMonth || got.Day() != tt.wantDay {
				t.Errorf("ToTyped(%v) = %s, want %d-%02d-%02d",
					tt.input, got.Format("2006-01-02"), tt.wantYear, tt.wantMonth, tt.wantDay)
			}
		})
	}
}

func TestToTyped_DateFallsBackToMinDate(t *testing.T) {
	inputs := []any{nil, "", "not a date", "2024-13-45", "02/30/2024", true}

	for _, in := range inputs {
		v, err := ToTyped(timeType, in)
		if err != nil {
			t.Errorf("ToTyped(%v) error = %v, want nil", in, err)
			continue
		}
		if got := v.Interface().(time.Time); !got.Equal(MinDate) {
			t.Errorf("ToTyped(%v) = %v, want MinDate", in, got)
		}
	}
}

func TestToTyped_TwoDigitYear(t *testing.T) {
	originalPivot := TwoDigitYearPivot
	defer func() { TwoDigitYearPivot = originalPivot }()
	TwoDigitYearPivot = 20

	tests := []struct {
		input    string
		wantYear int
	}{
		{"01/15/25", 2025},
		{"01/15/30", 2030},
		{"01/15/99", 1999},
		{"01/15/85", 1985},
		{"1-15-99", 1999},
		{"01.15.99", 1999},
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, _ := ToTyped(timeType, tt.input)
			got := v.Interface().(time.Time).Year()
			want := tt.wantYear
			if want > pivotYear {
				want -= 100
			}
			if got != want {
				t.Errorf("ToTyped(%q).Year = %d, want %d (pivot year: %d)", tt.input, got, want, pivotYear)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Bool, String, Char Tests
// ----------------------------------------------------------------------------

func TestToTyped_Bool(t *testing.T) {
	tests := []struct {
		input any
		want  bool
	}{
		{true, true},
		{false, false},
		{nil, false},
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"0", false},
		{"yes", true},
		{"Y", true},
		{"no", false},
		{1.0, true},
		{0.0, false},
		{int64(-3), true},
	}

	for _, tt := range tests {
		v, err := ToTyped(typeOf[bool](), tt.input)
		if err != nil {
			t.Errorf("ToTyped(%v) error = %v", tt.input, err)
			continue
		}
		if v.Bool() != tt.want {
			t.Errorf("ToTyped(%v) = %v, want %v", tt.input, v.Bool(), tt.want)
		}
	}

	if _, err := ToTyped(typeOf[bool](), "maybe"); !errors.Is(err, ErrConversion) {
		t.Errorf("ToTyped(\"maybe\") error = %v, want ErrConversion", err)
	}
}

func TestToTyped_String(t *testing.T) {
	tests := []struct {
		input any
		want  string
	}{
		{"hello", "hello"},
		{nil, ""},
		{42.0, "42"},
		{1.25, "1.25"},
		{int64(-7), "-7"},
		{true, "true"},
	}

	for _, tt := range tests {
		v, err := ToTyped(typeOf[string](), tt.input)
		if err != nil {
			t.Errorf("ToTyped(%v) error = %v", tt.input, err)
			continue
		}
		if v.String() != tt.want {
			t.Errorf("ToTyped(%v) = %q, want %q", tt.input, v.String(), tt.want)
		}
	}
}

func TestToTyped_Char(t *testing.T) {
	tests := []struct {
		input   any
		want    Char
		wantErr bool
	}{
		{"A", 'A', false},
		{"é", 'é', false},
		{65.0, 'A', false},
		{nil, 0, false},
		{"AB", 0, true},
		{"", 0, true},
		{1.5, 0, true},
		{-1.0, 0, true},
	}

	for _, tt := range tests {
		v, err := ToTyped(charType, tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrConversion) {
				t.Errorf("ToTyped(%v) error = %v, want ErrConversion", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ToTyped(%v) error = %v", tt.input, err)
			continue
		}
		if got := v.Interface().(Char); got != tt.want {
			t.Errorf("ToTyped(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// ----------------------------------------------------------------------------
// Optional Tests
// ----------------------------------------------------------------------------

func TestToTyped_Pointer(t *testing.T) {
	v, err := ToTyped(typeOf[*int](), nil)
	if err != nil {
		t.Fatalf("ToTyped(nil) error = %v", err)
	}
	if !v.IsNil() {
		t.Errorf("ToTyped(nil) = %v, want nil pointer", v)
	}

	v, err = ToTyped(typeOf[*int](), 5.0)
	if err != nil {
		t.Fatalf("ToTyped(5) error = %v", err)
	}
	if got := *v.Interface().(*int); got != 5 {
		t.Errorf("ToTyped(5) = %d, want 5", got)
	}

	if _, err := ToTyped(typeOf[*int](), "x"); !errors.Is(err, ErrConversion) {
		t.Errorf("ToTyped(\"x\") error = %v, want ErrConversion", err)
	}
}

func TestToTyped_Nullable(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
		raw  any
		want any
	}{
		{"text", textType, "abc", pgtype.Text{String: "abc", Valid: true}},
		{"text empty", textType, nil, pgtype.Text{}},
		{"int4", int4Type, 12.0, pgtype.Int4{Int32: 12, Valid: true}},
		{"int4 empty", int4Type, nil, pgtype.Int4{}},
		{"int8", int8Type, "1,000", pgtype.Int8{Int64: 1000, Valid: true}},
		{"float8", float8Type, 0.5, pgtype.Float8{Float64: 0.5, Valid: true}},
		{"bool", boolType, "yes", pgtype.Bool{Bool: true, Valid: true}},
		{"bool empty", boolType, nil, pgtype.Bool{}},
		{"date", dateType, "2024-01-15", pgtype.Date{Time: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), Valid: true}},
		{"date empty", dateType, nil, pgtype.Date{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ToTyped(tt.typ, tt.raw)
			if err != nil {
				t.Fatalf("ToTyped(%v) error = %v", tt.raw, err)
			}
			if !reflect.DeepEqual(v.Interface(), tt.want) {
				t.Errorf("ToTyped(%v) = %#v, want %#v", tt.raw, v.Interface(), tt.want)
			}
		})
	}

	if _, err := ToTyped(int4Type, "lots"); !errors.Is(err, ErrConversion) {
		t.Errorf("ToTyped(Int4, \"lots\") error = %v, want ErrConversion", err)
	}
}

func TestToTyped_Unsupported(t *testing.T) {
	for _, typ := range []reflect.Type{
		typeOf[[]string](),
		typeOf[map[string]int](),
		typeOf[struct{ A int }](),
		typeOf[complex128](),
	} {
		if Supported(typ) {
			t.Errorf("Supported(%s) = true, want false", typ)
		}
		if _, err := ToTyped(typ, "x"); !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("ToTyped(%s) error = %v, want ErrUnsupportedType", typ, err)
		}
	}
}

// ----------------------------------------------------------------------------
// ToRaw and Round Trip Tests
// ----------------------------------------------------------------------------

func TestToRaw(t *testing.T) {
	seven := 7
	when := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"string", "abc", "abc"},
		{"int", 42, int64(42)},
		{"uint8", uint8(3), uint64(3)},
		{"float", 1.5, 1.5},
		{"bool", true, true},
		{"time", when, when},
		{"char", Char('Z'), "Z"},
		{"pointer", &seven, int64(7)},
		{"nil pointer", (*int)(nil), nil},
		{"valid text", pgtype.Text{String: "x", Valid: true}, "x"},
		{"invalid text", pgtype.Text{}, nil},
		{"int4", pgtype.Int4{Int32: 9, Valid: true}, int64(9)},
		{"invalid bool", pgtype.Bool{}, nil},
		{"date", pgtype.Date{Time: when, Valid: true}, when},
		{"invalid numeric", pgtype.Numeric{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToRaw(reflect.ValueOf(tt.in))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ToRaw(%#v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	seven := int16(7)
	values := []any{
		"text",
		int(-12),
		int64(math.MaxInt32),
		uint32(99),
		float32(2.5),
		3.75,
		true,
		time.Date(2023, 7, 4, 0, 0, 0, 0, time.UTC),
		Char('q'),
		&seven,
		(*string)(nil),
		pgtype.Int8{Int64: 5, Valid: true},
		pgtype.Float8{},
		pgtype.Bool{Bool: false, Valid: true},
	}

	for _, want := range values {
		v := reflect.ValueOf(want)
		got, err := ToTyped(v.Type(), ToRaw(v))
		if err != nil {
			t.Errorf("round trip %T(%v): error = %v", want, want, err)
			continue
		}
		if !reflect.DeepEqual(got.Interface(), want) {
			t.Errorf("round trip %T: got %#v, want %#v", want, got.Interface(), want)
		}
	}
}

// Numeric values pass through a float64 cell, so they survive a round trip
// by value at double precision, not digit for digit.
func TestRoundTrip_NumericAtDoublePrecision(t *testing.T) {
	for _, text := range []string{"1.50", "-42", "0.1", "12345678901234567.89"} {
		var want pgtype.Numeric
		if err := want.Scan(text); err != nil {
			t.Fatalf("Scan(%q) error = %v", text, err)
		}

		v := reflect.ValueOf(want)
		got, err := ToTyped(v.Type(), ToRaw(v))
		if err != nil {
			t.Errorf("round trip %s: error = %v", text, err)
			continue
		}

		wantF, _ := want.Float64Value()
		gotF, _ := got.Interface().(pgtype.Numeric).Float64Value()
		if !gotF.Valid || gotF.Float64 != wantF.Float64 {
			t.Errorf("round trip %s = %v, want %v", text, gotF.Float64, wantF.Float64)
		}
	}

	got, err := ToTyped(numericType, ToRaw(reflect.ValueOf(pgtype.Numeric{})))
	if err != nil || got.Interface().(pgtype.Numeric).Valid {
		t.Errorf("round trip of a null Numeric = %#v, %v; want null", got.Interface(), err)
	}
}

func TestRawEqual(t *testing.T) {
	when := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"float vs int", 3.0, int64(3), true},
		{"int vs uint", int(4), uint8(4), true},
		{"different numbers", 3.0, 3.5, false},
		{"number vs text", 3.0, "3", false},
		{"equal strings", "abc", "abc", true},
		{"case differs", "abc", "ABC", false},
		{"both nil", nil, nil, true},
		{"nil vs empty", nil, "", false},
		{"bools", true, true, true},
		{"same instant", when, when.In(time.FixedZone("X", 3600)), true},
		{"different instant", when, when.Add(time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RawEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("RawEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
