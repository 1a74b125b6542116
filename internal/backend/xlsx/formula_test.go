package xlsx

import "testing"

func TestRowShift_Apply(t *testing.T) {
	// Body rows 2..4 of columns A..C; row 2 is deleted.
	shift := rowShift{sheet: "Calc", deleted: 2, last: 4, x1: 1, x2: 3}

	tests := []struct {
		in, want string
	}{
		{"B3*10", "B2*10"},
		{"SUM($B$3:$B$4)", "SUM($B$2:$B$3)"},
		{"SUM(B2:B4)", "SUM(B2:B3)"},
		{"B2+1", "#REF!+1"},
		{"B1+B5", "B1+B5"},
		{"F3*2", "F3*2"},
		{"Other!B3", "Other!B3"},
		{"'Calc'!B3", "'Calc'!B2"},
		{`IF(B3>0,"a""b",B1)`, `IF(B2>0,"a""b",B1)`},
		{"Rate*B4", "Rate*B3"},
	}
	for _, tt := range tests {
		if got := shift.apply(tt.in); got != tt.want {
			t.Errorf("apply(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSheetName(t *testing.T) {
	tests := map[string]string{
		"Calc":          "Calc",
		"'My Sheet'":    "My Sheet",
		"'Bob''s Book'": "Bob's Book",
	}
	for in, want := range tests {
		if got := sheetName(in); got != want {
			t.Errorf("sheetName(%q) = %q, want %q", in, got, want)
		}
	}
}
