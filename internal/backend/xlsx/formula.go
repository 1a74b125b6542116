package xlsx

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/efp"
	"github.com/xuri/excelize/v2"
)

var cellRef = regexp.MustCompile(`^(\$?)([A-Za-z]{1,3})(\$?)([0-9]+)$`)

// rowShift describes a body row deletion: the cells of columns x1..x2 in
// rows deleted+1..last move up one row. Formulas are rewritten the way Excel
// rewrites them when cells shift up, so references follow the cells they
// point at. Absolute references move too, because the cell itself moved.
type rowShift struct {
	sheet   string
	deleted int
	last    int
	x1, x2  int
}

// apply returns formula with its references into the shifted block
// adjusted. A single reference to the deleted row becomes #REF!. Formulas
// the tokenizer cannot read are returned unchanged.
func (s rowShift) apply(formula string) string {
	ps := efp.ExcelParser()
	var out strings.Builder
	for _, tok := range ps.Parse(formula) {
		switch {
		case tok.TType == efp.TokenTypeUnknown:
			return formula
		case tok.TType == efp.TokenTypeOperand && tok.TSubType == efp.TokenSubTypeRange:
			out.WriteString(s.operand(tok.TValue))
		case tok.TType == efp.TokenTypeOperand && tok.TSubType == efp.TokenSubTypeText:
			out.WriteString(`"` + strings.ReplaceAll(tok.TValue, `"`, `""`) + `"`)
		case isGroup(tok) && tok.TSubType == efp.TokenSubTypeStart:
			out.WriteString(tok.TValue + "(")
		case isGroup(tok) && tok.TSubType == efp.TokenSubTypeStop:
			out.WriteString(tok.TValue + ")")
		default:
			out.WriteString(tok.TValue)
		}
	}
	return out.String()
}

func isGroup(tok efp.Token) bool {
	return tok.TType == efp.TokenTypeFunction || tok.TType == efp.TokenTypeSubexpression
}

// operand rewrites one range operand such as B3, $C$4:$C$9 or 'My Sheet'!B3.
// Defined names and whole row or column ranges are left alone.
func (s rowShift) operand(ref string) string {
	prefix, cells := "", ref
	if i := strings.LastIndex(ref, "!"); i >= 0 {
		prefix, cells = ref[:i+1], ref[i+1:]
		if sheetName(ref[:i]) != s.sheet {
			return ref
		}
	}

	ends := strings.Split(cells, ":")
	if len(ends) > 2 {
		return ref
	}
	for i, end := range ends {
		m := cellRef.FindStringSubmatch(end)
		if m == nil {
			return ref
		}
		col, err := excelize.ColumnNameToNumber(m[2])
		if err != nil {
			return ref
		}
		row, err := strconv.Atoi(m[4])
		if err != nil {
			return ref
		}
		if col < s.x1 || col > s.x2 {
			continue
		}
		switch {
		case row == s.deleted && len(ends) == 1:
			return "#REF!"
		case row > s.deleted && row <= s.last:
			ends[i] = m[1] + m[2] + m[3] + strconv.Itoa(row-1)
		}
	}
	return prefix + strings.Join(ends, ":")
}

func sheetName(quoted string) string {
	if len(quoted) >= 2 && strings.HasPrefix(quoted, "'") && strings.HasSuffix(quoted, "'") {
		return strings.ReplaceAll(quoted[1:len(quoted)-1], "''", "'")
	}
	return quoted
}
