package eval

import (
	"math"
	"regexp"
	"strings"
	"time"

	"src.sylph.sh/pkg/eval/errs"
	"src.sylph.sh/pkg/eval/vals"
	"src.sylph.sh/pkg/parse"
)

func (fm *Frame) evalExpr(e parse.Expr) (any, error) {
	switch e := e.(type) {
	case *parse.IntLit:
		return e.Value, nil
	case *parse.FloatLit:
		return e.Value, nil
	case *parse.StringLit:
		return e.Value, nil
	case *parse.BoolLit:
		return e.Value, nil
	case *parse.NullLit:
		return nil, nil
	case *parse.FilesizeLit:
		return vals.Filesize(e.Bytes), nil
	case *parse.DurationLit:
		return e.Value, nil
	case *parse.VarExpr:
		return fm.evalVar(e)
	case *parse.ListLit:
		return fm.evalList(e)
	case *parse.TableLit:
		return fm.evalTable(e)
	case *parse.RecordLit:
		return fm.evalRecord(e)
	case *parse.ClosureLit:
		return fm.evalClosure(e), nil
	case *parse.SubExpr:
		return fm.evalSubExpr(e)
	case *parse.RangeExpr:
		return fm.evalRange(e)
	case *parse.UnaryExpr:
		return fm.evalUnary(e)
	case *parse.BinaryExpr:
		return fm.evalBinary(e)
	case *parse.CellPathExpr:
		return fm.evalCellPath(e)
	case *parse.InterpExpr:
		return fm.evalInterp(e)
	case *parse.IfExpr:
		return fm.evalIf(e)
	case *parse.BadExpr:
		return nil, fm.errorpf(e, "cannot evaluate code with parse errors")
	default:
		return nil, fm.errorpf(e, "bug: unknown expression type %T", e)
	}
}

func (fm *Frame) evalVar(e *parse.VarExpr) (any, error) {
	switch e.Name {
	case "nothing":
		return nil, nil
	case "env":
		return fm.collectEnvRecord(), nil
	case "in":
		v, err := Collect(fm.input)
		if err != nil {
			return nil, fm.errorp(e, err)
		}
		fm.input = Value{v}
		return v, nil
	}
	if v, ok := fm.scope.lookup(e.Name); ok {
		return v, nil
	}
	return nil, fm.errorpf(e, "variable $%s not set", e.Name)
}

func (fm *Frame) evalList(e *parse.ListLit) (any, error) {
	list := vals.EmptyList
	for _, elem := range e.Elems {
		v, err := fm.evalExpr(elem)
		if err != nil {
			return nil, err
		}
		list = list.Conj(v)
	}
	return list, nil
}

func (fm *Frame) evalTable(e *parse.TableLit) (any, error) {
	table := vals.EmptyList
	for _, row := range e.Rows {
		rec := vals.EmptyRecord
		for i, col := range e.Columns {
			var v any
			if i < len(row) {
				var err error
				v, err = fm.evalExpr(row[i])
				if err != nil {
					return nil, err
				}
			}
			rec = rec.Assoc(col.Value, v)
		}
		table = table.Conj(rec)
	}
	return table, nil
}

func (fm *Frame) evalRecord(e *parse.RecordLit) (any, error) {
	rec := vals.EmptyRecord
	for _, entry := range e.Entries {
		v, err := fm.evalExpr(entry.Value)
		if err != nil {
			return nil, err
		}
		rec = rec.Assoc(entry.Key, v)
	}
	return rec, nil
}

// evalClosure creates a closure value, snapshotting the current value of
// each free variable of the body and the current environment overlay.
func (fm *Frame) evalClosure(e *parse.ClosureLit) *Closure {
	captured := make(map[string]any, len(e.Body.Captures))
	for _, name := range e.Body.Captures {
		if v, ok := fm.scope.lookup(name); ok {
			captured[name] = v
		}
	}
	return &Closure{
		Sig:      e.Sig,
		Body:     e.Body,
		Captured: captured,
		Env:      fm.env,
		SrcMeta:  fm.src,
	}
}

// evalSubExpr evaluates a parenthesized chunk and materializes its value, so
// that an external command inside parentheses runs to completion where the
// parentheses are.
func (fm *Frame) evalSubExpr(e *parse.SubExpr) (any, error) {
	sub := fm.fork(fm.scope)
	out, err := sub.evalChunk(e.Chunk)
	if err != nil {
		return nil, err
	}
	v, err := Collect(out)
	if err != nil {
		return nil, fm.errorp(e, err)
	}
	return v, nil
}

func (fm *Frame) evalRange(e *parse.RangeExpr) (any, error) {
	r := &vals.Range{Exclusive: e.Exclusive}
	if e.From != nil {
		v, err := fm.evalExpr(e.From)
		if err != nil {
			return nil, err
		}
		from, err := vals.ToInt(v)
		if err != nil {
			return nil, fm.errorp(e.From, err)
		}
		r.From = from
	}
	if e.To == nil {
		r.Unbounded = true
	} else {
		v, err := fm.evalExpr(e.To)
		if err != nil {
			return nil, err
		}
		to, err := vals.ToInt(v)
		if err != nil {
			return nil, fm.errorp(e.To, err)
		}
		r.To = to
	}
	return r, nil
}

func (fm *Frame) evalUnary(e *parse.UnaryExpr) (any, error) {
	operand, err := fm.evalExpr(e.Operand)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case "not":
		return !vals.Bool(operand), nil
	case "-":
		switch operand := operand.(type) {
		case int64:
			v, err := vals.SubInt(0, operand)
			return v, fm.errorp(e.OpSpan, err)
		case float64:
			return -operand, nil
		case time.Duration:
			return -operand, nil
		case vals.Filesize:
			return -operand, nil
		default:
			return nil, fm.errorp(e.OpSpan, errs.TypeMismatch{
				What: "operand of -", Valid: "number", Actual: vals.Kind(operand)})
		}
	default:
		return nil, fm.errorpf(e.OpSpan, "bug: unknown unary operator %s", e.Op)
	}
}

func (fm *Frame) evalBinary(e *parse.BinaryExpr) (any, error) {
	// and and or short-circuit; everything else is strict.
	if e.Op == "and" || e.Op == "or" {
		lhs, err := fm.evalExpr(e.LHS)
		if err != nil {
			return nil, err
		}
		if vals.Bool(lhs) != (e.Op == "and") {
			return vals.Bool(lhs), nil
		}
		rhs, err := fm.evalExpr(e.RHS)
		if err != nil {
			return nil, err
		}
		return vals.Bool(rhs), nil
	}
	lhs, err := fm.evalExpr(e.LHS)
	if err != nil {
		return nil, err
	}
	rhs, err := fm.evalExpr(e.RHS)
	if err != nil {
		return nil, err
	}
	v, err := binaryOp(e.Op, lhs, rhs)
	if err != nil {
		return nil, fm.errorp(e.OpSpan, err)
	}
	return v, nil
}

func binaryOp(op string, lhs, rhs any) (any, error) {
	switch op {
	case "==":
		return vals.Equal(lhs, rhs), nil
	case "!=":
		return !vals.Equal(lhs, rhs), nil
	case "<", "<=", ">", ">=":
		ord, err := vals.CmpErr(lhs, rhs)
		if err != nil {
			return nil, err
		}
		switch op {
		case "<":
			return ord == vals.CmpLess, nil
		case "<=":
			return ord != vals.CmpMore, nil
		case ">":
			return ord == vals.CmpMore, nil
		default:
			return ord != vals.CmpLess, nil
		}
	case "=~", "!~":
		matched, err := regexMatch(lhs, rhs)
		if err != nil {
			return nil, err
		}
		return matched == (op == "=~"), nil
	case "in", "not-in":
		found, err := contains(rhs, lhs)
		if err != nil {
			return nil, err
		}
		return found == (op == "in"), nil
	case "++":
		return vals.Concat(lhs, rhs)
	case "+", "-", "*", "/", "//", "mod", "**":
		return arith(op, lhs, rhs)
	default:
		return nil, errs.BadValue{What: "operator", Valid: "binary operator", Actual: op}
	}
}

func regexMatch(lhs, rhs any) (bool, error) {
	s, ok := lhs.(string)
	if !ok {
		return false, errs.TypeMismatch{What: "left operand of =~",
			Valid: "string", Actual: vals.Kind(lhs)}
	}
	pattern, ok := rhs.(string)
	if !ok {
		return false, errs.TypeMismatch{What: "right operand of =~",
			Valid: "string", Actual: vals.Kind(rhs)}
	}
	matched, err := regexp.MatchString(pattern, s)
	if err != nil {
		return false, errs.BadValue{What: "regular expression",
			Valid: "RE2 syntax", Actual: pattern}
	}
	return matched, nil
}

// contains implements the in operator: substring match on strings, element
// membership on lists and ranges, key membership on records.
func contains(container, elem any) (bool, error) {
	switch container := container.(type) {
	case string:
		s, ok := elem.(string)
		if !ok {
			return false, errs.TypeMismatch{What: "left operand of in",
				Valid: "string", Actual: vals.Kind(elem)}
		}
		return strings.Contains(container, s), nil
	case *vals.Record:
		s, ok := elem.(string)
		if !ok {
			return false, nil
		}
		_, has := container.Index(s)
		return has, nil
	default:
		if !vals.CanIterate(container) {
			return false, errs.TypeMismatch{What: "right operand of in",
				Valid: "list, range, record or string", Actual: vals.Kind(container)}
		}
		found := false
		vals.Iterate(container, func(v any) bool {
			found = vals.Equal(v, elem)
			return !found
		})
		return found, nil
	}
}

func arith(op string, lhs, rhs any) (any, error) {
	if a, ok := lhs.(int64); ok {
		if b, ok := rhs.(int64); ok {
			return intArith(op, a, b)
		}
	}
	switch lhs := lhs.(type) {
	case time.Duration:
		return durationArith(op, lhs, rhs)
	case vals.Filesize:
		return filesizeArith(op, lhs, rhs)
	case time.Time:
		return dateArith(op, lhs, rhs)
	case string:
		if op == "+" {
			if rhs, ok := rhs.(string); ok {
				return lhs + rhs, nil
			}
		}
	case int64:
		switch rhs.(type) {
		case time.Duration, vals.Filesize:
			if op == "*" {
				// Scaling commutes.
				return arith(op, rhs, lhs)
			}
		}
	}
	a, aerr := vals.ToFloat(lhs)
	b, berr := vals.ToFloat(rhs)
	if aerr != nil || berr != nil {
		return nil, errs.TypeMismatch{
			What:   "operands of " + op,
			Valid:  "numbers",
			Actual: vals.Kind(lhs) + " and " + vals.Kind(rhs),
		}
	}
	return floatArith(op, a, b)
}

func intArith(op string, a, b int64) (any, error) {
	switch op {
	case "+":
		return vals.AddInt(a, b)
	case "-":
		return vals.SubInt(a, b)
	case "*":
		return vals.MulInt(a, b)
	case "/":
		// Exact quotients stay integers; everything else goes to float.
		if b == 0 {
			return nil, errs.DivisionByZero{}
		}
		if a%b == 0 {
			return vals.DivInt(a, b)
		}
		return float64(a) / float64(b), nil
	case "//":
		q, err := vals.DivInt(a, b)
		if err != nil {
			return nil, err
		}
		if (a%b != 0) && ((a < 0) != (b < 0)) {
			q--
		}
		return q, nil
	case "mod":
		return vals.ModInt(a, b)
	default: // **
		return vals.PowInt(a, b)
	}
}

func floatArith(op string, a, b float64) (any, error) {
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return nil, errs.DivisionByZero{}
		}
		return a / b, nil
	case "//":
		if b == 0 {
			return nil, errs.DivisionByZero{}
		}
		return math.Floor(a / b), nil
	case "mod":
		if b == 0 {
			return nil, errs.DivisionByZero{}
		}
		m := math.Mod(a, b)
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return m, nil
	default: // **
		return math.Pow(a, b), nil
	}
}

func durationArith(op string, a time.Duration, rhs any) (any, error) {
	switch rhs := rhs.(type) {
	case time.Duration:
		switch op {
		case "+":
			return a + rhs, nil
		case "-":
			return a - rhs, nil
		case "/":
			if rhs == 0 {
				return nil, errs.DivisionByZero{}
			}
			return float64(a) / float64(rhs), nil
		}
	case int64:
		switch op {
		case "*":
			return a * time.Duration(rhs), nil
		case "/":
			if rhs == 0 {
				return nil, errs.DivisionByZero{}
			}
			return a / time.Duration(rhs), nil
		}
	case float64:
		switch op {
		case "*":
			return time.Duration(float64(a) * rhs), nil
		case "/":
			if rhs == 0 {
				return nil, errs.DivisionByZero{}
			}
			return time.Duration(float64(a) / rhs), nil
		}
	}
	return nil, errs.TypeMismatch{What: "operands of " + op,
		Valid: "compatible duration operands", Actual: vals.Kind(rhs)}
}

func filesizeArith(op string, a vals.Filesize, rhs any) (any, error) {
	switch rhs := rhs.(type) {
	case vals.Filesize:
		switch op {
		case "+":
			return a + rhs, nil
		case "-":
			return a - rhs, nil
		case "/":
			if rhs == 0 {
				return nil, errs.DivisionByZero{}
			}
			return float64(a) / float64(rhs), nil
		}
	case int64:
		switch op {
		case "*":
			return a * vals.Filesize(rhs), nil
		case "/":
			if rhs == 0 {
				return nil, errs.DivisionByZero{}
			}
			return a / vals.Filesize(rhs), nil
		}
	case float64:
		switch op {
		case "*":
			return vals.Filesize(float64(a) * rhs), nil
		case "/":
			if rhs == 0 {
				return nil, errs.DivisionByZero{}
			}
			return vals.Filesize(float64(a) / rhs), nil
		}
	}
	return nil, errs.TypeMismatch{What: "operands of " + op,
		Valid: "compatible filesize operands", Actual: vals.Kind(rhs)}
}

func dateArith(op string, a time.Time, rhs any) (any, error) {
	switch rhs := rhs.(type) {
	case time.Duration:
		switch op {
		case "+":
			return a.Add(rhs), nil
		case "-":
			return a.Add(-rhs), nil
		}
	case time.Time:
		if op == "-" {
			return a.Sub(rhs), nil
		}
	}
	return nil, errs.TypeMismatch{What: "operands of " + op,
		Valid: "compatible date operands", Actual: vals.Kind(rhs)}
}

func (fm *Frame) evalCellPath(e *parse.CellPathExpr) (any, error) {
	base, err := fm.evalExpr(e.Base)
	if err != nil {
		return nil, err
	}
	cur := base
	for _, m := range e.Path {
		var member vals.Member
		if m.IsIndex {
			member = vals.IndexMember(m.Index)
		} else {
			member = vals.NamedMember(m.Name)
		}
		next, err := vals.CellPath{Members: []vals.Member{member}}.Access(cur)
		if err != nil {
			return nil, fm.errorp(m, err)
		}
		cur = next
	}
	return cur, nil
}

func (fm *Frame) evalInterp(e *parse.InterpExpr) (any, error) {
	var sb strings.Builder
	for _, seg := range e.Segs {
		if seg.Expr == nil {
			sb.WriteString(seg.Text)
			continue
		}
		v, err := fm.evalExpr(seg.Expr)
		if err != nil {
			return nil, err
		}
		sb.WriteString(vals.ToString(v))
	}
	return sb.String(), nil
}

// evalIf evaluates a conditional. Its value is that of the taken branch; if
// no branch is taken the value is null.
func (fm *Frame) evalIf(e *parse.IfExpr) (any, error) {
	cond, err := fm.evalExpr(e.Cond)
	if err != nil {
		return nil, err
	}
	if vals.Bool(cond) {
		return fm.evalBlockValue(e.Then)
	}
	if e.ElseIf != nil {
		return fm.evalIf(e.ElseIf)
	}
	if e.ElseBlock != nil {
		return fm.evalBlockValue(e.ElseBlock)
	}
	return nil, nil
}

func (fm *Frame) evalBlockValue(b *parse.Block) (any, error) {
	body := fm.fork(fm.scope)
	out, err := body.evalChunk(b.Chunk)
	if err != nil {
		return nil, err
	}
	v, err := Collect(out)
	if err != nil {
		return nil, fm.errorp(b, err)
	}
	return v, nil
}
