package parse

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Unparse renders a node back to source syntax. The output parses to an
// equivalent tree; spacing, separators and quoting are normalized.
func Unparse(n Node) string {
	var sb strings.Builder
	unparse(&sb, n)
	return sb.String()
}

// UnparseExpr renders an expression back to source syntax.
func UnparseExpr(e Expr) string {
	return Unparse(e)
}

func unparse(sb *strings.Builder, n Node) {
	switch n := n.(type) {
	case *Chunk:
		unparseChunk(sb, n)
	case *Pipeline:
		unparsePipeline(sb, n)
	case *PipeElem:
		unparsePipeElem(sb, n)
	case *Call:
		unparseCall(sb, n)
	case Stmt:
		unparseStmt(sb, n)
	case Expr:
		unparseExpr(sb, n)
	}
}

func unparseChunk(sb *strings.Builder, c *Chunk) {
	for i, st := range c.Stmts {
		if i > 0 {
			sb.WriteString("; ")
		}
		unparseStmt(sb, st)
	}
}

func unparseStmt(sb *strings.Builder, st Stmt) {
	switch st := st.(type) {
	case *DefStmt:
		if st.Exported {
			sb.WriteString("export ")
		}
		sb.WriteString("def ")
		unparseCmdName(sb, st.Name)
		if sig := st.Sig.String(); sig != "" {
			sb.WriteString(" [")
			sb.WriteString(sig)
			sb.WriteString("]")
		}
		sb.WriteString(" ")
		unparseBlock(sb, st.Body)
	case *LetStmt:
		sb.WriteString("let ")
		sb.WriteString(st.Name)
		sb.WriteString(" = ")
		unparsePipeline(sb, st.RHS)
	case *LetEnvStmt:
		sb.WriteString("let-env ")
		sb.WriteString(st.Name)
		sb.WriteString(" = ")
		unparsePipeline(sb, st.RHS)
	case *ModuleStmt:
		sb.WriteString("module ")
		unparseCmdName(sb, st.Name)
		if st.Body == nil || len(st.Body.Stmts) == 0 {
			sb.WriteString(" { }")
		} else {
			sb.WriteString(" { ")
			unparseChunk(sb, st.Body)
			sb.WriteString(" }")
		}
	case *UseStmt:
		sb.WriteString("use ")
		unparseCmdName(sb, st.Name)
	case *OverlayStmt:
		if st.Hide {
			sb.WriteString("overlay hide ")
		} else {
			sb.WriteString("overlay use ")
		}
		unparseCmdName(sb, st.Name)
	case *RegisterStmt:
		sb.WriteString("register ")
		sb.WriteString(Quote(st.Path))
	case *ForStmt:
		sb.WriteString("for ")
		sb.WriteString(st.VarName)
		sb.WriteString(" in ")
		unparseExpr(sb, st.Iter)
		sb.WriteString(" ")
		unparseBlock(sb, st.Body)
	case *WhileStmt:
		sb.WriteString("while ")
		unparseExpr(sb, st.Cond)
		sb.WriteString(" ")
		unparseBlock(sb, st.Body)
	case *ReturnStmt:
		sb.WriteString("return")
		if st.Value != nil {
			sb.WriteString(" ")
			unparseExpr(sb, st.Value)
		}
	case *BreakStmt:
		sb.WriteString("break")
	case *ContinueStmt:
		sb.WriteString("continue")
	case *Pipeline:
		unparsePipeline(sb, st)
	case *BadStmt:
	}
}

// unparseCmdName quotes command names that do not survive as barewords,
// such as multi-word names.
func unparseCmdName(sb *strings.Builder, name string) {
	if okBareword(name) {
		sb.WriteString(name)
	} else {
		q, _ := QuoteAs(name, SingleForm)
		sb.WriteString(q)
	}
}

func unparsePipeline(sb *strings.Builder, p *Pipeline) {
	for i, elem := range p.Elems {
		if i > 0 {
			sb.WriteString(" | ")
		}
		unparsePipeElem(sb, elem)
	}
}

func unparsePipeElem(sb *strings.Builder, elem *PipeElem) {
	if elem.Call != nil {
		unparseCall(sb, elem.Call)
	} else if elem.Expr != nil {
		unparseElemExpr(sb, elem.Expr)
	}
	for _, r := range elem.Redirs {
		sb.WriteString(" ")
		sb.WriteString(r.Mode.String())
		sb.WriteString(" ")
		unparseExpr(sb, r.Target)
	}
}

// unparseElemExpr renders an expression at the start of a pipeline element,
// where a leading bareword would reparse as a call head. The leftmost string
// leaf is forced into quotes.
func unparseElemExpr(sb *strings.Builder, e Expr) {
	switch e := e.(type) {
	case *StringLit:
		if okBareword(e.Value) {
			sb.WriteString(quoteSingle(e.Value))
			return
		}
	case *BinaryExpr:
		unparseElemExpr(sb, e.LHS)
		sb.WriteString(" ")
		sb.WriteString(e.Op)
		sb.WriteString(" ")
		unparseExpr(sb, e.RHS)
		return
	case *RangeExpr:
		if e.From != nil {
			unparseElemExpr(sb, e.From)
			if e.Exclusive {
				sb.WriteString("..<")
			} else {
				sb.WriteString("..")
			}
			if e.To != nil {
				unparseExpr(sb, e.To)
			}
			return
		}
	}
	unparseExpr(sb, e)
}

func unparseCall(sb *strings.Builder, call *Call) {
	if call.External && call.Spec == nil {
		// ^ keeps the head external when it would otherwise resolve.
		sb.WriteString("^")
	}
	sb.WriteString(call.Head)
	for _, f := range call.Flags {
		sb.WriteString(" --")
		sb.WriteString(f.Name)
		if f.Value != nil {
			sb.WriteString(" ")
			unparseExpr(sb, f.Value)
		}
	}
	for _, a := range call.Args {
		sb.WriteString(" ")
		unparseExpr(sb, a)
	}
}

func unparseExpr(sb *strings.Builder, e Expr) {
	switch e := e.(type) {
	case *IntLit:
		sb.WriteString(strconv.FormatInt(e.Value, 10))
	case *FloatLit:
		sb.WriteString(formatFloatLit(e.Value))
	case *StringLit:
		sb.WriteString(Quote(e.Value))
	case *BoolLit:
		if e.Value {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case *NullLit:
		sb.WriteString("null")
	case *FilesizeLit:
		sb.WriteString(FormatFilesize(e.Bytes))
	case *DurationLit:
		sb.WriteString(FormatDuration(e.Value))
	case *VarExpr:
		sb.WriteString("$")
		sb.WriteString(e.Name)
	case *ListLit:
		sb.WriteString("[")
		for i, el := range e.Elems {
			if i > 0 {
				sb.WriteString(" ")
			}
			unparseListElem(sb, el)
		}
		sb.WriteString("]")
	case *TableLit:
		sb.WriteString("[[")
		for i, col := range e.Columns {
			if i > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(Quote(col.Value))
		}
		sb.WriteString("];")
		for _, row := range e.Rows {
			sb.WriteString(" [")
			for i, cell := range row {
				if i > 0 {
					sb.WriteString(" ")
				}
				unparseListElem(sb, cell)
			}
			sb.WriteString("]")
		}
		sb.WriteString("]")
	case *RecordLit:
		if len(e.Entries) == 0 {
			sb.WriteString("{}")
			return
		}
		sb.WriteString("{")
		for i, entry := range e.Entries {
			if i > 0 {
				sb.WriteString(", ")
			}
			unparseRecordKey(sb, entry.Key)
			sb.WriteString(" ")
			unparseExpr(sb, entry.Value)
		}
		sb.WriteString("}")
	case *ClosureLit:
		unparseClosure(sb, e.Body, e.Sig)
	case *SubExpr:
		sb.WriteString("(")
		unparseChunk(sb, e.Chunk)
		sb.WriteString(")")
	case *RangeExpr:
		if e.From != nil {
			unparseExpr(sb, e.From)
		}
		if e.Exclusive {
			sb.WriteString("..<")
		} else {
			sb.WriteString("..")
		}
		if e.To != nil {
			unparseExpr(sb, e.To)
		}
	case *UnaryExpr:
		sb.WriteString(e.Op)
		if e.Op != "-" || !gluesAfterMinus(e.Operand) {
			sb.WriteString(" ")
		}
		unparseExpr(sb, e.Operand)
	case *BinaryExpr:
		unparseExpr(sb, e.LHS)
		sb.WriteString(" ")
		sb.WriteString(e.Op)
		sb.WriteString(" ")
		unparseExpr(sb, e.RHS)
	case *CellPathExpr:
		// A bareword base would lex together with the following dot.
		if s, ok := e.Base.(*StringLit); ok {
			q, _ := QuoteAs(s.Value, SingleForm)
			sb.WriteString(q)
		} else {
			unparseExpr(sb, e.Base)
		}
		for _, m := range e.Path {
			sb.WriteString(".")
			if m.IsIndex {
				sb.WriteString(strconv.FormatInt(m.Index, 10))
			} else {
				unparsePathMember(sb, m.Name)
			}
		}
	case *InterpExpr:
		sb.WriteString(`$"`)
		for _, seg := range e.Segs {
			if seg.Expr != nil {
				unparseExpr(sb, seg.Expr)
			} else {
				sb.WriteString(escapeInterpText(seg.Text))
			}
		}
		sb.WriteString(`"`)
	case *IfExpr:
		unparseIf(sb, e)
	case *BadExpr:
	}
}

// gluesAfterMinus reports whether a unary minus may be written tightly in
// front of e. That is only safe when the glued word still lexes as a single
// negative literal.
func gluesAfterMinus(e Expr) bool {
	switch e := e.(type) {
	case *IntLit:
		return e.Value >= 0
	case *FloatLit:
		return !math.Signbit(e.Value)
	case *FilesizeLit:
		return e.Bytes >= 0
	case *DurationLit:
		return e.Value >= 0
	}
	return false
}

// unparseListElem wraps operator-shaped expressions so that list elements
// stay separate words when reparsed.
func unparseListElem(sb *strings.Builder, e Expr) {
	switch e.(type) {
	case *BinaryExpr, *UnaryExpr, *RangeExpr, *IfExpr:
		sb.WriteString("(")
		unparseExpr(sb, e)
		sb.WriteString(")")
	default:
		unparseExpr(sb, e)
	}
}

func unparseRecordKey(sb *strings.Builder, key string) {
	if okBareword(key) && !strings.Contains(key, ":") {
		sb.WriteString(key)
		sb.WriteString(":")
	} else {
		q, _ := QuoteAs(key, SingleForm)
		sb.WriteString(q)
		sb.WriteString(" :")
	}
}

// unparsePathMember renders a named cell path member. A dot inside a bare
// member name would end the member early, so such names stay quoted.
func unparsePathMember(sb *strings.Builder, name string) {
	if okBareword(name) && !strings.Contains(name, ".") {
		sb.WriteString(name)
	} else {
		q, _ := QuoteAs(name, SingleForm)
		sb.WriteString(q)
	}
}

// unparseClosure renders a closure literal. An empty closure is {||}, since
// {} parses as an empty record.
func unparseClosure(sb *strings.Builder, b *Block, sig *Signature) {
	sigText := ""
	if sig != nil {
		sigText = sig.String()
	}
	empty := b.Chunk == nil || len(b.Chunk.Stmts) == 0
	if sigText == "" && empty {
		sb.WriteString("{||}")
		return
	}
	sb.WriteString("{")
	if sigText != "" {
		sb.WriteString("|")
		sb.WriteString(sigText)
		sb.WriteString("|")
	}
	if !empty {
		sb.WriteString(" ")
		unparseChunk(sb, b.Chunk)
		sb.WriteString(" ")
	}
	sb.WriteString("}")
}

// unparseBlock renders a plain brace block, as found in def, if, for and
// while.
func unparseBlock(sb *strings.Builder, b *Block) {
	if b.Chunk == nil || len(b.Chunk.Stmts) == 0 {
		sb.WriteString("{ }")
		return
	}
	sb.WriteString("{ ")
	unparseChunk(sb, b.Chunk)
	sb.WriteString(" }")
}

func unparseIf(sb *strings.Builder, e *IfExpr) {
	sb.WriteString("if ")
	unparseExpr(sb, e.Cond)
	sb.WriteString(" ")
	unparseBlock(sb, e.Then)
	switch {
	case e.ElseIf != nil:
		sb.WriteString(" else ")
		unparseIf(sb, e.ElseIf)
	case e.ElseBlock != nil:
		sb.WriteString(" else ")
		unparseBlock(sb, e.ElseBlock)
	}
}

func escapeInterpText(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '(', ')', '"', '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func formatFloatLit(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

var filesizeUnparseUnits = []struct {
	name string
	mult int64
}{
	{"pib", 1 << 50}, {"tib", 1 << 40}, {"gib", 1 << 30},
	{"mib", 1 << 20}, {"kib", 1 << 10},
	{"pb", 1e15}, {"tb", 1e12}, {"gb", 1e9}, {"mb", 1e6}, {"kb", 1e3},
}

// FormatFilesize returns the canonical filesize literal for the given number
// of bytes, using the largest unit that divides it exactly. Binary units are
// preferred over decimal ones.
func FormatFilesize(bytes int64) string {
	for _, u := range filesizeUnparseUnits {
		if bytes != 0 && bytes%u.mult == 0 {
			return fmt.Sprintf("%d%s", bytes/u.mult, u.name)
		}
	}
	return fmt.Sprintf("%db", bytes)
}

var durationUnparseUnits = []struct {
	name string
	mult time.Duration
}{
	{"wk", 7 * 24 * time.Hour}, {"day", 24 * time.Hour},
	{"hr", time.Hour}, {"min", time.Minute}, {"sec", time.Second},
	{"ms", time.Millisecond}, {"us", time.Microsecond},
}

// FormatDuration returns the canonical duration literal for d, using the
// largest unit that divides it exactly.
func FormatDuration(d time.Duration) string {
	for _, u := range durationUnparseUnits {
		if d != 0 && d%u.mult == 0 {
			return fmt.Sprintf("%d%s", d/u.mult, u.name)
		}
	}
	return fmt.Sprintf("%dns", d.Nanoseconds())
}
