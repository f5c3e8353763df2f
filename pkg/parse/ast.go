package parse

import (
	"time"

	"src.sylph.sh/pkg/diag"
)

// Node is implemented by all AST nodes.
type Node interface {
	diag.Ranger
}

// Stmt is implemented by all statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by all expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Chunk is a sequence of statements: the body of a source file, a block or a
// subexpression.
type Chunk struct {
	diag.Ranging
	Stmts []Stmt
}

// DefStmt declares a command: def name [params] { body }. The declaration is
// registered with the DeclTable while the chunk is parsed, so the body can
// call the command recursively and later statements can call it.
type DefStmt struct {
	diag.Ranging
	Name     string
	NameSpan diag.Ranging
	Sig      *Signature
	Body     *Block
	Exported bool
	// Spec is the declaration bound by the DeclTable.
	Spec CmdSpec
}

// LetStmt binds a value to a variable: let name = pipeline. Rebinding the
// same name shadows the earlier binding.
type LetStmt struct {
	diag.Ranging
	Name     string
	NameSpan diag.Ranging
	RHS      *Pipeline
}

// LetEnvStmt binds an environment variable: let-env NAME = pipeline.
type LetEnvStmt struct {
	diag.Ranging
	Name     string
	NameSpan diag.Ranging
	RHS      *Pipeline
}

// ModuleStmt declares a named module: module name { ... }. Exported
// declarations in the body become the module's content.
type ModuleStmt struct {
	diag.Ranging
	Name     string
	NameSpan diag.Ranging
	Body     *Chunk
}

// UseStmt imports a module's exports as "name export" commands.
type UseStmt struct {
	diag.Ranging
	Name     string
	NameSpan diag.Ranging
}

// OverlayStmt activates or deactivates an overlay built from a module:
// overlay use name, overlay hide name.
type OverlayStmt struct {
	diag.Ranging
	Hide     bool
	Name     string
	NameSpan diag.Ranging
}

// RegisterStmt registers the commands of a plugin binary: register path. The
// plugin's signatures are fetched while parsing; evaluating the statement
// persists the registration.
type RegisterStmt struct {
	diag.Ranging
	Path     string
	PathSpan diag.Ranging
	Commands []NamedSignature
}

// NamedSignature pairs a command name with its signature. It is used for
// plugin command registration.
type NamedSignature struct {
	Name string
	Sig  *Signature
}

// ForStmt is a for loop: for x in expr { body }.
type ForStmt struct {
	diag.Ranging
	VarName string
	VarSpan diag.Ranging
	Iter    Expr
	Body    *Block
}

// WhileStmt is a while loop: while cond { body }.
type WhileStmt struct {
	diag.Ranging
	Cond Expr
	Body *Block
}

// ReturnStmt returns from the enclosing command: return [expr].
type ReturnStmt struct {
	diag.Ranging
	Value Expr // nil for a bare return
}

// BreakStmt terminates the enclosing loop.
type BreakStmt struct {
	diag.Ranging
}

// ContinueStmt skips to the next iteration of the enclosing loop.
type ContinueStmt struct {
	diag.Ranging
}

// Pipeline is a sequence of pipeline elements joined by |. A pipeline is
// itself a statement.
type Pipeline struct {
	diag.Ranging
	Elems []*PipeElem
}

// BadStmt is a placeholder for a statement that failed to parse. The parser
// records an error and resynchronizes at the next statement separator.
type BadStmt struct {
	diag.Ranging
}

func (*DefStmt) stmtNode()      {}
func (*LetStmt) stmtNode()      {}
func (*LetEnvStmt) stmtNode()   {}
func (*ModuleStmt) stmtNode()   {}
func (*UseStmt) stmtNode()      {}
func (*OverlayStmt) stmtNode()  {}
func (*RegisterStmt) stmtNode() {}
func (*ForStmt) stmtNode()      {}
func (*WhileStmt) stmtNode()    {}
func (*ReturnStmt) stmtNode()   {}
func (*BreakStmt) stmtNode()    {}
func (*ContinueStmt) stmtNode() {}
func (*Pipeline) stmtNode()     {}
func (*BadStmt) stmtNode()      {}

// PipeElem is one stage of a pipeline: either a command call or a bare
// expression, with optional redirections.
type PipeElem struct {
	diag.Ranging
	Call   *Call // nil if the element is a bare expression
	Expr   Expr  // nil if the element is a call
	Redirs []*Redir
}

// Call is a command call. The head is resolved against the DeclTable during
// parsing; a head that resolves to nothing is an external command.
type Call struct {
	diag.Ranging
	// Head is the full, possibly multi-word, command name.
	Head     string
	HeadSpan diag.Ranging
	// Spec is the resolved declaration; nil for external commands.
	Spec CmdSpec
	// External marks a call that bypasses declarations, either because the
	// head did not resolve or because it was prefixed with ^.
	External bool
	Args     []Expr
	Flags    []*FlagArg
}

// FlagArg is a flag argument in a call: --name, --name value or -n.
type FlagArg struct {
	diag.Ranging
	// Name is the long name of the flag per the command's signature.
	Name  string
	Value Expr // nil for switch flags
}

// RedirMode identifies what a redirection redirects and how.
type RedirMode int

// Possible values for RedirMode.
const (
	RedirStdout RedirMode = iota
	RedirStderr
	RedirStdoutAppend
	RedirStderrAppend
)

var redirModeNames = [...]string{"o>", "e>", "o>>", "e>>"}

func (m RedirMode) String() string {
	if 0 <= int(m) && int(m) < len(redirModeNames) {
		return redirModeNames[m]
	}
	return "bad RedirMode"
}

// Redir is a file redirection attached to a pipeline element.
type Redir struct {
	diag.Ranging
	Mode   RedirMode
	Target Expr
}

// IntLit is an integer literal.
type IntLit struct {
	diag.Ranging
	Value int64
}

// FloatLit is a float literal.
type FloatLit struct {
	diag.Ranging
	Value float64
}

// StringLit is a quoted string literal.
type StringLit struct {
	diag.Ranging
	Value string
}

// BoolLit is true or false.
type BoolLit struct {
	diag.Ranging
	Value bool
}

// NullLit is the null literal.
type NullLit struct {
	diag.Ranging
}

// FilesizeLit is a filesize literal like 10kb, normalized to bytes.
type FilesizeLit struct {
	diag.Ranging
	Bytes int64
}

// DurationLit is a duration literal like 100ms.
type DurationLit struct {
	diag.Ranging
	Value time.Duration
}

// VarExpr is a variable reference: $name.
type VarExpr struct {
	diag.Ranging
	Name string
}

// ListLit is a list literal: [a b c].
type ListLit struct {
	diag.Ranging
	Elems []Expr
}

// TableLit is a table literal: [[col1 col2]; [v11 v12] [v21 v22]].
type TableLit struct {
	diag.Ranging
	Columns []*StringLit
	Rows    [][]Expr
}

// RecordLit is a record literal: {key: value, ...}.
type RecordLit struct {
	diag.Ranging
	Entries []*RecordEntry
}

// RecordEntry is one key-value pair in a record literal.
type RecordEntry struct {
	diag.Ranging
	Key     string
	KeySpan diag.Ranging
	Value   Expr
}

// ClosureLit is a closure literal: {|params| body} or { body }.
type ClosureLit struct {
	diag.Ranging
	Sig  *Signature
	Body *Block
}

// Block is a brace-delimited body with its own declaration scope. Captures
// lists the free variables of the block, in sorted order; closures snapshot
// them when the closure value is created.
type Block struct {
	diag.Ranging
	Chunk    *Chunk
	Captures []string
}

// SubExpr is a parenthesized chunk in expression position: (pipeline), or
// (stmt; stmt) whose value is that of the last statement.
type SubExpr struct {
	diag.Ranging
	Chunk *Chunk
}

// RangeExpr is a range: a..b, a..<b, a.. or ..b. Nil ends are open.
type RangeExpr struct {
	diag.Ranging
	From      Expr
	To        Expr
	Exclusive bool
}

// UnaryExpr is a unary operation: not x or -x.
type UnaryExpr struct {
	diag.Ranging
	Op      string
	OpSpan  diag.Ranging
	Operand Expr
}

// BinaryExpr is a binary operation.
type BinaryExpr struct {
	diag.Ranging
	Op     string
	OpSpan diag.Ranging
	LHS    Expr
	RHS    Expr
}

// CellPathExpr is a value followed by cell path members: $x.name.0.
type CellPathExpr struct {
	diag.Ranging
	Base Expr
	Path []PathMember
}

// PathMember is one member of a cell path: a record field name or a list
// index.
type PathMember struct {
	diag.Ranging
	Name    string
	Index   int64
	IsIndex bool
}

// InterpExpr is an interpolated string: $"text(expr)text".
type InterpExpr struct {
	diag.Ranging
	Segs []InterpSeg
}

// InterpSeg is one segment of an interpolated string: literal text when Expr
// is nil, an interpolated expression otherwise.
type InterpSeg struct {
	diag.Ranging
	Text string
	Expr Expr
}

// IfExpr is a conditional: if cond { } else if cond { } else { }. It is an
// expression; its value is the value of the taken branch, or null if no
// branch is taken.
type IfExpr struct {
	diag.Ranging
	Cond      Expr
	Then      *Block
	ElseIf    *IfExpr // nil unless an else-if follows
	ElseBlock *Block  // nil unless a final else follows
}

// BadExpr is a placeholder for an expression that failed to parse.
type BadExpr struct {
	diag.Ranging
}

func (*IntLit) exprNode()       {}
func (*FloatLit) exprNode()     {}
func (*StringLit) exprNode()    {}
func (*BoolLit) exprNode()      {}
func (*NullLit) exprNode()      {}
func (*FilesizeLit) exprNode()  {}
func (*DurationLit) exprNode()  {}
func (*VarExpr) exprNode()      {}
func (*ListLit) exprNode()      {}
func (*TableLit) exprNode()     {}
func (*RecordLit) exprNode()    {}
func (*ClosureLit) exprNode()   {}
func (*SubExpr) exprNode()      {}
func (*RangeExpr) exprNode()    {}
func (*UnaryExpr) exprNode()    {}
func (*BinaryExpr) exprNode()   {}
func (*CellPathExpr) exprNode() {}
func (*InterpExpr) exprNode()   {}
func (*IfExpr) exprNode()       {}
func (*BadExpr) exprNode()      {}
