package parse

import (
	"fmt"
	"strings"

	"src.sylph.sh/pkg/diag"
)

// Signature describes the parameters a command accepts. The parser uses it to
// parse the arguments of resolved calls; the evaluator uses it to bind
// arguments to parameters.
type Signature struct {
	Positional []*Param
	Rest       *Param
	Flags      []*Flag
}

// Param is a positional parameter, or the rest parameter.
type Param struct {
	diag.Ranging
	Name string
	// Type is the declared type, or "" for any.
	Type     string
	Optional bool
	// Default is the expression supplying the value of an omitted optional
	// parameter; nil means null.
	Default Expr
}

// Flag is a flag parameter like --all (-a) or --depth: int.
type Flag struct {
	diag.Ranging
	Long  string
	Short string // "" if no short form
	// Type is the declared type of the flag's value; "" and "bool" mean a
	// switch flag that takes no value.
	Type string
}

// Takes reports whether the flag takes a value.
func (f *Flag) Takes() bool {
	return f.Type != "" && f.Type != "bool"
}

// FindFlag finds a flag by its long name or, if the name is a single
// character, by its short form. It returns nil if there is no such flag.
func (s *Signature) FindFlag(name string) *Flag {
	for _, f := range s.Flags {
		if f.Long == name || (f.Short != "" && f.Short == name) {
			return f
		}
	}
	return nil
}

// RequiredArgs returns the number of required positional arguments.
func (s *Signature) RequiredArgs() int {
	n := 0
	for _, p := range s.Positional {
		if !p.Optional {
			n++
		}
	}
	return n
}

// MaxArgs returns the maximum number of positional arguments, or -1 if the
// signature has a rest parameter.
func (s *Signature) MaxArgs() int {
	if s.Rest != nil {
		return -1
	}
	return len(s.Positional)
}

// String renders the signature in the source syntax.
func (s *Signature) String() string {
	var parts []string
	for _, p := range s.Positional {
		parts = append(parts, p.String())
	}
	if s.Rest != nil {
		parts = append(parts, "..."+s.Rest.String())
	}
	for _, f := range s.Flags {
		parts = append(parts, f.String())
	}
	return strings.Join(parts, " ")
}

func (p *Param) String() string {
	name := p.Name
	if p.Optional && p.Default == nil {
		name += "?"
	}
	if p.Type != "" {
		name += ": " + p.Type
	}
	if p.Default != nil {
		name += " = " + UnparseExpr(p.Default)
	}
	return name
}

func (f *Flag) String() string {
	s := "--" + f.Long
	if f.Short != "" {
		s += " (-" + f.Short + ")"
	}
	if f.Takes() {
		s += ": " + f.Type
	}
	return s
}

// MustSignature parses a signature from its source syntax, panicking on a
// malformed signature. It is intended for declaring builtin commands:
//
//	parse.MustSignature("list --reverse (-r) ...rest: string")
func MustSignature(text string) *Signature {
	sig, err := ParseSignature(text)
	if err != nil {
		panic(fmt.Sprintf("bad signature %q: %v", text, err))
	}
	return sig
}

// ParseSignature parses a signature from its source syntax.
func ParseSignature(text string) (*Signature, error) {
	ps := newParser("[signature]", text, nil)
	sig := ps.parseSignatureItems(func(k TokenKind) bool { return k == EOF })
	if err := ps.assembleError(); err != nil {
		return nil, err
	}
	return sig, nil
}
