package vals

import (
	"strconv"
	"strings"

	"src.elv.sh/pkg/persistent/hash"
)

// CellPath is a chain of member accessors into records, tables and lists,
// like name.0.field.
type CellPath struct {
	Members []Member
}

// Member is one accessor in a cell path: a field name or a list index.
type Member struct {
	Name    string
	Index   int64
	IsIndex bool
}

// NamedMember makes a field-name member.
func NamedMember(name string) Member { return Member{Name: name} }

// IndexMember makes a list-index member.
func IndexMember(i int64) Member { return Member{Index: i, IsIndex: true} }

// Kind returns "cell-path".
func (CellPath) Kind() string { return "cell-path" }

// Equal compares member by member.
func (p CellPath) Equal(other any) bool {
	q, ok := other.(CellPath)
	if !ok || len(p.Members) != len(q.Members) {
		return false
	}
	for i, m := range p.Members {
		if m != q.Members[i] {
			return false
		}
	}
	return true
}

// Hash returns the hash of the cell path.
func (p CellPath) Hash() uint32 {
	h := hash.DJBInit
	for _, m := range p.Members {
		if m.IsIndex {
			h = hash.DJBCombine(h, hash.UInt64(uint64(m.Index)))
		} else {
			h = hash.DJBCombine(h, hash.String(m.Name))
		}
	}
	return h
}

// Repr returns the cell path in member syntax.
func (p CellPath) Repr(int) string {
	var sb strings.Builder
	for i, m := range p.Members {
		if i > 0 {
			sb.WriteByte('.')
		}
		if m.IsIndex {
			sb.WriteString(strconv.FormatInt(m.Index, 10))
		} else {
			sb.WriteString(reprRecordKey(m.Name))
		}
	}
	return sb.String()
}

// Access follows the cell path into a value. Name members index records;
// applied to a table they project the column, member by member across rows.
func (p CellPath) Access(v any) (any, error) {
	cur := v
	for _, m := range p.Members {
		next, err := accessMember(cur, m)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func accessMember(v any, m Member) (any, error) {
	if m.IsIndex {
		return Index(v, m.Index)
	}
	if IsTable(v) {
		// Column projection: name member against every row.
		col := EmptyList
		var err error
		Iterate(v, func(row any) bool {
			var cell any
			cell, err = Index(row, m.Name)
			if err != nil {
				return false
			}
			col = col.Conj(cell)
			return true
		})
		if err != nil {
			return nil, err
		}
		return col, nil
	}
	return Index(v, m.Name)
}
