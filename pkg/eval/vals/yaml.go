package vals

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// FromYAML converts a decoded yaml.Node into a sylph value. Mappings decode
// to records with their key order preserved, which is why this works on the
// node tree instead of a map.
func FromYAML(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return FromYAML(n.Content[0])
	case yaml.ScalarNode:
		return scalarFromYAML(n)
	case yaml.SequenceNode:
		l := EmptyList
		for _, c := range n.Content {
			v, err := FromYAML(c)
			if err != nil {
				return nil, err
			}
			l = l.Conj(v)
		}
		return l, nil
	case yaml.MappingNode:
		r := EmptyRecord
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, err := FromYAML(n.Content[i])
			if err != nil {
				return nil, err
			}
			v, err := FromYAML(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			r = r.Assoc(ToString(k), v)
		}
		return r, nil
	case yaml.AliasNode:
		return FromYAML(n.Alias)
	default:
		return nil, fmt.Errorf("unsupported yaml node kind %v", n.Kind)
	}
}

func scalarFromYAML(n *yaml.Node) (any, error) {
	switch n.Tag {
	case "!!null":
		return nil, nil
	case "!!bool":
		return strconv.ParseBool(n.Value)
	case "!!int":
		return strconv.ParseInt(n.Value, 0, 64)
	case "!!float":
		return strconv.ParseFloat(n.Value, 64)
	default:
		return n.Value, nil
	}
}
