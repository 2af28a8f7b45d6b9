package engine

// Clone returns an independent copy of v.
//
// Lists and records are copied recursively, preserving shared and cyclic
// structure within the copy. Scalars are values already. Methods, objects
// and classes are shared references and are never copied.
func Clone(v Value) Value {
	return newCloner().clone(v)
}

type cloner struct {
	lists   map[*List]*List
	records map[*Record]*Record
}

func newCloner() *cloner {
	return &cloner{
		lists:   make(map[*List]*List),
		records: make(map[*Record]*Record),
	}
}

func (c *cloner) clone(v Value) Value {
	switch x := v.(type) {
	case *List:
		if x == nil {
			return x
		}
		if done, ok := c.lists[x]; ok {
			return done
		}
		out := &List{items: make([]Value, len(x.items))}
		c.lists[x] = out
		for i, item := range x.items {
			out.items[i] = c.clone(item)
		}
		return out
	case *Record:
		if x == nil {
			return x
		}
		if done, ok := c.records[x]; ok {
			return done
		}
		out := &Record{
			keys: make([]string, 0, len(x.keys)),
			vals: make(map[string]Value, len(x.keys)),
		}
		c.records[x] = out
		for _, k := range x.keys {
			out.keys = append(out.keys, k)
			out.vals[k] = c.clone(x.vals[k])
		}
		return out
	default:
		return v
	}
}
