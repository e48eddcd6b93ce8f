package normalize

import "go.mongodb.org/mongo-driver/bson/primitive"

// Plain converts BSON container types into plain maps and slices so that
// path lookups can walk them. Scalars, including native timestamps, are kept.
func Plain(v interface{}) interface{} {
	switch x := v.(type) {
	case primitive.M:
		return plainMap(x)
	case map[string]interface{}:
		return plainMap(x)
	case primitive.D:
		m := make(map[string]interface{}, len(x))
		for _, e := range x {
			m[e.Key] = Plain(e.Value)
		}
		return m
	case primitive.A:
		return plainSlice(x)
	case []interface{}:
		return plainSlice(x)
	}
	return v
}

// PlainMap is Plain for a top-level document.
func PlainMap(m map[string]interface{}) map[string]interface{} {
	return plainMap(m)
}

func plainMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = Plain(v)
	}
	return out
}

func plainSlice(s []interface{}) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = Plain(v)
	}
	return out
}
