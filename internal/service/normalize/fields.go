package normalize

import (
	"encoding/json"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/jmespath/go-jmespath"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// pathCache keeps compiled JMESPath expressions for dotted field paths.
type pathCache struct {
	mu       sync.RWMutex
	compiled map[string]*jmespath.JMESPath
}

var paths = &pathCache{compiled: make(map[string]*jmespath.JMESPath)}

func (c *pathCache) get(path string) (*jmespath.JMESPath, error) {
	c.mu.RLock()
	expr, ok := c.compiled[path]
	c.mu.RUnlock()
	if ok {
		return expr, nil
	}

	expr, err := jmespath.Compile(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.compiled[path] = expr
	c.mu.Unlock()
	return expr, nil
}

// Lookup resolves a field path such as "metrics.name" against a document.
// Missing segments and non-object intermediates resolve to nil.
func Lookup(doc map[string]interface{}, path string) interface{} {
	if doc == nil {
		return nil
	}
	if !strings.Contains(path, ".") {
		return doc[path]
	}

	expr, err := paths.get(path)
	if err != nil {
		return nil
	}
	v, err := expr.Search(doc)
	if err != nil {
		return nil
	}
	return v
}

// String accepts non-blank strings and non-zero ObjectIDs.
func String(v interface{}) (string, bool) {
	switch x := v.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return "", false
		}
		return x, true
	case primitive.ObjectID:
		if x.IsZero() {
			return "", false
		}
		return x.Hex(), true
	}
	return "", false
}

// Number accepts finite numeric values only. Numeric strings are rejected.
func Number(v interface{}) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

var (
	truthy = map[string]bool{"true": true, "yes": true, "y": true, "on": true, "1": true}
	falsy  = map[string]bool{"false": true, "no": true, "n": true, "off": true, "0": true}
)

// Bool accepts a strict boolean or one of the documented string synonyms.
func Bool(v interface{}) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		if truthy[s] {
			return true, true
		}
		if falsy[s] {
			return false, true
		}
	}
	return false, false
}

// Strings decodes a list of strings, skipping entries that are not strings.
func Strings(v interface{}) []string {
	var out []string
	switch x := v.(type) {
	case []string:
		for _, s := range x {
			if str, ok := String(s); ok {
				out = append(out, str)
			}
		}
	case []interface{}:
		for _, item := range x {
			if str, ok := String(item); ok {
				out = append(out, str)
			}
		}
	}
	return out
}

// FirstString returns the first present string along the chain, or "".
func FirstString(doc map[string]interface{}, chain ...string) string {
	for _, p := range chain {
		if s, ok := String(Lookup(doc, p)); ok {
			return s
		}
	}
	return ""
}

func FirstNumber(doc map[string]interface{}, chain ...string) *float64 {
	for _, p := range chain {
		if f, ok := Number(Lookup(doc, p)); ok {
			return &f
		}
	}
	return nil
}

func FirstBool(doc map[string]interface{}, chain ...string) *bool {
	for _, p := range chain {
		if b, ok := Bool(Lookup(doc, p)); ok {
			return &b
		}
	}
	return nil
}

// FirstTime returns the first field along the chain that normalizes to an instant.
func FirstTime(doc map[string]interface{}, loc *time.Location, chain ...string) *time.Time {
	for _, p := range chain {
		if t, ok := TimestampIn(Lookup(doc, p), loc); ok {
			return &t
		}
	}
	return nil
}
