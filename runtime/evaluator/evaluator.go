// Package evaluator resolves condition field paths against the execution
// context and applies the comparison operators supported by step conditions.
package evaluator

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/viant/agentspace/model/graph"
)

// Lookup resolves a dot-notation field path, e.g. "step1.output.count",
// against the supplied variables. It returns the resolved value and whether
// the full path existed.
func Lookup(path string, variables map[string]interface{}) (interface{}, bool) {
	parts := strings.Split(path, ".")
	var current interface{}
	var ok bool

	if current, ok = variables[parts[0]]; !ok {
		return nil, false
	}
	for i := 1; i < len(parts); i++ {
		switch c := current.(type) {
		case map[string]interface{}:
			if current, ok = c[parts[i]]; !ok {
				return nil, false
			}
		default:
			current = getProperty(current, parts[i])
			if current == nil {
				return nil, false
			}
		}
	}
	return current, true
}

// EvaluateCondition applies a single condition against the variables.
// Unknown operators evaluate to an error so misconfigured definitions fail
// loudly rather than silently pass.
func EvaluateCondition(cond *graph.Condition, variables map[string]interface{}) (bool, error) {
	value, found := Lookup(cond.Field, variables)
	switch cond.Operator {
	case graph.OpExists:
		return found, nil
	case graph.OpNotExists:
		return !found, nil
	}
	if !found {
		return false, nil
	}
	switch cond.Operator {
	case graph.OpEquals:
		return equalValues(value, cond.Value), nil
	case graph.OpNotEquals:
		return !equalValues(value, cond.Value), nil
	case graph.OpGreaterThan:
		return compareValues(value, cond.Value) > 0, nil
	case graph.OpGreaterOrEq:
		return compareValues(value, cond.Value) >= 0, nil
	case graph.OpLessThan:
		return compareValues(value, cond.Value) < 0, nil
	case graph.OpLessOrEq:
		return compareValues(value, cond.Value) <= 0, nil
	case graph.OpContains:
		return contains(value, cond.Value), nil
	default:
		return false, fmt.Errorf("unknown condition operator %s", cond.Operator)
	}
}

// EvaluateAll reports whether every condition holds.
func EvaluateAll(conditions []*graph.Condition, variables map[string]interface{}) (bool, error) {
	for _, cond := range conditions {
		ok, err := EvaluateCondition(cond, variables)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func equalValues(x, y interface{}) bool {
	if x == nil || y == nil {
		return x == y
	}
	if isNumeric(x) && isNumeric(y) {
		return toFloat64(x) == toFloat64(y)
	}
	return stringify(x) == stringify(y)
}

func compareValues(x, y interface{}) int {
	if isNumeric(x) && isNumeric(y) {
		xf, yf := toFloat64(x), toFloat64(y)
		if xf < yf {
			return -1
		} else if xf > yf {
			return 1
		}
		return 0
	}
	return strings.Compare(stringify(x), stringify(y))
}

func contains(haystack, needle interface{}) bool {
	switch h := haystack.(type) {
	case string:
		return strings.Contains(h, stringify(needle))
	case []interface{}:
		for _, item := range h {
			if equalValues(item, needle) {
				return true
			}
		}
	case []string:
		target := stringify(needle)
		for _, item := range h {
			if item == target {
				return true
			}
		}
	case map[string]interface{}:
		_, ok := h[stringify(needle)]
		return ok
	}
	return false
}

func isNumeric(v interface{}) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	case string:
		_, err := strconv.ParseFloat(v.(string), 64)
		return err == nil
	}
	return false
}

func toFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	}
	return 0
}

func stringify(val interface{}) string {
	if val == nil {
		return ""
	}
	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.String:
		return v.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// getProperty uses reflection to get a property from a struct or map
func getProperty(obj interface{}, prop string) interface{} {
	if obj == nil {
		return nil
	}
	if mapObj, ok := obj.(map[string]interface{}); ok {
		return mapObj[prop]
	}
	val := reflect.ValueOf(obj)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil
	}
	field := val.FieldByName(prop)
	if !field.IsValid() {
		typ := val.Type()
		for i := 0; i < typ.NumField(); i++ {
			if strings.EqualFold(typ.Field(i).Name, prop) {
				field = val.Field(i)
				break
			}
		}
		if !field.IsValid() {
			return nil
		}
	}
	if !field.CanInterface() {
		return nil
	}
	return field.Interface()
}
