package criteria

import (
	"github.com/viant/agentspace/service/dao"
)

// Match reports whether a named field value satisfies the corresponding
// list parameter, if present. Parameters with other names are ignored.
func Match(name, value string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil || parameter.Name != name {
			continue
		}
		switch actual := parameter.Value.(type) {
		case string:
			return value == actual
		case []string:
			for _, s := range actual {
				if value == s {
					return true
				}
			}
			return false
		}
	}
	return true
}

// Value returns the string value of a named parameter, empty when absent.
func Value(name string, parameters []*dao.Parameter) string {
	for _, parameter := range parameters {
		if parameter == nil || parameter.Name != name {
			continue
		}
		if s, ok := parameter.Value.(string); ok {
			return s
		}
	}
	return ""
}
