package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/agentspace/model/graph"
)

func testVariables() map[string]interface{} {
	return map[string]interface{}{
		"trigger": map[string]interface{}{
			"priority": "high",
			"count":    3,
			"tags":     []interface{}{"urgent", "billing"},
		},
		"classify": map[string]interface{}{
			"confidence": 0.82,
		},
	}
}

func TestLookup(t *testing.T) {
	vars := testVariables()

	value, found := Lookup("trigger.priority", vars)
	require.True(t, found)
	assert.Equal(t, "high", value)

	value, found = Lookup("classify.confidence", vars)
	require.True(t, found)
	assert.Equal(t, 0.82, value)

	_, found = Lookup("trigger.missing", vars)
	assert.False(t, found)

	_, found = Lookup("missing", vars)
	assert.False(t, found)
}

func TestEvaluateCondition(t *testing.T) {
	vars := testVariables()
	testCases := []struct {
		description string
		condition   *graph.Condition
		expect      bool
	}{
		{"equals string", &graph.Condition{Field: "trigger.priority", Operator: graph.OpEquals, Value: "high"}, true},
		{"not equals", &graph.Condition{Field: "trigger.priority", Operator: graph.OpNotEquals, Value: "low"}, true},
		{"numeric equals across types", &graph.Condition{Field: "trigger.count", Operator: graph.OpEquals, Value: 3.0}, true},
		{"numeric string comparand", &graph.Condition{Field: "trigger.count", Operator: graph.OpGreaterThan, Value: "2"}, true},
		{"greater or equal", &graph.Condition{Field: "classify.confidence", Operator: graph.OpGreaterOrEq, Value: 0.82}, true},
		{"less than fails", &graph.Condition{Field: "trigger.count", Operator: graph.OpLessThan, Value: 3}, false},
		{"contains in list", &graph.Condition{Field: "trigger.tags", Operator: graph.OpContains, Value: "urgent"}, true},
		{"contains substring", &graph.Condition{Field: "trigger.priority", Operator: graph.OpContains, Value: "hi"}, true},
		{"exists", &graph.Condition{Field: "trigger.priority", Operator: graph.OpExists}, true},
		{"not exists on present field", &graph.Condition{Field: "trigger.priority", Operator: graph.OpNotExists}, false},
		{"not exists on absent field", &graph.Condition{Field: "trigger.absent", Operator: graph.OpNotExists}, true},
		{"absent field with comparison", &graph.Condition{Field: "trigger.absent", Operator: graph.OpEquals, Value: "x"}, false},
	}
	for _, tc := range testCases {
		actual, err := EvaluateCondition(tc.condition, vars)
		require.NoError(t, err, tc.description)
		assert.Equal(t, tc.expect, actual, tc.description)
	}
}

func TestEvaluateConditionUnknownOperator(t *testing.T) {
	_, err := EvaluateCondition(&graph.Condition{Field: "trigger.priority", Operator: "matches", Value: "x"}, testVariables())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown condition operator")
}

func TestEvaluateAll(t *testing.T) {
	vars := testVariables()
	conditions := []*graph.Condition{
		{Field: "trigger.priority", Operator: graph.OpEquals, Value: "high"},
		{Field: "trigger.count", Operator: graph.OpGreaterOrEq, Value: 1},
	}
	ok, err := EvaluateAll(conditions, vars)
	require.NoError(t, err)
	assert.True(t, ok)

	conditions = append(conditions, &graph.Condition{Field: "trigger.priority", Operator: graph.OpEquals, Value: "low"})
	ok, err = EvaluateAll(conditions, vars)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = EvaluateAll(nil, vars)
	require.NoError(t, err)
	assert.True(t, ok)
}
