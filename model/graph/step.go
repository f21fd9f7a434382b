package graph

import "time"

type (
	// Step is a single unit of work inside a workflow definition. Steps are
	// held in execution order; OnSuccess/OnFailure override the implicit
	// next-in-list transition.
	Step struct {
		ID         string                 `json:"id" yaml:"id"`
		Name       string                 `json:"name,omitempty" yaml:"name,omitempty"`
		AgentID    string                 `json:"agentId" yaml:"agentId"`
		Action     string                 `json:"action" yaml:"action"`
		Inputs     map[string]interface{} `json:"inputs,omitempty" yaml:"inputs,omitempty"`
		Conditions []*Condition           `json:"conditions,omitempty" yaml:"conditions,omitempty"`
		OnSuccess  string                 `json:"onSuccess,omitempty" yaml:"onSuccess,omitempty"`
		OnFailure  string                 `json:"onFailure,omitempty" yaml:"onFailure,omitempty"`
		// Timeout bounds how long the runner waits for the step, as a
		// duration string. The underlying agent call is not cancelled when
		// the timeout elapses.
		Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
		Retry   *Retry `json:"retry,omitempty" yaml:"retry,omitempty"`
	}

	// Condition gates step execution against the execution context.
	Condition struct {
		Field    string      `json:"field" yaml:"field"`
		Operator string      `json:"operator" yaml:"operator"`
		Value    interface{} `json:"value,omitempty" yaml:"value,omitempty"`
	}

	// Retry strategy for a step. MaxAttempts counts the first attempt,
	// Backoff is a fixed delay between attempts as a duration string.
	Retry struct {
		MaxAttempts int    `json:"maxAttempts,omitempty" yaml:"maxAttempts,omitempty"`
		Backoff     string `json:"backoff,omitempty" yaml:"backoff,omitempty"`
	}
)

// Condition operators.
const (
	OpEquals      = "eq"
	OpNotEquals   = "neq"
	OpGreaterThan = "gt"
	OpGreaterOrEq = "gte"
	OpLessThan    = "lt"
	OpLessOrEq    = "lte"
	OpContains    = "contains"
	OpExists      = "exists"
	OpNotExists   = "not_exists"
)

// NewStep creates a step with the given id bound to an agent action.
func NewStep(id, agentID, action string) *Step {
	return &Step{ID: id, Name: id, AgentID: agentID, Action: action}
}

// WithName sets a display name for the step.
func (s *Step) WithName(name string) *Step {
	s.Name = name
	return s
}

// WithInput adds a named input to the step.
func (s *Step) WithInput(name string, value interface{}) *Step {
	if s.Inputs == nil {
		s.Inputs = make(map[string]interface{})
	}
	s.Inputs[name] = value
	return s
}

// WithCondition adds a gating condition to the step.
func (s *Step) WithCondition(field, operator string, value interface{}) *Step {
	s.Conditions = append(s.Conditions, &Condition{Field: field, Operator: operator, Value: value})
	return s
}

// WithOnSuccess overrides the implicit next-in-list success transition.
func (s *Step) WithOnSuccess(stepID string) *Step {
	s.OnSuccess = stepID
	return s
}

// WithOnFailure sets the failure transition; without it a failed step halts
// the execution.
func (s *Step) WithOnFailure(stepID string) *Step {
	s.OnFailure = stepID
	return s
}

// WithTimeout bounds the wait for the step.
func (s *Step) WithTimeout(timeout time.Duration) *Step {
	s.Timeout = timeout.String()
	return s
}

// WithRetry sets a fixed-backoff retry strategy.
func (s *Step) WithRetry(maxAttempts int, backoff time.Duration) *Step {
	s.Retry = &Retry{MaxAttempts: maxAttempts, Backoff: backoff.String()}
	return s
}

// TimeoutDuration parses Timeout, zero when unset.
func (s *Step) TimeoutDuration() time.Duration {
	if s.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// BackoffDuration parses the retry backoff, zero when unset.
func (r *Retry) BackoffDuration() time.Duration {
	if r == nil || r.Backoff == "" {
		return 0
	}
	d, err := time.ParseDuration(r.Backoff)
	if err != nil {
		return 0
	}
	return d
}

// Attempts normalizes MaxAttempts; a step always runs at least once.
func (r *Retry) Attempts() int {
	if r == nil || r.MaxAttempts < 1 {
		return 1
	}
	return r.MaxAttempts
}

// Clone creates a deep copy of a step.
func (s *Step) Clone() *Step {
	if s == nil {
		return nil
	}
	clone := &Step{
		ID:        s.ID,
		Name:      s.Name,
		AgentID:   s.AgentID,
		Action:    s.Action,
		OnSuccess: s.OnSuccess,
		OnFailure: s.OnFailure,
		Timeout:   s.Timeout,
	}
	if s.Inputs != nil {
		clone.Inputs = make(map[string]interface{}, len(s.Inputs))
		for k, v := range s.Inputs {
			clone.Inputs[k] = v
		}
	}
	if s.Conditions != nil {
		clone.Conditions = make([]*Condition, len(s.Conditions))
		for i, c := range s.Conditions {
			cc := *c
			clone.Conditions[i] = &cc
		}
	}
	if s.Retry != nil {
		retry := *s.Retry
		clone.Retry = &retry
	}
	return clone
}

// CloneSteps deep-copies a step list.
func CloneSteps(steps []*Step) []*Step {
	if steps == nil {
		return nil
	}
	result := make([]*Step, len(steps))
	for i, s := range steps {
		result[i] = s.Clone()
	}
	return result
}
