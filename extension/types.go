package extension

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/viant/x"
)

// Types maps action types to registered Go payload types. The embedded
// x.Registry keeps reflection metadata addressable by type name as well.
type Types struct {
	registry *x.Registry
	byAction map[string]*x.Type
	mux      sync.RWMutex
}

// NewTypes creates an empty registry.
func NewTypes() *Types {
	return &Types{
		registry: x.NewRegistry(),
		byAction: make(map[string]*x.Type),
	}
}

// Register binds an action type to a payload Go type. The payload type must
// be a struct or pointer to struct.
func (t *Types) Register(actionType string, payload interface{}) error {
	rType := reflect.TypeOf(payload)
	if rType == nil {
		return fmt.Errorf("extension: nil payload type for %s", actionType)
	}
	if rType.Kind() == reflect.Ptr {
		rType = rType.Elem()
	}
	if rType.Kind() != reflect.Struct {
		return fmt.Errorf("extension: payload type for %s must be a struct, got %s", actionType, rType.Kind())
	}
	xType := x.NewType(rType)
	t.mux.Lock()
	defer t.mux.Unlock()
	t.registry.Register(xType)
	t.byAction[strings.ToLower(actionType)] = xType
	return nil
}

// Lookup returns the payload type bound to an action type, nil when none.
func (t *Types) Lookup(actionType string) *x.Type {
	t.mux.RLock()
	defer t.mux.RUnlock()
	return t.byAction[strings.ToLower(actionType)]
}

// Validate checks a payload map against the registered type for the action.
// Unknown fields and mistyped values are rejected; action types without a
// registered schema always pass.
func (t *Types) Validate(actionType string, payload map[string]interface{}) error {
	xType := t.Lookup(actionType)
	if xType == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("extension: invalid payload for %s: %w", actionType, err)
	}
	target := reflect.New(xType.Type).Interface()
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("extension: payload does not match %s schema: %w", actionType, err)
	}
	return nil
}
