package extension

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Urgent  bool   `json:"urgent,omitempty"`
}

func TestRegisterRejectsNonStruct(t *testing.T) {
	types := NewTypes()
	assert.Error(t, types.Register("send_email", nil))
	assert.Error(t, types.Register("send_email", "not a struct"))
	assert.NoError(t, types.Register("send_email", sendEmailPayload{}))
	assert.NoError(t, types.Register("send_email", &sendEmailPayload{}))
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	types := NewTypes()
	require.NoError(t, types.Register("Send_Email", sendEmailPayload{}))
	assert.NotNil(t, types.Lookup("send_email"))
	assert.NotNil(t, types.Lookup("SEND_EMAIL"))
	assert.Nil(t, types.Lookup("other"))
}

func TestValidate(t *testing.T) {
	types := NewTypes()
	require.NoError(t, types.Register("send_email", sendEmailPayload{}))

	assert.NoError(t, types.Validate("send_email", map[string]interface{}{
		"to":      "ops@example.com",
		"subject": "hello",
		"urgent":  true,
	}))

	err := types.Validate("send_email", map[string]interface{}{
		"to":        "ops@example.com",
		"cc_hidden": "x",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")

	err = types.Validate("send_email", map[string]interface{}{"urgent": "yes"})
	assert.Error(t, err)

	// actions without a registered schema always pass
	assert.NoError(t, types.Validate("unregistered", map[string]interface{}{"anything": 1}))
}
