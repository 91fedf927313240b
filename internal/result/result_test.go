package result

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type customErr struct{}

func (customErr) Error() string { return "custom" }

func TestFrom(t *testing.T) {
	assert.Nil(t, From(nil))

	orig := WithRaw(TypeJSONDecode, "bad json", "not json")
	wrapped := fmt.Errorf("normalize: %w", orig)
	assert.Same(t, orig, From(wrapped))

	re := From(&customErr{})
	assert.Equal(t, "customErr", re.Type)
	assert.Equal(t, "custom", re.Message)

	plain := From(errors.New("boom"))
	assert.Equal(t, "errorString", plain.Type)
	assert.ErrorIs(t, plain, errors.Unwrap(plain))
}

func TestErrorJSON(t *testing.T) {
	e := &Error{Message: "rate limited", Type: TypeTransport, Retried: 3}
	assert.JSONEq(t, `{"error":"rate limited","error_type":"TransportError","retried":3}`, e.JSON())
	assert.Contains(t, e.Error(), "after 3 retries")

	e = WithRaw(TypeInvalidStructure, "missing keys", "{}")
	assert.JSONEq(t, `{"error":"missing keys","error_type":"InvalidStructure","raw_response":"{}"}`, e.JSON())
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("configure: %w", New(TypeKey, "GOOGLE_API_KEY is not set"))
	require.Error(t, err)
	assert.True(t, Is(err, TypeKey))
	assert.False(t, Is(err, TypeValue))
	assert.False(t, Is(errors.New("x"), TypeKey))
}
