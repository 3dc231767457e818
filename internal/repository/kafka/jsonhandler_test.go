package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

func TestJSONHandler_Decodes(t *testing.T) {
	var got sample
	var gotKey string
	h := JSONHandler(func(_ context.Context, key []byte, s sample) error {
		got = s
		gotKey = string(key)
		return nil
	})

	err := h(context.Background(), []byte("42"), []byte(`{"id":42,"url":"https://example.com"}`))
	require.NoError(t, err)
	assert.Equal(t, sample{ID: 42, URL: "https://example.com"}, got)
	assert.Equal(t, "42", gotKey)
}

func TestJSONHandler_Malformed(t *testing.T) {
	called := false
	h := JSONHandler(func(context.Context, []byte, sample) error {
		called = true
		return nil
	})

	err := h(context.Background(), nil, []byte(`{not json`))
	assert.ErrorIs(t, err, ErrMalformed)
	assert.False(t, called)
}

func TestHeaderCarriers_RoundTrip(t *testing.T) {
	out := mapCarrierHeaders{}
	out.Set("traceparent", "00-abc-def-01")
	in := mapCarrierFromKafka(out.ToKafka())

	assert.Equal(t, "00-abc-def-01", in.Get("traceparent"))
	assert.Equal(t, "", in.Get("missing"))
	assert.ElementsMatch(t, []string{"traceparent"}, in.Keys())
}

func TestKeyFromInt64(t *testing.T) {
	assert.Equal(t, []byte("17"), KeyFromInt64(17))
}
