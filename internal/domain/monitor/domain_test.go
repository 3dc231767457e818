package monitor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Normalize(t *testing.T) {
	assert.Equal(t, StatusUp, Status(" up ").Normalize())
	assert.Equal(t, StatusDown, Status("Down").Normalize())
	assert.Equal(t, Status("maintenance"), Status("maintenance").Normalize())
	assert.True(t, Status("up").Known())
	assert.False(t, Status("").Known())
}

func TestChangeEvent_JSON(t *testing.T) {
	var ev ChangeEvent
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"url":"https://example.com","status":"DOWN","message":"m"}`), &ev))
	assert.Equal(t, ChangeEvent{ID: 1, URL: "https://example.com", Status: StatusDown, Message: "m"}, ev)
}
