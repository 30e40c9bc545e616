package events

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeKeysByOrder(t *testing.T) {
	e := NewOrderEvent(12, ActionStatusChanged, nil, "from", "PLACED", "to", "CONFIRMED")

	msgs, err := Encode(e)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "12", string(msgs[0].Key))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msgs[0].Value, &decoded))
	assert.Equal(t, "order", decoded["entity"])
	assert.Equal(t, "status_changed", decoded["action"])
	assert.Equal(t, "12", decoded["resourceId"])
	assert.Equal(t, map[string]any{"from": "PLACED", "to": "CONFIRMED"}, decoded["metadata"])
}

func TestNewOrderEventIgnoresDanglingKey(t *testing.T) {
	e := NewOrderEvent(1, ActionCreated, nil, "restaurant_id", "4", "orphan")
	assert.Equal(t, map[string]string{"restaurant_id": "4"}, e.Metadata)
}

func TestLogPublisherWritesEvent(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(zerolog.New(&buf))

	require.NoError(t, p.Publish(context.Background(), NewOrderEvent(3, ActionCreated, nil)))
	assert.Contains(t, buf.String(), `"action":"created"`)
	assert.Contains(t, buf.String(), `"resource_id":"3"`)
}
