// Copyright 2026 fanjia1024
// Tests for the SSE encoder

package http

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEWriter_Format(t *testing.T) {
	var buf bytes.Buffer
	w := newSSEWriter(&buf)

	require.NoError(t, w.WriteEvent("state_changed", map[string]any{"state": "executing"}))
	assert.Equal(t, "event: state_changed\ndata: {\"state\":\"executing\"}\n\n", buf.String())
}

func TestSSEWriter_MultipleEvents(t *testing.T) {
	var buf bytes.Buffer
	w := newSSEWriter(&buf)

	require.NoError(t, w.WriteEvent("session", map[string]string{"id": "s1"}))
	require.NoError(t, w.WriteEvent("run_terminated", nil))

	// 事件之间以空行分隔，JSON 保持单行
	assert.Equal(t,
		"event: session\ndata: {\"id\":\"s1\"}\n\nevent: run_terminated\ndata: null\n\n",
		buf.String())
}

func TestSSEWriter_UnmarshalableData(t *testing.T) {
	var buf bytes.Buffer
	w := newSSEWriter(&buf)

	err := w.WriteEvent("bad", map[string]any{"fn": func() {}})
	require.Error(t, err)
	assert.Empty(t, buf.String())
}
