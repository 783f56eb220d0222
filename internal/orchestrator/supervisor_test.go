// Copyright 2026 fanjia1024
// Tests for the supervisor classifier

package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-agent/internal/capability"
	"ledger-agent/internal/model/llm"
	"ledger-agent/internal/runtime/session"
)

// scriptedClient 按脚本应答的推理客户端
type scriptedClient struct {
	content string
	err     error
}

func (c *scriptedClient) Chat(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &schema.Message{Role: schema.Assistant, Content: c.content}, nil
}

func (c *scriptedClient) ChatWithTools(ctx context.Context, messages []*schema.Message, tools []*schema.ToolInfo) (*schema.Message, error) {
	return c.Chat(ctx, messages)
}

func (c *scriptedClient) Model() string    { return "scripted" }
func (c *scriptedClient) Provider() string { return "test" }

func TestParseRouting(t *testing.T) {
	cases := []struct {
		content string
		want    capability.RoleID
	}{
		{"ENTRY", capability.RoleEntry},
		{"entry", capability.RoleEntry},
		{"DATA.", capability.RoleData},
		{"The answer is REPORT", capability.RoleReport},
		{"Let me think about this.\nTRANSACTION", capability.RoleTransaction},
		{"<think>user wants to create an entry</think>ENTRY", capability.RoleEntry},
		{"reasoning without opening tag</think>\nDOCUMENT", capability.RoleDocument},
		{"I would route this to ENTRY because the user wants to create", capability.RoleEntry},
		{"", capability.RoleConversational},
		{"no routing word at all", capability.RoleConversational},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, parseRouting(tc.content), "content %q", tc.content)
	}
}

func TestClassify_ReasoningOutage(t *testing.T) {
	sup := NewSupervisor(&scriptedClient{err: llm.ErrUnavailable}, "Acme", nil)
	sess := session.New("s1")

	_, err := sup.Classify(context.Background(), sess, "hello")
	require.Error(t, err)
	var unavailable *ClassificationUnavailable
	require.True(t, errors.As(err, &unavailable))
	// 故障不落默认角色，会话保持未绑定
	assert.Equal(t, capability.RoleID(""), sess.BoundRole())
}

func TestClassify_DocumentMarkerOverridesToEntry(t *testing.T) {
	sup := NewSupervisor(&scriptedClient{content: "DIRECT"}, "Acme", nil)
	sess := session.New("s1")

	msg := "Process this receipt.\n\n[Document 1 OCR Text]\nCoffee Shop\nTotal: $4.50"
	role, err := sup.Classify(context.Background(), sess, msg)
	require.NoError(t, err)
	assert.Equal(t, capability.RoleEntry, role)
}

func TestClassify_DocumentMarkerClassifyOnlyStaysDocument(t *testing.T) {
	sup := NewSupervisor(&scriptedClient{content: "DOCUMENT"}, "Acme", nil)
	sess := session.New("s1")

	msg := "What is this?\n\n[Document 1 OCR Text]\nCoffee Shop\nTotal: $4.50"
	role, err := sup.Classify(context.Background(), sess, msg)
	require.NoError(t, err)
	assert.Equal(t, capability.RoleDocument, role)
}

func TestClassify_NoMarkerNoOverride(t *testing.T) {
	sup := NewSupervisor(&scriptedClient{content: "DIRECT"}, "Acme", nil)
	sess := session.New("s1")

	role, err := sup.Classify(context.Background(), sess, "thanks!")
	require.NoError(t, err)
	assert.Equal(t, capability.RoleConversational, role)
}

func TestStripThinkingTags(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"<think>hmm</think>answer", "answer"},
		{"no tags here", "no tags here"},
		{"orphan close</think>  final", "final"},
		{"<think>a</think>mid<think>b</think>end", "end"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StripThinkingTags(tc.in), "input %q", tc.in)
	}
}
