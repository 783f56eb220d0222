// Copyright 2026 fanjia1024
// Tests for the chat submission service

package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-agent/internal/capability"
	"ledger-agent/internal/document"
	"ledger-agent/internal/ledger"
	"ledger-agent/internal/model/llm"
	"ledger-agent/internal/orchestrator"
	"ledger-agent/internal/runtime/events"
	"ledger-agent/internal/runtime/session"
	"ledger-agent/internal/tool/builtin"
	"ledger-agent/internal/tool/registry"
	pkgerrors "ledger-agent/pkg/errors"
)

// scriptedLLM 固定应答的推理客户端：Chat 回路由词，ChatWithTools 直接作答
type scriptedLLM struct {
	routing     string
	classifyErr error
}

func (c *scriptedLLM) Chat(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
	if c.classifyErr != nil {
		return nil, c.classifyErr
	}
	return &schema.Message{Role: schema.Assistant, Content: c.routing}, nil
}

func (c *scriptedLLM) ChatWithTools(ctx context.Context, messages []*schema.Message, tools []*schema.ToolInfo) (*schema.Message, error) {
	return &schema.Message{Role: schema.Assistant, Content: "All done."}, nil
}

func (c *scriptedLLM) Model() string    { return "scripted" }
func (c *scriptedLLM) Provider() string { return "test" }

func newTestService(t *testing.T, client llm.Client) (*ChatService, *events.Bus) {
	t.Helper()
	lc, err := ledger.NewClient(ledger.Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, nil)
	require.NoError(t, err)
	reg := registry.New()
	builtin.RegisterBuiltin(reg, lc, builtin.ContextInfo{CompanyName: "Test Co"})
	caps, err := capability.Build(reg)
	require.NoError(t, err)

	bus := events.NewBus(256)
	ctrl := orchestrator.NewController(client, caps, orchestrator.NewInvoker(reg, time.Second), bus, orchestrator.Config{}, nil)
	sup := orchestrator.NewSupervisor(client, "Test Co", nil)
	pipe := document.NewPipeline(document.NewExtractor(nil), document.NewStore(), bus, nil)
	sessions := session.NewManager(session.NewMemoryStore())
	return NewChatService(sessions, sup, ctrl, pipe, bus, nil), bus
}

// drain 收事件直到 run_terminated
func drain(t *testing.T, ch <-chan events.Event) []events.Kind {
	t.Helper()
	var out []events.Kind
	for {
		select {
		case ev := <-ch:
			out = append(out, ev.Kind)
			if ev.Kind == events.KindRunTerminated {
				return out
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("run_terminated not received, got %v", out)
		}
	}
}

// 受理与启动分离：Start 之前订阅，事件流从 run_started 到 run_terminated 一条不丢
func TestSubmit_SubscribeBeforeStartSeesFullStream(t *testing.T) {
	svc, bus := newTestService(t, &scriptedLLM{routing: "DIRECT"})

	sub, err := svc.Submit(context.Background(), "", "hello", nil)
	require.NoError(t, err)

	ch, unsubscribe := bus.Subscribe(sub.Session.ID)
	defer unsubscribe()
	svc.Start(sub)

	got := drain(t, ch)
	require.NotEmpty(t, got)
	assert.Equal(t, events.KindRunStarted, got[0])
	assert.Equal(t, events.KindRunTerminated, got[len(got)-1])
}

// 并发提交由闩锁同步裁决：后到者拿到 ErrRunActive，历史不被污染
func TestSubmit_SecondSubmitRejectedWithCleanHistory(t *testing.T) {
	svc, bus := newTestService(t, &scriptedLLM{routing: "DIRECT"})
	ctx := context.Background()

	sub, err := svc.Submit(ctx, "", "first", nil)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, sub.Session.ID, "second", nil)
	require.ErrorIs(t, err, pkgerrors.ErrRunActive)

	msgs := sub.Session.CopyMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "first", msgs[0].Content)

	ch, unsubscribe := bus.Subscribe(sub.Session.ID)
	defer unsubscribe()
	svc.Start(sub)
	drain(t, ch)

	// 闩锁释放后同一会话可再提交
	require.Eventually(t, func() bool { return !sub.Session.RunActive() },
		time.Second, 10*time.Millisecond)
	sub2, err := svc.Submit(ctx, sub.Session.ID, "third", nil)
	require.NoError(t, err)

	ch2, unsubscribe2 := bus.Subscribe(sub2.Session.ID)
	defer unsubscribe2()
	svc.Start(sub2)
	drain(t, ch2)
}

// 分类失败必须释放闩锁且不写历史，原样重试可成功
func TestSubmit_ClassifyFailureReleasesLatch(t *testing.T) {
	client := &scriptedLLM{routing: "DIRECT", classifyErr: llm.ErrUnavailable}
	svc, bus := newTestService(t, client)
	ctx := context.Background()

	sess, err := svc.Sessions().Create(ctx)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, sess.ID, "hello", nil)
	require.Error(t, err)
	var unavailable *orchestrator.ClassificationUnavailable
	assert.True(t, errors.As(err, &unavailable))

	assert.False(t, sess.RunActive())
	assert.Empty(t, sess.CopyMessages())
	assert.Empty(t, string(sess.BoundRole()))

	client.classifyErr = nil
	sub, err := svc.Submit(ctx, sess.ID, "hello", nil)
	require.NoError(t, err)

	ch, unsubscribe := bus.Subscribe(sess.ID)
	defer unsubscribe()
	svc.Start(sub)
	drain(t, ch)
}
