// Copyright 2026 fanjia1024
// Tests for session state and the single-run latch

package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-agent/internal/capability"
	pkgerrors "ledger-agent/pkg/errors"
)

func TestSession_RunLatch(t *testing.T) {
	sess := New("s1")
	assert.False(t, sess.RunActive())

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)
	require.NoError(t, sess.TryBeginRun(cancel))
	assert.True(t, sess.RunActive())

	// 闩锁占用期间第二个 Run 必须原样拿到 ErrRunActive
	err := sess.TryBeginRun(cancel)
	assert.ErrorIs(t, err, pkgerrors.ErrRunActive)

	sess.EndRun()
	assert.False(t, sess.RunActive())
	require.NoError(t, sess.TryBeginRun(cancel))
	sess.EndRun()
	_ = ctx
}

// 提交端以 TryBeginRun(nil) 预占闩锁，控制器用 AttachCancel 补挂取消函数
func TestSession_AttachCancel(t *testing.T) {
	sess := New("s1")
	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	// 闩锁未占用时不能挂
	assert.False(t, sess.AttachCancel(cancel))

	require.NoError(t, sess.TryBeginRun(nil))
	assert.True(t, sess.RunActive())
	// 预占阶段尚无取消函数，取消是空操作
	assert.False(t, sess.CancelRun(errors.New("too early")))

	assert.True(t, sess.AttachCancel(cancel))
	// 已登记取消函数后不能再挂
	assert.False(t, sess.AttachCancel(cancel))

	cause := errors.New("stop")
	assert.True(t, sess.CancelRun(cause))
	<-ctx.Done()
	assert.Equal(t, cause, context.Cause(ctx))
	sess.EndRun()
}

func TestSession_CancelRun(t *testing.T) {
	sess := New("s1")

	// 无 Run 时取消是空操作
	assert.False(t, sess.CancelRun(errors.New("nothing")))

	ctx, cancel := context.WithCancelCause(context.Background())
	require.NoError(t, sess.TryBeginRun(cancel))

	cause := errors.New("user asked to stop")
	assert.True(t, sess.CancelRun(cause))
	<-ctx.Done()
	assert.Equal(t, cause, context.Cause(ctx))

	sess.EndRun()
	assert.False(t, sess.CancelRun(cause))
}

func TestSession_EndRunClearsRole(t *testing.T) {
	sess := New("s1")
	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)
	_ = ctx

	require.NoError(t, sess.TryBeginRun(cancel))
	sess.BindRole(capability.RoleEntry)
	assert.Equal(t, capability.RoleEntry, sess.BoundRole())

	sess.EndRun()
	assert.Equal(t, capability.RoleID(""), sess.BoundRole())
}

func TestSession_AutoID(t *testing.T) {
	a := New("")
	b := New("")
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)

	c := New("session-fixed")
	assert.Equal(t, "session-fixed", c.ID)
}

func TestSession_SnapshotRoundTrip(t *testing.T) {
	sess := New("s1")
	sess.AddMessage("user", "book this receipt")
	sess.AddMessage("assistant", "done")
	sess.AddObservation("create_payment", map[string]any{"amount": 42.5}, `{"success":true}`, "")
	sess.AttachDocument("doc-1")
	sess.BindRole(capability.RoleEntry)

	snap := sess.Snapshot()
	restored := FromSnapshot(snap)

	assert.Equal(t, sess.ID, restored.ID)
	require.Len(t, restored.Messages, 2)
	assert.Equal(t, "book this receipt", restored.Messages[0].Content)
	require.Len(t, restored.ToolCalls, 1)
	assert.Equal(t, "create_payment", restored.ToolCalls[0].Tool)
	assert.Equal(t, []string{"doc-1"}, restored.Documents)
	assert.Equal(t, capability.RoleEntry, restored.BoundRole())

	// 闩锁不持久化
	assert.False(t, restored.RunActive())
}

func TestSession_CopiesAreIsolated(t *testing.T) {
	sess := New("s1")
	sess.AddMessage("user", "hello")

	msgs := sess.CopyMessages()
	msgs[0].Content = "mutated"
	assert.Equal(t, "hello", sess.CopyMessages()[0].Content)

	assert.Nil(t, New("empty").CopyMessages())
	assert.Nil(t, New("empty").CopyToolCalls())
}
