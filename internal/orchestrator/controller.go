// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"ledger-agent/internal/capability"
	"ledger-agent/internal/firewall"
	"ledger-agent/internal/model/llm"
	"ledger-agent/internal/runtime/events"
	"ledger-agent/internal/runtime/session"
	"ledger-agent/pkg/log"
	"ledger-agent/pkg/metrics"
	"ledger-agent/pkg/tracing"
)

// Config 控制器配置；零值字段取默认
type Config struct {
	MaxProposals         int           // 单 Run 提案上限，默认 16
	MaxValidationRetries int           // 校验纠正预算，默认 3
	LoopThreshold        int           // 循环阈值，默认 2
	RunTimeout           time.Duration // 单 Run 墙钟上限，默认 2m
	ReasoningTimeout     time.Duration // 单次推理超时，默认 60s
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.MaxProposals <= 0 {
		out.MaxProposals = 16
	}
	if out.MaxValidationRetries <= 0 {
		out.MaxValidationRetries = 3
	}
	if out.RunTimeout <= 0 {
		out.RunTimeout = 2 * time.Minute
	}
	if out.ReasoningTimeout <= 0 {
		out.ReasoningTimeout = 60 * time.Second
	}
	return out
}

// errCanceledByUser 取消原因哨兵，经 context.Cause 识别
var errCanceledByUser = errors.New("canceled by user")

// Controller 顺序执行控制器：单提案状态机。
// 状态环 Reasoning → AwaitingValidation → Executing → Observing → Reasoning，
// 终态 Completed / Aborted。任意时刻至多一个工具调用在途。
type Controller struct {
	client  llm.Client
	caps    *capability.Registry
	invoker *Invoker
	bus     *events.Bus
	cfg     Config
	logger  *log.Logger
}

// NewController 创建执行控制器
func NewController(client llm.Client, caps *capability.Registry, invoker *Invoker, bus *events.Bus, cfg Config, logger *log.Logger) *Controller {
	if logger == nil {
		logger, _ = log.NewLogger(nil)
	}
	return &Controller{
		client:  client,
		caps:    caps,
		invoker: invoker,
		bus:     bus,
		cfg:     cfg.withDefaults(),
		logger:  logger.Component("controller"),
	}
}

// Run 在已绑定角色的会话上执行一个编排 Run。
// 会话历史（含本条用户消息）必须已写入 sess。
// 返回 RunResult；终止时 error 为 *RunError。
func (c *Controller) Run(ctx context.Context, sess *session.Session, role capability.RoleID) (*RunResult, error) {
	cfg := c.cfg
	start := time.Now()
	result := &RunResult{SessionID: sess.ID, Started: start}

	// 提交端可能已同步占锁（TryBeginRun(nil)），此时只补挂取消函数；
	// 否则在此占锁。
	runCtx, cancelRun := context.WithCancelCause(ctx)
	defer cancelRun(nil)
	if !sess.AttachCancel(cancelRun) {
		if err := sess.TryBeginRun(cancelRun); err != nil {
			return nil, err
		}
	}
	defer func() {
		sess.EndRun()
		result.Finished = time.Now()
		metrics.RunDuration.WithLabelValues(string(role)).Observe(result.Finished.Sub(start).Seconds())
		outcome := "completed"
		if result.State != StateCompleted {
			outcome = "aborted"
		}
		metrics.RunTotal.WithLabelValues(string(role), outcome).Inc()
	}()

	roleSpec, ok := c.caps.Role(role)
	if !ok {
		return nil, fmt.Errorf("unknown role %q", role)
	}

	runCtx, span := tracing.StartSpan(runCtx, "orchestrator.run",
		attribute.String("role", string(role)), attribute.String("session", sess.ID))
	defer span.End()

	deadlineCtx, cancelDeadline := context.WithDeadline(runCtx, start.Add(cfg.RunTimeout))
	defer cancelDeadline()

	c.publish(sess.ID, events.KindRunStarted, map[string]any{"role": string(role)})

	// 推理输入：角色前导 + 会话历史，Run 过程中就地增长
	messages := []*schema.Message{{Role: schema.System, Content: roleSpec.Preamble}}
	messages = append(messages, session.MessagesToSchema(sess.CopyMessages())...)

	toolInfos := make([]*schema.ToolInfo, 0, len(roleSpec.Operations))
	for _, op := range roleSpec.Operations {
		toolInfos = append(toolInfos, llm.ToolInfo(op.Name, op.Description, op.Schema))
	}

	detector := NewLoopDetector(cfg.LoopThreshold)
	retriesLeft := cfg.MaxValidationRetries

	for {
		// ---- Reasoning ----
		c.setState(sess.ID, StateReasoning)
		reply, abort := c.reason(deadlineCtx, messages, toolInfos)
		if abort != nil {
			return c.abort(sess, result, abort)
		}
		messages = append(messages, reply)

		if len(reply.ToolCalls) == 0 {
			// 无提案即最终应答
			response := StripThinkingTags(reply.Content)
			sess.AddMessage(string(schema.Assistant), response)
			result.Response = response
			result.State = StateCompleted
			c.publish(sess.ID, events.KindResponseReady, map[string]any{"response": response})
			c.publish(sess.ID, events.KindRunTerminated, map[string]any{"state": string(StateCompleted)})
			return result, nil
		}

		// 多提案：只取第一个，其余丢弃并记录
		proposal, discarded := c.takeProposal(sess.ID, reply.ToolCalls, result)
		for _, d := range discarded {
			messages = append(messages, toolMessage(d, "discarded: only one action may execute per step"))
		}

		if proposal == nil {
			// 参数不是合法 JSON：作为纠正回喂，消耗纠正预算
			retriesLeft--
			if retriesLeft < 0 {
				return c.abort(sess, result, &RunError{
					Reason: ReasonValidationRejected,
					Err:    errors.New("correction budget exhausted on malformed arguments"),
				})
			}
			messages = append(messages, toolMessage(reply.ToolCalls[0].ID,
				"The tool call arguments were not valid JSON. Emit a single tool call with a JSON object of arguments."))
			c.publish(sess.ID, events.KindCorrectionIssued, map[string]any{"reason": "malformed_arguments"})
			continue
		}
		result.Proposals++
		if result.Proposals > cfg.MaxProposals {
			return c.abort(sess, result, &RunError{
				Reason: ReasonRunBudgetExceeded,
				Err:    fmt.Errorf("proposal budget %d exhausted", cfg.MaxProposals),
			})
		}

		// 循环检测在校验与执行之前
		if detector.Observe(proposal.Operation, proposal.Arguments) == VerdictTerminate {
			metrics.LoopDetectedTotal.WithLabelValues(proposal.Operation).Inc()
			return c.abort(sess, result, &RunError{
				Reason: ReasonLoopDetected,
				Err:    fmt.Errorf("operation %s repeated beyond threshold", proposal.Operation),
			})
		}

		// 角色能力闸：不在绑定角色操作集内的提案一律不校验不执行
		if !c.caps.Allowed(role, proposal.Operation) {
			retriesLeft--
			if retriesLeft < 0 {
				return c.abort(sess, result, &RunError{
					Reason: ReasonValidationRejected,
					Err:    fmt.Errorf("operation %s is outside the %s role and correction budget is exhausted", proposal.Operation, role),
				})
			}
			messages = append(messages, toolMessage(proposal.ID,
				fmt.Sprintf("Operation %q is not available in this conversation. Use only the provided tools.", proposal.Operation)))
			c.publish(sess.ID, events.KindCorrectionIssued, map[string]any{
				"operation": proposal.Operation, "reason": "operation_not_allowed",
			})
			continue
		}

		// ---- AwaitingValidation（仅写入类操作） ----
		if c.invoker.Mutating(proposal.Operation) {
			c.setState(sess.ID, StateAwaitingValidation)
			if canceled := contextCanceled(deadlineCtx); canceled != nil {
				return c.abort(sess, result, canceled)
			}
			opSchema, _ := c.invoker.Schema(proposal.Operation)
			verdict := firewall.Validate(proposal.Operation, opSchema, proposal.Arguments)
			if !verdict.OK {
				metrics.ValidationRejectTotal.WithLabelValues(proposal.Operation).Inc()
				c.publish(sess.ID, events.KindValidationRejected, map[string]any{
					"operation":  proposal.Operation,
					"violations": verdict.Violations,
				})
				retriesLeft--
				if retriesLeft < 0 {
					return c.abort(sess, result, &RunError{
						Reason: ReasonValidationRejected,
						Err:    fmt.Errorf("operation %s rejected and correction budget exhausted", proposal.Operation),
					})
				}
				messages = append(messages, toolMessage(proposal.ID, verdict.Feedback()))
				c.publish(sess.ID, events.KindCorrectionIssued, map[string]any{"operation": proposal.Operation})
				continue
			}
		}

		if canceled := contextCanceled(deadlineCtx); canceled != nil {
			return c.abort(sess, result, canceled)
		}

		// ---- Executing ----
		// 取消与墙钟都不打断在途调用：结果未知比半途而废更危险。
		// 调用完成后再统一结账。
		c.setState(sess.ID, StateExecuting)
		c.publish(sess.ID, events.KindToolStarted, map[string]any{
			"operation": proposal.Operation, "seq": proposal.Seq,
		})
		execCtx := context.WithoutCancel(deadlineCtx)
		res, invErr := c.invoker.Invoke(execCtx, *proposal)

		mutating := c.invoker.Mutating(proposal.Operation)
		if invErr != nil {
			var ie *InvokeError
			if errors.As(invErr, &ie) && ie.Kind == InvokeTimeout {
				runErr := &RunError{Reason: ReasonToolExecutionTimeout, Err: invErr}
				if mutating {
					result.SideEffect = fmt.Sprintf("operation %s timed out; the ledger write may or may not have been applied", proposal.Operation)
				}
				return c.abort(sess, result, runErr)
			}
			return c.abort(sess, result, &RunError{Reason: ReasonToolExecutionFailed, Err: invErr})
		}

		// ---- Observing ----
		c.setState(sess.ID, StateObserving)
		sess.AddObservation(proposal.Operation, proposal.Arguments, res.Content, res.Err)
		c.publish(sess.ID, events.KindToolCompleted, map[string]any{
			"operation": proposal.Operation, "seq": proposal.Seq, "error": res.Err,
		})

		observation := res.Content
		if res.Err != "" {
			observation = "Error: " + res.Err
		}
		messages = append(messages, toolMessage(proposal.ID, observation))

		// 写入已完成后再结账取消：副作用必须如实上报
		if canceled := contextCanceled(deadlineCtx); canceled != nil {
			if mutating && res.Err == "" {
				result.SideEffect = fmt.Sprintf("operation %s completed before cancellation took effect", proposal.Operation)
			}
			return c.abort(sess, result, canceled)
		}
	}
}

// reason 一次推理调用，带单独超时；返回终止错误时 Run 结束
func (c *Controller) reason(ctx context.Context, messages []*schema.Message, tools []*schema.ToolInfo) (*schema.Message, *RunError) {
	reasonCtx, cancel := context.WithTimeout(ctx, c.cfg.ReasoningTimeout)
	defer cancel()
	reply, err := c.client.ChatWithTools(reasonCtx, messages, tools)
	if err != nil {
		if canceled := contextCanceled(ctx); canceled != nil {
			return nil, canceled
		}
		return nil, &RunError{Reason: ReasonReasoningUnavailable, Err: err}
	}
	return reply, nil
}

// takeProposal 从响应取首个提案；参数解析失败返回 nil
func (c *Controller) takeProposal(sessionID string, calls []schema.ToolCall, result *RunResult) (*Proposal, []string) {
	var discarded []string
	for _, d := range calls[1:] {
		discarded = append(discarded, d.ID)
		c.publish(sessionID, events.KindProposalDiscarded, map[string]any{
			"operation": d.Function.Name,
		})
	}

	first := calls[0]
	var args map[string]any
	if first.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(first.Function.Arguments), &args); err != nil {
			c.logger.Warn("提案参数解析失败", "operation", first.Function.Name, "error", err)
			return nil, discarded
		}
	}
	if args == nil {
		args = map[string]any{}
	}
	id := first.ID
	if id == "" {
		id = uuid.New().String()
	}
	return &Proposal{
		ID:        id,
		Operation: first.Function.Name,
		Arguments: args,
		Seq:       result.Proposals + 1,
	}, discarded
}

// abort 统一终止路径：终态事件永远最后一条
func (c *Controller) abort(sess *session.Session, result *RunResult, runErr *RunError) (*RunResult, error) {
	result.State = StateAborted
	c.logger.Warn("Run 终止", "session", sess.ID, "reason", string(runErr.Reason), "error", runErr.Error())
	payload := map[string]any{
		"state":  string(StateAborted),
		"reason": string(runErr.Reason),
	}
	if result.SideEffect != "" {
		payload["side_effect"] = result.SideEffect
	}
	c.publish(sess.ID, events.KindRunTerminated, payload)
	return result, runErr
}

// contextCanceled 判定 ctx 终止原因：用户取消或墙钟耗尽
func contextCanceled(ctx context.Context) *RunError {
	if ctx.Err() == nil {
		return nil
	}
	cause := context.Cause(ctx)
	if errors.Is(cause, errCanceledByUser) {
		return &RunError{Reason: ReasonCanceled, Err: cause}
	}
	return &RunError{Reason: ReasonRunBudgetExceeded, Err: cause}
}

// CancelCause 提交取消请求时使用的原因
func CancelCause() error { return errCanceledByUser }

func (c *Controller) setState(sessionID string, st State) {
	c.publish(sessionID, events.KindStateChanged, map[string]any{"state": string(st)})
}

func (c *Controller) publish(sessionID string, kind events.Kind, payload map[string]any) {
	if c.bus != nil {
		c.bus.Publish(sessionID, kind, payload)
	}
}

// toolMessage 构造工具响应消息
func toolMessage(callID, content string) *schema.Message {
	return &schema.Message{Role: schema.Tool, ToolCallID: callID, Content: content}
}
