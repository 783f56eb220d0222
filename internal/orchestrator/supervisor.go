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
	"fmt"
	"regexp"
	"strings"

	"github.com/cloudwego/eino/schema"

	"ledger-agent/internal/capability"
	"ledger-agent/internal/model/llm"
	"ledger-agent/internal/runtime/session"
	"ledger-agent/pkg/log"
)

// ClassificationUnavailable 监督分类因推理服务故障而失败。
// 区别于"分类不明确"：后者落到默认角色，这里必须把错误交还提交端，
// 会话保持未绑定。
type ClassificationUnavailable struct {
	Err error
}

// Error 实现 error
func (e *ClassificationUnavailable) Error() string {
	return fmt.Sprintf("classification unavailable: %v", e.Err)
}

// Unwrap 支持 errors.Is/As
func (e *ClassificationUnavailable) Unwrap() error { return e.Err }

const supervisorPrompt = `You are a bookkeeping assistant supervisor for %s.

IMPORTANT: Output ONLY one word. No thinking, no explanation, no reasoning. Just the routing word.

FIRST, decide if you can respond DIRECTLY without needing any tools or data lookups:
- Greetings (hi, hello, thanks, bye) -> DIRECT
- General questions about what you can do -> DIRECT
- Simple clarifying questions -> DIRECT
- Follow-up questions about previous actions -> DIRECT
- Anything you can answer from general knowledge -> DIRECT

If you need actual data or actions, route to a specialized agent:
- DATA: Master data queries (accounts, suppliers, customers, employees, bank accounts, tax codes)
- REPORT: Financial reports (balance sheet, P&L, trial balance)
- TRANSACTION: Transaction queries - looking up payments, receipts, invoices, expense claims
- DOCUMENT: ONLY for classifying/extracting data from documents WITHOUT creating entries
- ENTRY: Create/modify entries (expense claims, invoices, payments, journals) - USE THIS when user wants to CREATE something

CRITICAL ROUTING RULES:
1. If the message contains "[Document" and "OCR Text]", documents were uploaded
2. If documents uploaded AND user wants to CREATE an entry -> ENTRY
3. If documents uploaded AND user says "process" or "add" or "record" -> ENTRY
4. If documents uploaded AND user just wants to see/classify -> DOCUMENT
5. Default for uploaded documents: ENTRY

OUTPUT: Respond with ONLY one word: DIRECT, DATA, REPORT, TRANSACTION, DOCUMENT, or ENTRY`

// routingWords 路由词到角色的映射，匹配按此固定顺序
var routingWords = []struct {
	word string
	role capability.RoleID
}{
	{"DIRECT", capability.RoleConversational},
	{"DATA", capability.RoleData},
	{"REPORT", capability.RoleReport},
	{"TRANSACTION", capability.RoleTransaction},
	{"DOCUMENT", capability.RoleDocument},
	{"ENTRY", capability.RoleEntry},
}

// Supervisor 监督分类器：恰好一次推理调用决定工作者角色
type Supervisor struct {
	client  llm.Client
	company string
	logger  *log.Logger
}

// NewSupervisor 创建监督分类器
func NewSupervisor(client llm.Client, company string, logger *log.Logger) *Supervisor {
	if logger == nil {
		logger, _ = log.NewLogger(nil)
	}
	return &Supervisor{client: client, company: company, logger: logger.Component("supervisor")}
}

// Classify 决定处理本条消息的角色。模型输出宽容解析：
// 剥离思考标签后按末词、末行、末尾关键字逐级匹配；
// 全部失败落到 conversational。推理故障返回 ClassificationUnavailable。
func (s *Supervisor) Classify(ctx context.Context, sess *session.Session, userMessage string) (capability.RoleID, error) {
	messages := []*schema.Message{
		{Role: schema.System, Content: fmt.Sprintf(supervisorPrompt, s.company)},
	}
	messages = append(messages, session.MessagesToSchema(sess.CopyMessages())...)
	messages = append(messages, &schema.Message{Role: schema.User, Content: userMessage})

	resp, err := s.client.Chat(ctx, messages)
	if err != nil {
		return "", &ClassificationUnavailable{Err: err}
	}

	role := parseRouting(resp.Content)
	s.logger.Info("分类完成", "session", sess.ID, "role", string(role))

	// 文档标记覆盖：带附件的消息默认进入 entry
	if hasDocumentMarker(userMessage) && (role == capability.RoleConversational || role == capability.RoleDocument) {
		if !wantsClassifyOnly(userMessage) {
			s.logger.Info("检测到文档标记，覆盖路由", "session", sess.ID, "from", string(role), "to", "entry")
			role = capability.RoleEntry
		}
	}
	return role, nil
}

// parseRouting 从模型输出解析路由词
func parseRouting(content string) capability.RoleID {
	cleaned := strings.ToUpper(strings.TrimSpace(StripThinkingTags(content)))
	cleaned = tagResidue.ReplaceAllString(cleaned, "")

	fields := strings.Fields(cleaned)
	if len(fields) > 0 {
		if role, ok := matchWord(strings.Trim(fields[len(fields)-1], ".,!:")); ok {
			return role
		}
	}
	lines := strings.Split(cleaned, "\n")
	if role, ok := matchWord(strings.TrimSpace(lines[len(lines)-1])); ok {
		return role
	}
	for _, rw := range routingWords {
		if strings.HasSuffix(cleaned, rw.word) {
			return rw.role
		}
	}
	// 兜底：取最后出现的关键字
	lastPos := -1
	role := capability.RoleConversational
	for _, rw := range routingWords {
		if pos := strings.LastIndex(cleaned, rw.word); pos > lastPos {
			lastPos = pos
			role = rw.role
		}
	}
	return role
}

func matchWord(w string) (capability.RoleID, bool) {
	for _, rw := range routingWords {
		if w == rw.word {
			return rw.role, true
		}
	}
	return "", false
}

var (
	thinkBlock  = regexp.MustCompile(`(?is)<think>.*?</think>`)
	thinkClose  = regexp.MustCompile(`(?i)</think>`)
	tagResidue  = regexp.MustCompile(`(?i)</?think>`)
	markerOpen  = "[Document"
	markerClose = "OCR Text]"
)

// StripThinkingTags 剥离模型输出中的思考内容：
// 无起始标签时取最后一个 </think> 之后，再移除完整 <think> 块。
func StripThinkingTags(text string) string {
	if text == "" {
		return text
	}
	if thinkClose.MatchString(text) {
		parts := thinkClose.Split(text, -1)
		text = parts[len(parts)-1]
	}
	return strings.TrimSpace(thinkBlock.ReplaceAllString(text, ""))
}

// hasDocumentMarker 消息中是否带文档 OCR 标记
func hasDocumentMarker(msg string) bool {
	return strings.Contains(msg, markerOpen) && strings.Contains(msg, markerClose)
}

// wantsClassifyOnly 用户是否只想查看/识别文档而非入账
func wantsClassifyOnly(msg string) bool {
	lower := strings.ToLower(msg)
	for _, kw := range []string{"what is this", "classify", "identify", "what kind of", "what type of"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
