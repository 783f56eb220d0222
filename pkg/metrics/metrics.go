package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// 全局 Registry，供 API 注册与暴露
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		RunDuration, RunTotal,
		ToolDuration, ToolTotal,
		ValidationRejectTotal, LoopDetectedTotal,
		LLMTokensTotal, DocumentStageTotal,
		RateLimitWaitSeconds,
	)
}

// RateLimitWaitSeconds 限流等待耗时（秒）
var RateLimitWaitSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "ledgeragent_rate_limit_wait_seconds",
		Help:    "限流等待耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"resource"},
)

// RunDuration 编排 Run 执行耗时（秒）
var RunDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "ledgeragent_run_duration_seconds",
		Help:    "编排 Run 执行耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"role"},
)

// RunTotal Run 总数（按终态）
var RunTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ledgeragent_run_total",
		Help: "Run 总数（按角色与终态）",
	},
	[]string{"role", "outcome"}, // completed | aborted
)

// ToolDuration 工具调用耗时（秒）
var ToolDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "ledgeragent_tool_duration_seconds",
		Help:    "工具调用耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"tool"},
)

// ToolTotal 工具调用总数（按结果）
var ToolTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ledgeragent_tool_total",
		Help: "工具调用总数（按结果）",
	},
	[]string{"tool", "outcome"}, // ok | error | timeout
)

// ValidationRejectTotal 校验防火墙拒绝总数
var ValidationRejectTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ledgeragent_validation_reject_total",
		Help: "写入前校验拒绝总数",
	},
	[]string{"operation"},
)

// LoopDetectedTotal 循环终止总数
var LoopDetectedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ledgeragent_loop_detected_total",
		Help: "相同 (operation, fingerprint) 超阈值终止的 Run 总数",
	},
	[]string{"operation"},
)

// LLMTokensTotal 推理服务 token 总数
var LLMTokensTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ledgeragent_llm_tokens_total",
		Help: "推理服务 token 总数",
	},
	[]string{"direction"}, // input | output
)

// DocumentStageTotal 文档流水线阶段流转总数
var DocumentStageTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ledgeragent_document_stage_total",
		Help: "文档流水线阶段流转总数",
	},
	[]string{"stage"},
)

// WritePrometheus 将 Prometheus 文本格式写入 w（供 Hertz 复用）
func WritePrometheus(w io.Writer) error {
	metrics, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range metrics {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
