package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/avollmer/agentgate/internal/logging"
)

// AgentAction captures one delegated action performed on behalf of an agent.
// It is the unit of the audit trail for both HTTP endpoints and MCP tools.
type AgentAction struct {
	// Tool or endpoint that carried the action.
	Tool string

	// AgentID the action was delegated for.
	AgentID string

	// Target Google service and operation.
	ServiceName string
	Operation   string

	// Execution details.
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	// Tracing context.
	TraceID string
	SpanID  string
}

// Status returns "success" or "error" based on the Success field.
func (aa *AgentAction) Status() string {
	if aa.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes with the agent identifier anonymized.
func (aa *AgentAction) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", aa.Tool),
		slog.String("agent", logging.AnonymizeAgent(aa.AgentID)),
		slog.Duration("duration", aa.Duration),
		slog.Bool("success", aa.Success),
	}

	if aa.ServiceName != "" {
		attrs = append(attrs, slog.String("service", aa.ServiceName))
	}
	if aa.Operation != "" {
		attrs = append(attrs, slog.String("operation", aa.Operation))
	}
	if aa.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", aa.TraceID))
	}
	if aa.Error != "" {
		attrs = append(attrs, slog.String("error", aa.Error))
	}

	return attrs
}

// LogAuditAttrs returns slog attributes including the raw agent identifier.
// Route these logs to storage with appropriate access controls.
func (aa *AgentAction) LogAuditAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", aa.Tool),
		slog.String("agent_id", aa.AgentID),
		slog.Duration("duration", aa.Duration),
		slog.Bool("success", aa.Success),
	}

	if aa.ServiceName != "" {
		attrs = append(attrs, slog.String("service", aa.ServiceName))
	}
	if aa.Operation != "" {
		attrs = append(attrs, slog.String("operation", aa.Operation))
	}
	if aa.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", aa.TraceID))
	}
	if aa.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", aa.SpanID))
	}
	if aa.Error != "" {
		attrs = append(attrs, slog.String("error", aa.Error))
	}

	return attrs
}

// NewAgentAction creates a new AgentAction with timing started.
// Call Complete when the action finishes.
func NewAgentAction(tool, agentID string) *AgentAction {
	return &AgentAction{
		Tool:      tool,
		AgentID:   agentID,
		StartTime: time.Now(),
	}
}

// WithService sets the Google service and operation.
func (aa *AgentAction) WithService(serviceName, operation string) *AgentAction {
	aa.ServiceName = serviceName
	aa.Operation = operation
	return aa
}

// WithSpanContext extracts trace context from the current span.
func (aa *AgentAction) WithSpanContext(ctx context.Context) *AgentAction {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		aa.TraceID = span.SpanContext().TraceID().String()
		aa.SpanID = span.SpanContext().SpanID().String()
	}
	return aa
}

// Complete marks the action as finished and records its duration.
func (aa *AgentAction) Complete(success bool, err error) *AgentAction {
	aa.Duration = time.Since(aa.StartTime)
	aa.Success = success
	if err != nil {
		aa.Error = err.Error()
	}
	return aa
}

// AuditLogger writes the agent action audit trail via slog.
type AuditLogger struct {
	logger         *slog.Logger
	includeAgentID bool
	enabled        bool
}

// NewAuditLogger creates an AuditLogger with the given configuration.
// A nil logger falls back to slog.Default.
func NewAuditLogger(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:         logger,
		includeAgentID: config.IncludeAgentID,
		enabled:        config.Enabled,
	}
}

// LogAction logs one completed agent action. Raw agent identifiers are only
// included when the logger is configured with IncludeAgentID.
func (al *AuditLogger) LogAction(aa *AgentAction) {
	if !al.enabled {
		return
	}

	var attrs []slog.Attr
	if al.includeAgentID {
		attrs = aa.LogAuditAttrs()
	} else {
		attrs = aa.LogAttrs()
	}

	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if aa.Success {
		al.logger.Info("agent_action", args...)
	} else {
		al.logger.Warn("agent_action_failed", args...)
	}
}
