package instrumentation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/avollmer/agentgate/internal/logging"
)

// TracerName is the default tracer name for the agentgate package.
const TracerName = "github.com/avollmer/agentgate"

// Span attribute keys.
const (
	// SpanAttrTool is the MCP tool name attribute.
	SpanAttrTool = "mcp.tool"

	// SpanAttrAgent is the anonymized agent identifier attribute.
	SpanAttrAgent = "agentgate.agent"

	// SpanAttrService is the Google service name attribute.
	SpanAttrService = "google.service"

	// SpanAttrOperation is the operation type attribute.
	SpanAttrOperation = "google.operation"

	// SpanAttrStatus is the operation status attribute.
	SpanAttrStatus = "agentgate.status"

	// SpanAttrResourceID is the resource identifier (message ID, event ID).
	SpanAttrResourceID = "agentgate.resource_id"
)

// AgentAttribute returns the anonymized agent span attribute.
func AgentAttribute(agentID string) attribute.KeyValue {
	return attribute.String(SpanAttrAgent, logging.AnonymizeAgent(agentID))
}

// StartSpan starts a new span with the default tracer.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(TracerName)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartToolSpan starts a span for an MCP tool invocation. The span name is
// "tool.<name>".
func StartToolSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{
		attribute.String(SpanAttrTool, toolName),
	}, attrs...)
	return StartSpan(ctx, "tool."+toolName, allAttrs...)
}

// StartGoogleAPISpan starts a span for a Google API call. The span name is
// "google.<service>.<operation>".
func StartGoogleAPISpan(ctx context.Context, service, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{
		attribute.String(SpanAttrService, service),
		attribute.String(SpanAttrOperation, operation),
	}, attrs...)
	return StartSpan(ctx, fmt.Sprintf("google.%s.%s", service, operation), allAttrs...)
}

// SetSpanError records an error on the span and sets its status.
func SetSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String(SpanAttrStatus, StatusError))
}

// SetSpanSuccess marks the span as successful.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
	span.SetAttributes(attribute.String(SpanAttrStatus, StatusSuccess))
}

// GetTraceID extracts the trace ID from the current span in context.
// Returns empty string if no valid span is present.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return ""
	}
	return span.SpanContext().TraceID().String()
}

// GetSpanID extracts the span ID from the current span in context.
// Returns empty string if no valid span is present.
func GetSpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return ""
	}
	return span.SpanContext().SpanID().String()
}
