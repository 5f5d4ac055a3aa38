package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/calcmcp/calcmcp/internal/core"
	"github.com/calcmcp/calcmcp/internal/telemetry"
)

const tracerName = "github.com/calcmcp/calcmcp/internal/mcp"

// Dispatcher routes JSON-RPC requests to the calculator. It is safe for
// concurrent use; the only state it keeps is the advisory initialized flag.
type Dispatcher struct {
	logger  *slog.Logger
	metrics *telemetry.Metrics
	tracer  trace.Tracer

	lookup  func(name string) (core.Operation, bool)
	catalog func() []Tool

	initialized atomic.Bool
}

// NewDispatcher builds a dispatcher. metrics may be nil.
func NewDispatcher(logger *slog.Logger, metrics *telemetry.Metrics) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer(tracerName),
		lookup:  core.LookupOperation,
		catalog: ToolDefinitions,
	}
}

// Initialized reports whether an initialize request has been served. No
// method is gated on it.
func (d *Dispatcher) Initialized() bool {
	return d.initialized.Load()
}

// Dispatch handles one request and always returns exactly one envelope.
// Failures inside a handler, including panics, become InternalError.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request, shape ResultShape) (resp Response) {
	resp = newResponse(req.ID)
	requestID := uuid.NewString()
	logger := d.logger.With("request_id", requestID, "method", req.Method)

	ctx, span := d.tracer.Start(ctx, "mcp "+methodLabel(req.Method),
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("rpc.system", "jsonrpc"),
			attribute.String("rpc.method", req.Method),
			attribute.String("mcp.request_id", requestID),
		),
	)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic handling request", "panic", r)
			resp.Result = nil
			resp.Error = InternalError(fmt.Sprint(r))
		}

		outcome := "ok"
		if resp.Error != nil {
			outcome = rpcOutcome(resp.Error.Code)
			span.SetStatus(codes.Error, resp.Error.Message)
			logger.Warn("request failed", "code", resp.Error.Code, "data", resp.Error.Data)
		}
		span.SetAttributes(attribute.String("mcp.outcome", outcome))
		span.End()

		d.metrics.IncRequest(methodLabel(req.Method), outcome)
		logger.Debug("request handled", "outcome", outcome, "duration", time.Since(start).String())
	}()

	logger.Info("handling request")
	logger.Debug("request params", "params", string(req.Params))

	result, rpcErr := d.handle(ctx, logger, req, shape)
	if rpcErr != nil {
		resp.Error = rpcErr
		return resp
	}
	resp.Result = result
	return resp
}

func (d *Dispatcher) handle(ctx context.Context, logger *slog.Logger, req Request, shape ResultShape) (any, *RPCError) {
	switch req.Method {
	case MethodInitialize:
		return d.initialize(logger, req.Params)

	case MethodInitializedNotification:
		logger.Info("received initialization notification")
		return nil, nil

	case MethodToolsList:
		return ToolList{Tools: d.catalog()}, nil

	case MethodToolsCall:
		calls, source, err := ExtractToolCalls(req.Params)
		if err != nil {
			return nil, InternalError(err.Error())
		}
		logger.Info("tool calls extracted", "source", source, "count", len(calls))
		return shape.Render(d.CallTools(ctx, calls)), nil

	default:
		return nil, MethodNotFound(req.Method)
	}
}

func (d *Dispatcher) initialize(logger *slog.Logger, raw json.RawMessage) (any, *RPCError) {
	var params initializeParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, InternalError(err.Error())
	}

	version := DefaultProtocolVersion
	if params.ProtocolVersion != nil {
		version = *params.ProtocolVersion
	}

	d.initialized.Store(true)
	logger.Info("initializing mcp server", "client_protocol_version", version)

	return InitializeResult{
		ProtocolVersion: version,
		Capabilities: Capabilities{
			Tools: ToolsCapability{ListChanged: true, ListRequired: false},
		},
		ServerInfo: ServerInfo{Name: ServerName, Version: ServerVersion},
	}, nil
}

// CallTools runs each call in order and returns one outcome per call. A
// failing or panicking call only affects its own outcome.
func (d *Dispatcher) CallTools(ctx context.Context, calls []ToolCall) []CallOutcome {
	outcomes := make([]CallOutcome, 0, len(calls))
	for _, call := range calls {
		outcomes = append(outcomes, d.runCall(ctx, call))
	}
	return outcomes
}

func (d *Dispatcher) runCall(ctx context.Context, call ToolCall) (out CallOutcome) {
	out.Name = call.Name
	label := d.toolLabel(call.Name)

	_, span := d.tracer.Start(ctx, "tool "+label,
		trace.WithAttributes(attribute.String("mcp.tool", call.Name)),
	)
	start := time.Now()

	var res core.Result
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic executing tool", "tool", call.Name, "panic", r)
			res = core.Failure(fmt.Errorf("%v", r))
		}

		status := core.ErrorCode(res.Err())
		if !res.OK() {
			span.SetStatus(codes.Error, res.Err().Error())
		}
		span.SetAttributes(attribute.String("mcp.tool.status", status))
		span.End()

		d.metrics.IncToolCall(label, status)
		d.metrics.ObserveToolDuration(label, time.Since(start))
		out.Content = []Content{TextContent(res.Text())}
	}()

	res = d.execute(call)
	if res.OK() {
		d.logger.Debug("tool executed", "tool", call.Name, "arguments", string(call.Arguments), "result", res.Value().String())
	} else {
		d.logger.Info("tool failed", "tool", call.Name, "err", res.Err())
	}
	return out
}

func (d *Dispatcher) execute(call ToolCall) core.Result {
	if call.err != nil {
		return core.Failure(call.err)
	}
	op, ok := d.lookup(call.Name)
	if !ok {
		name := call.Name
		if call.noName {
			name = "None"
		}
		return core.Failure(&core.UnknownToolError{Name: name})
	}
	args, err := call.decodeArguments()
	if err != nil {
		return core.Failure(err)
	}
	return op(args.A, args.B)
}

// toolLabel bounds metric cardinality to the catalog.
func (d *Dispatcher) toolLabel(name string) string {
	if _, ok := d.lookup(name); ok {
		return name
	}
	return "unknown"
}

func methodLabel(method string) string {
	switch method {
	case MethodInitialize, MethodInitializedNotification, MethodToolsList, MethodToolsCall:
		return method
	}
	if strings.HasPrefix(method, "notifications/") {
		return "notifications/other"
	}
	return "unknown"
}

func rpcOutcome(code int) string {
	switch code {
	case CodeParseError:
		return "parse_error"
	case CodeMethodNotFound:
		return "method_not_found"
	default:
		return "internal_error"
	}
}

func decodeParams(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}
	return nil
}
