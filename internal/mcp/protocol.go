// Package mcp implements the JSON-RPC dispatcher for the calculator tools
// and its line-delimited stream and TCP transports.
package mcp

import "encoding/json"

const (
	JSONRPCVersion = "2.0"

	// DefaultProtocolVersion is echoed by initialize when the client does not
	// state one.
	DefaultProtocolVersion = "2024-11-05"

	ServerName    = "calculator-mcp-server"
	ServerVersion = "1.0.0"
)

const (
	MethodInitialize              = "initialize"
	MethodInitializedNotification = "notifications/initialized"
	MethodToolsList               = "tools/list"
	MethodToolsCall               = "tools/call"
)

// JSON-RPC 2.0 error codes used by the server.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInternalError  = -32603
)

// Request is one inbound JSON-RPC message. ID is kept raw so it is echoed
// back exactly as the client sent it; it is nil when the field was absent.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if e.Data == "" {
		return e.Message
	}
	return e.Message + ": " + e.Data
}

func ParseError(detail string) *RPCError {
	return &RPCError{Code: CodeParseError, Message: "Parse error", Data: detail}
}

func MethodNotFound(method string) *RPCError {
	return &RPCError{Code: CodeMethodNotFound, Message: "Method not found", Data: "Unknown method: " + method}
}

func InternalError(detail string) *RPCError {
	return &RPCError{Code: CodeInternalError, Message: "Internal error", Data: detail}
}

func newResponse(id json.RawMessage) Response {
	if len(id) == 0 {
		id = nil
	}
	return Response{JSONRPC: JSONRPCVersion, ID: id}
}

func newErrorResponse(id json.RawMessage, rpcErr *RPCError) Response {
	resp := newResponse(id)
	resp.Error = rpcErr
	return resp
}

// ServerInfo identifies the server in the initialize result.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type ToolsCapability struct {
	ListChanged  bool `json:"listChanged"`
	ListRequired bool `json:"listRequired"`
}

type Capabilities struct {
	Tools ToolsCapability `json:"tools"`
}

type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    Capabilities `json:"capabilities"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
}

type initializeParams struct {
	ProtocolVersion *string `json:"protocolVersion"`
}
