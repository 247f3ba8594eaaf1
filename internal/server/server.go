package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ironsheep/aruco-mcp/internal/config"
	"github.com/ironsheep/aruco-mcp/internal/imaging"
)

const (
	protocolVersion = "2024-11-05"
	serverName      = "aruco-mcp"
	serverVersion   = "0.1.0"

	// maxRequestBytes bounds one request line.
	maxRequestBytes = 1024 * 1024
)

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeToolFailed     = -32000
)

// Server handles MCP protocol communication
type Server struct {
	cache *imaging.ImageCache
	cfg   *config.Config
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// New creates a new MCP server instance. A nil cfg uses config.Default().
func New(cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Server{
		cache: imaging.NewImageCache(),
		cfg:   cfg,
	}
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes the responses
// to w until r is exhausted. A line that is not valid JSON is answered with
// a parse error carrying a null ID; notifications get no answer.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	in := bufio.NewScanner(r)
	in.Buffer(make([]byte, 0, 64*1024), maxRequestBytes)
	out := json.NewEncoder(w)

	for in.Scan() {
		line := bytes.TrimSpace(in.Bytes())
		if len(line) == 0 {
			continue
		}

		var resp *MCPResponse
		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("Failed to parse request: %v", err)
			resp = s.errorResponse(nil, codeParseError, "Parse error", err.Error())
		} else {
			resp = s.handleRequest(&req)
		}
		if resp == nil {
			continue
		}
		if err := out.Encode(resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}

	if err := in.Err(); err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	return nil
}

// methodHandler answers one JSON-RPC method. A nil response means the
// request was a notification.
type methodHandler func(s *Server, req *MCPRequest) *MCPResponse

var methods = map[string]methodHandler{
	"initialize":                (*Server).handleInitialize,
	"notifications/initialized": func(*Server, *MCPRequest) *MCPResponse { return nil },
	"tools/list":                (*Server).handleToolsList,
	"tools/call":                (*Server).handleToolsCall,
	"ping": func(_ *Server, req *MCPRequest) *MCPResponse {
		return result(req, map[string]interface{}{})
	},
}

// handleRequest routes a request to its method handler.
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	h, ok := methods[req.Method]
	if !ok {
		return s.errorResponse(req.ID, codeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), "")
	}
	return h(s, req)
}

// result wraps a successful reply to req.
func result(req *MCPRequest, v interface{}) *MCPResponse {
	return &MCPResponse{JSONRPC: "2.0", ID: req.ID, Result: v}
}

// handleInitialize answers the MCP handshake with the server's identity
// and its single capability, tools.
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return result(req, map[string]interface{}{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    serverName,
			"version": serverVersion,
		},
	})
}
