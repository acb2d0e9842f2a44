package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/matsumo0922/TrumpDetection/internal/config"
	"github.com/matsumo0922/TrumpDetection/internal/imaging"
	"github.com/matsumo0922/TrumpDetection/internal/logging"
	"github.com/matsumo0922/TrumpDetection/internal/vision"
)

const (
	// ServerName is reported in the initialize handshake.
	ServerName = "trump-detect"

	// ProtocolVersion is the MCP revision the server speaks.
	ProtocolVersion = "2024-11-05"

	jsonrpcVersion = "2.0"

	// Largest request line accepted on stdin.
	maxRequestSize = 1 << 20
)

// JSON-RPC error codes used in responses.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeToolFailed     = -32000
)

// Server answers MCP requests about card photos. One request is handled at a
// time, in arrival order.
type Server struct {
	cache   *imaging.Cache
	backend vision.Backend
	cfg     *config.Config
	log     logrus.FieldLogger
	version string
	in      io.Reader
	out     io.Writer
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

func reply(id, result interface{}) *MCPResponse {
	return &MCPResponse{JSONRPC: jsonrpcVersion, ID: id, Result: result}
}

func fail(id interface{}, code int, message string, data interface{}) *MCPResponse {
	return &MCPResponse{
		JSONRPC: jsonrpcVersion,
		ID:      id,
		Error:   &MCPError{Code: code, Message: message, Data: data},
	}
}

// Option configures a Server.
type Option func(*Server)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(s *Server) {
		s.in = in
		s.out = out
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithConfig supplies output settings such as the JPEG quality of saved
// cards.
func WithConfig(cfg *config.Config) Option {
	return func(s *Server) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithVersion sets the version reported to clients.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// New creates a new MCP server that runs card detection on b.
func New(b vision.Backend, opts ...Option) *Server {
	s := &Server{
		cache:   imaging.NewCache(),
		backend: b,
		cfg:     config.Defaults(),
		log:     logging.Discard(),
		version: "dev",
		in:      os.Stdin,
		out:     os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run serves newline-delimited requests until the input ends or ctx is
// done. A line that is not JSON gets a parse error with a null id.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRequestSize)
	enc := json.NewEncoder(s.out)

	log := s.log.WithFields(logrus.Fields{
		"version": s.version,
		"backend": s.backend.Name(),
	})
	log.Info("MCP server started")

	served := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var resp *MCPResponse
		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.WithError(err).Warn("failed to parse request")
			resp = fail(nil, CodeParseError, "Parse error", err.Error())
		} else {
			resp = s.handleRequest(&req)
		}
		if resp == nil {
			continue
		}
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("failed to write response: %w", err)
		}
		served++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}

	log.WithField("responses", served).Info("MCP server stopped")
	return nil
}

// handleRequest routes one request. Notifications get no response.
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	s.log.WithField("method", req.Method).Debug("request")
	switch req.Method {
	case "initialize":
		return reply(req.ID, s.serverInfo())
	case "notifications/initialized":
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return reply(req.ID, map[string]interface{}{})
	default:
		return fail(req.ID, CodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), nil)
	}
}

func (s *Server) serverInfo() map[string]interface{} {
	return map[string]interface{}{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    ServerName,
			"version": s.version,
		},
	}
}
