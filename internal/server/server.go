package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/ironsheep/coloring-mcp/internal/analysis"
	"github.com/ironsheep/coloring-mcp/internal/classifier"
	"github.com/ironsheep/coloring-mcp/internal/imaging"
)

// Version is reported in the initialize handshake.
const Version = "0.1.0"

// Server handles MCP protocol communication.
//
// It owns an image cache shared by every tool call, so a portrait loaded by
// image_load is not decoded again by coloring_analyze_portrait. A Server is
// driven by a single Serve loop; requests are handled one at a time.
type Server struct {
	images    *imaging.ImageCache
	analyzer  *analysis.Service
	predictor *classifier.Predictor
	logger    *zap.Logger
}

// MCPRequest represents an incoming JSON-RPC request.
type MCPRequest struct {
	// JSONRPC is the protocol version, always "2.0".
	JSONRPC string `json:"jsonrpc"`

	// ID correlates the response. Notifications omit it.
	ID interface{} `json:"id"`

	// Method is the MCP method (e.g., "tools/call").
	Method string `json:"method"`

	// Params holds the method-specific parameters as raw JSON.
	Params json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response. Exactly one of
// Result and Error is set.
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error.
//
// Codes used by this server:
//   - -32700: the request line is not valid JSON
//   - -32601: unknown method
//   - -32602: malformed tools/call parameters
//   - -32000: the tool ran and failed; Data holds the Go error string
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance.
//
// Parameters:
//   - analyzer: Portrait analysis service. nil gets the default service
//     (fixed regions, no result cache).
//   - predictor: Subtype predictor. nil gets the built-in taxonomy.
//   - logger: Destination for request logs. nil discards them. Logs must not
//     go to stdout, which carries the protocol.
//
// Returns a Server with an empty image cache, ready for Run or Serve.
func New(analyzer *analysis.Service, predictor *classifier.Predictor, logger *zap.Logger) *Server {
	if analyzer == nil {
		analyzer = analysis.New(analysis.Options{Logger: logger})
	}
	if predictor == nil {
		predictor = classifier.New(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		images:    imaging.NewImageCache(),
		analyzer:  analyzer,
		predictor: predictor,
		logger:    logger.Named("mcp"),
	}
}

// Run serves requests from stdin and writes responses to stdout until stdin
// closes or ctx is canceled.
//
// # Errors
//
// Same as Serve.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses to w.
//
// Parameters:
//   - ctx: Checked before each request and passed to tool handlers.
//   - r: Request stream. Blank lines are skipped; lines may be up to 1 MiB.
//   - w: Response stream. Each response is one JSON object per line.
//
// Unparseable lines get a -32700 response with a null id and the loop
// continues. notifications/initialized gets no response.
//
// # Errors
//
//   - Returns ctx.Err() if ctx is canceled between requests
//   - Returns error if reading r fails (e.g., a line exceeds the buffer)
//   - Returns nil when r reaches EOF
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(w)

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
			s.logger.Warn("failed to parse request", zap.Error(err))
			resp = s.errorResponse(nil, -32700, "Parse error", err.Error())
		} else {
			resp = s.handleRequest(ctx, &req)
		}
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.Error("failed to encode response", zap.Error(err))
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "coloring-mcp",
				"version": Version,
			},
		},
	}
}
