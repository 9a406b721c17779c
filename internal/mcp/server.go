package mcp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/nghyane/oc-bridge/internal/bridge"
	"github.com/nghyane/oc-bridge/internal/json"
	log "github.com/nghyane/oc-bridge/internal/logging"
	"github.com/tidwall/gjson"
)

const maxLineSize = 16 << 20

// Server answers MCP requests read one JSON object per line.
type Server struct {
	translator *bridge.Translator
	info       ServerInfo

	writeMu sync.Mutex
}

// NewServer creates a stdio tool server over the translator.
func NewServer(translator *bridge.Translator, version string) *Server {
	if version == "" {
		version = "dev"
	}
	return &Server{
		translator: translator,
		info:       ServerInfo{Name: "oc-bridge", Version: version},
	}
}

// Serve reads requests from r until EOF or ctx is done and writes
// responses to w. Requests are handled in order.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("mcp: read: %w", err)
					}
				default:
				}
				return nil
			}
			resp := s.handleLine(ctx, line)
			if resp == nil {
				continue
			}
			if err := s.write(w, resp); err != nil {
				return fmt.Errorf("mcp: write: %w", err)
			}
		}
	}
}

func (s *Server) write(w io.Writer, resp *JSONRPCResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err = w.Write(append(data, '\n'))
	return err
}

// handleLine returns nil for notifications and blank lines.
func (s *Server) handleLine(ctx context.Context, line []byte) *JSONRPCResponse {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil
	}
	if !gjson.ValidBytes(line) {
		return errorResponse("", CodeParseError, "parse error")
	}
	req := gjson.ParseBytes(line)
	if !req.IsObject() {
		return errorResponse("", CodeInvalidRequest, "invalid request")
	}

	idField := req.Get("id")
	method := req.Get("method").String()
	if !idField.Exists() {
		s.handleNotification(method)
		return nil
	}
	id := rawID(idField.Raw)
	if method == "" {
		return errorResponse(id, CodeInvalidRequest, "invalid request")
	}

	result, rpcErr := s.dispatch(ctx, method, req.Get("params"))
	if rpcErr != nil {
		return &JSONRPCResponse{JSONRPC: "2.0", ID: id, Error: rpcErr}
	}
	return &JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result}
}

func (s *Server) handleNotification(method string) {
	switch method {
	case MethodInitialized:
		log.Debug("mcp client initialized")
	default:
		log.WithField("method", method).Debug("mcp notification ignored")
	}
}

func (s *Server) dispatch(ctx context.Context, method string, params gjson.Result) (any, *RPCError) {
	switch method {
	case MethodInitialize:
		return &InitializeResult{
			ProtocolVersion: ProtocolVersion,
			Capabilities:    ServerCapabilities{Tools: &ToolsCapability{}},
			ServerInfo:      s.info,
		}, nil
	case MethodPing:
		return struct{}{}, nil
	case MethodListTools:
		return &ListToolsResult{Tools: toolList}, nil
	case MethodCallTool:
		return s.callTool(ctx, params)
	default:
		return nil, &RPCError{Code: CodeMethodNotFound, Message: "method not found: " + method}
	}
}

func (s *Server) callTool(ctx context.Context, params gjson.Result) (any, *RPCError) {
	name := params.Get("name").String()
	fn, ok := toolHandlers[name]
	if !ok {
		return nil, &RPCError{Code: CodeInvalidParams, Message: "unknown tool: " + name}
	}
	args := params.Get("arguments")
	if !args.Exists() {
		args = gjson.Parse("{}")
	}

	callID := uuid.NewString()
	entry := log.WithFields(log.Fields{"tool": name, "call": callID})
	entry.Debug("mcp tool call")

	res, err := fn(ctx, s.translator, args)
	if err != nil {
		entry.WithError(err).Warn("mcp tool failed")
		return nil, &RPCError{Code: CodeInternalError, Message: err.Error()}
	}
	return res, nil
}

func errorResponse(id rawID, code int, msg string) *JSONRPCResponse {
	return &JSONRPCResponse{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: msg}}
}
