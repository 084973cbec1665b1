package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"autoparse/internal/adapter"
	"autoparse/internal/model"
)

// jsonrpcRequest is a JSON-RPC 2.0 request structure for testing.
type jsonrpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// jsonrpcResponse is a JSON-RPC 2.0 response structure for testing.
type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonrpcError   `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// toolCallParams represents the params for tools/call method.
type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// callToolResult is the expected result structure from a tool call.
type callToolResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"content"`
	IsError bool `json:"isError,omitempty"`
}

func TestMCPServerCreation(t *testing.T) {
	h, _ := testHandler(t, &adapter.Mock{})

	if h.NewMCPServer() == nil {
		t.Fatal("NewMCPServer returned nil")
	}
	if h.NewMCPHandler() == nil {
		t.Fatal("NewMCPHandler returned nil")
	}
}

func TestMCPInitialize(t *testing.T) {
	_, mux := testHandler(t, &adapter.Mock{})

	sessionID := initMCPSession(t, mux)
	if sessionID == "" {
		t.Error("expected Mcp-Session-Id header on initialize")
	}
}

func TestMCPToolsList(t *testing.T) {
	_, mux := testHandler(t, &adapter.Mock{})
	sessionID := initMCPSession(t, mux)

	resp := mcpCall(t, mux, sessionID, jsonrpcRequest{
		JSONRPC: "2.0",
		ID:      2,
		Method:  "tools/list",
	})

	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}

	var toolsResult struct {
		Tools []struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(resp.Result, &toolsResult); err != nil {
		t.Fatalf("Failed to parse tools result: %v", err)
	}

	expectedTools := map[string]bool{
		"list_untracked_orders":    false,
		"list_processing_orders":   false,
		"generate_orders_document": false,
	}
	for _, tool := range toolsResult.Tools {
		if _, ok := expectedTools[tool.Name]; ok {
			expectedTools[tool.Name] = true
		}
	}
	for name, found := range expectedTools {
		if !found {
			t.Errorf("Expected tool %q not found in tools list", name)
		}
	}
}

func TestMCPListUntrackedOrders(t *testing.T) {
	_, mux := testHandler(t, ordersMock(sampleOrders()))
	sessionID := initMCPSession(t, mux)

	result := callTool(t, mux, sessionID, "list_untracked_orders")
	if result.IsError {
		t.Fatalf("Expected success, got error: %+v", result.Content)
	}

	var out OrderListOutput
	if err := json.Unmarshal([]byte(result.Content[0].Text), &out); err != nil {
		t.Fatalf("Failed to parse output: %v", err)
	}
	if out.Processing != 3 || out.Untracked != 2 {
		t.Errorf("counts = %d/%d, want 3/2", out.Processing, out.Untracked)
	}
	if len(out.Orders) != 2 || out.Orders[0].ID != 1 || out.Orders[0].Products[0] != "Rioja" {
		t.Errorf("orders = %+v", out.Orders)
	}
}

func TestMCPListProcessingOrders(t *testing.T) {
	_, mux := testHandler(t, ordersMock(sampleOrders()))
	sessionID := initMCPSession(t, mux)

	result := callTool(t, mux, sessionID, "list_processing_orders")
	if result.IsError {
		t.Fatalf("Expected success, got error: %+v", result.Content)
	}

	var out OrderListOutput
	if err := json.Unmarshal([]byte(result.Content[0].Text), &out); err != nil {
		t.Fatalf("Failed to parse output: %v", err)
	}
	if out.Processing != 3 || len(out.Orders) != 3 {
		t.Errorf("processing = %d, orders = %d, want 3/3", out.Processing, len(out.Orders))
	}
}

func TestMCPGenerateDocument(t *testing.T) {
	_, mux := testHandler(t, ordersMock(sampleOrders()))
	sessionID := initMCPSession(t, mux)

	result := callTool(t, mux, sessionID, "generate_orders_document")
	if result.IsError {
		t.Fatalf("Expected success, got error: %+v", result.Content)
	}

	var out DocumentOutput
	if err := json.Unmarshal([]byte(result.Content[0].Text), &out); err != nil {
		t.Fatalf("Failed to parse output: %v", err)
	}
	if out.FileName != "orders_2024-05-01.docx" {
		t.Errorf("FileName = %s, want orders_2024-05-01.docx", out.FileName)
	}
	if out.Size <= 0 {
		t.Errorf("Size = %d, want > 0", out.Size)
	}
}

func TestMCPToolErrors(t *testing.T) {
	tests := []struct {
		name     string
		tool     string
		mock     *adapter.Mock
		wantText string
	}{
		{
			name: "remote failure",
			tool: "list_untracked_orders",
			mock: &adapter.Mock{
				FetchProcessingOrdersFunc: func(ctx context.Context) ([]model.Order, error) {
					return nil, model.NewRemoteAPIError(500, "boom", nil)
				},
			},
			wantText: "REMOTE_API_ERROR",
		},
		{
			name:     "empty worklist",
			tool:     "generate_orders_document",
			mock:     &adapter.Mock{},
			wantText: "EMPTY_WORKLIST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mux := testHandler(t, tt.mock)
			sessionID := initMCPSession(t, mux)

			// Tool errors are returned in the result, not as JSON-RPC errors
			result := callTool(t, mux, sessionID, tt.tool)
			if !result.IsError {
				t.Fatal("Expected isError result")
			}
			if len(result.Content) == 0 || !strings.Contains(result.Content[0].Text, tt.wantText) {
				t.Errorf("Content = %+v, want text containing %s", result.Content, tt.wantText)
			}
		})
	}
}

// callTool invokes a tool with empty arguments and decodes its result.
func callTool(t *testing.T, mux *http.ServeMux, sessionID, name string) callToolResult {
	t.Helper()

	resp := mcpCall(t, mux, sessionID, jsonrpcRequest{
		JSONRPC: "2.0",
		ID:      2,
		Method:  "tools/call",
		Params: toolCallParams{
			Name:      name,
			Arguments: json.RawMessage(`{}`),
		},
	})
	if resp.Error != nil {
		t.Fatalf("Unexpected JSON-RPC error: %+v", resp.Error)
	}

	var result callToolResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("Failed to parse result: %v", err)
	}
	if len(result.Content) == 0 {
		t.Fatal("Expected content in result")
	}
	return result
}

// mcpCall posts one JSON-RPC request and decodes the SSE-framed response.
func mcpCall(t *testing.T, mux *http.ServeMux, sessionID string, req jsonrpcRequest) jsonrpcResponse {
	t.Helper()

	body, _ := json.Marshal(req)
	httpReq := httptest.NewRequest("POST", "/mcp", bytes.NewReader(body))
	setMCPHeaders(httpReq, sessionID)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, httpReq)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d\nBody: %s", w.Code, http.StatusOK, w.Body.String())
	}

	jsonData, err := parseSSEResponse(w.Body.String())
	if err != nil {
		t.Fatalf("Failed to parse SSE response: %v", err)
	}

	var resp jsonrpcResponse
	if err := json.Unmarshal(jsonData, &resp); err != nil {
		t.Fatalf("Failed to decode response: %v\nBody: %s", err, string(jsonData))
	}
	return resp
}

// setMCPHeaders sets the required headers for MCP Streamable HTTP requests.
func setMCPHeaders(req *http.Request, sessionID string) {
	req.Header.Set("Content-Type", "application/json")
	// MCP Streamable HTTP requires Accept header with both json and event-stream
	req.Header.Set("Accept", "application/json, text/event-stream")
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}
}

// parseSSEResponse extracts JSON data from SSE formatted response.
// SSE format: "event: message\ndata: {json}\n\n"
func parseSSEResponse(body string) ([]byte, error) {
	lines := strings.Split(body, "\n")
	for _, line := range lines {
		if strings.HasPrefix(line, "data: ") {
			return []byte(strings.TrimPrefix(line, "data: ")), nil
		}
	}
	// If no SSE format found, assume plain JSON
	return []byte(body), nil
}

// initMCPSession initializes an MCP session and returns the session ID.
func initMCPSession(t *testing.T, mux *http.ServeMux) string {
	t.Helper()

	initReq := jsonrpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "initialize",
		Params: map[string]interface{}{
			"protocolVersion": "2025-06-18",
			"clientInfo":      map[string]string{"name": "test", "version": "1.0"},
			"capabilities":    map[string]interface{}{},
		},
	}

	body, _ := json.Marshal(initReq)
	httpReq := httptest.NewRequest("POST", "/mcp", bytes.NewReader(body))
	setMCPHeaders(httpReq, "")
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, httpReq)

	if w.Code != http.StatusOK {
		t.Fatalf("Failed to initialize MCP session: %s", w.Body.String())
	}

	return w.Header().Get("Mcp-Session-Id")
}
