package server

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/matsumo0922/TrumpDetection/internal/vision"
)

func newTestServer(opts ...Option) *Server {
	return New(vision.NewNative(), opts...)
}

// serve feeds lines to a fresh server and decodes every response written.
func serve(t *testing.T, lines ...string) []MCPResponse {
	t.Helper()
	var out bytes.Buffer
	s := newTestServer(WithIO(strings.NewReader(strings.Join(lines, "\n")), &out))
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var resps []MCPResponse
	dec := json.NewDecoder(&out)
	for dec.More() {
		var r MCPResponse
		if err := dec.Decode(&r); err != nil {
			t.Fatalf("bad response: %v", err)
		}
		resps = append(resps, r)
	}
	return resps
}

func TestNew_Defaults(t *testing.T) {
	s := newTestServer()
	if s.cache == nil || s.cfg == nil || s.log == nil {
		t.Fatalf("New left fields unset: %+v", s)
	}
	if s.version != "dev" {
		t.Errorf("version: got %q, want dev", s.version)
	}
	if s.backend.Name() != vision.NativeName {
		t.Errorf("backend: got %s", s.backend.Name())
	}
}

func TestMCPRequest_IDKinds(t *testing.T) {
	tests := map[string]interface{}{
		`{"jsonrpc":"2.0","id":"card-1","method":"tools/list"}`: "card-1",
		`{"jsonrpc":"2.0","id":7,"method":"ping"}`:              float64(7),
		`{"jsonrpc":"2.0","id":null,"method":"initialize"}`:     nil,
	}
	for line, want := range tests {
		var req MCPRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			t.Fatalf("%s: %v", line, err)
		}
		if req.ID != want {
			t.Errorf("%s: id %v (%T), want %v (%T)", line, req.ID, req.ID, want, want)
		}
	}
}

func TestFail_OmitsResult(t *testing.T) {
	data, err := json.Marshal(fail(1, CodeMethodNotFound, "Method not found", nil))
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if strings.Contains(string(data), `"result"`) || strings.Contains(string(data), `"data"`) {
		t.Errorf("error response should omit result and data: %s", data)
	}
}

func TestHandleRequest_Initialize(t *testing.T) {
	s := newTestServer(WithVersion("1.2.3"))
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "initialize"})
	if resp == nil || resp.Error != nil {
		t.Fatalf("unexpected response %+v", resp)
	}

	result := resp.Result.(map[string]interface{})
	if result["protocolVersion"] != ProtocolVersion {
		t.Errorf("protocolVersion: got %v", result["protocolVersion"])
	}
	info := result["serverInfo"].(map[string]interface{})
	if info["name"] != ServerName || info["version"] != "1.2.3" {
		t.Errorf("serverInfo: got %v", info)
	}
}

func TestHandleRequest_Routing(t *testing.T) {
	tests := []struct {
		method   string
		wantNil  bool
		wantCode int
	}{
		{method: "ping"},
		{method: "tools/list"},
		{method: "notifications/initialized", wantNil: true},
		{method: "card/flip", wantCode: CodeMethodNotFound},
	}

	s := newTestServer()
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: "r", Method: tt.method})
			if tt.wantNil {
				if resp != nil {
					t.Errorf("notification answered: %+v", resp)
				}
				return
			}
			if resp == nil {
				t.Fatal("no response")
			}
			if resp.ID != "r" {
				t.Errorf("ID: got %v", resp.ID)
			}
			switch {
			case tt.wantCode == 0 && resp.Error != nil:
				t.Errorf("unexpected error %+v", resp.Error)
			case tt.wantCode != 0 && (resp.Error == nil || resp.Error.Code != tt.wantCode):
				t.Errorf("error: got %+v, want code %d", resp.Error, tt.wantCode)
			}
		})
	}
}

func TestHandleRequest_ToolsList(t *testing.T) {
	resp := newTestServer().handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/list"})
	tools, ok := resp.Result.(map[string]interface{})["tools"].([]Tool)
	if !ok {
		t.Fatal("tools should be a slice of Tool")
	}
	if len(tools) != len(GetToolDefinitions()) {
		t.Errorf("Tool count: got %d, want %d", len(tools), len(GetToolDefinitions()))
	}
}

func TestRun(t *testing.T) {
	resps := serve(t,
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
	)
	if len(resps) != 2 || resps[0].ID != float64(1) || resps[1].ID != float64(2) {
		t.Errorf("responses: got %+v, want ids 1 and 2", resps)
	}
}

func TestRun_ParseError(t *testing.T) {
	resps := serve(t,
		`not json`,
		`{"jsonrpc":"2.0","id":3,"method":"ping"}`,
	)
	if len(resps) != 2 {
		t.Fatalf("got %d responses, want 2", len(resps))
	}
	if resps[0].ID != nil || resps[0].Error == nil || resps[0].Error.Code != CodeParseError {
		t.Errorf("parse error response: got %+v", resps[0])
	}
	if resps[1].ID != float64(3) || resps[1].Error != nil {
		t.Errorf("server should keep serving after a bad line: %+v", resps[1])
	}
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	s := newTestServer(WithIO(strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"), &out))
	if err := s.Run(ctx); err != context.Canceled {
		t.Errorf("Run: got %v, want context.Canceled", err)
	}
	if out.Len() != 0 {
		t.Errorf("no response expected after cancel, got %s", out.String())
	}
}
