package mcpserver

import (
	gocontext "context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	agctx "github.com/cgast/edgebench/pkg/context"
	"github.com/cgast/edgebench/pkg/events"
	"github.com/cgast/edgebench/pkg/tools"
)

type echoTool struct{}

func (echoTool) Name() string        { return "echo:say" }
func (echoTool) Description() string { return "Repeat a message" }
func (echoTool) Namespace() string   { return "echo" }
func (echoTool) InputSchema() tools.Schema {
	return tools.Object(map[string]tools.SchemaField{
		"message": {Type: "string", Description: "Text to repeat"},
		"times":   {Type: "integer", Description: "Repetitions"},
		"shout":   {Type: "boolean"},
	}, "message")
}

func (echoTool) Execute(_ gocontext.Context, in agctx.Envelope) (agctx.Envelope, error) {
	msg, err := in.RequireString("message")
	if err != nil {
		return agctx.Envelope{}, err
	}
	if msg == "fail" {
		return agctx.Envelope{}, errors.New("echo:say: refused")
	}
	n, err := in.IntArg("times", 1)
	if err != nil {
		return agctx.Envelope{}, err
	}
	out := ""
	for i := 0; i < n; i++ {
		out += msg
	}
	return agctx.NewEnvelope(out, "text/plain", "echo:say"), nil
}

func newServer(t *testing.T) (*Server, *events.MemoryBus) {
	t.Helper()
	reg := tools.NewRegistry()
	require.NoError(t, reg.Register(echoTool{}))
	bus := events.NewMemoryBus()
	return New(reg, "test", WithLogger(zaptest.NewLogger(t)), WithPublisher(bus)), bus
}

func call(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = "echo_say"
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestToolName(t *testing.T) {
	assert.Equal(t, "fs_list", ToolName("fs:list"))
	assert.Equal(t, "registry_update", ToolName("registry:update"))
	assert.Equal(t, "plain", ToolName("plain"))
}

func TestToolSpec(t *testing.T) {
	spec := ToolSpec(echoTool{})
	assert.Equal(t, "echo_say", spec.Name)
	assert.Equal(t, "Repeat a message", spec.Description)
	assert.Equal(t, []string{"message"}, spec.InputSchema.Required)
	require.Len(t, spec.InputSchema.Properties, 3)

	times, ok := spec.InputSchema.Properties["times"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "number", times["type"])
	shout := spec.InputSchema.Properties["shout"].(map[string]any)
	assert.Equal(t, "boolean", shout["type"])
	message := spec.InputSchema.Properties["message"].(map[string]any)
	assert.Equal(t, "string", message["type"])
	assert.Equal(t, "Text to repeat", message["description"])
}

func TestNewAnnouncesRegistryTools(t *testing.T) {
	s, _ := newServer(t)
	assert.Equal(t, map[string]string{"echo_say": "echo:say"}, s.Tools())
	assert.NotNil(t, s.MCP())
}

func TestHandlerReturnsRenderedPayload(t *testing.T) {
	s, bus := newServer(t)
	h := s.handler(echoTool{})

	res, err := h(gocontext.Background(), call(map[string]any{"message": "ab", "times": float64(3)}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "ababab", resultText(t, res))
	assert.Len(t, bus.History(events.EventToolCall), 1)
}

func TestHandlerErrors(t *testing.T) {
	s, _ := newServer(t)
	h := s.handler(echoTool{})

	res, err := h(gocontext.Background(), call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), `"message" missing`)

	res, err = h(gocontext.Background(), call(map[string]any{"message": "fail"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "echo:say: refused", resultText(t, res))
}
