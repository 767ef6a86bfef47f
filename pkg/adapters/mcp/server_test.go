package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/govform"
	"github.com/aretw0/govform/pkg/adapters/memory"
	"github.com/aretw0/govform/pkg/domain"
	"github.com/aretw0/govform/pkg/wizard"
)

func newTestServer(t *testing.T, store *memory.Store) *Server {
	t.Helper()
	svc, err := govform.New(
		govform.WithStore(store),
		govform.WithSubmissionDelay(time.Millisecond),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return NewServer(svc, "test")
}

func call(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func structured(t *testing.T, res *mcp.CallToolResult) SessionResult {
	t.Helper()
	require.NotNil(t, res)
	require.False(t, res.IsError, "unexpected tool error: %+v", res.Content)
	out, ok := res.StructuredContent.(SessionResult)
	require.True(t, ok, "got %T", res.StructuredContent)
	return out
}

func TestServer_StartAndGet(t *testing.T) {
	s := newTestServer(t, memory.NewStore())
	ctx := context.Background()

	res, err := s.handleStart(ctx, call(map[string]any{"session_id": "s1"}))
	require.NoError(t, err)
	assert.Equal(t, "s1", structured(t, res).Snapshot.SessionID)

	res, err = s.handleGet(ctx, call(map[string]any{"session_id": "s1"}))
	require.NoError(t, err)
	assert.Equal(t, domain.StepPersonal, structured(t, res).Snapshot.CurrentStep)

	res, err = s.handleGet(ctx, call(map[string]any{"session_id": "ghost"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestServer_UpdateAndAdvance(t *testing.T) {
	s := newTestServer(t, memory.NewStore())
	ctx := context.Background()
	_, err := s.handleStart(ctx, call(map[string]any{"session_id": "s1"}))
	require.NoError(t, err)

	advance := s.step(func(ctx context.Context, m *wizard.Machine) error { return m.Advance(ctx) })
	res, err := advance(ctx, call(map[string]any{"session_id": "s1"}))
	require.NoError(t, err)
	out := structured(t, res)
	assert.Equal(t, "Full name is required", out.Errors[domain.FieldFullName])
	assert.NotEmpty(t, out.Message)

	for field, value := range map[string]string{
		domain.FieldFullName:    "<i>Jane</i> Doe",
		domain.FieldEmail:       "jane@example.gov",
		domain.FieldPhone:       "(555) 123-4567",
		domain.FieldDateOfBirth: "1990-04-01",
	} {
		res, err = s.handleUpdate(ctx, call(map[string]any{"session_id": "s1", "field": field, "value": value}))
		require.NoError(t, err)
		structured(t, res)
	}

	res, err = advance(ctx, call(map[string]any{"session_id": "s1"}))
	require.NoError(t, err)
	out = structured(t, res)
	assert.Empty(t, out.Errors)
	assert.Equal(t, domain.StepAddress, out.Snapshot.CurrentStep)
	assert.Equal(t, "Jane Doe", out.Snapshot.Data.FullName)

	res, err = s.handleUpdate(ctx, call(map[string]any{"session_id": "s1", "field": "nickname", "value": "JD"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestServer_ValidateStep(t *testing.T) {
	s := newTestServer(t, memory.NewStore())
	ctx := context.Background()
	_, err := s.handleStart(ctx, call(map[string]any{"session_id": "s1"}))
	require.NoError(t, err)

	res, err := s.handleValidate(ctx, call(map[string]any{"session_id": "s1", "step": "address"}))
	require.NoError(t, err)
	out := structured(t, res)
	assert.Contains(t, out.Errors, domain.FieldCity)
	assert.Equal(t, domain.StepPersonal, out.Snapshot.CurrentStep)

	res, err = s.handleValidate(ctx, call(map[string]any{"session_id": "s1", "step": "nowhere"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestServer_SaveResumesInNewProcess(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	first := newTestServer(t, store)
	_, err := first.handleStart(ctx, call(map[string]any{"session_id": "s1"}))
	require.NoError(t, err)
	_, err = first.handleUpdate(ctx, call(map[string]any{"session_id": "s1", "field": domain.FieldCity, "value": "Springfield"}))
	require.NoError(t, err)
	save := first.step(func(ctx context.Context, m *wizard.Machine) error { return m.SaveProgress(ctx) })
	res, err := save(ctx, call(map[string]any{"session_id": "s1"}))
	require.NoError(t, err)
	structured(t, res)

	second := newTestServer(t, store)
	res, err = second.handleGet(ctx, call(map[string]any{"session_id": "s1"}))
	require.NoError(t, err)
	assert.Equal(t, "Springfield", structured(t, res).Snapshot.Data.City)

	res, err = second.handleList(ctx, call(nil))
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"sessions": {"s1"}}, res.StructuredContent)
}

func TestServer_CatalogResource(t *testing.T) {
	s := newTestServer(t, memory.NewStore())
	msg := s.mcpServer.HandleMessage(context.Background(), json.RawMessage(`{
		"jsonrpc": "2.0", "id": 1, "method": "resources/read",
		"params": {"uri": "`+CatalogURI+`"}
	}`))

	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	var resp struct {
		Result struct {
			Contents []struct {
				URI  string `json:"uri"`
				Text string `json:"text"`
			} `json:"contents"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.Len(t, resp.Result.Contents, 1)
	assert.Equal(t, CatalogURI, resp.Result.Contents[0].URI)

	var c domain.Catalog
	require.NoError(t, json.Unmarshal([]byte(resp.Result.Contents[0].Text), &c))
	assert.Equal(t, domain.DefaultCatalog(), c)
}
