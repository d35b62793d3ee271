package legaldoc

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/lexpipe/boilerplate"
	"github.com/hazyhaar/lexpipe/ocrpipe"
	"github.com/hazyhaar/lexpipe/textqual"
)

var testMCPImpl = &mcp.Implementation{Name: "lexpipe-test", Version: "0.1.0"}

func mcpSession(t *testing.T, texts map[string]string) *mcp.ClientSession {
	t.Helper()
	p := newTestProcessor(t, texts)
	srv := mcp.NewServer(testMCPImpl, nil)
	p.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCallTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if err := result.GetError(); err != nil {
		t.Fatalf("CallTool(%s) tool error: %v", name, err)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	return tc.Text
}

func TestMCP_CallsPassThroughLoggingMiddleware(t *testing.T) {
	// WHAT: Registered tools run inside the kit middleware chain; a call
	// emits an endpoint log line naming the tool and its transport.
	var buf bytes.Buffer
	p := newTestProcessor(t, nil)
	p.cfg.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	srv := mcp.NewServer(testMCPImpl, nil)
	p.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })

	mcpCallTool(t, session, "lexpipe_score", map[string]any{"text": "a1! b2@ c3#"})

	out := buf.String()
	if !strings.Contains(out, "endpoint=lexpipe_score") {
		t.Errorf("endpoint log line missing:\n%s", out)
	}
	if !strings.Contains(out, "transport=stdio") {
		t.Errorf("transport tag missing:\n%s", out)
	}
}

func TestMCP_Score(t *testing.T) {
	// WHAT: lexpipe_score returns serialized quality metrics; garbled
	// short input lands in OCR_DONE with failure reasons.
	session := mcpSession(t, nil)

	text := mcpCallTool(t, session, "lexpipe_score", map[string]any{
		"text": "a1! b2@ c3#",
	})

	var m textqual.QualityMetrics
	if err := json.Unmarshal([]byte(text), &m); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, text)
	}
	if m.ValidationStatus != textqual.StatusOCRDone {
		t.Errorf("status = %q, want %q", m.ValidationStatus, textqual.StatusOCRDone)
	}
	if len(m.FailureReasons) == 0 {
		t.Error("failure reasons empty for garbled input")
	}
}

func TestMCP_Detect(t *testing.T) {
	// WHAT: lexpipe_detect runs detection over caller-supplied texts and
	// returns per-document segments plus the aggregate report, no OCR.
	session := mcpSession(t, nil)

	docs := []map[string]any{
		{"content_id": "a", "text": objectionSentence + " " + narratives["a.pdf"]},
		{"content_id": "b", "text": objectionSentence + " " + narratives["b.pdf"]},
	}
	text := mcpCallTool(t, session, "lexpipe_detect", map[string]any{
		"documents": docs,
	})

	var resp struct {
		Segments [][]boilerplate.Segment `json:"segments"`
		Report   boilerplate.Report      `json:"report"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, text)
	}
	if len(resp.Segments) != 2 {
		t.Fatalf("segment lists = %d, want one per document", len(resp.Segments))
	}
	for i, segs := range resp.Segments {
		if len(segs) == 0 {
			t.Errorf("document %d: no segments for a shared objection", i)
		}
	}
	if resp.Report.SegmentCount == 0 {
		t.Error("report segment count = 0")
	}
}

func TestMCP_Process(t *testing.T) {
	// WHAT: lexpipe_process runs the full pipeline over MCP and returns
	// the combined result with OCR diagnostics and cleaned text.
	texts := map[string]string{"a.pdf": objectionSentence + " " + narratives["a.pdf"]}
	session := mcpSession(t, texts)
	paths := writeStubs(t, "a.pdf")

	text := mcpCallTool(t, session, "lexpipe_process", map[string]any{
		"path": paths[0],
	})

	var res DocumentResult
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, text)
	}
	if !res.Success {
		t.Fatalf("success = false: %s", res.Error)
	}
	if res.OCR.Method != ocrpipe.MethodNative {
		t.Errorf("method = %q", res.OCR.Method)
	}
	if strings.Contains(res.Scrub.CleanedText, "objects to this request") {
		t.Error("objection survived scrubbing over MCP")
	}
}
