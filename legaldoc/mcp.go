package legaldoc

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/lexpipe/boilerplate"
	"github.com/hazyhaar/lexpipe/kit"
	"github.com/hazyhaar/lexpipe/ocrpipe"
)

// RegisterMCP registers the pipeline tools on an MCP server.
func (p *Processor) RegisterMCP(srv *mcp.Server) {
	p.registerScoreTool(srv)
	p.registerDetectTool(srv)
	p.registerProcessTool(srv)
	p.registerBatchTool(srv)
}

// wrap applies the shared middleware stack to a tool endpoint.
func (p *Processor) wrap(name string, e kit.Endpoint) kit.Endpoint {
	return kit.Chain(kit.Logging(p.cfg.Logger, name))(e)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// --- score ---

type scoreReq struct {
	Text        string `json:"text"`
	PageCount   int    `json:"page_count"`
	EntityCount int    `json:"entity_count"`
}

func (p *Processor) registerScoreTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "lexpipe_score",
		Description: "Score extracted text against the OCR quality gates and return metrics with failure reasons.",
		InputSchema: inputSchema(map[string]any{
			"text":         map[string]any{"type": "string", "description": "Extracted text to score"},
			"page_count":   map[string]any{"type": "integer", "description": "Source page count (default 1)"},
			"entity_count": map[string]any{"type": "integer", "description": "Extracted entity count (default 0)"},
		}, []string{"text"}),
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*scoreReq)
		if r.PageCount <= 0 {
			r.PageCount = 1
		}
		return p.cfg.Scorer.Score(r.Text, r.PageCount, r.EntityCount), nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r scoreReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, p.wrap(tool.Name, endpoint), decode)
}

// --- detect ---

type detectReq struct {
	Documents []boilerplate.Document `json:"documents"`
}

type detectResp struct {
	Segments [][]boilerplate.Segment `json:"segments"`
	Report   boilerplate.Report      `json:"report"`
}

func (p *Processor) registerDetectTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "lexpipe_detect",
		Description: "Run cross-document boilerplate detection over already-extracted texts without OCR or scrubbing.",
		InputSchema: inputSchema(map[string]any{
			"documents": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"content_id": map[string]any{"type": "string", "description": "Caller-chosen document identifier"},
						"text":       map[string]any{"type": "string", "description": "Extracted document text"},
					},
					"required": []string{"content_id", "text"},
				},
				"description": "Documents to detect across, minimum one",
			},
		}, []string{"documents"}),
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*detectReq)
		segments := p.cfg.Detector.Detect(r.Documents)
		return detectResp{
			Segments: segments,
			Report:   p.cfg.Detector.GenerateReport(segments, r.Documents),
		}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r detectReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, p.wrap(tool.Name, endpoint), decode)
}

// --- process ---

type processReq struct {
	Path             string `json:"path"`
	ForceOCR         bool   `json:"force_ocr"`
	SkipQualityGates bool   `json:"skip_quality_gates"`
}

func (p *Processor) registerProcessTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "lexpipe_process",
		Description: "Run the full pipeline on one PDF: OCR extraction, boilerplate detection, text scrubbing.",
		InputSchema: inputSchema(map[string]any{
			"path":               map[string]any{"type": "string", "description": "PDF file path"},
			"force_ocr":          map[string]any{"type": "boolean", "description": "Skip the native text-layer bypass"},
			"skip_quality_gates": map[string]any{"type": "boolean", "description": "Accept extracted text without scoring"},
		}, []string{"path"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*processReq)
		return p.ProcessDocument(ctx, r.Path, ocrpipe.Options{
			ForceOCR:         r.ForceOCR,
			SkipQualityGates: r.SkipQualityGates,
		}), nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r processReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, p.wrap(tool.Name, endpoint), decode)
}

// --- batch ---

type batchReq struct {
	Paths    []string `json:"paths"`
	ForceOCR bool     `json:"force_ocr"`
}

func (p *Processor) registerBatchTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "lexpipe_batch",
		Description: "Process a batch of PDFs with cross-document boilerplate detection and return per-document results plus aggregate reports.",
		InputSchema: inputSchema(map[string]any{
			"paths":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "PDF file paths"},
			"force_ocr": map[string]any{"type": "boolean", "description": "Skip the native text-layer bypass"},
		}, []string{"paths"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*batchReq)
		return p.ProcessBatch(ctx, r.Paths, ocrpipe.Options{ForceOCR: r.ForceOCR}), nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r batchReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, p.wrap(tool.Name, endpoint), decode)
}
