package updater

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/pricewatch/kit"
	"github.com/hazyhaar/pricewatch/store"
)

// RegisterMCP registers the pricewatch control tools on an MCP server.
func (o *Orchestrator) RegisterMCP(srv *mcp.Server) {
	o.registerRunTool(srv)
	o.registerStatusTool(srv)
	o.registerVendorsTool(srv)
	o.registerAddVendorTool(srv)
	o.registerItemsTool(srv)
	o.registerHistoryTool(srv)
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

func decodeJSON[T any](req *mcp.CallToolRequest) (any, error) {
	var v T
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &v); err != nil {
			return nil, err
		}
	}
	return &v, nil
}

// --- pricewatch_run ---

type runRequest struct {
	VendorIDs []string `json:"vendor_ids,omitempty"`
}

type runResponse struct {
	RunID  string `json:"run_id"`
	Status Status `json:"status"`
}

func (o *Orchestrator) registerRunTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "pricewatch_run",
		Description: "Start a batch price update. Processes every enabled vendor, or only the given vendor IDs. Fails when a run is already active.",
		InputSchema: inputSchema(map[string]any{
			"vendor_ids": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Restrict the run to these vendor IDs",
			},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*runRequest)
		// The run must outlive the tool call.
		id, err := o.Start(context.WithoutCancel(ctx), rr.VendorIDs...)
		if err != nil {
			return nil, err
		}
		return &runResponse{RunID: id, Status: StatusRunning}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeJSON[runRequest])
}

// --- pricewatch_status ---

type statusRequest struct{}

func (o *Orchestrator) registerStatusTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "pricewatch_status",
		Description: "Report the active or most recent batch run: status, per-vendor results, counters.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		snap, _ := o.Snapshot()
		return &snap, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeJSON[statusRequest])
}

// --- pricewatch_vendors ---

type vendorsRequest struct {
	EnabledOnly bool `json:"enabled_only,omitempty"`
}

func (o *Orchestrator) registerVendorsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "pricewatch_vendors",
		Description: "List monitored vendors.",
		InputSchema: inputSchema(map[string]any{
			"enabled_only": map[string]any{"type": "boolean", "description": "Only vendors included in batch runs"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*vendorsRequest)
		return o.store.ListVendors(ctx, rr.EnabledOnly)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeJSON[vendorsRequest])
}

// --- pricewatch_add_vendor ---

type addVendorRequest struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Enabled *bool  `json:"enabled,omitempty"`
}

func (o *Orchestrator) registerAddVendorTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "pricewatch_add_vendor",
		Description: "Add a vendor to monitor, or update it by storefront URL.",
		InputSchema: inputSchema(map[string]any{
			"name":    map[string]any{"type": "string", "description": "Vendor display name"},
			"url":     map[string]any{"type": "string", "description": "Storefront page URL"},
			"enabled": map[string]any{"type": "boolean", "description": "Include in batch runs (default true)"},
		}, []string{"name", "url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*addVendorRequest)
		v := &store.Vendor{Name: rr.Name, URL: rr.URL, Enabled: true}
		if rr.Enabled != nil {
			v.Enabled = *rr.Enabled
		}
		if err := o.store.UpsertVendor(ctx, v); err != nil {
			return nil, err
		}
		return v, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeJSON[addVendorRequest])
}

// --- pricewatch_items ---

type itemsRequest struct {
	VendorID string `json:"vendor_id"`
}

func (o *Orchestrator) registerItemsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "pricewatch_items",
		Description: "List the stored menu items for a vendor with current prices.",
		InputSchema: inputSchema(map[string]any{
			"vendor_id": map[string]any{"type": "string", "description": "Vendor ID"},
		}, []string{"vendor_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*itemsRequest)
		return o.store.ListItems(ctx, rr.VendorID)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeJSON[itemsRequest])
}

// --- pricewatch_history ---

type historyRequest struct {
	Limit int `json:"limit,omitempty"`
}

func (o *Orchestrator) registerHistoryTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "pricewatch_history",
		Description: "List recorded batch runs, most recent first.",
		InputSchema: inputSchema(map[string]any{
			"limit": map[string]any{"type": "integer", "description": "Max runs (default 20)"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*historyRequest)
		limit := rr.Limit
		if limit <= 0 {
			limit = 20
		}
		return o.store.RecentSessions(ctx, limit)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeJSON[historyRequest])
}
