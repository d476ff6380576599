// Package tools registers the MCP tool surface over the pricing service.
package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/opentariff/ocipricer/internal/observe"
	"github.com/opentariff/ocipricer/internal/pricing"
)

// GetSKUArgs are the arguments for the pricing_get_sku tool. Omitted
// optional fields keep the server defaults.
type GetSKUArgs struct {
	PartNumber string  `json:"part_number" jsonschema:"Oracle part number, e.g. B93113"`
	Currency   *string `json:"currency,omitempty" jsonschema:"ISO 4217 currency code, e.g. USD or JPY"`
	MaxPages   *int    `json:"max_pages,omitempty" jsonschema:"Catalogue pages to scan on name fallback (1-10)"`
}

// SearchNameArgs are the arguments for the pricing_search_name tool.
type SearchNameArgs struct {
	Query         string  `json:"query" jsonschema:"Free-form product name, e.g. 'autonomous db' or 'oke'"`
	Currency      *string `json:"currency,omitempty" jsonschema:"ISO 4217 currency code, e.g. USD or JPY"`
	Limit         *int    `json:"limit,omitempty" jsonschema:"Maximum results to return (1-20)"`
	MaxPages      *int    `json:"max_pages,omitempty" jsonschema:"Catalogue pages to scan (1-10)"`
	RequirePriced bool    `json:"require_priced,omitempty" jsonschema:"Drop items without a positive unit price"`
}

// PingArgs are the arguments for the ping tool. There are none.
type PingArgs struct{}

// Register wires the pricing tools onto the server.
func Register(s *mcp.Server, svc *pricing.Service, m *observe.Metrics) {
	mcp.AddTool(s, &mcp.Tool{
		Name: "pricing_get_sku",
		Description: "Look up the OCI list price for a single part number (SKU). " +
			"Falls back to a fuzzy name search over the public catalogue when the " +
			"SKU is unknown. Prices come from the public cetools subset.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GetSKUArgs) (*mcp.CallToolResult, any, error) {
		start := time.Now()
		ctx, end := observe.ToolSpan(ctx, "pricing_get_sku", observe.PartNumber(args.PartNumber))
		res := svc.GetSKU(ctx, pricing.GetSKUParams{
			PartNumber: args.PartNumber,
			Currency:   args.Currency,
			MaxPages:   args.MaxPages,
		})
		end(res.ResultKind())
		m.RecordToolCall(ctx, "pricing_get_sku", res.ResultKind(), time.Since(start).Seconds())
		return textResult(res)
	})

	mcp.AddTool(s, &mcp.Tool{
		Name: "pricing_search_name",
		Description: "Fuzzy-search OCI products by name and return simplified price " +
			"entries. Understands common abbreviations (adb, oke, oss, lb, ...). " +
			"Each hit is refined through the SKU endpoint for a currency-accurate price.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args SearchNameArgs) (*mcp.CallToolResult, any, error) {
		start := time.Now()
		ctx, end := observe.ToolSpan(ctx, "pricing_search_name", observe.Query(args.Query))
		res := svc.SearchName(ctx, pricing.SearchNameParams{
			Query:         args.Query,
			Currency:      args.Currency,
			Limit:         args.Limit,
			MaxPages:      args.MaxPages,
			RequirePriced: args.RequirePriced,
		})
		end(res.ResultKind())
		m.RecordToolCall(ctx, "pricing_search_name", res.ResultKind(), time.Since(start).Seconds())
		return textResult(res)
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "ping",
		Description: "Liveness probe. Always returns ok.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args PingArgs) (*mcp.CallToolResult, any, error) {
		m.RecordToolCall(ctx, "ping", "ok", 0)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "ok"}},
		}, nil, nil
	})
}

// textResult marshals a pricing result into a single JSON text content block.
// Marshal failures surface as protocol errors; result payloads themselves
// never carry Go errors.
func textResult(res pricing.Result) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
