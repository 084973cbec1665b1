// MCP transport handler using the official MCP Go SDK.
// Exposes the worklist and document generation as MCP tools.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"autoparse/internal/model"
)

// === MCP Tool Input/Output Types ===

// ListOrdersInput is the (empty) input schema for the listing tools.
type ListOrdersInput struct{}

// GenerateDocumentInput is the (empty) input schema for generate_orders_document.
type GenerateDocumentInput struct{}

// OrderSummary is the compact order view returned to agents.
type OrderSummary struct {
	ID           int64    `json:"id" jsonschema:"WooCommerce order number"`
	Status       string   `json:"status" jsonschema:"order status"`
	CustomerNote string   `json:"customer_note" jsonschema:"note left by the customer, may be empty"`
	Products     []string `json:"products" jsonschema:"line item names in order"`
}

// OrderListOutput is the result of the listing tools.
type OrderListOutput struct {
	Processing int            `json:"processing" jsonschema:"number of processing orders in the store"`
	Untracked  int            `json:"untracked" jsonschema:"number of processing orders without track and trace"`
	Orders     []OrderSummary `json:"orders" jsonschema:"the listed orders"`
}

// DocumentOutput is the result of generate_orders_document.
type DocumentOutput struct {
	Path     string `json:"path" jsonschema:"where the document was written on the server"`
	FileName string `json:"file_name" jsonschema:"document file name"`
	Size     int    `json:"size" jsonschema:"document size in bytes"`
}

// NewMCPServer creates an MCP server with the worklist tools registered.
// The server exposes the same operations as the REST API but via MCP protocol.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "autoparse",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Order worklist for manual fulfillment. " +
				"List processing orders that still need a shipment label and print them as a Word document.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_untracked_orders",
		Description: "List processing orders that have no MyParcel track & trace barcode yet.",
	}, h.mcpListUntracked)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_processing_orders",
		Description: "List every processing order, tracked or not.",
	}, h.mcpListProcessing)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_orders_document",
		Description: "Render the untracked orders to today's .docx file, one page per order.",
	}, h.mcpGenerateDocument)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpListUntracked(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ListOrdersInput,
) (*mcp.CallToolResult, OrderListOutput, error) {
	orders, processing, err := h.worklist.Summary(ctx)
	if err != nil {
		return nil, OrderListOutput{}, h.mcpError(err)
	}

	return nil, OrderListOutput{
		Processing: processing,
		Untracked:  len(orders),
		Orders:     summarize(orders),
	}, nil
}

func (h *Handler) mcpListProcessing(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ListOrdersInput,
) (*mcp.CallToolResult, OrderListOutput, error) {
	orders, err := h.worklist.All(ctx)
	if err != nil {
		return nil, OrderListOutput{}, h.mcpError(err)
	}

	return nil, OrderListOutput{
		Processing: len(orders),
		Orders:     summarize(orders),
	}, nil
}

func (h *Handler) mcpGenerateDocument(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input GenerateDocumentInput,
) (*mcp.CallToolResult, DocumentOutput, error) {
	file, err := h.documents.Generate(ctx)
	if err != nil {
		return nil, DocumentOutput{}, h.mcpError(err)
	}

	return nil, DocumentOutput{Path: file.Path, FileName: file.Name(), Size: len(file.Data)}, nil
}

// mcpError converts domain errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}

func summarize(orders []model.Order) []OrderSummary {
	out := make([]OrderSummary, len(orders))
	for i, o := range orders {
		products := make([]string, len(o.LineItems))
		for j, item := range o.LineItems {
			products[j] = item.Name
		}
		out[i] = OrderSummary{
			ID:           o.ID,
			Status:       o.Status,
			CustomerNote: o.CustomerNote,
			Products:     products,
		}
	}
	return out
}
