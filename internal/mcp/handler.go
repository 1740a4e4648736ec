// Package mcp exposes the portfolio service to MCP clients over streamable HTTP.
package mcp

import (
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kazuke353/magnus/internal/common"
	"github.com/kazuke353/magnus/internal/config"
	"github.com/kazuke353/magnus/internal/interfaces"
	"github.com/kazuke353/magnus/internal/portfolio"
)

// Handler is the HTTP handler for the MCP endpoint.
// It wraps mcp-go's StreamableHTTPServer and delegates to it.
type Handler struct {
	streamable *mcpserver.StreamableHTTPServer
	logger     *common.Logger
}

// NewHandler creates a new MCP handler with the portfolio tools registered.
func NewHandler(service *portfolio.Service, settings interfaces.SettingsStorage, logger *common.Logger) *Handler {
	mcpSrv := mcpserver.NewMCPServer(
		"magnus",
		config.GetVersion(),
		mcpserver.WithToolCapabilities(true),
	)

	tools := &toolset{
		service:  service,
		settings: settings,
		logger:   logger,
	}

	mcpSrv.AddTool(portfolioTool(), tools.handleGetPortfolio)
	mcpSrv.AddTool(allocationTool(), tools.handleGetAllocationReport)
	mcpSrv.AddTool(versionTool(), handleGetVersion)

	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithStateLess(true),
	)

	logger.Info().Int("tools", 3).Msg("MCP handler initialized")

	return &Handler{
		streamable: streamable,
		logger:     logger,
	}
}

// ServeHTTP resolves the caller's user identity from the request header and
// delegates to the mcp-go StreamableHTTPServer.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := common.WithUserID(r.Context(), common.ResolveUserID(r))
	h.streamable.ServeHTTP(w, r.WithContext(ctx))
}
