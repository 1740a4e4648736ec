package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kazuke353/magnus/internal/common"
	"github.com/kazuke353/magnus/internal/config"
	"github.com/kazuke353/magnus/internal/interfaces"
	"github.com/kazuke353/magnus/internal/models"
	"github.com/kazuke353/magnus/internal/portfolio"
)

// toolset carries the dependencies shared by the portfolio tool handlers.
type toolset struct {
	service  *portfolio.Service
	settings interfaces.SettingsStorage
	logger   *common.Logger
}

func portfolioTool() mcp.Tool {
	return mcp.NewTool("get_portfolio",
		mcp.WithDescription("Get the current portfolio snapshot: pies, positions, overall summary and deposit info. Serves cached data when fresh enough; set refresh to force an upstream fetch."),
		mcp.WithString("user_id",
			mcp.Description("User to fetch for. Defaults to the request's user identity."),
		),
		mcp.WithBoolean("refresh",
			mcp.Description("Bypass the cache and fetch fresh data from upstream."),
		),
	)
}

func allocationTool() mcp.Tool {
	return mcp.NewTool("get_allocation_report",
		mcp.WithDescription("Compare current pie allocation against target percentages. Optionally plan how to split a deposit across under-allocated pies."),
		mcp.WithString("user_id",
			mcp.Description("User to analyze. Defaults to the request's user identity."),
		),
		mcp.WithNumber("deposit",
			mcp.Description("Deposit amount to plan across under-allocated pies."),
		),
	)
}

func versionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get Magnus server version and build info. Use this to verify connectivity."),
	)
}

func (t *toolset) handleGetPortfolio(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := request.GetString("user_id", common.UserIDFromContext(ctx))

	settings, err := t.loadSettings(ctx, userID)
	if err != nil {
		return errorResult("failed to load user settings: " + err.Error()), nil
	}

	maxStaleness := common.FreshnessPortfolio
	if request.GetBool("refresh", false) {
		maxStaleness = 0
	}

	snapshot, err := t.service.GetPortfolio(ctx, userID, settings, maxStaleness)
	if err != nil {
		t.logger.Warn().Str("user", userID).Err(err).Msg("MCP portfolio request failed")
		return errorResult("portfolio data temporarily unavailable: " + err.Error()), nil
	}

	return jsonResult(snapshot)
}

func (t *toolset) handleGetAllocationReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := request.GetString("user_id", common.UserIDFromContext(ctx))

	settings, err := t.loadSettings(ctx, userID)
	if err != nil {
		return errorResult("failed to load user settings: " + err.Error()), nil
	}

	deposit := request.GetFloat("deposit", 0)
	if deposit < 0 {
		return errorResult("deposit must be non-negative"), nil
	}

	report, err := t.service.GetAllocationReport(ctx, userID, settings, deposit)
	if err != nil {
		t.logger.Warn().Str("user", userID).Err(err).Msg("MCP allocation request failed")
		return errorResult("allocation report temporarily unavailable: " + err.Error()), nil
	}

	return jsonResult(report)
}

func handleGetVersion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]string{
		"version":    config.GetVersion(),
		"build":      config.GetBuild(),
		"git_commit": config.GetGitCommit(),
	})
}

// loadSettings fetches stored settings for userID, falling back to defaults.
func (t *toolset) loadSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	settings, err := t.settings.GetSettings(ctx, userID)
	if err == interfaces.ErrNotFound {
		return models.NewDefaultSettings(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// errorResult creates an MCP error result.
func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}

// jsonResult marshals v as the tool's text content.
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return errorResult("failed to marshal result"), nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(out))},
	}, nil
}
