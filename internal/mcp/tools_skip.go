package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"mantra-sdk/internal/protocols/skip"
)

func (s *Server) registerSkipTools() {
	routeParams := []mcp.ToolOption{
		mcp.WithString("amount_in", mcp.Required(), mcp.Description("Transfer amount, base units")),
		mcp.WithString("source_denom", mcp.Required(), mcp.Description("Source asset denom")),
		mcp.WithString("source_chain_id", mcp.Required(), mcp.Description("Source chain id")),
		mcp.WithString("dest_denom", mcp.Required(), mcp.Description("Destination asset denom")),
		mcp.WithString("dest_chain_id", mcp.Required(), mcp.Description("Destination chain id")),
	}

	s.mcp.AddTool(mcp.NewTool("skip_route",
		append([]mcp.ToolOption{
			mcp.WithDescription("Discover a cross-chain route between two assets."),
		}, routeParams...)...,
	), s.handleSkipRoute)

	s.mcp.AddTool(mcp.NewTool("skip_estimate_fees",
		append([]mcp.ToolOption{
			mcp.WithDescription("Estimate the fees a cross-chain route would incur."),
		}, routeParams...)...,
	), s.handleSkipEstimateFees)

	s.mcp.AddTool(mcp.NewTool("skip_execute_transfer",
		append([]mcp.ToolOption{
			mcp.WithDescription("Register a tracked transfer for a source transaction hash along a discovered route."),
			mcp.WithString("tx_hash", mcp.Required(), mcp.Description("Source chain transaction hash")),
		}, routeParams...)...,
	), s.handleSkipExecuteTransfer)

	s.mcp.AddTool(mcp.NewTool("skip_track_transfer",
		mcp.WithDescription("Refresh a tracked transfer's status."),
		mcp.WithString("transfer_id", mcp.Required(), mcp.Description("Transfer id returned by skip_execute_transfer")),
	), s.handleSkipTrackTransfer)

	s.mcp.AddTool(mcp.NewTool("skip_chains",
		mcp.WithDescription("List chains the cross-chain router supports."),
	), s.handleSkipChains)

	s.mcp.AddTool(mcp.NewTool("skip_verify_assets",
		mcp.WithDescription("Check which denoms the router knows on a chain."),
		mcp.WithString("chain_id", mcp.Required(), mcp.Description("Chain id")),
		mcp.WithString("denoms", mcp.Required(), mcp.Description("Comma-separated denom list")),
	), s.handleSkipVerifyAssets)
}

func routeRequestFromArgs(req mcp.CallToolRequest) (skip.RouteRequest, error) {
	amountIn, err := req.RequireString("amount_in")
	if err != nil {
		return skip.RouteRequest{}, err
	}
	sourceDenom, err := req.RequireString("source_denom")
	if err != nil {
		return skip.RouteRequest{}, err
	}
	sourceChain, err := req.RequireString("source_chain_id")
	if err != nil {
		return skip.RouteRequest{}, err
	}
	destDenom, err := req.RequireString("dest_denom")
	if err != nil {
		return skip.RouteRequest{}, err
	}
	destChain, err := req.RequireString("dest_chain_id")
	if err != nil {
		return skip.RouteRequest{}, err
	}
	return skip.RouteRequest{
		AmountIn:           amountIn,
		SourceAssetDenom:   sourceDenom,
		SourceAssetChainID: sourceChain,
		DestAssetDenom:     destDenom,
		DestAssetChainID:   destChain,
	}, nil
}

func (s *Server) handleSkipRoute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := s.adapter.SDK().Skip()
	if err != nil {
		return toolError(err)
	}
	routeReq, err := routeRequestFromArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := s.adapter.callJSON(ctx, func() (any, error) {
		return client.Route(ctx, routeReq)
	})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(raw), nil
}

func (s *Server) handleSkipEstimateFees(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := s.adapter.SDK().Skip()
	if err != nil {
		return toolError(err)
	}
	routeReq, err := routeRequestFromArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := s.adapter.callJSON(ctx, func() (any, error) {
		return client.EstimateFees(ctx, routeReq)
	})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(raw), nil
}

func (s *Server) handleSkipExecuteTransfer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := s.adapter.SDK().Skip()
	if err != nil {
		return toolError(err)
	}
	routeReq, err := routeRequestFromArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	txHash, err := req.RequireString("tx_hash")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	transfer, err := client.ExecuteTransfer(ctx, routeReq, txHash)
	if err != nil {
		return toolError(err)
	}
	raw, _ := json.Marshal(transfer)
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) handleSkipTrackTransfer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := s.adapter.SDK().Skip()
	if err != nil {
		return toolError(err)
	}
	transferID, err := req.RequireString("transfer_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	transfer, err := client.TrackTransfer(ctx, transferID)
	if err != nil {
		return toolError(err)
	}
	raw, _ := json.Marshal(transfer)
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) handleSkipChains(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := s.adapter.SDK().Skip()
	if err != nil {
		return toolError(err)
	}
	raw, err := s.adapter.cachedJSON(ctx, "skip:chains", func() (any, error) {
		return client.Chains(ctx)
	})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(raw), nil
}

func (s *Server) handleSkipVerifyAssets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := s.adapter.SDK().Skip()
	if err != nil {
		return toolError(err)
	}
	chainID, err := req.RequireString("chain_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	denomsArg, err := req.RequireString("denoms")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var denoms []string
	for _, denom := range strings.Split(denomsArg, ",") {
		if trimmed := strings.TrimSpace(denom); trimmed != "" {
			denoms = append(denoms, trimmed)
		}
	}

	raw, err := s.adapter.callJSON(ctx, func() (any, error) {
		return client.VerifyAssets(ctx, chainID, denoms)
	})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(raw), nil
}
