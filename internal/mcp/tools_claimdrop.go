package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerClaimdropTools() {
	s.mcp.AddTool(mcp.NewTool("claimdrop_campaigns",
		mcp.WithDescription("List reward campaigns instantiated by the factory."),
		mcp.WithString("start_after", mcp.Description("Campaign address to resume after")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of campaigns")),
	), s.handleClaimdropCampaigns)

	s.mcp.AddTool(mcp.NewTool("claimdrop_rewards",
		mcp.WithDescription("Claimed, pending, and claimable rewards of a receiver in one campaign."),
		mcp.WithString("campaign", mcp.Required(), mcp.Description("Campaign contract address")),
		mcp.WithString("receiver", mcp.Description("Receiver address; default is the active wallet")),
	), s.handleClaimdropRewards)

	s.mcp.AddTool(mcp.NewTool("claimdrop_claim",
		mcp.WithDescription("Build a claim message for the active wallet. The message is returned unbroadcast."),
		mcp.WithString("campaign", mcp.Required(), mcp.Description("Campaign contract address")),
		mcp.WithString("receiver", mcp.Description("Optional alternate receiver")),
		mcp.WithString("amount", mcp.Description("Optional partial amount; default claims everything claimable")),
	), s.handleClaimdropClaim)

	s.mcp.AddTool(mcp.NewTool("claimdrop_allocations",
		mcp.WithDescription("List campaign allocations, optionally for one address."),
		mcp.WithString("campaign", mcp.Required(), mcp.Description("Campaign contract address")),
		mcp.WithString("address", mcp.Description("Filter to one address")),
	), s.handleClaimdropAllocations)

	s.mcp.AddTool(mcp.NewTool("claimdrop_stats",
		mcp.WithDescription("Aggregate reward and claim totals across every campaign."),
	), s.handleClaimdropStats)
}

func (s *Server) handleClaimdropCampaigns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	factory, err := s.adapter.SDK().Claimdrop()
	if err != nil {
		return toolError(err)
	}
	startAfter := req.GetString("start_after", "")
	limit := uint32(req.GetInt("limit", 0))

	key := fmt.Sprintf("claimdrop:campaigns:%s:%s:%d",
		s.adapter.SDK().Network().Network, startAfter, limit)
	raw, err := s.adapter.cachedJSON(ctx, key, func() (any, error) {
		return factory.Campaigns(ctx, startAfter, limit)
	})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(raw), nil
}

func (s *Server) handleClaimdropRewards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	campaignAddr, err := req.RequireString("campaign")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	receiver := req.GetString("receiver", "")
	if receiver == "" {
		receiver, err = s.activeCosmosAddress()
		if err != nil {
			return toolError(err)
		}
	}

	campaign, err := s.adapter.SDK().Campaign(campaignAddr)
	if err != nil {
		return toolError(err)
	}
	raw, err := s.adapter.callJSON(ctx, func() (any, error) {
		return campaign.Rewards(ctx, receiver)
	})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(raw), nil
}

func (s *Server) handleClaimdropClaim(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	campaignAddr, err := req.RequireString("campaign")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sender, err := s.activeCosmosAddress()
	if err != nil {
		return toolError(err)
	}
	campaign, err := s.adapter.SDK().Campaign(campaignAddr)
	if err != nil {
		return toolError(err)
	}

	result, err := campaign.Claim(ctx, sender,
		req.GetString("receiver", ""), req.GetString("amount", ""))
	if err != nil {
		return toolError(err)
	}
	raw, _ := json.Marshal(result)
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) handleClaimdropAllocations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	campaignAddr, err := req.RequireString("campaign")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	campaign, err := s.adapter.SDK().Campaign(campaignAddr)
	if err != nil {
		return toolError(err)
	}
	raw, err := s.adapter.callJSON(ctx, func() (any, error) {
		return campaign.Allocations(ctx, req.GetString("address", ""), "", 0)
	})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(raw), nil
}

func (s *Server) handleClaimdropStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	factory, err := s.adapter.SDK().Claimdrop()
	if err != nil {
		return toolError(err)
	}
	key := "claimdrop:stats:" + s.adapter.SDK().Network().Network
	raw, err := s.adapter.cachedJSON(ctx, key, func() (any, error) {
		return factory.Stats(ctx)
	})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(raw), nil
}
