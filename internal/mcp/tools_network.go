package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerNetworkTools() {
	s.mcp.AddTool(mcp.NewTool("network_status",
		mcp.WithDescription("Chain node status: network id, latest block height, sync state."),
	), s.handleNetworkStatus)

	s.mcp.AddTool(mcp.NewTool("network_connectivity",
		mcp.WithDescription("Probe every registered protocol and the chain RPC endpoint."),
	), s.handleNetworkConnectivity)

	s.mcp.AddTool(mcp.NewTool("network_contracts",
		mcp.WithDescription("Configured contract addresses on the active network."),
	), s.handleNetworkContracts)

	s.mcp.AddTool(mcp.NewTool("network_switch",
		mcp.WithDescription("Switch the active network and reinitialize the protocol clients."),
		mcp.WithString("network", mcp.Required(), mcp.Description("Network name, e.g. mantra-dukong or mantra-mainnet")),
	), s.handleNetworkSwitch)
}

func (s *Server) handleNetworkStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := s.adapter.callJSON(ctx, func() (any, error) {
		status, err := s.adapter.SDK().Cosmos().Status(ctx)
		if err != nil {
			return nil, err
		}
		active := s.adapter.SDK().Network()
		return map[string]any{
			"network":  active.Network,
			"chain_id": active.ChainID,
			"status":   status,
		}, nil
	})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(raw), nil
}

func (s *Server) handleNetworkConnectivity(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(s.adapter.SDK().CheckConnectivity(ctx))
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) handleNetworkContracts(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contracts := s.adapter.SDK().Config().Contracts()
	out := map[string]string{}
	if contracts != nil {
		for ct, addr := range contracts.All() {
			out[string(ct)] = addr
		}
	}
	raw, _ := json.Marshal(out)
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) handleNetworkSwitch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	network, err := req.RequireString("network")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.adapter.SDK().SwitchNetwork(ctx, network); err != nil {
		return toolError(err)
	}
	active := s.adapter.SDK().Network()
	if err := s.adapter.Wallets().SetNetwork(active); err != nil {
		return toolError(err)
	}
	raw, _ := json.Marshal(map[string]string{"network": active.Network, "chain_id": active.ChainID})
	return mcp.NewToolResultText(string(raw)), nil
}
