// Package claimdrop is the client for reward campaign contracts: a
// campaign client for queries and claim construction, and a factory
// client for campaign discovery and aggregation.
package claimdrop

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shopspring/decimal"

	"mantra-sdk/internal/config"
	"mantra-sdk/internal/cosmos"
	"mantra-sdk/internal/errors"
	"mantra-sdk/internal/protocols"
	"mantra-sdk/pkg/logger"
)

// Version of the protocol client.
const Version = "1.0.0"

// CampaignClient targets one campaign contract.
type CampaignClient struct {
	rpc      *cosmos.Client
	contract string
	log      *slog.Logger
}

// NewCampaignClient binds a client to a campaign contract address.
func NewCampaignClient(rpc *cosmos.Client, contract string) (*CampaignClient, error) {
	if contract == "" {
		return nil, errors.New(errors.CodeInvalidArgument, "campaign contract address is required")
	}
	return &CampaignClient{
		rpc:      rpc,
		contract: contract,
		log:      logger.Named("claimdrop"),
	}, nil
}

// Address returns the campaign contract address.
func (c *CampaignClient) Address() string { return c.contract }

// Campaign fetches the campaign state.
func (c *CampaignClient) Campaign(ctx context.Context) (*Campaign, error) {
	var campaign Campaign
	if err := c.rpc.SmartQuery(ctx, c.contract, map[string]any{"campaign": map[string]any{}}, &campaign); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// Rewards reports a receiver's claimed, pending, and claimable rewards.
func (c *CampaignClient) Rewards(ctx context.Context, receiver string) (*RewardsResponse, error) {
	if receiver == "" {
		return nil, errors.New(errors.CodeInvalidArgument, "receiver address is required")
	}
	var rewards RewardsResponse
	query := map[string]any{"rewards": map[string]any{"receiver": receiver}}
	if err := c.rpc.SmartQuery(ctx, c.contract, query, &rewards); err != nil {
		return nil, err
	}
	return &rewards, nil
}

// Claimed lists claimed totals, optionally for one address.
func (c *CampaignClient) Claimed(ctx context.Context, address, startFrom string, limit uint32) (*ClaimedResponse, error) {
	inner := map[string]any{}
	if address != "" {
		inner["address"] = address
	}
	if startFrom != "" {
		inner["start_from"] = startFrom
	}
	if limit > 0 {
		inner["limit"] = limit
	}
	var claimed ClaimedResponse
	if err := c.rpc.SmartQuery(ctx, c.contract, map[string]any{"claimed": inner}, &claimed); err != nil {
		return nil, err
	}
	return &claimed, nil
}

// Allocations lists allocations, optionally for one address.
func (c *CampaignClient) Allocations(ctx context.Context, address, startFrom string, limit uint32) (*AllocationsResponse, error) {
	inner := map[string]any{}
	if address != "" {
		inner["address"] = address
	}
	if startFrom != "" {
		inner["start_from"] = startFrom
	}
	if limit > 0 {
		inner["limit"] = limit
	}
	var allocations AllocationsResponse
	if err := c.rpc.SmartQuery(ctx, c.contract, map[string]any{"allocations": inner}, &allocations); err != nil {
		return nil, err
	}
	return &allocations, nil
}

// IsBlacklisted checks whether an address is excluded from claiming.
func (c *CampaignClient) IsBlacklisted(ctx context.Context, address string) (bool, error) {
	var resp BlacklistResponse
	query := map[string]any{"is_blacklisted": map[string]any{"address": address}}
	if err := c.rpc.SmartQuery(ctx, c.contract, query, &resp); err != nil {
		return false, err
	}
	return resp.IsBlacklisted, nil
}

// IsAuthorized checks whether an address may manage the campaign.
func (c *CampaignClient) IsAuthorized(ctx context.Context, address string) (bool, error) {
	var resp AuthorizedResponse
	query := map[string]any{"is_authorized": map[string]any{"address": address}}
	if err := c.rpc.SmartQuery(ctx, c.contract, query, &resp); err != nil {
		return false, err
	}
	return resp.IsAuthorized, nil
}

func (c *CampaignClient) execute(sender string, msg map[string]any, funds []cosmos.Coin) (*protocols.OperationResult, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, errors.Wrap(errors.CodeSerialization, err, "encode execute message")
	}
	return protocols.NewExecuteResult(c.contract, sender, payload, funds), nil
}

// Claim builds a claim execution. Receiver and amount are optional; the
// contract defaults to the sender and the full claimable amount.
func (c *CampaignClient) Claim(ctx context.Context, sender, receiver, amount string) (*protocols.OperationResult, error) {
	inner := map[string]any{}
	if receiver != "" {
		inner["receiver"] = receiver
	}
	if amount != "" {
		inner["amount"] = amount
	}
	c.log.Info("claim message constructed", "campaign", c.contract, "sender", sender)
	return c.execute(sender, map[string]any{"claim": inner}, nil)
}

// AddAllocations builds an allocation upload.
func (c *CampaignClient) AddAllocations(ctx context.Context, sender string, allocations []Allocation) (*protocols.OperationResult, error) {
	if len(allocations) == 0 {
		return nil, errors.New(errors.CodeInvalidArgument, "allocations must not be empty")
	}
	return c.execute(sender, map[string]any{
		"add_allocations": map[string]any{"allocations": allocations},
	}, nil)
}

// ReplaceAddress builds a message moving an allocation to a new address.
func (c *CampaignClient) ReplaceAddress(ctx context.Context, sender, oldAddress, newAddress string) (*protocols.OperationResult, error) {
	if oldAddress == "" || newAddress == "" {
		return nil, errors.New(errors.CodeInvalidArgument, "both addresses are required")
	}
	return c.execute(sender, map[string]any{
		"replace_address": map[string]any{"old_address": oldAddress, "new_address": newAddress},
	}, nil)
}

// RemoveAddress builds a message dropping an address's allocation.
func (c *CampaignClient) RemoveAddress(ctx context.Context, sender, address string) (*protocols.OperationResult, error) {
	if address == "" {
		return nil, errors.New(errors.CodeInvalidArgument, "address is required")
	}
	return c.execute(sender, map[string]any{
		"remove_address": map[string]any{"address": address},
	}, nil)
}

// BlacklistAddress builds a message toggling an address's blacklist flag.
func (c *CampaignClient) BlacklistAddress(ctx context.Context, sender, address string, blacklist bool) (*protocols.OperationResult, error) {
	if address == "" {
		return nil, errors.New(errors.CodeInvalidArgument, "address is required")
	}
	return c.execute(sender, map[string]any{
		"blacklist_address": map[string]any{"address": address, "blacklist": blacklist},
	}, nil)
}

// CloseCampaign builds a campaign close, returning unclaimed funds to
// the owner.
func (c *CampaignClient) CloseCampaign(ctx context.Context, sender string) (*protocols.OperationResult, error) {
	return c.execute(sender, map[string]any{"close_campaign": map[string]any{}}, nil)
}

// FactoryClient targets the campaign factory and implements
// protocols.Protocol.
type FactoryClient struct {
	rpc      *cosmos.Client
	manager  *config.Manager
	log      *slog.Logger
	contract string
}

// NewFactory creates a factory client; the contract address resolves on
// Initialize.
func NewFactory(rpc *cosmos.Client, manager *config.Manager) *FactoryClient {
	return &FactoryClient{
		rpc:     rpc,
		manager: manager,
		log:     logger.Named("claimdrop"),
	}
}

// Name implements protocols.Protocol.
func (f *FactoryClient) Name() string { return protocols.IDClaimdrop }

// Version implements protocols.Protocol.
func (f *FactoryClient) Version() string { return Version }

// Initialize resolves the factory contract for the active network.
func (f *FactoryClient) Initialize(_ context.Context) error {
	addr, err := f.manager.ContractAddress(config.ContractClaimdropFactory)
	if err != nil {
		return errors.Wrap(errors.CodeConfig, err, "claimdrop requires a factory contract")
	}
	f.contract = addr
	return nil
}

// IsAvailable reports whether the node answers and the factory is set.
func (f *FactoryClient) IsAvailable(ctx context.Context) bool {
	if f.contract == "" {
		return false
	}
	return f.rpc.Healthy(ctx) == nil
}

// Campaign opens a campaign client for one of the factory's campaigns.
func (f *FactoryClient) Campaign(address string) (*CampaignClient, error) {
	return NewCampaignClient(f.rpc, address)
}

// Campaigns lists campaigns the factory has instantiated.
func (f *FactoryClient) Campaigns(ctx context.Context, startAfter string, limit uint32) ([]CampaignSummary, error) {
	if f.contract == "" {
		return nil, errors.New(errors.CodeConfig, "claimdrop client not initialized")
	}
	inner := map[string]any{}
	if startAfter != "" {
		inner["start_after"] = startAfter
	}
	if limit > 0 {
		inner["limit"] = limit
	}
	var resp CampaignsResponse
	if err := f.rpc.SmartQuery(ctx, f.contract, map[string]any{"campaigns": inner}, &resp); err != nil {
		return nil, err
	}
	return resp.Campaigns, nil
}

// CreateCampaign builds a campaign creation through the factory. The
// total reward travels as funds.
func (f *FactoryClient) CreateCampaign(ctx context.Context, sender string, params CampaignParams) (*protocols.OperationResult, error) {
	if f.contract == "" {
		return nil, errors.New(errors.CodeConfig, "claimdrop client not initialized")
	}
	if params.Name == "" || params.RewardDenom == "" {
		return nil, errors.New(errors.CodeInvalidArgument, "campaign name and reward denom are required")
	}
	if params.EndTime <= params.StartTime {
		return nil, errors.New(errors.CodeInvalidArgument, "campaign end time must follow start time")
	}

	msg, err := json.Marshal(map[string]any{
		"create_campaign": map[string]any{"params": params},
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeSerialization, err, "encode create_campaign message")
	}
	funds := []cosmos.Coin{params.TotalReward}
	f.log.Info("create_campaign message constructed", "name", params.Name, "denom", params.RewardDenom)
	return protocols.NewExecuteResult(f.contract, sender, msg, funds), nil
}

// Stats aggregates reward totals across every campaign.
func (f *FactoryClient) Stats(ctx context.Context) (*CampaignStats, error) {
	campaigns, err := f.Campaigns(ctx, "", 0)
	if err != nil {
		return nil, err
	}

	stats := &CampaignStats{
		TotalCampaigns: len(campaigns),
		TotalRewards:   make(map[string]string),
		TotalClaimed:   make(map[string]string),
	}
	rewardTotals := make(map[string]decimal.Decimal)
	claimedTotals := make(map[string]decimal.Decimal)
	for _, c := range campaigns {
		if c.Campaign.Closed == nil {
			stats.ActiveCampaigns++
		}
		if err := addCoin(rewardTotals, c.Campaign.TotalReward); err != nil {
			return nil, err
		}
		if err := addCoin(claimedTotals, c.Campaign.Claimed); err != nil {
			return nil, err
		}
	}
	for denom, total := range rewardTotals {
		stats.TotalRewards[denom] = total.String()
	}
	for denom, total := range claimedTotals {
		stats.TotalClaimed[denom] = total.String()
	}
	return stats, nil
}

// addCoin accumulates with arbitrary precision; base-unit amounts of
// 18-decimal denoms do not fit an int64.
func addCoin(totals map[string]decimal.Decimal, coin cosmos.Coin) error {
	if coin.Denom == "" || coin.Amount == "" {
		return nil
	}
	amount, err := decimal.NewFromString(coin.Amount)
	if err != nil {
		return errors.Wrap(errors.CodeSerialization, err, "parse amount of "+coin.Denom)
	}
	totals[coin.Denom] = totals[coin.Denom].Add(amount)
	return nil
}

// AggregateRewards sums a receiver's rewards across every campaign of
// the factory.
func (f *FactoryClient) AggregateRewards(ctx context.Context, receiver string) (map[string]*RewardsResponse, error) {
	campaigns, err := f.Campaigns(ctx, "", 0)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*RewardsResponse, len(campaigns))
	for _, summary := range campaigns {
		campaign, err := f.Campaign(summary.Address)
		if err != nil {
			return nil, err
		}
		rewards, err := campaign.Rewards(ctx, receiver)
		if err != nil {
			f.log.Warn("skipping campaign in rewards aggregation",
				"campaign", summary.Address, "error", err)
			continue
		}
		out[summary.Address] = rewards
	}
	return out, nil
}
