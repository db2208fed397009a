package claimdrop

import (
	"context"
	"encoding/json"
	"testing"

	"mantra-sdk/internal/config"
	"mantra-sdk/internal/cosmos"
	"mantra-sdk/internal/cosmos/cosmostest"
	"mantra-sdk/internal/errors"
)

const (
	factoryAddr   = "mantra1y4uve7rytvk3msgvge00lpp4skts7wn7yg5k4yk264w53x38ypeq7emt2x"
	campaignAddr  = "mantra1fwcxlrjw8fm3t5sp64eap2jzxa3w2hdt6cdzcq3837jke3kjjnsqt2vagx"
	campaignAddr2 = "mantra1aqpqs6kk58skk7p49ttjjmf240vrtvd33f882m"
	receiverAddr  = "mantra19rl4cm2hmr8afy4kldpxz3fka4jguq0aht8eu0"
)

func testCampaign(name, claimed string, closed bool) map[string]any {
	c := map[string]any{
		"owner":        receiverAddr,
		"name":         name,
		"description":  "test campaign",
		"reward_denom": "uom",
		"total_reward": map[string]string{"denom": "uom", "amount": "1000000"},
		"claimed":      map[string]string{"denom": "uom", "amount": claimed},
		"start_time":   1700000000,
		"end_time":     1800000000,
		"distribution_type": map[string]any{
			"lump_sum": map[string]any{},
		},
	}
	if closed {
		c["closed"] = 1750000000
	}
	return c
}

func newFactory(t *testing.T, srv *cosmostest.Server) *FactoryClient {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Networks = map[string]config.NetworkConstants{
		config.NetworkDukong: {RPCURL: srv.URL()},
	}
	cfg.Contracts = map[string]map[string]string{
		config.NetworkDukong: {string(config.ContractClaimdropFactory): factoryAddr},
	}
	manager, err := config.NewManager(cfg)
	if err != nil {
		t.Fatal(err)
	}
	rpc, err := cosmos.NewClient(srv.URL())
	if err != nil {
		t.Fatal(err)
	}
	factory := NewFactory(rpc, manager)
	if err := factory.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return factory
}

func TestCampaignQueries(t *testing.T) {
	srv := cosmostest.New(t)
	srv.HandleSmart(campaignAddr, func(query json.RawMessage) (any, error) {
		var q map[string]json.RawMessage
		if err := json.Unmarshal(query, &q); err != nil {
			t.Fatal(err)
		}
		switch {
		case q["campaign"] != nil:
			return testCampaign("airdrop-1", "250000", false), nil
		case q["rewards"] != nil:
			return map[string]any{
				"claimed":            []map[string]string{{"denom": "uom", "amount": "100"}},
				"pending":            []map[string]string{{"denom": "uom", "amount": "400"}},
				"available_to_claim": []map[string]string{{"denom": "uom", "amount": "400"}},
			}, nil
		case q["allocations"] != nil:
			return map[string]any{
				"allocations": []any{
					[]any{receiverAddr, map[string]string{"denom": "uom", "amount": "500"}},
				},
			}, nil
		case q["is_blacklisted"] != nil:
			return map[string]any{"is_blacklisted": true}, nil
		default:
			t.Fatalf("unexpected query: %s", query)
			return nil, nil
		}
	})

	rpc, _ := cosmos.NewClient(srv.URL())
	client, err := NewCampaignClient(rpc, campaignAddr)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	campaign, err := client.Campaign(ctx)
	if err != nil {
		t.Fatalf("Campaign: %v", err)
	}
	if campaign.Name != "airdrop-1" || campaign.TotalReward.Amount != "1000000" {
		t.Fatalf("unexpected campaign: %+v", campaign)
	}

	rewards, err := client.Rewards(ctx, receiverAddr)
	if err != nil {
		t.Fatalf("Rewards: %v", err)
	}
	if len(rewards.AvailableToClaim) != 1 || rewards.AvailableToClaim[0].Amount != "400" {
		t.Fatalf("unexpected rewards: %+v", rewards)
	}

	allocations, err := client.Allocations(ctx, receiverAddr, "", 0)
	if err != nil {
		t.Fatalf("Allocations: %v", err)
	}
	if len(allocations.Allocations) != 1 {
		t.Fatalf("unexpected allocations: %+v", allocations)
	}
	if allocations.Allocations[0].Address != receiverAddr || allocations.Allocations[0].Amount.Amount != "500" {
		t.Fatalf("tuple decode failed: %+v", allocations.Allocations[0])
	}

	blacklisted, err := client.IsBlacklisted(ctx, receiverAddr)
	if err != nil || !blacklisted {
		t.Fatalf("IsBlacklisted = %v, %v", blacklisted, err)
	}

	if _, err := client.Rewards(ctx, ""); err == nil {
		t.Fatal("expected error for empty receiver")
	}
}

func TestClaimBuildsMessage(t *testing.T) {
	srv := cosmostest.New(t)
	rpc, _ := cosmos.NewClient(srv.URL())
	client, _ := NewCampaignClient(rpc, campaignAddr)

	res, err := client.Claim(context.Background(), receiverAddr, "", "250")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if res.Success {
		t.Fatal("claim result must not report success without broadcast")
	}
	var msg struct {
		Claim struct {
			Amount string `json:"amount"`
		} `json:"claim"`
	}
	if err := json.Unmarshal(res.Msg, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Claim.Amount != "250" {
		t.Fatalf("unexpected message: %s", res.Msg)
	}
}

func TestAllocationRoundTrip(t *testing.T) {
	in := Allocation{Address: receiverAddr, Amount: cosmos.Coin{Denom: "uom", Amount: "42"}}
	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out Allocation
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestFactoryCampaignsAndStats(t *testing.T) {
	srv := cosmostest.New(t)
	srv.HandleSmart(factoryAddr, func(query json.RawMessage) (any, error) {
		return map[string]any{
			"campaigns": []map[string]any{
				{"address": campaignAddr, "campaign": testCampaign("airdrop-1", "250000", false)},
				{"address": campaignAddr2, "campaign": testCampaign("airdrop-2", "1000000", true)},
			},
		}, nil
	})

	factory := newFactory(t, srv)
	ctx := context.Background()

	campaigns, err := factory.Campaigns(ctx, "", 0)
	if err != nil {
		t.Fatalf("Campaigns: %v", err)
	}
	if len(campaigns) != 2 {
		t.Fatalf("got %d campaigns", len(campaigns))
	}

	stats, err := factory.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalCampaigns != 2 || stats.ActiveCampaigns != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.TotalRewards["uom"] != "2000000" {
		t.Fatalf("total rewards = %s", stats.TotalRewards["uom"])
	}
	if stats.TotalClaimed["uom"] != "1250000" {
		t.Fatalf("total claimed = %s", stats.TotalClaimed["uom"])
	}
}

func TestStatsSumsAmountsBeyondInt64(t *testing.T) {
	// One campaign's reward in base units of an 18-decimal denom
	// already exceeds the int64 range.
	huge := "18446744073709551616000000000000000000"
	srv := cosmostest.New(t)
	srv.HandleSmart(factoryAddr, func(query json.RawMessage) (any, error) {
		c1 := testCampaign("mega-1", "0", false)
		c1["total_reward"] = map[string]string{"denom": "aom", "amount": huge}
		c1["claimed"] = map[string]string{"denom": "aom", "amount": huge}
		c2 := testCampaign("mega-2", "0", false)
		c2["total_reward"] = map[string]string{"denom": "aom", "amount": huge}
		c2["claimed"] = map[string]string{"denom": "aom", "amount": "0"}
		return map[string]any{
			"campaigns": []map[string]any{
				{"address": campaignAddr, "campaign": c1},
				{"address": campaignAddr2, "campaign": c2},
			},
		}, nil
	})

	factory := newFactory(t, srv)
	stats, err := factory.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if want := "36893488147419103232000000000000000000"; stats.TotalRewards["aom"] != want {
		t.Fatalf("total rewards = %s, want %s", stats.TotalRewards["aom"], want)
	}
	if stats.TotalClaimed["aom"] != huge {
		t.Fatalf("total claimed = %s, want %s", stats.TotalClaimed["aom"], huge)
	}
}

func TestStatsRejectsMalformedAmount(t *testing.T) {
	srv := cosmostest.New(t)
	srv.HandleSmart(factoryAddr, func(query json.RawMessage) (any, error) {
		return map[string]any{
			"campaigns": []map[string]any{
				{"address": campaignAddr, "campaign": testCampaign("bad", "not-a-number", false)},
			},
		}, nil
	})

	factory := newFactory(t, srv)
	if _, err := factory.Stats(context.Background()); errors.CodeOf(err) != errors.CodeSerialization {
		t.Fatalf("Stats: err = %v, want SERIALIZATION", err)
	}
}

func TestFactoryAggregateRewardsSkipsFailing(t *testing.T) {
	srv := cosmostest.New(t)
	srv.HandleSmart(factoryAddr, func(query json.RawMessage) (any, error) {
		return map[string]any{
			"campaigns": []map[string]any{
				{"address": campaignAddr, "campaign": testCampaign("a", "0", false)},
				{"address": campaignAddr2, "campaign": testCampaign("b", "0", false)},
			},
		}, nil
	})
	srv.HandleSmart(campaignAddr, func(query json.RawMessage) (any, error) {
		return map[string]any{
			"claimed":            []any{},
			"pending":            []map[string]string{{"denom": "uom", "amount": "10"}},
			"available_to_claim": []any{},
		}, nil
	})
	// campaignAddr2 has no handler, so its rewards query fails

	factory := newFactory(t, srv)
	rewards, err := factory.AggregateRewards(context.Background(), receiverAddr)
	if err != nil {
		t.Fatalf("AggregateRewards: %v", err)
	}
	if len(rewards) != 1 {
		t.Fatalf("expected the failing campaign to be skipped: %v", rewards)
	}
	if rewards[campaignAddr].Pending[0].Amount != "10" {
		t.Fatalf("unexpected rewards: %+v", rewards[campaignAddr])
	}
}

func TestCreateCampaignValidation(t *testing.T) {
	srv := cosmostest.New(t)
	factory := newFactory(t, srv)
	ctx := context.Background()

	_, err := factory.CreateCampaign(ctx, receiverAddr, CampaignParams{
		Name:        "",
		RewardDenom: "uom",
	})
	if err == nil {
		t.Fatal("expected error for missing name")
	}

	_, err = factory.CreateCampaign(ctx, receiverAddr, CampaignParams{
		Name:        "x",
		RewardDenom: "uom",
		StartTime:   100,
		EndTime:     100,
	})
	if err == nil {
		t.Fatal("expected error for end <= start")
	}

	res, err := factory.CreateCampaign(ctx, receiverAddr, CampaignParams{
		Name:        "airdrop",
		Description: "d",
		RewardDenom: "uom",
		TotalReward: cosmos.Coin{Denom: "uom", Amount: "1000"},
		StartTime:   100,
		EndTime:     200,
	})
	if err != nil {
		t.Fatalf("CreateCampaign: %v", err)
	}
	if len(res.Funds) != 1 || res.Funds[0].Amount != "1000" {
		t.Fatalf("funds should carry the total reward: %+v", res.Funds)
	}
}
