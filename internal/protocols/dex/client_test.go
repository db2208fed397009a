package dex

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"mantra-sdk/internal/config"
	"mantra-sdk/internal/cosmos"
	"mantra-sdk/internal/cosmos/cosmostest"
	"mantra-sdk/internal/errors"
)

const (
	poolManagerAddr = "mantra1fwcxlrjw8fm3t5sp64eap2jzxa3w2hdt6cdzcq3837jke3kjjnsqt2vagx"
	senderAddr      = "mantra19rl4cm2hmr8afy4kldpxz3fka4jguq0aht8eu0"
)

func testPool() map[string]any {
	return map[string]any{
		"pool_info": map[string]any{
			"pool_identifier": "om-usdc",
			"asset_denoms":    []string{"uom", "uusdc"},
			"lp_denom":        "factory/" + poolManagerAddr + "/om-usdc.LP",
			"asset_decimals":  []int{6, 6},
			"assets": []map[string]string{
				{"denom": "uom", "amount": "1000000"},
				{"denom": "uusdc", "amount": "5000000"},
			},
			"pool_type": map[string]any{"constant_product": map[string]any{}},
			"pool_fees": map[string]any{
				"protocol_fee": map[string]string{"share": "0.001"},
				"swap_fee":     map[string]string{"share": "0.002"},
				"burn_fee":     map[string]string{"share": "0"},
			},
		},
		"total_share": map[string]string{"denom": "factory/" + poolManagerAddr + "/om-usdc.LP", "amount": "2000000"},
	}
}

func newTestClient(t *testing.T, srv *cosmostest.Server) *Client {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Networks = map[string]config.NetworkConstants{
		config.NetworkDukong: {RPCURL: srv.URL()},
	}
	cfg.Contracts = map[string]map[string]string{
		config.NetworkDukong: {string(config.ContractPoolManager): poolManagerAddr},
	}
	manager, err := config.NewManager(cfg)
	if err != nil {
		t.Fatal(err)
	}
	rpc, err := cosmos.NewClient(srv.URL())
	if err != nil {
		t.Fatal(err)
	}
	client := New(rpc, manager)
	if err := client.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return client
}

func TestPoolsAndPool(t *testing.T) {
	srv := cosmostest.New(t)
	srv.HandleSmart(poolManagerAddr, func(query json.RawMessage) (any, error) {
		var q struct {
			Pools *struct {
				PoolIdentifier string `json:"pool_identifier"`
			} `json:"pools"`
		}
		if err := json.Unmarshal(query, &q); err != nil || q.Pools == nil {
			t.Fatalf("unexpected query: %s", query)
		}
		if q.Pools.PoolIdentifier != "" && q.Pools.PoolIdentifier != "om-usdc" {
			return map[string]any{"pools": []any{}}, nil
		}
		return map[string]any{"pools": []any{testPool()}}, nil
	})

	client := newTestClient(t, srv)

	pools, err := client.Pools(context.Background(), PoolsQuery{Limit: 10})
	if err != nil {
		t.Fatalf("Pools: %v", err)
	}
	if len(pools) != 1 || pools[0].PoolInfo.PoolIdentifier != "om-usdc" {
		t.Fatalf("unexpected pools: %+v", pools)
	}

	pool, err := client.Pool(context.Background(), "om-usdc")
	if err != nil {
		t.Fatalf("Pool: %v", err)
	}
	if pool.TotalShare.Amount != "2000000" {
		t.Fatalf("total share = %s", pool.TotalShare.Amount)
	}

	if _, err := client.Pool(context.Background(), "missing"); errors.CodeOf(err) != errors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestSimulateSwap(t *testing.T) {
	srv := cosmostest.New(t)
	srv.HandleSmart(poolManagerAddr, func(query json.RawMessage) (any, error) {
		if !strings.Contains(string(query), "simulation") {
			t.Fatalf("unexpected query: %s", query)
		}
		return map[string]any{
			"return_amount":       "4975",
			"spread_amount":       "25",
			"swap_fee_amount":     "10",
			"protocol_fee_amount": "5",
			"burn_fee_amount":     "0",
		}, nil
	})

	client := newTestClient(t, srv)
	sim, err := client.SimulateSwap(context.Background(), "om-usdc",
		cosmos.Coin{Denom: "uom", Amount: "1000"}, "uusdc")
	if err != nil {
		t.Fatalf("SimulateSwap: %v", err)
	}
	if sim.ReturnAmount != "4975" || sim.SpreadAmount != "25" {
		t.Fatalf("unexpected simulation: %+v", sim)
	}
}

func TestSwapBuildsMessage(t *testing.T) {
	srv := cosmostest.New(t)
	client := newTestClient(t, srv)

	spread := decimal.RequireFromString("0.01")
	res, err := client.Swap(context.Background(), senderAddr, SwapParams{
		PoolID:        "om-usdc",
		OfferAsset:    cosmos.Coin{Denom: "uom", Amount: "1000"},
		AskAssetDenom: "uusdc",
		MaxSpread:     &spread,
	})
	if err != nil {
		t.Fatalf("Swap: %v", err)
	}
	if res.Success {
		t.Fatal("swap result must not report success without broadcast")
	}
	if res.Contract != poolManagerAddr || res.Sender != senderAddr {
		t.Fatalf("unexpected result: %+v", res)
	}

	var msg struct {
		Swap struct {
			AskAssetDenom  string `json:"ask_asset_denom"`
			MaxSpread      string `json:"max_spread"`
			PoolIdentifier string `json:"pool_identifier"`
		} `json:"swap"`
	}
	if err := json.Unmarshal(res.Msg, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Swap.AskAssetDenom != "uusdc" || msg.Swap.MaxSpread != "0.01" || msg.Swap.PoolIdentifier != "om-usdc" {
		t.Fatalf("unexpected message: %s", res.Msg)
	}
	if len(res.Funds) != 1 || res.Funds[0].Denom != "uom" {
		t.Fatalf("funds should carry the offer asset: %+v", res.Funds)
	}

	// zero amount is rejected before building anything
	if _, err := client.Swap(context.Background(), senderAddr, SwapParams{
		OfferAsset:    cosmos.Coin{Denom: "uom", Amount: "0"},
		AskAssetDenom: "uusdc",
	}); err == nil {
		t.Fatal("expected error for zero offer amount")
	}
}

func TestWithdrawLiquidityAttachesLPDenom(t *testing.T) {
	srv := cosmostest.New(t)
	srv.HandleSmart(poolManagerAddr, func(query json.RawMessage) (any, error) {
		return map[string]any{"pools": []any{testPool()}}, nil
	})

	client := newTestClient(t, srv)
	res, err := client.WithdrawLiquidity(context.Background(), senderAddr, WithdrawLiquidityParams{
		PoolID: "om-usdc",
		Amount: "500",
	})
	if err != nil {
		t.Fatalf("WithdrawLiquidity: %v", err)
	}
	if len(res.Funds) != 1 || !strings.HasSuffix(res.Funds[0].Denom, "om-usdc.LP") || res.Funds[0].Amount != "500" {
		t.Fatalf("unexpected funds: %+v", res.Funds)
	}
}

func TestCreatePoolValidation(t *testing.T) {
	srv := cosmostest.New(t)
	client := newTestClient(t, srv)

	_, err := client.CreatePool(context.Background(), senderAddr, CreatePoolParams{
		AssetDenoms: []string{"uom"},
	})
	if err == nil {
		t.Fatal("expected error for a single denom")
	}

	_, err = client.CreatePool(context.Background(), senderAddr, CreatePoolParams{
		AssetDenoms:   []string{"uom", "uusdc"},
		AssetDecimals: []uint8{6},
	})
	if err == nil {
		t.Fatal("expected error for mismatched decimals")
	}
}

func TestLPTokenBalance(t *testing.T) {
	srv := cosmostest.New(t)
	srv.HandleSmart(poolManagerAddr, func(query json.RawMessage) (any, error) {
		return map[string]any{"pools": []any{testPool()}}, nil
	})
	srv.SetBalance(senderAddr, "uom", "123")
	srv.SetBalance(senderAddr, "factory/"+poolManagerAddr+"/om-usdc.LP", "777")

	client := newTestClient(t, srv)
	balance, err := client.LPTokenBalance(context.Background(), senderAddr, "om-usdc")
	if err != nil {
		t.Fatalf("LPTokenBalance: %v", err)
	}
	if balance.Amount != "777" {
		t.Fatalf("balance = %s, want 777", balance.Amount)
	}
}

func TestEstimateLPWithdrawal(t *testing.T) {
	srv := cosmostest.New(t)
	srv.HandleSmart(poolManagerAddr, func(query json.RawMessage) (any, error) {
		return map[string]any{"pools": []any{testPool()}}, nil
	})

	client := newTestClient(t, srv)
	// 500000 of 2000000 total share = 25% of each asset
	coins, err := client.EstimateLPWithdrawal(context.Background(), "om-usdc", "500000")
	if err != nil {
		t.Fatalf("EstimateLPWithdrawal: %v", err)
	}
	if len(coins) != 2 {
		t.Fatalf("got %d coins", len(coins))
	}
	if coins[0].Amount != "250000" || coins[1].Amount != "1250000" {
		t.Fatalf("unexpected estimate: %+v", coins)
	}
}
