// Package skip is the client for the external cross-chain routing API:
// route discovery, transfer tracking with a local registry, supported
// chains, and asset verification.
package skip

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"mantra-sdk/internal/errors"
	"mantra-sdk/internal/events"
	"mantra-sdk/internal/protocols"
	"mantra-sdk/pkg/logger"
)

// Version of the protocol client.
const Version = "1.0.0"

// DefaultBaseURL is the hosted router endpoint.
const DefaultBaseURL = "https://api.skip.money"

// DefaultHTTPTimeout bounds one API round trip.
const DefaultHTTPTimeout = 15 * time.Second

// API paths.
const (
	pathRoute  = "/v1/fungible/route"
	pathTrack  = "/v1/tx/track"
	pathChains = "/v1/info/chains"
	pathAssets = "/v1/fungible/assets"
)

// Client talks to the routing API and tracks transfers locally.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	publisher  events.Publisher
	log        *slog.Logger

	mu        sync.RWMutex
	transfers map[string]*Transfer
}

// Option customizes the client.
type Option func(*Client)

// WithBaseURL points the client at a different API host.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if parsed, err := url.Parse(base); err == nil {
			c.baseURL = parsed
		}
	}
}

// WithHTTPClient swaps the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithPublisher attaches a lifecycle event publisher.
func WithPublisher(pub events.Publisher) Option {
	return func(c *Client) {
		if pub != nil {
			c.publisher = pub
		}
	}
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// New creates a router client.
func New(opts ...Option) *Client {
	base, _ := url.Parse(DefaultBaseURL)
	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
		limiter:    rate.NewLimiter(rate.Limit(5), 10),
		publisher:  events.NewNoop(),
		log:        logger.Named("skip"),
		transfers:  make(map[string]*Transfer),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Name implements protocols.Protocol.
func (c *Client) Name() string { return protocols.IDSkip }

// Version implements protocols.Protocol.
func (c *Client) Version() string { return Version }

// Initialize implements protocols.Protocol. The API needs no setup.
func (c *Client) Initialize(_ context.Context) error { return nil }

// IsAvailable probes the chains endpoint.
func (c *Client) IsAvailable(ctx context.Context) bool {
	probe, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := c.Chains(probe)
	return err == nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(errors.CodeTimeout, err, "rate limit wait")
	}

	target := *c.baseURL
	target.Path = path
	if query != nil {
		target.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(errors.CodeSerialization, err, "encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return errors.Wrap(errors.CodeSkip, err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(errors.CodeSkip, err, "router request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(errors.CodeSkip, err, "read router response")
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &apiErr)
		msg := apiErr.Message
		if msg == "" {
			msg = string(raw)
		}
		return errors.Newf(errors.CodeSkip, "router returned HTTP %d: %s", resp.StatusCode, msg)
	}
	if result != nil {
		if err := json.Unmarshal(raw, result); err != nil {
			return errors.Wrap(errors.CodeSerialization, err, "decode router response")
		}
	}
	return nil
}

func validateRouteRequest(req RouteRequest) error {
	if req.AmountIn == "" || req.AmountIn == "0" {
		return errors.New(errors.CodeInvalidArgument, "transfer amount must be positive")
	}
	if req.SourceAssetChainID == "" || req.DestAssetChainID == "" {
		return errors.New(errors.CodeInvalidArgument, "source and destination chain ids are required")
	}
	if req.SourceAssetChainID == req.DestAssetChainID {
		return errors.New(errors.CodeInvalidArgument, "source and destination chains must differ")
	}
	return nil
}

// Route asks the router for a path between two assets.
func (c *Client) Route(ctx context.Context, req RouteRequest) (*Route, error) {
	if err := validateRouteRequest(req); err != nil {
		return nil, err
	}
	var route Route
	if err := c.do(ctx, http.MethodPost, pathRoute, nil, req, &route); err != nil {
		return nil, err
	}
	return &route, nil
}

// EstimateFees returns the fees a route would incur.
func (c *Client) EstimateFees(ctx context.Context, req RouteRequest) ([]FeeEstimate, error) {
	route, err := c.Route(ctx, req)
	if err != nil {
		return nil, err
	}
	return route.EstimatedFees, nil
}

// ExecuteTransfer resolves a route and registers a tracked transfer for
// the given source transaction hash. Broadcast happens in the caller's
// signing pipeline; the transfer starts pending.
func (c *Client) ExecuteTransfer(ctx context.Context, req RouteRequest, txHash string) (*Transfer, error) {
	route, err := c.Route(ctx, req)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	transfer := &Transfer{
		ID:            uuid.NewString(),
		TxHash:        txHash,
		SourceChainID: req.SourceAssetChainID,
		DestChainID:   req.DestAssetChainID,
		Route:         route,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	c.mu.Lock()
	c.transfers[transfer.ID] = transfer
	c.mu.Unlock()

	c.publish(ctx, events.TypeTransferInitiated, transfer)
	c.log.Info("transfer registered", "transfer_id", transfer.ID,
		"source", transfer.SourceChainID, "dest", transfer.DestChainID)
	logger.Audit().Info("cross-chain transfer registered",
		"transfer_id", transfer.ID, "tx_hash", txHash,
		"source_chain", transfer.SourceChainID, "dest_chain", transfer.DestChainID,
		"amount_in", req.AmountIn, "source_denom", req.SourceAssetDenom)
	return cloneTransfer(transfer), nil
}

// TrackTransfer refreshes a transfer's status. Terminal transfers are
// answered from the registry without hitting the API.
func (c *Client) TrackTransfer(ctx context.Context, transferID string) (*Transfer, error) {
	c.mu.RLock()
	transfer, ok := c.transfers[transferID]
	c.mu.RUnlock()
	if !ok {
		return nil, errors.Newf(errors.CodeNotFound, "transfer %s not found", transferID)
	}
	if transfer.Status.Terminal() {
		return cloneTransfer(transfer), nil
	}

	query := url.Values{}
	query.Set("tx_id", transfer.TxHash)
	query.Set("chain_id", transfer.SourceChainID)

	var tracked trackResponse
	if err := c.do(ctx, http.MethodGet, pathTrack, query, nil, &tracked); err != nil {
		return nil, err
	}

	status := statusFromState(tracked.State)
	c.mu.Lock()
	changed := status != transfer.Status
	if changed {
		transfer.Status = status
		transfer.Error = tracked.Error
		transfer.UpdatedAt = time.Now().UTC()
	}
	snapshot := cloneTransfer(transfer)
	c.mu.Unlock()

	if changed {
		c.publish(ctx, events.TypeTransferUpdated, snapshot)
	}
	return snapshot, nil
}

// Transfers snapshots the registry.
func (c *Client) Transfers() []*Transfer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Transfer, 0, len(c.transfers))
	for _, t := range c.transfers {
		out = append(out, cloneTransfer(t))
	}
	return out
}

// Chains lists chains the router supports.
func (c *Client) Chains(ctx context.Context) ([]Chain, error) {
	var resp chainsResponse
	if err := c.do(ctx, http.MethodGet, pathChains, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Chains, nil
}

// VerifyAssets checks which of the given denoms the router knows on a
// chain.
func (c *Client) VerifyAssets(ctx context.Context, chainID string, denoms []string) (map[string]bool, error) {
	if chainID == "" {
		return nil, errors.New(errors.CodeInvalidArgument, "chain id is required")
	}
	query := url.Values{}
	query.Set("chain_id", chainID)

	var resp assetsResponse
	if err := c.do(ctx, http.MethodGet, pathAssets, query, nil, &resp); err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(denoms))
	for _, denom := range denoms {
		known[denom] = false
	}
	for _, asset := range resp.ChainToAssetsMap[chainID].Assets {
		if _, wanted := known[asset.Denom]; wanted {
			known[asset.Denom] = true
		}
	}
	return known, nil
}

func (c *Client) publish(ctx context.Context, eventType string, transfer *Transfer) {
	event, err := events.New(eventType, transfer)
	if err != nil {
		c.log.Warn("encode transfer event", "error", err)
		return
	}
	if err := c.publisher.Publish(ctx, event); err != nil {
		c.log.Warn("publish transfer event", "error", err)
	}
}

func cloneTransfer(t *Transfer) *Transfer {
	clone := *t
	return &clone
}
