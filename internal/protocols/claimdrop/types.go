package claimdrop

import (
	"encoding/json"

	"mantra-sdk/internal/cosmos"
	"mantra-sdk/internal/errors"
)

// Campaign mirrors the campaign contract's state. DistributionType stays
// raw since the contract encodes it as a tagged enum.
type Campaign struct {
	Owner            string          `json:"owner"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	RewardDenom      string          `json:"reward_denom"`
	TotalReward      cosmos.Coin     `json:"total_reward"`
	Claimed          cosmos.Coin     `json:"claimed"`
	StartTime        uint64          `json:"start_time"`
	EndTime          uint64          `json:"end_time"`
	DistributionType json.RawMessage `json:"distribution_type"`
	Closed           *uint64         `json:"closed,omitempty"`
}

// RewardsResponse reports a receiver's reward standing in a campaign.
type RewardsResponse struct {
	Claimed          []cosmos.Coin `json:"claimed"`
	Pending          []cosmos.Coin `json:"pending"`
	AvailableToClaim []cosmos.Coin `json:"available_to_claim"`
}

// Allocation is an (address, amount) pair. The contract encodes it as a
// two-element JSON array.
type Allocation struct {
	Address string
	Amount  cosmos.Coin
}

// MarshalJSON encodes the tuple form.
func (a Allocation) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{a.Address, a.Amount})
}

// UnmarshalJSON decodes the tuple form.
func (a *Allocation) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	if len(tuple) != 2 {
		return errors.Newf(errors.CodeSerialization, "allocation tuple has %d elements", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &a.Address); err != nil {
		return err
	}
	return json.Unmarshal(tuple[1], &a.Amount)
}

// AllocationsResponse lists allocations, optionally filtered by address.
type AllocationsResponse struct {
	Allocations []Allocation `json:"allocations"`
}

// ClaimedResponse lists claimed totals per address.
type ClaimedResponse struct {
	Claimed []Allocation `json:"claimed"`
}

// BlacklistResponse answers an is_blacklisted query.
type BlacklistResponse struct {
	IsBlacklisted bool `json:"is_blacklisted"`
}

// AuthorizedResponse answers an is_authorized query.
type AuthorizedResponse struct {
	IsAuthorized bool `json:"is_authorized"`
}

// CampaignSummary pairs a campaign with its contract address, as the
// factory reports it.
type CampaignSummary struct {
	Address  string   `json:"address"`
	Campaign Campaign `json:"campaign"`
}

// CampaignsResponse is the factory's campaign listing.
type CampaignsResponse struct {
	Campaigns []CampaignSummary `json:"campaigns"`
}

// CampaignParams describes a campaign to create through the factory.
type CampaignParams struct {
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	RewardDenom      string          `json:"reward_denom"`
	TotalReward      cosmos.Coin     `json:"total_reward"`
	StartTime        uint64          `json:"start_time"`
	EndTime          uint64          `json:"end_time"`
	DistributionType json.RawMessage `json:"distribution_type,omitempty"`
}

// CampaignStats aggregates totals across every campaign of a factory.
type CampaignStats struct {
	TotalCampaigns  int               `json:"total_campaigns"`
	ActiveCampaigns int               `json:"active_campaigns"`
	TotalRewards    map[string]string `json:"total_rewards"`
	TotalClaimed    map[string]string `json:"total_claimed"`
}
