package models

import (
	"fmt"
	"time"
)

// Interaction is one observed engagement of a user with a deal.
type Interaction struct {
	DealID string    `json:"deal_id"`
	Kind   string    `json:"kind"`
	At     time.Time `json:"at"`
}

func (i Interaction) Validate() error {
	if i.DealID == "" {
		return fmt.Errorf("interaction: deal id is required")
	}
	switch i.Kind {
	case InteractionView, InteractionClick, InteractionRedeem:
		return nil
	default:
		return fmt.Errorf("interaction: unsupported kind %q", i.Kind)
	}
}
