package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidValidity = errors.New("deal validity window must end after it starts")
	ErrInvalidDiscount = errors.New("deal discount must be within [0,100]")
)

// Deal is a promotional offer published by a retail chain. Score is filled in per request by
// the recommender and is never persisted.
type Deal struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	StoreChain         string    `json:"store_chain"`
	ValidFrom          time.Time `json:"valid_from"`
	ValidTo            time.Time `json:"valid_to"`
	DiscountPercentage float64   `json:"discount_percentage"`
	Categories         []string  `json:"categories"`
	Score              float64   `json:"score"`
}

func NewDeal(id, title, description, chain string, validFrom, validTo time.Time, discount float64, categories []string) (*Deal, error) {
	d := &Deal{
		ID:                 id,
		Title:              title,
		Description:        description,
		StoreChain:         chain,
		ValidFrom:          validFrom,
		ValidTo:            validTo,
		DiscountPercentage: discount,
		Categories:         categories,
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Deal) Validate() error {
	if !d.ValidTo.After(d.ValidFrom) {
		return fmt.Errorf("deal %s: %w", d.ID, ErrInvalidValidity)
	}
	if math.IsNaN(d.DiscountPercentage) || d.DiscountPercentage < 0 || d.DiscountPercentage > 100 {
		return fmt.Errorf("deal %s: %w (got %v)", d.ID, ErrInvalidDiscount, d.DiscountPercentage)
	}
	return nil
}

// IsActive reports whether t falls inside the deal's validity window, start inclusive.
func (d *Deal) IsActive(t time.Time) bool {
	return !t.Before(d.ValidFrom) && t.Before(d.ValidTo)
}

// CategorySet returns the deal's tags with duplicates removed.
func (d *Deal) CategorySet() map[string]struct{} {
	set := make(map[string]struct{}, len(d.Categories))
	for _, c := range d.Categories {
		set[c] = struct{}{}
	}
	return set
}
