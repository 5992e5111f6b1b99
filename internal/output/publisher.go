package output

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/chrisdamba/dealradar/internal/models"
	"github.com/chrisdamba/dealradar/internal/scoring"
)

// ResultPublisher serializes ranked results into events and writes them to a destination.
type ResultPublisher struct {
	dest           OutputDestination
	recommendTopic string
	nearbyTopic    string
	now            func() time.Time
}

func NewResultPublisher(dest OutputDestination, cfg *models.OutputConfig) *ResultPublisher {
	p := &ResultPublisher{
		dest:           dest,
		recommendTopic: cfg.RecommendTopic,
		nearbyTopic:    cfg.NearbyTopic,
		now:            time.Now,
	}
	if p.recommendTopic == "" {
		p.recommendTopic = models.DefaultRecommendTopic
	}
	if p.nearbyTopic == "" {
		p.nearbyTopic = models.DefaultNearbyTopic
	}
	return p
}

func (p *ResultPublisher) PublishRecommendations(userID string, deals []models.Deal, breakdowns map[string]scoring.Breakdown) error {
	for _, ev := range NewRecommendationEvents(userID, p.now(), deals, breakdowns) {
		if err := p.write(p.recommendTopic, ev); err != nil {
			return fmt.Errorf("publish deal %s: %w", ev.DealID, err)
		}
	}
	return nil
}

func (p *ResultPublisher) PublishNearby(userID string, stores []models.RankedStore) error {
	for _, ev := range NewNearbyStoreEvents(userID, p.now(), stores) {
		if err := p.write(p.nearbyTopic, ev); err != nil {
			return fmt.Errorf("publish store %s: %w", ev.StoreID, err)
		}
	}
	return nil
}

func (p *ResultPublisher) write(topic string, ev interface{}) error {
	msg, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.dest.WriteMessage(topic, msg)
}
