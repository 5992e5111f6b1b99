package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/chrisdamba/dealradar/internal/models"
	"github.com/chrisdamba/dealradar/internal/scoring"
)

const (
	EventDealRecommended = "deal_recommended"
	EventStoreNearby     = "store_nearby"
)

// RecommendationEvent is one ranked deal handed to the notification collaborator.
type RecommendationEvent struct {
	Timestamp          int64   `json:"timestamp" parquet:"name=timestamp,type=INT64"`
	EventType          string  `json:"eventType" parquet:"name=eventType,type=BYTE_ARRAY,convertedtype=UTF8"`
	UserID             string  `json:"userId" parquet:"name=userId,type=BYTE_ARRAY,convertedtype=UTF8"`
	Rank               int32   `json:"rank" parquet:"name=rank,type=INT32"`
	DealID             string  `json:"dealId" parquet:"name=dealId,type=BYTE_ARRAY,convertedtype=UTF8"`
	Title              string  `json:"title" parquet:"name=title,type=BYTE_ARRAY,convertedtype=UTF8"`
	StoreChain         string  `json:"storeChain" parquet:"name=storeChain,type=BYTE_ARRAY,convertedtype=UTF8"`
	Score              float64 `json:"score" parquet:"name=score,type=DOUBLE"`
	DiscountPercentage float64 `json:"discountPercentage" parquet:"name=discountPercentage,type=DOUBLE"`
	Categories         string  `json:"categories" parquet:"name=categories,type=BYTE_ARRAY,convertedtype=UTF8"`
	ValidTo            int64   `json:"validTo" parquet:"name=validTo,type=INT64"`

	CategoryMatch         float64 `json:"categoryMatch" parquet:"name=categoryMatch,type=DOUBLE"`
	StorePreference       float64 `json:"storePreference" parquet:"name=storePreference,type=DOUBLE"`
	HistoricalInteraction float64 `json:"historicalInteraction" parquet:"name=historicalInteraction,type=DOUBLE"`
}

// NearbyStoreEvent is one store from a distance-ordered nearby result.
type NearbyStoreEvent struct {
	Timestamp  int64   `json:"timestamp" parquet:"name=timestamp,type=INT64"`
	EventType  string  `json:"eventType" parquet:"name=eventType,type=BYTE_ARRAY,convertedtype=UTF8"`
	UserID     string  `json:"userId" parquet:"name=userId,type=BYTE_ARRAY,convertedtype=UTF8"`
	Rank       int32   `json:"rank" parquet:"name=rank,type=INT32"`
	StoreID    string  `json:"storeId" parquet:"name=storeId,type=BYTE_ARRAY,convertedtype=UTF8"`
	StoreName  string  `json:"storeName" parquet:"name=storeName,type=BYTE_ARRAY,convertedtype=UTF8"`
	Chain      string  `json:"chain" parquet:"name=chain,type=BYTE_ARRAY,convertedtype=UTF8"`
	DistanceKm float64 `json:"distanceKm" parquet:"name=distanceKm,type=DOUBLE"`
	Latitude   float64 `json:"latitude" parquet:"name=latitude,type=DOUBLE"`
	Longitude  float64 `json:"longitude" parquet:"name=longitude,type=DOUBLE"`
}

// NewRecommendationEvents builds one event per deal in rank order. breakdowns may be nil, in
// which case the component fields stay zero.
func NewRecommendationEvents(userID string, at time.Time, deals []models.Deal, breakdowns map[string]scoring.Breakdown) []RecommendationEvent {
	events := make([]RecommendationEvent, 0, len(deals))
	for i, d := range deals {
		b := breakdowns[d.ID]
		events = append(events, RecommendationEvent{
			Timestamp:          at.Unix(),
			EventType:          EventDealRecommended,
			UserID:             userID,
			Rank:               int32(i + 1),
			DealID:             d.ID,
			Title:              d.Title,
			StoreChain:         d.StoreChain,
			Score:              d.Score,
			DiscountPercentage: d.DiscountPercentage,
			Categories:         strings.Join(d.Categories, "|"),
			ValidTo:            d.ValidTo.Unix(),

			CategoryMatch:         b.CategoryMatch,
			StorePreference:       b.StorePreference,
			HistoricalInteraction: b.HistoricalInteraction,
		})
	}
	return events
}

func NewNearbyStoreEvents(userID string, at time.Time, stores []models.RankedStore) []NearbyStoreEvent {
	events := make([]NearbyStoreEvent, 0, len(stores))
	for i, rs := range stores {
		events = append(events, NearbyStoreEvent{
			Timestamp:  at.Unix(),
			EventType:  EventStoreNearby,
			UserID:     userID,
			Rank:       int32(i + 1),
			StoreID:    rs.Store.ID,
			StoreName:  rs.Store.Name,
			Chain:      rs.Store.Chain,
			DistanceKm: rs.DistanceKm,
			Latitude:   rs.Store.Location.Lat,
			Longitude:  rs.Store.Location.Lon,
		})
	}
	return events
}

// GetSchema returns a prototype of the event struct written for eventType.
func GetSchema(eventType string) (interface{}, error) {
	switch eventType {
	case EventDealRecommended:
		return new(RecommendationEvent), nil
	case EventStoreNearby:
		return new(NearbyStoreEvent), nil
	default:
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}
}
