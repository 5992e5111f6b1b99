package models

// Store is a physical retail location. Coordinates are resolved upstream by the geocoding
// collaborator and are only validated when the store is ranked.
type Store struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Chain    string   `json:"chain"`
	Location Location `json:"location"`
	Address  string   `json:"address"`
	Contact  string   `json:"contact"`
	CardIDs  []string `json:"card_ids"`
}
