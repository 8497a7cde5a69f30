package models

// LocationID is the provider's opaque location key (WOEID).
type LocationID int64

// WeatherResult is the transient value produced by one resolve+fetch sequence.
type WeatherResult struct {
	LocationID   LocationID `json:"locationId"`
	Location     string     `json:"location"`
	Weather      string     `json:"weather"`
	Abbreviation string     `json:"abbreviation,omitempty"`
	Temperature  float64    `json:"temperature"`
}
