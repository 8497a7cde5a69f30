package models

// AppState is the screen's entire business state.
// While Loading, Location/Weather/Temperature still hold the previous result.
type AppState struct {
	Loading     bool    `json:"loading"`
	Error       bool    `json:"error"`
	ErrorKind   string  `json:"errorKind,omitempty"`
	Location    string  `json:"location"`
	Weather     string  `json:"weather"`
	Temperature float64 `json:"temperature"`
	Seq         uint64  `json:"seq"`
}

// SetLoading marks the start of the fetch cycle identified by seq.
func (s AppState) SetLoading(seq uint64) AppState {
	s.Loading = true
	s.Seq = seq
	return s
}

// SetResult replaces the displayed data and clears loading and error.
func (s AppState) SetResult(r WeatherResult) AppState {
	return AppState{
		Location:    r.Location,
		Weather:     r.Weather,
		Temperature: r.Temperature,
		Seq:         s.Seq,
	}
}

// SetError clears loading and flags the error. Displayed data is kept.
func (s AppState) SetError(kind string) AppState {
	s.Loading = false
	s.Error = true
	s.ErrorKind = kind
	return s
}
