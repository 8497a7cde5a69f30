package screen

import (
	"fmt"
	"math"

	"github.com/kjstillabower/weather-screen/internal/models"
	"github.com/kjstillabower/weather-screen/internal/search"
)

// ErrorMessage is the single user-visible failure message.
const ErrorMessage = "Could not load weather. Please try a different city."

// SearchField is the always-present search box.
type SearchField struct {
	Placeholder string `json:"placeholder"`
	Text        string `json:"text"`
}

// View is everything the screen draws for one state.
type View struct {
	Background  string      `json:"background"`
	Busy        bool        `json:"busy"`
	Message     string      `json:"message,omitempty"`
	Location    string      `json:"location,omitempty"`
	Weather     string      `json:"weather,omitempty"`
	Temperature string      `json:"temperature,omitempty"`
	Search      SearchField `json:"search"`
}

// Render is a pure function of the state and the search field's current text.
// While loading only the busy indicator is shown; after a failure only the
// error message; otherwise location, weather and rounded temperature.
func Render(s models.AppState, searchText string) View {
	v := View{
		Background: BackgroundFor(s.Weather),
		Busy:       s.Loading,
		Search: SearchField{
			Placeholder: search.Placeholder,
			Text:        searchText,
		},
	}

	switch {
	case s.Loading:
	case s.Error:
		v.Message = ErrorMessage
	default:
		v.Location = s.Location
		v.Weather = s.Weather
		v.Temperature = FormatTemperature(s.Temperature)
	}
	return v
}

// FormatTemperature rounds to the nearest integer, halves up, and appends a degree sign.
func FormatTemperature(t float64) string {
	return fmt.Sprintf("%d°", int(math.Floor(t+0.5)))
}
