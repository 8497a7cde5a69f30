package screen

// DefaultBackground is used for unknown or empty conditions.
const DefaultBackground = "clear.png"

var backgrounds = map[string]string{
	"Clear":        "clear.png",
	"Hail":         "hail.png",
	"Heavy Cloud":  "heavy-cloud.png",
	"Light Cloud":  "light-cloud.png",
	"Heavy Rain":   "heavy-rain.png",
	"Light Rain":   "light-rain.png",
	"Showers":      "showers.png",
	"Sleet":        "sleet.png",
	"Snow":         "snow.png",
	"Thunder":      "thunder.png",
	"Thunderstorm": "thunder.png",
}

// BackgroundFor returns the image asset for a provider condition name.
func BackgroundFor(weather string) string {
	if img, ok := backgrounds[weather]; ok {
		return img
	}
	return DefaultBackground
}
