package viewmodel

import (
	"strings"
	"unicode"

	"github.com/rileyhilliard/homestats/internal/source"
)

// Weather icon categories.
const (
	IconSunny        = "sunny"
	IconPartlyCloudy = "partly-cloudy"
	IconCloudy       = "cloudy"
	IconRain         = "rain"
	IconSnow         = "snow"
	IconFog          = "fog"
	IconWind         = "wind"
	IconLightning    = "lightning"
)

// Weather is one weather.* entity ready for display.
type Weather struct {
	Location    string   `json:"location"`
	Condition   string   `json:"condition"`
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *int     `json:"humidity,omitempty"`
	Icon        string   `json:"icon"`
}

// WeatherFrom maps a weather entity.
func WeatherFrom(e source.Entity, location string) Weather {
	w := Weather{
		Location:  location,
		Condition: ConditionText(e.State),
		Icon:      WeatherIcon(e.State),
	}
	if t, ok := e.AttrFloat("temperature"); ok {
		w.Temperature = &t
	}
	if h, ok := e.AttrFloat("humidity"); ok {
		n := int(h)
		w.Humidity = &n
	}
	return w
}

// ConditionText turns "partly-cloudy" into "Partly Cloudy".
func ConditionText(state string) string {
	s := strings.ReplaceAll(state, "-", " ")
	var b strings.Builder
	b.Grow(len(s))
	start := true
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start {
				b.WriteRune(unicode.ToUpper(r))
			} else {
				b.WriteRune(unicode.ToLower(r))
			}
			start = false
			continue
		}
		b.WriteRune(r)
		start = true
	}
	return b.String()
}

// WeatherIcon maps a condition keyword to an icon category, defaulting
// to cloudy.
func WeatherIcon(condition string) string {
	switch strings.ToLower(condition) {
	case "sunny", "clear":
		return IconSunny
	case "partlycloudy", "partly-cloudy":
		return IconPartlyCloudy
	case "cloudy":
		return IconCloudy
	case "rainy", "rain":
		return IconRain
	case "snowy", "snow":
		return IconSnow
	case "fog", "foggy":
		return IconFog
	case "windy":
		return IconWind
	case "lightning", "thunderstorm":
		return IconLightning
	default:
		return IconCloudy
	}
}
