package viewmodel

import (
	"strings"

	"github.com/rileyhilliard/homestats/internal/config"
	"github.com/rileyhilliard/homestats/internal/source"
)

// ClimateReading is the current temperature of a climate entity.
type ClimateReading struct {
	Name        string   `json:"name"`
	EntityID    string   `json:"entity_id"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// HomeView is the home dashboard.
type HomeView struct {
	GarageDoor      string           `json:"garage_door"`
	GarageCameraURL string           `json:"garage_camera_url,omitempty"`
	Climate         []ClimateReading `json:"climate"`
	Weather         []Weather        `json:"weather"`
	LightGroups     []LightGroup     `json:"light_groups"`
	LightsOn        int              `json:"lights_on"`
}

// BuildHome derives the home dashboard from an unfiltered entity list.
// baseURL is the Home Assistant URL that relative entity pictures hang off.
func BuildHome(d config.DashboardConfig, baseURL string, entities []source.Entity) HomeView {
	byID := Index(entities)
	v := HomeView{
		GarageDoor:  "unknown",
		Climate:     make([]ClimateReading, 0, len(d.Climate)),
		Weather:     make([]Weather, 0, len(d.Weather)),
		LightGroups: BuildLightGroups(d.LightGroups, entities),
	}

	if e, ok := byID[d.GarageDoor]; ok && e.State != "" {
		v.GarageDoor = e.State
	}
	if e, ok := byID[d.GarageCamera]; ok {
		if pic := e.Attr("entity_picture"); pic != "" {
			v.GarageCameraURL = strings.TrimRight(baseURL, "/") + pic
		}
	}
	for _, c := range d.Climate {
		r := ClimateReading{Name: c.Name, EntityID: c.EntityID}
		if e, ok := byID[c.EntityID]; ok {
			if t, ok := e.AttrFloat("current_temperature"); ok {
				r.Temperature = &t
			}
		}
		v.Climate = append(v.Climate, r)
	}
	for _, w := range d.Weather {
		if e, ok := byID[w.EntityID]; ok {
			v.Weather = append(v.Weather, WeatherFrom(e, w.Name))
		}
	}
	for _, g := range v.LightGroups {
		v.LightsOn += g.OnCount
	}
	return v
}
