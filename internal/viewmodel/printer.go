package viewmodel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rileyhilliard/homestats/internal/source"
	"github.com/rileyhilliard/homestats/internal/store"
)

// Printer button names, pressed as button.<printer id>_<name>.
const (
	ButtonPause        = "pause_printing"
	ButtonResume       = "resume_printing"
	ButtonStop         = "stop_printing"
	ButtonForceRefresh = "force_refresh_data"
)

// PrinterButtons lists the supported printer buttons.
var PrinterButtons = []string{ButtonPause, ButtonResume, ButtonStop, ButtonForceRefresh}

// PrinterButtonID returns the Home Assistant button entity for a printer.
func PrinterButtonID(printerID, button string) string {
	return fmt.Sprintf("button.%s_%s", printerID, button)
}

// Print status categories.
const (
	PrintRunning = "running"
	PrintPaused  = "paused"
	PrintFailed  = "failed"
	PrintIdle    = "idle"
)

// Humidity bands for the AMS humidity index.
const (
	HumidityLow    = "low"
	HumidityMedium = "medium"
	HumidityHigh   = "high"
)

// Tray is one AMS slot.
type Tray struct {
	Number   int    `json:"number"`
	Material string `json:"material"`
}

// PrinterView is a Bambu-style printer exposed through Home Assistant.
type PrinterView struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	PrinterID        string  `json:"printer_id"`
	Online           bool    `json:"online"`
	PrintStatus      string  `json:"print_status"`
	StatusCategory   string  `json:"status_category"`
	Progress         int     `json:"progress"`
	RemainingMinutes int     `json:"remaining_minutes"`
	Remaining        string  `json:"remaining"`
	CurrentLayer     int     `json:"current_layer"`
	TotalLayers      int     `json:"total_layers"`
	NozzleTemp       float64 `json:"nozzle_temp"`
	NozzleTarget     float64 `json:"nozzle_target"`
	BedTemp          float64 `json:"bed_temp"`
	BedTarget        float64 `json:"bed_target"`
	CoolingFan       int     `json:"cooling_fan"`
	ChamberFan       int     `json:"chamber_fan"`
	AuxFan           int     `json:"aux_fan"`
	TaskName         string  `json:"task_name"`
	MaterialUsed     float64 `json:"material_used"`
	ActiveTray       string  `json:"active_tray"`
	Humidity         string  `json:"humidity"`
	HumidityBand     string  `json:"humidity_band"`
	Trays            []Tray  `json:"trays"`
	CameraEntity     string  `json:"camera_entity,omitempty"`
}

type printerLookup struct {
	entities []source.Entity
	prefix   string
}

// find returns the first entity whose id contains the prefix and ends
// with suffix.
func (l printerLookup) find(suffix string) (source.Entity, bool) {
	for _, e := range l.entities {
		if strings.Contains(e.ID, l.prefix) && strings.HasSuffix(e.ID, suffix) {
			return e, true
		}
	}
	return source.Entity{}, false
}

func (l printerLookup) state(suffix string) string {
	if e, ok := l.find(suffix); ok {
		return e.State
	}
	return "unknown"
}

func (l printerLookup) float(suffix string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(l.state(suffix)), 64)
	if err != nil {
		return 0
	}
	return f
}

// BuildPrinter reads a printer's entities out of an unfiltered entity
// list. AMS entities are looked up under the AMS id when one is set.
func BuildPrinter(p store.PrinterConfig, entities []source.Entity) PrinterView {
	dev := printerLookup{entities: entities, prefix: p.PrinterID}
	ams := dev
	if p.AMSID != "" {
		ams.prefix = p.AMSID
	}

	status := dev.state("print_status")
	remaining := int(dev.float("remaining_time"))
	humidity := ams.float("ams_1_humidity_index")

	v := PrinterView{
		ID:               p.ID,
		Name:             p.Name,
		PrinterID:        p.PrinterID,
		Online:           dev.state("online") == "on",
		PrintStatus:      status,
		StatusCategory:   PrintCategory(status),
		Progress:         int(dev.float("print_progress")),
		RemainingMinutes: remaining,
		Remaining:        FormatRemaining(remaining),
		CurrentLayer:     int(dev.float("current_layer")),
		TotalLayers:      int(dev.float("total_layer_count")),
		NozzleTemp:       dev.float("nozzle_temperature"),
		NozzleTarget:     dev.float("nozzle_target_temperature"),
		BedTemp:          dev.float("bed_temperature"),
		BedTarget:        dev.float("bed_target_temperature"),
		CoolingFan:       int(dev.float("cooling_fan_speed")),
		ChamberFan:       int(dev.float("chamber_fan_speed")),
		AuxFan:           int(dev.float("aux_fan_speed")),
		TaskName:         dev.state("task_name"),
		MaterialUsed:     dev.float("total_usage"),
		ActiveTray:       dev.state("active_tray"),
		Humidity:         ams.state("ams_1_humidity_index"),
		HumidityBand:     HumidityBandOf(humidity),
	}
	for i := 1; i <= 4; i++ {
		v.Trays = append(v.Trays, Tray{Number: i, Material: ams.state(fmt.Sprintf("ams_1_tray_%d", i))})
	}
	camera := "camera." + p.PrinterID + "_camera"
	for _, e := range entities {
		if e.ID == camera {
			v.CameraEntity = camera
			break
		}
	}
	return v
}

// PrintCategory groups raw print states.
func PrintCategory(status string) string {
	switch strings.ToLower(status) {
	case "running":
		return PrintRunning
	case "pause", "paused":
		return PrintPaused
	case "failed", "error":
		return PrintFailed
	default:
		return PrintIdle
	}
}

// FormatRemaining renders minutes as "1h 5m", "45m", or "--" for zero.
func FormatRemaining(minutes int) string {
	if minutes <= 0 {
		return "--"
	}
	h, m := minutes/60, minutes%60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// HumidityBandOf maps the AMS humidity index to a band.
func HumidityBandOf(index float64) string {
	switch {
	case index > 30:
		return HumidityHigh
	case index > 20:
		return HumidityMedium
	default:
		return HumidityLow
	}
}
