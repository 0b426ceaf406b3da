package app

import (
	"context"

	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/source/media"
	"github.com/rileyhilliard/homestats/internal/source/pihole"
	"github.com/rileyhilliard/homestats/internal/source/proxmox"
	"github.com/rileyhilliard/homestats/internal/viewmodel"
)

// Home builds the home dashboard from the latest device snapshot.
func (a *App) Home() viewmodel.HomeView {
	entities, _ := a.Devices.State().Snapshot()
	return viewmodel.BuildHome(a.Settings.Dashboard, a.HA.BaseURL(), entities)
}

// Printers builds one view per configured printer.
func (a *App) Printers() []viewmodel.PrinterView {
	entities, _ := a.Devices.State().Snapshot()
	printers := a.Store.Current().Printers
	views := make([]viewmodel.PrinterView, 0, len(printers))
	for _, p := range printers {
		views = append(views, viewmodel.BuildPrinter(p, entities))
	}
	return views
}

// NodeCard builds the Proxmox node view. ok is false before the first
// successful poll.
func (a *App) NodeCard() (viewmodel.NodeView, bool) {
	snap, ok := a.Proxmox.State().Snapshot()
	if !ok {
		return viewmodel.NodeView{}, false
	}
	return viewmodel.BuildNode(snap), true
}

// Guests partitions the latest Proxmox guests by kind and run state.
func (a *App) Guests() viewmodel.Resources {
	snap, _ := a.Proxmox.State().Snapshot()
	return viewmodel.PartitionResources(snap.Resources)
}

// PiholeCard builds the Pi-hole view. ok is false until the summary has been
// fetched once.
func (a *App) PiholeCard() (viewmodel.PiholeView, bool) {
	snap, ok := a.Pihole.State().Snapshot()
	if !ok || snap.Summary == nil {
		return viewmodel.PiholeView{}, false
	}
	return viewmodel.BuildPihole(snap), true
}

// MediaSnapshot returns the latest media snapshot.
func (a *App) MediaSnapshot() (media.Snapshot, bool) {
	return a.Media.State().Snapshot()
}

// ProxmoxSnapshot returns the latest Proxmox snapshot.
func (a *App) ProxmoxSnapshot() (proxmox.Snapshot, bool) {
	return a.Proxmox.State().Snapshot()
}

// PiholeSnapshot returns the latest Pi-hole snapshot.
func (a *App) PiholeSnapshot() (pihole.Snapshot, bool) {
	return a.Pihole.State().Snapshot()
}

// Toggle flips an entity. Entities visible on the filtered list refresh that
// list; anything else refreshes the device list.
func (a *App) Toggle(ctx context.Context, entityID string) error {
	if _, ok := a.Entities.Lookup(entityID); ok {
		return a.Entities.ToggleByID(ctx, entityID)
	}
	return a.Devices.ToggleByID(ctx, entityID)
}

// Press presses a button entity.
func (a *App) Press(ctx context.Context, entityID string) error {
	return a.Devices.PressButton(ctx, entityID)
}

// ToggleGarage opens or closes the configured garage door.
func (a *App) ToggleGarage(ctx context.Context) error {
	id := a.Settings.Dashboard.GarageDoor
	if id == "" {
		return errors.NewNotConfigured("Garage door")
	}
	return a.Devices.ToggleGarageDoor(ctx, id)
}

// SetLightGroup turns every light in a group on or off.
func (a *App) SetLightGroup(ctx context.Context, groupID string, on bool) error {
	g, ok := viewmodel.FindGroup(a.Home().LightGroups, groupID)
	if !ok {
		return errors.New(errors.ErrConfig,
			"Unknown light group '"+groupID+"'",
			"Check dashboard.light_groups in .homestats.yaml")
	}
	return a.Devices.SetLights(ctx, g.MemberIDs, on)
}

// AllLightsOff turns off every light that is currently on in any group.
func (a *App) AllLightsOff(ctx context.Context) error {
	ids := viewmodel.LightsToTurnOff(a.Home().LightGroups)
	if len(ids) == 0 {
		return nil
	}
	return a.Devices.SetLights(ctx, ids, false)
}

// PressPrinterButton presses one of the printer control buttons.
func (a *App) PressPrinterButton(ctx context.Context, printerID, button string) error {
	valid := false
	for _, b := range viewmodel.PrinterButtons {
		if b == button {
			valid = true
			break
		}
	}
	if !valid {
		return errors.New(errors.ErrConfig,
			"Unknown printer button '"+button+"'",
			"Use one of: pause_printing, resume_printing, stop_printing, force_refresh_data")
	}
	return a.Devices.PressButton(ctx, viewmodel.PrinterButtonID(printerID, button))
}
