package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/turntable/internal/core"
	"github.com/tessro/turntable/internal/tui/styles"
)

// Devices displays available playback devices. Commands always target the
// first one listed.
type Devices struct{}

// NewDevices creates a new Devices component
func NewDevices() *Devices {
	return &Devices{}
}

// Render renders the devices panel
func (d *Devices) Render(devices []core.Device, width, height int, focused bool) string {
	title := styles.PanelTitle("Devices", focused)

	var content string
	if len(devices) == 0 {
		content = styles.Muted.Render("No devices found. Open Spotify somewhere.")
	} else {
		content = d.renderDevices(devices, width-4, height-4)
	}

	panel := styles.Panel("", focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
	))
}

func (d *Devices) renderDevices(devices []core.Device, width, maxLines int) string {
	lines := make([]string, 0, len(devices))

	for i, device := range devices {
		if len(lines) >= maxLines {
			break
		}

		icon := styles.DeviceIcon(string(device.Type))

		target := "  "
		if i == 0 {
			target = styles.Highlight.Render("▸ ")
		}

		active := ""
		if device.IsActive {
			active = styles.Playing.Render(" ●")
		}

		volume := ""
		if device.VolumePercent != nil {
			volume = styles.Dim.Render(fmt.Sprintf(" %d%%", *device.VolumePercent))
		}

		name := truncate(device.Name, width-8)
		if device.IsRestricted {
			name = styles.Dim.Render(name)
		}

		lines = append(lines, fmt.Sprintf("%s%s %s%s%s", target, icon, name, active, volume))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
