package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/desertthunder/playctl/internal/models"
)

// RenderDevices writes the account's Connect devices as a table. The device whose ID or name
// matches selected is marked as the one playctl plays on.
func RenderDevices(w io.Writer, devices []models.RemoteDevice, selected string) {
	if len(devices) == 0 {
		fmt.Fprintln(w, Styles.Warn("No Spotify Connect devices found. Open Spotify on a device and try again."))
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Name", "Type", "Status", "Volume", "Device ID"})

	for i, d := range devices {
		status := "Inactive"
		if d.Active {
			status = color.GreenString("● Active")
		}
		if d.Restricted {
			status += color.YellowString(" (restricted)")
		}

		name := color.New(color.Bold).Sprint(d.Name)
		if selected != "" && (d.ID == selected || strings.EqualFold(d.Name, selected)) {
			name += color.CyanString(" ◀")
		}

		t.AppendRow(table.Row{
			i + 1,
			name,
			d.Type,
			status,
			fmt.Sprintf("%d%%", d.Volume),
			color.HiBlackString(d.ID),
		})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
	fmt.Fprintf(w, "Total devices: %d\n", len(devices))
}
