package admin

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	transporthttp "github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/transport/http"
)

// RenderRooms writes room statistics as a table with a totals footer.
func RenderRooms(w io.Writer, rooms *transporthttp.RoomsResponse) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Room", "Members", "Devices", "Audio"})

	var members, devices, audio int
	for _, r := range rooms.Rooms {
		t.AppendRow(table.Row{r.Name, r.Members, r.Devices, r.AudioPeers})
		members += r.Members
		devices += r.Devices
		audio += r.AudioPeers
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d connections", rooms.Connections), members, devices, audio})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	t.Render()
}

// RenderAlerts writes journaled SOS alerts, newest first.
func RenderAlerts(w io.Writer, alerts *transporthttp.AlertsResponse) {
	t := newTable(w)
	t.SetTitle("SOS alerts in " + alerts.Room)
	t.AppendHeader(table.Row{"Time", "Sender", "Location", "IP", "ID"})
	for _, a := range alerts.Alerts {
		t.AppendRow(table.Row{
			a.CreatedAt,
			a.Sender,
			fmt.Sprintf("%.5f, %.5f", a.Latitude, a.Longitude),
			a.IP,
			a.ID,
		})
	}
	if len(alerts.Alerts) == 0 {
		t.AppendRow(table.Row{"-", "no alerts", "", "", ""})
	}
	t.Render()
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}
