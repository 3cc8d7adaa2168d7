package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"gigsnap/internal/library"
)

// colorizeStatus mirrors the logger's format auto-selection: status cells get
// color only when stdout is a terminal.
var colorizeStatus = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

var statusColors = map[library.Status]text.Color{
	library.StatusPending:    text.FgYellow,
	library.StatusProcessing: text.FgCyan,
	library.StatusCompleted:  text.FgGreen,
	library.StatusFailed:     text.FgRed,
}

func statusCell(val interface{}) string {
	status, ok := val.(library.Status)
	if !ok {
		return fmt.Sprint(val)
	}
	if color, found := statusColors[status]; found && colorizeStatus {
		return color.EscapeSeq() + string(status) + text.EscapeReset
	}
	return string(status)
}

func renderMediaTable(items []*library.MediaItem) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Type", "Status", "Taken At", "Concert"})
	for _, item := range items {
		tw.AppendRow(table.Row{
			item.ID,
			string(item.MediaType),
			item.AnalysisStatus,
			formatTakenAt(item.TakenAt),
			formatConcert(item.ConcertID),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Status", Transformer: statusCell, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func renderConcertTable(concerts []*library.Concert) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Date", "Headliner", "Venue", "Artists", "Tour"})
	for _, concert := range concerts {
		venue := "-"
		if concert.Venue != nil {
			venue = concert.Venue.Name
			if concert.Venue.City != "" {
				venue += ", " + concert.Venue.City
			}
		}
		headliner := "-"
		if h := concert.Headliner(); h != nil {
			headliner = h.Name
		}
		tw.AppendRow(table.Row{
			concert.ID,
			concert.Date.Format("2006-01-02"),
			headliner,
			venue,
			len(concert.Artists),
			concert.TourName,
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Artists", Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
