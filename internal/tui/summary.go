package tui

import (
	"bytes"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/mrz1836/injecteur/internal/constants"
	"github.com/mrz1836/injecteur/internal/domain"
)

// commentWidth caps the comment column; longer comments wrap.
const commentWidth = 80

// StepTable renders the steps of r as a table with a TOTAL footer. When
// colored is set, the table style follows the final status.
func StepTable(r *domain.ExecutionReport, colored bool) string {
	var buf bytes.Buffer

	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.SetTitle(r.Scenario)
	t.AppendHeader(table.Row{"#", "Etape", "Durée (s)", "Statut", "Commentaire"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "#", Align: text.AlignRight},
		{Name: "Durée (s)", Align: text.AlignRight},
		{Name: "Commentaire", WidthMax: commentWidth, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, step := range r.Steps {
		t.AppendRow(table.Row{
			step.Order,
			step.Name,
			step.Duration.String(),
			StatusIcon(step.Status) + " " + step.Status.String(),
			step.Comment,
		})
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		r.Duration.String(),
		StatusIcon(r.Status) + " " + r.Status.String(),
		"",
	})

	if colored {
		switch r.Status {
		case constants.StatusSuccess:
			t.SetStyle(table.StyleColoredBlackOnGreenWhite)
		case constants.StatusWarning:
			t.SetStyle(table.StyleColoredBlackOnYellowWhite)
		case constants.StatusFailure, constants.StatusUnknown:
			t.SetStyle(table.StyleColoredBlackOnRedWhite)
		}
	} else {
		t.SetStyle(table.StyleLight)
	}

	t.Render()
	return buf.String()
}
