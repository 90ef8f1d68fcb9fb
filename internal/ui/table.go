package ui

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/flakeup-dev/flakeup/internal/model"
)

// PrintSurveyTable renders the `list` view: one row per target/input pair
// with the current and latest references side by side.
func PrintSurveyTable(rows []model.SurveyRow) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"FLAKE", "INPUT", "CURRENT", "UPDATED", "LATEST", "STATUS"})

	for _, row := range rows {
		if row.Err != nil {
			t.AppendRow(table.Row{row.Target.Dir, row.Target.Input, "", "", "",
				text.FgRed.Sprintf("error: %v", row.Err)})
			continue
		}
		if len(row.Proposals) == 0 {
			t.AppendRow(table.Row{row.Target.Dir, "", "", "", "",
				text.Faint.Sprint("no supported inputs")})
			continue
		}
		for _, p := range row.Proposals {
			status := text.FgYellow.Sprint("outdated")
			if p.UpToDate {
				status = text.FgGreen.Sprint("up to date")
			}
			t.AppendRow(table.Row{
				row.Target.Dir,
				p.Input,
				describeRef(p.Current),
				p.Current.Age(),
				describeRef(p.Candidate),
				status,
			})
		}
	}
	t.Render()
}

func describeRef(r model.RefInfo) string {
	if r.Ref != "" && r.Rev != "" {
		return r.Ref + "@" + r.ShortRev()
	}
	if r.Ref != "" {
		return r.Ref
	}
	return r.ShortRev()
}
