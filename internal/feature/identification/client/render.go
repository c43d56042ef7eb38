package client

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	careentity "plantid_backend/internal/feature/care/domain/entity"
	"plantid_backend/internal/feature/identification/domain/entity"
)

// RenderResults は識別結果と育て方ヒントを表形式でwへ書き出します。
// 推定値の信頼度には "(estimated)" を付けます。
func RenderResults(w io.Writer, details entity.PlantDetails, instructions []careentity.CareInstruction) error {
	d := details.WithDefaults()

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(d.Name)
	tw.AppendRows([]table.Row{
		{"Scientific name", d.ScientificName},
		{"Description", d.Description},
		{"Confidence", FormatConfidence(d)},
		{"Image", d.ImageURL},
		{"Provider", d.Provider},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, WidthMax: 72},
	})
	if _, err := fmt.Fprintln(w, tw.Render()); err != nil {
		return err
	}

	if len(instructions) == 0 {
		return nil
	}

	ct := table.NewWriter()
	ct.SetStyle(table.StyleRounded)
	ct.SetTitle("Care Instructions")
	ct.AppendHeader(table.Row{"", "Care", "Details", "Tip"})
	for _, ci := range instructions {
		ct.AppendRow(table.Row{ci.Icon, ci.Title, ci.Description, ci.Tooltip})
	}
	ct.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: 48},
		{Number: 4, WidthMax: 36},
	})
	_, err := fmt.Fprintln(w, ct.Render())
	return err
}

// FormatConfidence は信頼度を表示用に整形します。
func FormatConfidence(d entity.PlantDetails) string {
	s := fmt.Sprintf("%.0f%%", d.Confidence)
	if d.ConfidenceSynthetic {
		s += " (estimated)"
	}
	return s
}
