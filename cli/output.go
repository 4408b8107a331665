package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"radgrid/simulation"
)

type theme struct {
	Title    lipgloss.Style
	Label    lipgloss.Style
	Warn     lipgloss.Style
	Boundary lipgloss.Style
	Card     lipgloss.Style
}

func defaultTheme() theme {
	return theme{
		Title:    lipgloss.NewStyle().Bold(true),
		Label:    lipgloss.NewStyle().Faint(true),
		Warn:     lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Boundary: lipgloss.NewStyle().Faint(true),
		Card: lipgloss.NewStyle().
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")),
	}
}

func printResult(w io.Writer, res *simulation.Result, format string) error {
	switch strings.ToLower(format) {
	case "json":
		return writeJSON(w, resultJSON(res))
	case "csv":
		return writeCSV(w, res)
	case "table", "":
		printTable(w, res)
		return nil
	default:
		return fmt.Errorf("unsupported format %q (expected table|csv|json)", format)
	}
}

// resultView is the JSON shape of a run
type resultView struct {
	Dims          [2]int               `json:"dims"`
	Steps         int                  `json:"steps"`
	Dt            float64              `json:"dt"`
	Elapsed       float64              `json:"elapsed"`
	BoundaryValue float64              `json:"boundaryValue"`
	Fingerprint   string               `json:"fingerprint"`
	Final         simulation.Stats     `json:"final"`
	Warnings      []simulation.Warning `json:"warnings,omitempty"`
	UnstableSteps int                  `json:"unstableSteps,omitempty"`
	Trace         []simulation.Stats   `json:"trace,omitempty"`
	State         [][]float64          `json:"state"`
}

func resultJSON(res *simulation.Result) resultView {
	return resultView{
		Dims:          [2]int{res.Layers, res.Bands},
		Steps:         res.Steps,
		Dt:            res.Dt,
		Elapsed:       res.Elapsed,
		BoundaryValue: res.BoundaryValue,
		Fingerprint:   res.Fingerprint(),
		Final:         res.Final,
		Warnings:      res.Warnings,
		UnstableSteps: res.UnstableSteps,
		Trace:         res.Trace,
		State:         res.Grid(),
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(w io.Writer, res *simulation.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"layer", "band", "value", "boundary"}); err != nil {
		return err
	}
	for _, c := range res.Cells() {
		row := []string{
			strconv.Itoa(c.Layer),
			strconv.Itoa(c.Band),
			strconv.FormatFloat(c.Value, 'g', -1, 64),
			strconv.FormatBool(c.Boundary),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func printTable(w io.Writer, res *simulation.Result) {
	th := defaultTheme()

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", th.Title.Render(fmt.Sprintf("radgrid %dx%d", res.Layers, res.Bands)))
	row := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", th.Label.Render(fmt.Sprintf("%-12s", label)), value)
	}
	row("steps", fmt.Sprintf("%d (dt=%g, elapsed=%g)", res.Steps, res.Dt, res.Elapsed))
	row("boundary", strconv.FormatFloat(res.BoundaryValue, 'g', -1, 64))
	row("range", fmt.Sprintf("[%.6g, %.6g]", res.Final.Min, res.Final.Max))
	row("mean", fmt.Sprintf("%.6g ± %.3g", res.Final.Mean, res.Final.StdDev))
	row("injected", fmt.Sprintf("%.6g", res.Final.Injected))
	row("fingerprint", res.Fingerprint()[:16])
	for _, warn := range res.Warnings {
		b.WriteString(th.Warn.Render("! "+warn.String()) + "\n")
	}
	if res.UnstableSteps > 0 {
		b.WriteString(th.Warn.Render(fmt.Sprintf("! %d step(s) left the stable range", res.UnstableSteps)) + "\n")
	}
	fmt.Fprintln(w, th.Card.Render(strings.TrimRight(b.String(), "\n")))

	grid := table.New().
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(_, _ int) lipgloss.Style {
			return lipgloss.NewStyle().Align(lipgloss.Right)
		})
	for i := 0; i < res.Layers; i++ {
		cells := make([]string, res.Bands)
		for j := 0; j < res.Bands; j++ {
			s := fmt.Sprintf("%.4f", res.At(i, j))
			if res.IsBoundary(i, j) {
				s = th.Boundary.Render(s)
			}
			cells[j] = s
		}
		grid.Row(cells...)
	}
	fmt.Fprintln(w, grid.Render())
}
