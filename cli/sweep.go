package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"radgrid/logging"
	"radgrid/simulation"
)

func sweepCmd() *cobra.Command {
	var (
		solver   solverFlags
		parallel int
		format   string
	)

	c := &cobra.Command{
		Use:   "sweep",
		Short: "Run every case of a settings file concurrently",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if solver.configPath == "" {
				return errors.New("sweep needs --config with a sweep.cases list")
			}
			s, err := solver.settings(cmd)
			if err != nil {
				return err
			}
			if len(s.Sweep.Cases) == 0 {
				return fmt.Errorf("%s has no sweep cases", solver.configPath)
			}
			if cmd.Flags().Changed("parallel") {
				s.Sweep.Parallel = parallel
			}

			opts, err := s.Solver.Options()
			if err != nil {
				return err
			}

			log := logging.L()
			log.Info("sweep.started", "cases", len(s.Sweep.Cases), "parallel", s.Sweep.Parallel)
			out := simulation.Sweep(cmd.Context(), s.Sweep.Cases, s.Sweep.Parallel, opts...)

			failed := 0
			for _, o := range out {
				if o.Err != nil {
					failed++
					log.Warn("sweep.case_failed", "case", o.Case.Name, "err", o.Err)
				}
			}

			if err := printSweep(cmd.OutOrStdout(), out, format); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("sweep failed (%d of %d case(s))", failed, len(out))
			}
			return nil
		},
	}

	c.Flags().IntVarP(&parallel, "parallel", "p", 0, "concurrent runs (0 = one per CPU)")
	c.Flags().StringVarP(&format, "format", "f", "table", "output format: table|json")
	solver.register(c)
	return c
}

type sweepView struct {
	Name   string      `json:"name"`
	Params any         `json:"params"`
	Result *resultView `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func printSweep(w io.Writer, out []simulation.SweepOutcome, format string) error {
	switch strings.ToLower(format) {
	case "json":
		views := make([]sweepView, len(out))
		for i, o := range out {
			views[i] = sweepView{Name: o.Case.Name, Params: o.Case.Params}
			if o.Err != nil {
				views[i].Error = o.Err.Error()
				continue
			}
			r := resultJSON(o.Result)
			views[i].Result = &r
		}
		return writeJSON(w, views)
	case "table", "":
		th := defaultTheme()
		cell := lipgloss.NewStyle().Padding(0, 1)
		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(th.Label).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return th.Title.Padding(0, 1)
				}
				return cell
			}).
			Headers("CASE", "DIMS", "STEPS", "MIN", "MAX", "MEAN", "FINGERPRINT", "STATUS")

		for _, o := range out {
			p := o.Case.Params
			if o.Err != nil {
				t.Row(o.Case.Name, fmt.Sprintf("%dx%d", p.Layers, p.Bands), fmt.Sprint(p.Steps),
					"-", "-", "-", "-", th.Warn.Render(o.Err.Error()))
				continue
			}
			r := o.Result
			status := "ok"
			if r.Unstable() {
				status = th.Warn.Render("unstable")
			}
			t.Row(o.Case.Name, fmt.Sprintf("%dx%d", r.Layers, r.Bands), fmt.Sprint(r.Steps),
				fmt.Sprintf("%.6g", r.Final.Min), fmt.Sprintf("%.6g", r.Final.Max), fmt.Sprintf("%.6g", r.Final.Mean),
				r.Fingerprint()[:16], status)
		}
		_, err := fmt.Fprintln(w, t.Render())
		return err
	default:
		return fmt.Errorf("unsupported format %q (expected table|json)", format)
	}
}
