package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"radgrid/config"
	"radgrid/logging"
	"radgrid/simulation"
)

// solverFlags are shared by every command that runs the grid model
type solverFlags struct {
	configPath string
	layerCoef  float64
	bandCoef   float64
	boundary   string
	stability  string
	workers    int
	initial    float64
	maxSub     int
}

func (f *solverFlags) register(cmd *cobra.Command) {
	def := config.Default().Solver
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "settings file (JSON or YAML)")
	cmd.Flags().Float64Var(&f.layerCoef, "layer-coef", def.LayerCoefficient, "transport coefficient between layers")
	cmd.Flags().Float64Var(&f.bandCoef, "band-coef", def.BandCoefficient, "transport coefficient between bands")
	cmd.Flags().StringVar(&f.boundary, "boundary-mode", def.Boundary, "boundary law: dirichlet|seeded")
	cmd.Flags().StringVar(&f.stability, "stability", def.Stability, "stability policy: warn|off|substep")
	cmd.Flags().IntVar(&f.workers, "workers", def.Workers, "goroutines per step (0 = one per CPU)")
	cmd.Flags().Float64Var(&f.initial, "initial", def.Initial, "initial value of every cell")
	cmd.Flags().IntVar(&f.maxSub, "max-substeps", def.MaxSubsteps, "sub-steps per step allowed by --stability substep")
}

// settings loads the config file, if any, and applies the flags the user set
func (f *solverFlags) settings(cmd *cobra.Command) (config.Settings, error) {
	s := config.Default()
	if f.configPath != "" {
		var err error
		if s, err = config.Load(f.configPath); err != nil {
			return s, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("layer-coef") {
		s.Solver.LayerCoefficient = f.layerCoef
	}
	if flags.Changed("band-coef") {
		s.Solver.BandCoefficient = f.bandCoef
	}
	if flags.Changed("boundary-mode") {
		s.Solver.Boundary = f.boundary
	}
	if flags.Changed("stability") {
		s.Solver.Stability = f.stability
	}
	if flags.Changed("workers") {
		s.Solver.Workers = f.workers
	}
	if flags.Changed("initial") {
		s.Solver.Initial = f.initial
	}
	if flags.Changed("max-substeps") {
		s.Solver.MaxSubsteps = f.maxSub
	}
	return s, nil
}

func runCmd() *cobra.Command {
	var (
		solver   solverFlags
		params   simulation.Params
		format   string
		out      string
		progress bool
		trace    bool
	)

	c := &cobra.Command{
		Use:   "run",
		Short: "Integrate one model run and print the final state",
		Example: `  radgrid run --dt 0.1 --steps 50 --boundary 300 --layers 11 --bands 12
  radgrid run --config settings.yaml --format csv --out state.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := solver.settings(cmd)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("dt") {
				s.Run.Dt = params.Dt
			}
			if flags.Changed("steps") {
				s.Run.Steps = params.Steps
			}
			if flags.Changed("boundary") {
				s.Run.BoundaryValue = params.BoundaryValue
			}
			if flags.Changed("layers") {
				s.Run.Layers = params.Layers
			}
			if flags.Changed("bands") {
				s.Run.Bands = params.Bands
			}

			opts, err := s.Solver.Options()
			if err != nil {
				return err
			}
			opts = append(opts, simulation.WithTrace(trace))

			var bar *progressBar
			if progress && s.Run.Steps > 0 {
				bar = newProgressBar(cmd.ErrOrStderr(), s.Run.Steps)
				opts = append(opts, simulation.WithObserver(bar.observe))
			}

			res, err := simulation.RunParams(cmd.Context(), s.Run, opts...)
			if bar != nil {
				bar.stop()
			}
			if err != nil {
				logging.L().Error("run.failed", "err", err)
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return printResult(w, res, format)
		},
	}

	def := config.Default().Run
	c.Flags().Float64Var(&params.Dt, "dt", def.Dt, "time increment per step")
	c.Flags().IntVarP(&params.Steps, "steps", "n", def.Steps, "number of steps")
	c.Flags().Float64VarP(&params.BoundaryValue, "boundary", "b", def.BoundaryValue, "boundary value driving the domain")
	c.Flags().IntVar(&params.Layers, "layers", def.Layers, "grid size along dimA")
	c.Flags().IntVar(&params.Bands, "bands", def.Bands, "grid size along dimB")
	c.Flags().StringVarP(&format, "format", "f", "table", "output format: table|csv|json")
	c.Flags().StringVarP(&out, "out", "o", "", "write output to this file instead of stdout")
	c.Flags().BoolVar(&progress, "progress", false, "show a progress bar on stderr")
	c.Flags().BoolVar(&trace, "trace", false, "include per-step statistics in JSON output")
	solver.register(c)
	return c
}
