package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/git-pkgs/npmchart/internal/config"
	"github.com/git-pkgs/npmchart/internal/core"
	"github.com/git-pkgs/npmchart/internal/view"
)

// plotFlags are the shaping flags shared by downloads and chart.
type plotFlags struct {
	lo, hi    float64
	color     string
	period    string
	until     string
	maxPoints int
}

func (f *plotFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.lo, "lo", 0, "Start of the range, in percent of the series")
	cmd.Flags().Float64Var(&f.hi, "hi", 100, "End of the range, in percent of the series")
	cmd.Flags().StringVar(&f.color, "color", "", "Chart color as #RGB or #RRGGBB (default from chart.default_color)")
	cmd.Flags().StringVarP(&f.period, "period", "p", "day", "Bucket size: day, week or month")
	cmd.Flags().StringVar(&f.until, "until", "", "Last day of the series as YYYY-MM-DD (default today)")
	cmd.Flags().IntVarP(&f.maxPoints, "max-points", "n", 0, "Plotted point budget (default from chart.max_points)")
}

// actions validates the flags and returns the actions that apply them.
func (f *plotFlags) actions(cfg *config.Config) (until time.Time, actions []view.Action, err error) {
	if f.until != "" {
		if until, err = time.Parse(core.DateLayout, f.until); err != nil {
			return until, nil, fmt.Errorf("--until: %w", err)
		}
	}
	rng := core.Range{Lo: f.lo, Hi: f.hi}
	if err := rng.Validate(); err != nil {
		return until, nil, err
	}
	color := f.color
	if color == "" {
		color = cfg.Chart.DefaultColor
	}
	if !view.ValidColor(color) {
		return until, nil, fmt.Errorf("--color %q must be #RGB or #RRGGBB", color)
	}
	g, err := core.ParseGranularity(f.period)
	if err != nil {
		return until, nil, err
	}
	return until, []view.Action{
		view.RangeMoved{Range: rng},
		view.ColorPicked{Color: color},
		view.GranularityChanged{Granularity: g},
	}, nil
}

// loadPlot opens name in a view model, applies the flags and returns the
// settled state with its plot.
func loadPlot(ctx context.Context, configPath, name string, f *plotFlags) (view.State, core.Plot, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return view.State{}, core.Plot{}, err
	}
	if err := cfg.Log.Install(os.Stderr); err != nil {
		return view.State{}, core.Plot{}, err
	}
	until, actions, err := f.actions(cfg)
	if err != nil {
		return view.State{}, core.Plot{}, err
	}

	id, err := core.ParseIdentifier(name)
	if err != nil {
		return view.State{}, core.Plot{}, err
	}
	if id.Ecosystem != cfg.Upstream.Ecosystem {
		return view.State{}, core.Plot{}, fmt.Errorf("%s: unsupported ecosystem %q", name, id.Ecosystem)
	}

	src, err := cfg.NewSource(nil)
	if err != nil {
		return view.State{}, core.Plot{}, err
	}

	maxPoints := f.maxPoints
	if maxPoints == 0 {
		maxPoints = cfg.Chart.MaxPoints
	}
	m := view.NewModel(src, view.WithMaxPoints(maxPoints))
	m.Dispatch(view.Navigate{Package: id.Name, Until: until})
	for _, a := range actions {
		m.Dispatch(a)
	}

	st := m.Load(ctx)
	if err := st.Err(); err != nil {
		return st, core.Plot{}, err
	}
	plot, err := m.Plot()
	return st, plot, err
}
