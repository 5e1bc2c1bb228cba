package main

import (
	"encoding/json"
	"io"
	"maps"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"dispatchboard/internal/cluster"
	"dispatchboard/internal/flags"
	"dispatchboard/internal/ingest"
	"dispatchboard/internal/model"
)

var (
	analyzeLoads      string
	analyzeThresholds string
	analyzeGrid       float64
	analyzeDirection  string
	analyzeToday      string
)

// analysis is the analyze command's output document.
type analysis struct {
	Thresholds model.Thresholds       `json:"thresholds"`
	Results    []flags.Result         `json:"results"`
	Summary    flags.Summary          `json:"summary"`
	Clusters   cluster.Result         `json:"clusters"`
	States     []cluster.StateSummary `json:"states"`
	Import     ingest.Report          `json:"import"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute flags and map aggregates for a loads export and print them as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		loads, rep, err := ingest.ReadFile(analyzeLoads)
		if err != nil {
			return eris.Wrap(err, "read loads")
		}

		th := cfg.Thresholds
		if analyzeThresholds != "" {
			if th, err = readThresholds(analyzeThresholds); err != nil {
				return err
			}
		}

		grid := analyzeGrid
		if grid == 0 {
			grid = cfg.Cluster.GridSize
		}
		dirName := analyzeDirection
		if dirName == "" {
			dirName = cfg.Cluster.Direction
		}
		dir, err := model.ParseDirection(dirName)
		if err != nil {
			return eris.Wrap(err, "direction")
		}

		opts := []flags.Option{}
		if analyzeToday != "" {
			d, ok := model.ParseDate(analyzeToday)
			if !ok {
				return eris.Errorf("invalid --today %q (want YYYY-MM-DD)", analyzeToday)
			}
			opts = append(opts, flags.WithClock(func() time.Time { return d }))
		}

		out, err := analyze(loads, th, grid, dir, opts...)
		if err != nil {
			return err
		}
		out.Import = rep
		return writeAnalysis(cmd.OutOrStdout(), out)
	},
}

func analyze(loads []model.Load, th model.Thresholds, grid float64, dir model.Direction, opts ...flags.Option) (analysis, error) {
	if !cluster.ValidGridSize(grid) {
		return analysis{}, eris.Errorf("grid must be in [%g, %g], got %v", cluster.MinGridSize, cluster.MaxGridSize, grid)
	}
	results := flags.NewEvaluator(loads, th, opts...).ComputeAll()
	states, _ := cluster.AggregateByStateWithDiagnostics(loads, dir)
	return analysis{
		Thresholds: th,
		Results:    results,
		Summary:    flags.Summarize(results),
		Clusters:   cluster.Aggregate(loads, grid, dir),
		States:     states,
	}, nil
}

// readThresholds loads a YAML thresholds file. Omitted good-move limits keep
// the configured defaults.
func readThresholds(path string) (model.Thresholds, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return model.Thresholds{}, eris.Wrap(err, "read thresholds")
	}
	th := cfg.Thresholds
	th.GoodMoveThresholds.ByContract = maps.Clone(th.GoodMoveThresholds.ByContract)
	if err := yaml.Unmarshal(b, &th); err != nil {
		return model.Thresholds{}, eris.Wrapf(err, "parse thresholds %s", path)
	}
	if err := th.Validate(); err != nil {
		return model.Thresholds{}, eris.Wrapf(err, "thresholds %s", path)
	}
	return th, nil
}

func writeAnalysis(w io.Writer, a analysis) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeLoads, "loads", "", "path to a .csv or .json loads export (required)")
	analyzeCmd.Flags().StringVar(&analyzeThresholds, "thresholds", "", "YAML thresholds file (default from config)")
	analyzeCmd.Flags().Float64Var(&analyzeGrid, "grid", 0, "cluster grid size in degrees (default from config)")
	analyzeCmd.Flags().StringVar(&analyzeDirection, "direction", "", "inbound or outbound (default from config)")
	analyzeCmd.Flags().StringVar(&analyzeToday, "today", "", "reference date for Not Closed, YYYY-MM-DD")
	_ = analyzeCmd.MarkFlagRequired("loads")
	rootCmd.AddCommand(analyzeCmd)
}
