package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/JonnyWalker81/daylog/internal/analysis"
	"github.com/JonnyWalker81/daylog/internal/models"
	"github.com/JonnyWalker81/daylog/internal/reflection"
	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

// analyzeOptions holds the flags shared by the analyze subcommands
type analyzeOptions struct {
	input   string
	history string
	format  string
	metrics []string

	// correlations
	x             string
	y             string
	minSampleSize int
	threshold     float64

	// similar
	logID string
	k     int

	// reflect
	mood       string
	reasons    []string
	windowDays int
	asOf       string
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the analysis core on an exported log file",
		Long: `Run correlations, similar days, summaries or a reflection against a JSON
export of daily logs without a database. Nothing is stored.`,
	}

	cmd.PersistentFlags().StringVarP(&opts.input, "input", "i", "", "Path to a JSON array of daily logs")
	cmd.PersistentFlags().StringVarP(&opts.format, "format", "f", "json", "Output format: json or yaml")
	cmd.PersistentFlags().StringSliceVarP(&opts.metrics, "metrics", "m", nil, "Metrics to analyze (default: every metric in the logs)")
	_ = cmd.MarkPersistentFlagRequired("input")

	correlations := &cobra.Command{
		Use:   "correlations",
		Short: "Scan metric pairs, or correlate one pair with --x and --y",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.OutOrStdout(), opts, analyzeCorrelations)
		},
	}
	correlations.Flags().StringVar(&opts.x, "x", "", "First metric of a single pair")
	correlations.Flags().StringVar(&opts.y, "y", "", "Second metric of a single pair")
	correlations.Flags().IntVar(&opts.minSampleSize, "min-sample-size", analysis.DefaultMinSampleSize, "Minimum paired logs for a scan result")
	correlations.Flags().Float64Var(&opts.threshold, "threshold", analysis.DefaultCorrelationThreshold, "Minimum |r| for a scan result")
	correlations.MarkFlagsRequiredTogether("x", "y")

	similar := &cobra.Command{
		Use:   "similar",
		Short: "Find the logged days closest to a target log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.OutOrStdout(), opts, analyzeSimilar)
		},
	}
	similar.Flags().StringVar(&opts.logID, "log-id", "", "Target log id (default: the latest log)")
	similar.Flags().IntVarP(&opts.k, "k", "k", analysis.DefaultSimilarDays, "Number of similar days")

	summary := &cobra.Command{
		Use:   "summary",
		Short: "Summarize each metric with its trend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.OutOrStdout(), opts, analyzeSummary)
		},
	}

	reflect := &cobra.Command{
		Use:   "reflect",
		Short: "Run a reflection session over the logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.OutOrStdout(), opts, analyzeReflect)
		},
	}
	reflect.Flags().StringVar(&opts.mood, "mood", "", "Mood being reflected on")
	reflect.Flags().StringSliceVar(&opts.reasons, "reasons", nil, "Reason tags, e.g. sleep,work")
	reflect.Flags().IntVar(&opts.windowDays, "window-days", reflection.DefaultWindowDays, "Days of logs to consider")
	reflect.Flags().StringVar(&opts.asOf, "as-of", "", "Day the reflection runs on, YYYY-MM-DD (default: the latest log's day)")
	reflect.Flags().StringVar(&opts.history, "history", "", "Path to a JSON array of previous sessions")
	_ = reflect.MarkFlagRequired("mood")
	_ = reflect.MarkFlagRequired("reasons")

	cmd.AddCommand(correlations, similar, summary, reflect)
	return cmd
}

type analyzeFunc func(opts *analyzeOptions, logs []models.DailyLog) (any, error)

func runAnalyze(w io.Writer, opts *analyzeOptions, fn analyzeFunc) error {
	if opts.format != "json" && opts.format != "yaml" {
		return fmt.Errorf("unsupported format %q (want json or yaml)", opts.format)
	}

	logs, err := readJSONFile[[]models.DailyLog](opts.input)
	if err != nil {
		return err
	}

	result, err := fn(opts, logs)
	if err != nil {
		return err
	}
	return writeResult(w, opts.format, result)
}

func analyzeCorrelations(opts *analyzeOptions, logs []models.DailyLog) (any, error) {
	if opts.x != "" {
		resp := models.CorrelationResponse{MetricX: opts.x, MetricY: opts.y}
		if result, ok := analysis.Correlate(logs, opts.x, opts.y, analysis.DefaultHighSignificanceSampleSize); ok {
			resp.Defined = true
			resp.Correlation = &result
		}
		return resp, nil
	}

	scan := analysis.DefaultScanOptions()
	scan.MinSampleSize = opts.minSampleSize
	scan.Threshold = opts.threshold

	results := analysis.ScanCorrelations(logs, metricsFor(opts, logs), scan)
	if results == nil {
		results = []models.CorrelationResult{}
	}
	return results, nil
}

func analyzeSimilar(opts *analyzeOptions, logs []models.DailyLog) (any, error) {
	target, ok := findTarget(logs, opts.logID)
	if !ok {
		if opts.logID != "" {
			return nil, fmt.Errorf("log %q not found in %s", opts.logID, opts.input)
		}
		return nil, fmt.Errorf("%s contains no logs", opts.input)
	}

	refs := metricsFor(opts, logs)
	return models.SimilarDaysResponse{
		TargetLogID: target.ID,
		Metrics:     refs,
		SimilarDays: analysis.FindSimilarDays(target, logs, refs, opts.k),
	}, nil
}

func analyzeSummary(opts *analyzeOptions, logs []models.DailyLog) (any, error) {
	return analysis.Summarize(logs, metricsFor(opts, logs)), nil
}

func analyzeReflect(opts *analyzeOptions, logs []models.DailyLog) (any, error) {
	asOf, err := reflectionDay(opts.asOf, logs)
	if err != nil {
		return nil, err
	}

	var history []models.ReflectionSession
	if opts.history != "" {
		history, err = readJSONFile[[]models.ReflectionSession](opts.history)
		if err != nil {
			return nil, err
		}
	}

	userID := ""
	if len(logs) > 0 {
		userID = logs[0].UserID
	}

	detector := reflection.NewDetector(reflection.WithClock(func() time.Time { return asOf }))
	return detector.Analyze(reflection.Input{
		UserID:     userID,
		MoodFocus:  strings.TrimSpace(opts.mood),
		Reasons:    opts.reasons,
		WindowDays: opts.windowDays,
		Logs:       logs,
		History:    history,
	})
}

// reflectionDay returns the end of the day the reflection runs on, so the
// window includes logs dated that day
func reflectionDay(asOf string, logs []models.DailyLog) (time.Time, error) {
	var day time.Time
	if asOf != "" {
		parsed, err := time.Parse(models.DateLayout, asOf)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --as-of %q: %w", asOf, err)
		}
		day = parsed
	} else if latest, ok := findTarget(logs, ""); ok {
		day = latest.Day()
	} else {
		day = time.Now().UTC()
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, time.UTC), nil
}

// findTarget returns the log with the given id, or the latest log when id is empty
func findTarget(logs []models.DailyLog, id string) (models.DailyLog, bool) {
	if id != "" {
		for _, log := range logs {
			if log.ID == id {
				return log, true
			}
		}
		return models.DailyLog{}, false
	}

	if len(logs) == 0 {
		return models.DailyLog{}, false
	}
	latest := logs[0]
	for _, log := range logs[1:] {
		if !log.Day().Before(latest.Day()) {
			latest = log
		}
	}
	return latest, true
}

func metricsFor(opts *analyzeOptions, logs []models.DailyLog) []string {
	if len(opts.metrics) > 0 {
		return opts.metrics
	}
	return analysis.DiscoverMetrics(logs)
}

func readJSONFile[T any](path string) (T, error) {
	var v T
	data, err := os.ReadFile(path)
	if err != nil {
		return v, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return v, nil
}

func writeResult(w io.Writer, format string, v any) error {
	var (
		out []byte
		err error
	)
	switch format {
	case "yaml":
		out, err = yaml.Marshal(v)
	default:
		out, err = json.MarshalIndent(v, "", "  ")
		out = append(out, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	_, err = w.Write(out)
	return err
}
