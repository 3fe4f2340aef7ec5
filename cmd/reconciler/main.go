package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Haokaiiii/WFX-Timesheet/internal/classify"
	"github.com/Haokaiiii/WFX-Timesheet/internal/config"
	"github.com/Haokaiiii/WFX-Timesheet/internal/importer"
	"github.com/Haokaiiii/WFX-Timesheet/internal/logger"
	"github.com/Haokaiiii/WFX-Timesheet/internal/match"
	"github.com/Haokaiiii/WFX-Timesheet/internal/model"
	"github.com/Haokaiiii/WFX-Timesheet/internal/reconcile"
	"github.com/Haokaiiii/WFX-Timesheet/internal/report"
	"github.com/Haokaiiii/WFX-Timesheet/internal/store"
	"github.com/Haokaiiii/WFX-Timesheet/internal/web"
	"github.com/Haokaiiii/WFX-Timesheet/internal/wfx"
)

const dateLayout = "2006-01-02"

var (
	cfg *config.Config
	log *zap.Logger
)

func main() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log = logger.New(cfg.Env)
	defer log.Sync()

	rootCmd := &cobra.Command{
		Use:   "reconciler",
		Short: "GPS trip vs WFX timesheet reconciliation",
		Long:  `Reconciles telematics trip exports against WorkflowMax timesheets: trip classification, weighted job matching and day-level hour comparison`,
	}

	rootCmd.AddCommand(createRunCmd())
	rootCmd.AddCommand(createImportCmd())
	rootCmd.AddCommand(createServeCmd())
	rootCmd.AddCommand(createPingCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// createRunCmd creates the command that performs a full reconciliation
// run and writes reports.
func createRunCmd() *cobra.Command {
	var (
		tripsPath string
		fromStr   string
		toStr     string
		outDir    string
		archive   bool
		upload    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a full reconciliation and write reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			summary, raw, err := runReconciliation(ctx, tripsPath, fromStr, toStr)
			if err != nil {
				return err
			}

			if archive {
				if err := archiveRun(summary.RunID, raw); err != nil {
					log.Warn("archive failed", zap.Error(err))
				}
			}

			if err := writeReports(outDir, summary); err != nil {
				return err
			}

			if upload {
				uploader, err := report.NewSheetsUploader(ctx, cfg.Sheets.CredentialsPath, cfg.Sheets.SpreadsheetID)
				if err != nil {
					return err
				}
				if err := uploader.Upload(ctx, summary); err != nil {
					return err
				}
			}

			printRunResults(summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&tripsPath, "trips", "", "Telematics trips CSV export")
	cmd.Flags().StringVar(&fromStr, "from", "", "First date to reconcile (YYYY-MM-DD, default: earliest trip)")
	cmd.Flags().StringVar(&toStr, "to", "", "Last date to reconcile (YYYY-MM-DD, default: latest trip)")
	cmd.Flags().StringVar(&outDir, "out", "reports", "Directory for report files")
	cmd.Flags().BoolVar(&archive, "archive", false, "Archive raw inputs in Postgres")
	cmd.Flags().BoolVar(&upload, "sheets", false, "Append day results to the configured Google Sheet")
	cmd.MarkFlagRequired("trips")

	return cmd
}

// createImportCmd creates the command that archives a trips CSV without
// reconciling it.
func createImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [filename]",
		Short: "Archive a telematics trips CSV in Postgres",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trips, err := importer.ParseTripsFile(args[0], log)
			if err != nil {
				return err
			}

			runID := model.NewReconciliationSummary(cfg.StaffID).RunID
			if err := archiveRun(runID, &rawInputs{trips: trips}); err != nil {
				return err
			}

			fmt.Printf("Archived %d trips under run %s\n", len(trips), runID)
			return nil
		},
	}
}

// createServeCmd creates the dashboard server command. With --trips it
// reconciles first so the dashboard starts populated.
func createServeCmd() *cobra.Command {
	var (
		tripsPath string
		fromStr   string
		toStr     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the reconciliation dashboard API",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.NewConnection(cfg.Database)
			if err != nil {
				log.Warn("trip archive unavailable", zap.Error(err))
				st = nil
			}

			server := web.NewServer(cfg, st, log)

			if tripsPath != "" {
				summary, _, err := runReconciliation(cmd.Context(), tripsPath, fromStr, toStr)
				if err != nil {
					return err
				}
				server.SetSummary(summary)
			}

			return server.Start()
		},
	}

	cmd.Flags().StringVar(&tripsPath, "trips", "", "Reconcile this trips CSV before serving")
	cmd.Flags().StringVar(&fromStr, "from", "", "First date to reconcile (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toStr, "to", "", "Last date to reconcile (YYYY-MM-DD)")

	return cmd
}

// createPingCmd creates a command to test archive database
// connectivity.
func createPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test archive database connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.NewConnection(cfg.Database)
			if err != nil {
				return err
			}
			defer st.Close()

			fmt.Println("Archive database connection successful!")

			var count int
			if err := st.DB.QueryRow("SELECT COUNT(*) FROM archived_trip").Scan(&count); err == nil {
				fmt.Printf("Archived trips: %d\n", count)
			}
			if err := st.DB.QueryRow("SELECT COUNT(*) FROM archived_timesheet").Scan(&count); err == nil {
				fmt.Printf("Archived timesheet entries: %d\n", count)
			}
			return nil
		},
	}
}

// rawInputs carries the raw parsed data of a run for archiving.
type rawInputs struct {
	trips   []*model.Trip
	entries []*model.TimesheetEntry
}

// runReconciliation parses the trips CSV, fetches the matching WFX
// timesheets and performs the enhanced comparison.
func runReconciliation(ctx context.Context, tripsPath, fromStr, toStr string) (*model.ReconciliationSummary, *rawInputs, error) {
	trips, err := importer.ParseTripsFile(tripsPath, log)
	if err != nil {
		return nil, nil, err
	}
	if len(trips) == 0 {
		return nil, nil, fmt.Errorf("no usable trips in %s", tripsPath)
	}

	from, to, err := resolveDateRange(trips, fromStr, toStr)
	if err != nil {
		return nil, nil, err
	}

	profile := &model.StaffProfile{
		ID:          cfg.StaffID,
		Name:        cfg.Staff,
		HomeAddress: cfg.HomeAddr,
	}

	client, err := wfx.NewClient(wfx.Config{
		BaseURL:      cfg.Wfx.BaseURL,
		TokenURL:     cfg.Wfx.TokenURL,
		ClientID:     cfg.Wfx.ClientID,
		ClientSecret: cfg.Wfx.ClientSecret,
	})
	if err != nil {
		return nil, nil, err
	}

	weights, thresholds := matchingSettings(cfg.Matching)
	service := reconcile.NewService(client, weights, thresholds, log)

	entries, err := client.FetchTimesheets(ctx, cfg.StaffID, from, to)
	if err != nil {
		return nil, nil, err
	}

	tripsByDate := importer.BuildDailySummaries(trips, classify.New(log), profile, cfg.BreakMinutes)
	entriesByDate := wfx.GroupByDate(entries)

	summary := service.PerformEnhancedComparison(ctx, tripsByDate, entriesByDate, profile)

	return summary, &rawInputs{trips: trips, entries: entries}, nil
}

// resolveDateRange parses the flag dates, falling back to the span of
// the imported trips.
func resolveDateRange(trips []*model.Trip, fromStr, toStr string) (time.Time, time.Time, error) {
	if fromStr == "" {
		fromStr = trips[0].Date
		for _, t := range trips {
			if t.Date < fromStr {
				fromStr = t.Date
			}
		}
	}
	if toStr == "" {
		toStr = trips[0].Date
		for _, t := range trips {
			if t.Date > toStr {
				toStr = t.Date
			}
		}
	}

	from, err := time.Parse(dateLayout, fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid from date %q: %w", fromStr, err)
	}
	to, err := time.Parse(dateLayout, toStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid to date %q: %w", toStr, err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to date %s precedes from date %s", toStr, fromStr)
	}
	return from, to, nil
}

func matchingSettings(mc config.MatchingConfig) (*match.Weights, *match.Thresholds) {
	return &match.Weights{
			Location: mc.LocationWeight,
			Time:     mc.TimeWeight,
			Duration: mc.DurationWeight,
			JobType:  mc.JobTypeWeight,
		}, &match.Thresholds{
			MinimumMatch:     mc.MinimumMatchConfidence,
			Fuzzy:            mc.FuzzyMatchThreshold,
			MaxTimeOffsetMin: mc.MaxTimeOffsetMinutes,
			MaxDistanceKm:    mc.MaxDistanceKm,
			HourDiscrepancy:  mc.HourDiscrepancy,
		}
}

func archiveRun(runID string, raw *rawInputs) error {
	st, err := store.NewConnection(cfg.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.EnsureSchema(); err != nil {
		return err
	}
	if err := st.ArchiveTrips(runID, raw.trips); err != nil {
		return err
	}
	if len(raw.entries) > 0 {
		if err := st.ArchiveTimesheets(runID, raw.entries); err != nil {
			return err
		}
	}
	return nil
}

func writeReports(outDir string, summary *model.ReconciliationSummary) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	files := []struct {
		name  string
		write func(f *os.File) error
	}{
		{"summary.json", func(f *os.File) error { return report.WriteJSON(f, summary) }},
		{"days.csv", func(f *os.File) error { return report.WriteDaysCSV(f, summary) }},
		{"matches.csv", func(f *os.File) error { return report.WriteMatchesCSV(f, summary) }},
		{"alerts.csv", func(f *os.File) error { return report.WriteAlertsCSV(f, summary) }},
	}

	for _, file := range files {
		f, err := os.Create(filepath.Join(outDir, file.name))
		if err != nil {
			return fmt.Errorf("create %s: %w", file.name, err)
		}
		if err := file.write(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

func printRunResults(summary *model.ReconciliationSummary) {
	fmt.Printf("\n=== Reconciliation Results ===\n")
	fmt.Printf("Run ID: %s\n", summary.RunID)
	fmt.Printf("Days Compared: %d\n", summary.TotalDays)
	fmt.Printf("Matched Jobs: %d\n", summary.MatchedJobs)
	fmt.Printf("Unmatched Trips: %d\n", summary.UnmatchedTrips)
	fmt.Printf("Unmatched Entries: %d\n", summary.UnmatchedEntries)
	fmt.Printf("Location Match Accuracy: %.1f%%\n", summary.LocationMatchAccuracy)
	fmt.Printf("Time Match Accuracy: %.1f%%\n", summary.TimeMatchAccuracy)
	fmt.Printf("Alerts: %d\n", len(summary.Alerts))
}
