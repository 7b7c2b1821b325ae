package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/dfg-downloader/internal/config"
	"github.com/example/dfg-downloader/internal/db"
	"github.com/example/dfg-downloader/internal/ledger"
	"github.com/example/dfg-downloader/internal/migrate"
	"github.com/example/dfg-downloader/internal/progress"
)

func newRunsCmd() *cobra.Command {
	var (
		limit int
		runID string
	)

	c := &cobra.Command{
		Use:   "runs",
		Short: "List recorded download runs (requires DFGDL_DATABASE_URL)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DFGDL_DATABASE_URL is not set; the run ledger is disabled")
			}

			ctx := cmd.Context()
			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()
			if _, err := migrate.Up(ctx, d); err != nil {
				return err
			}

			repo := ledger.NewRepo(d)

			if runID != "" {
				id, err := uuid.Parse(runID)
				if err != nil {
					return fmt.Errorf("invalid run id %q: %w", runID, err)
				}
				r, err := repo.GetRun(ctx, id)
				if errors.Is(err, db.ErrNotFound) {
					return fmt.Errorf("no run with id %s", id)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "id=%s\nstarted=%s\nstatus=%s\ndataset=%q\ntype=%q\nblock=%dd\n",
					r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Status, r.Dataset, r.DatasetType, r.BlockSizeDays)
				if r.RangeStart != nil && r.RangeEnd != nil {
					fmt.Fprintf(os.Stdout, "range=%s..%s dates=%d\n",
						r.RangeStart.Format("2006-01-02"), r.RangeEnd.Format("2006-01-02"), r.AvailableDates)
				}
				fmt.Fprintf(os.Stdout, "downloaded=%s\n", progress.FormatBytes(r.BytesAfter-r.BytesBefore))
				if r.FinishedAt != nil {
					fmt.Fprintf(os.Stdout, "finished=%s\n", r.FinishedAt.Format("2006-01-02 15:04:05"))
				}
				if r.LastError != nil {
					fmt.Fprintf(os.Stdout, "error=%s\n", *r.LastError)
				}
				return nil
			}

			runs, err := repo.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			for _, r := range runs {
				rangeStr := "-"
				if r.RangeStart != nil && r.RangeEnd != nil {
					rangeStr = fmt.Sprintf("%s..%s", r.RangeStart.Format("2006-01-02"), r.RangeEnd.Format("2006-01-02"))
				}
				fmt.Fprintf(os.Stdout, "id=%s started=%s status=%s dataset=%q type=%q block=%dd range=%s dates=%d downloaded=%s\n",
					r.ID, r.StartedAt.Format("2006-01-02 15:04"), r.Status, r.Dataset, r.DatasetType,
					r.BlockSizeDays, rangeStr, r.AvailableDates,
					progress.FormatBytes(r.BytesAfter-r.BytesBefore))
			}
			return nil
		},
	}
	c.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	c.Flags().StringVar(&runID, "id", "", "show a single run in detail")
	return c
}
