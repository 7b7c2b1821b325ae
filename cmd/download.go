package cmd

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/dfg-downloader/internal/blocks"
	"github.com/example/dfg-downloader/internal/browser"
	"github.com/example/dfg-downloader/internal/calendar"
	"github.com/example/dfg-downloader/internal/catalog"
	"github.com/example/dfg-downloader/internal/config"
	"github.com/example/dfg-downloader/internal/db"
	"github.com/example/dfg-downloader/internal/download"
	"github.com/example/dfg-downloader/internal/ledger"
	"github.com/example/dfg-downloader/internal/migrate"
	"github.com/example/dfg-downloader/internal/platform"
	"github.com/example/dfg-downloader/internal/progress"
)

func newDownloadCmd() *cobra.Command {
	var (
		dataset     string
		datasetType string
		blockSize   int
		strict      bool
		maxWait     time.Duration
	)

	c := &cobra.Command{
		Use:   "download",
		Short: "Scan the portal calendar and bulk download the dataset in date blocks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			cat, err := catalog.Load(cfg.CatalogPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()
			logger := slog.Default()

			fmt.Fprintln(out, "Welcome to the Data for Good bulk downloader.")
			if dataset == "" {
				dataset, err = chooseOption(in, out, "Please select the dataset of your choice:", cat.Datasets)
				if err != nil {
					return err
				}
			}
			if datasetType == "" {
				datasetType, err = chooseOption(in, out, "Please now select the dataset type of your choice:", cat.DatasetTypes)
				if err != nil {
					return err
				}
			}

			destDir := filepath.Join(cfg.DownloadFolder, dataset, datasetType)
			if err := os.MkdirAll(destDir, 0o755); err != nil {
				return fmt.Errorf("create destination folder: %w", err)
			}
			bytesBefore, err := progress.DirSize(destDir)
			if err != nil {
				return err
			}

			session, err := browser.NewSession(browser.Options{
				Headless:    cfg.Headless,
				DownloadDir: destDir,
			})
			if err != nil {
				return err
			}
			defer session.Close()

			portal := platform.New(session)
			start := time.Now()

			logger.Info("logging in to the portal", "elapsed", progress.FormatElapsed(time.Since(start)))
			if err := portal.Open(cfg.PartnerID); err != nil {
				return err
			}
			portal.AllowCookies()
			if err := portal.VisitLogin(); err != nil {
				return err
			}
			portal.AllowCookies()
			if err := portal.Login(cfg.Username, cfg.Password); err != nil {
				return err
			}

			logger.Info("filtering datasets", "dataset", dataset, "type", datasetType,
				"elapsed", progress.FormatElapsed(time.Since(start)))
			if err := portal.FilterDatasets(dataset, datasetType, true); err != nil {
				return err
			}
			if err := portal.OpenDownloadDialog(); err != nil {
				return err
			}

			logger.Info("scanning available dates", "elapsed", progress.FormatElapsed(time.Since(start)))
			if err := portal.OpenCalendar(); err != nil {
				return err
			}
			dates, err := calendar.NewScanner(portal).ScanAll()
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "\nREPORT (%s)\n===============\n", progress.FormatElapsed(time.Since(start)))
			if len(dates) == 0 {
				fmt.Fprintln(out, "No available dates were found for this dataset.")
			} else {
				fmt.Fprintf(out, "There are %d available dates between %s and %s\n\n",
					len(dates),
					dates[0].Format("2006-01-02"),
					dates[len(dates)-1].Format("2006-01-02"))
			}

			// Close the calendar panel and the download dialog again;
			// the orchestrator reopens them itself.
			portal.Escape()
			portal.Escape()

			if blockSize == 0 {
				blockSize, err = chooseBlockSize(in, out)
				if err != nil {
					return err
				}
			}
			if blockSize < 1 {
				return fmt.Errorf("block size must be a positive number of days")
			}

			var (
				repo  *ledger.Repo
				runID uuid.UUID
			)
			if cfg.DatabaseURL != "" {
				d, err := db.Open(ctx, cfg.DatabaseURL)
				if err != nil {
					return err
				}
				defer d.Close()
				applied, err := migrate.Up(ctx, d)
				if err != nil {
					return err
				}
				if applied > 0 {
					logger.Info("applied ledger migrations", "count", applied)
				}
				repo = ledger.NewRepo(d)
				runID = uuid.New()
				if err := repo.StartRun(ctx, ledger.Run{
					ID:            runID,
					Dataset:       dataset,
					DatasetType:   datasetType,
					BlockSizeDays: blockSize,
					BytesBefore:   bytesBefore,
				}); err != nil {
					return err
				}
				if len(dates) > 0 {
					if err := repo.SetRange(ctx, runID, dates[0], dates[len(dates)-1], len(dates)); err != nil {
						return err
					}
				}
			}

			monitor, err := portal.OpenMonitor()
			if err != nil {
				return err
			}

			if maxWait == 0 {
				maxWait = cfg.MaxWait
			}
			orch := download.NewOrchestrator(portal, download.Options{
				BlockSizeDays: blockSize,
				Strict:        strict,
				Poller:        download.Poller{Interval: cfg.PollInterval, MaxWait: maxWait},
				Logger:        logger,
				OnBlock: func(b blocks.Block, elapsed time.Duration, blockErr error) {
					if repo == nil {
						return
					}
					status := "done"
					if blockErr != nil {
						status = "failed"
					}
					_ = repo.RecordBlock(ctx, ledger.BlockRecord{
						RunID:   runID,
						Newer:   b.Newer,
						Older:   b.Older,
						Status:  status,
						Elapsed: elapsed,
					})
				},
			})

			runErr := orch.Run(ctx, dates, monitor)

			bytesAfter, sizeErr := progress.DirSize(destDir)
			if sizeErr == nil {
				fmt.Fprintf(out, "\nDestination folder grew from %s to %s (%s downloaded).\n",
					progress.FormatBytes(bytesBefore),
					progress.FormatBytes(bytesAfter),
					progress.FormatBytes(bytesAfter-bytesBefore))
			}

			if repo != nil {
				status := "done"
				var lastErr *string
				if runErr != nil {
					status = "failed"
					msg := runErr.Error()
					lastErr = &msg
				}
				_ = repo.FinishRun(ctx, runID, bytesAfter, status, lastErr)
			}
			return runErr
		},
	}

	c.Flags().StringVar(&dataset, "dataset", "", "dataset name (skips the menu)")
	c.Flags().StringVar(&datasetType, "dataset-type", "", "dataset type (skips the menu)")
	c.Flags().IntVar(&blockSize, "block-size", 0, "block size in days (prompts when omitted)")
	c.Flags().BoolVar(&strict, "strict-endpoints", false, "fail when either block endpoint cannot be selected")
	c.Flags().DurationVar(&maxWait, "max-wait", 0, "cap on each completion wait (default: unbounded)")
	return c
}

// chooseOption presents a numbered menu and returns the picked entry.
// A non-numeric or out-of-range answer aborts the run.
func chooseOption(in *bufio.Reader, out io.Writer, prompt string, options []string) (string, error) {
	fmt.Fprintln(out, prompt)
	for i, opt := range options {
		fmt.Fprintf(out, "[%d] %s\n", i, opt)
	}
	fmt.Fprint(out, "Your choice: ")

	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read choice: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 0 || n >= len(options) {
		return "", fmt.Errorf("please enter a valid option")
	}
	return options[n], nil
}

func chooseBlockSize(in *bufio.Reader, out io.Writer) (int, error) {
	fmt.Fprintln(out, "Choose the size of the block for the bulk download (choose an integer):")
	fmt.Fprint(out, "Your choice: ")

	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return 0, fmt.Errorf("read block size: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("block size must be a positive integer of days")
	}
	return n, nil
}
