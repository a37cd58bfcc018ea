package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/tifye/bungeoppang/autoplay"
	"github.com/tifye/bungeoppang/game"
	"github.com/tifye/bungeoppang/shop"
	"github.com/tifye/bungeoppang/storage"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	Execute(ctx)
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bungeoppang",
		Short: "Bungeoppang shop tools",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	cmd.PersistentFlags().String("db", "", "path to the save database, empty for in-memory")
	cmd.PersistentFlags().String("slot", "sim", "save slot")
	cmd.PersistentFlags().Bool("verbose", false, "log debug output")

	cmd.AddCommand(
		newSimulateCommand(),
		newHistoryCommand(),
	)

	return cmd
}

func Execute(ctx context.Context) {
	root := newRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newLogger(cmd *cobra.Command) *log.Logger {
	level := log.InfoLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(cmd.ErrOrStderr(), log.Options{Level: level})
}

func openStore(cmd *cobra.Command) (storage.DuckDB, error) {
	path, _ := cmd.Flags().GetString("db")
	db, err := storage.InitDuckDB(path)
	if err != nil {
		return nil, fmt.Errorf("init duckdb: %s", err)
	}
	return db, nil
}

func newSimulateCommand() *cobra.Command {
	var (
		seed1, seed2 uint64
		days         int
		daySeconds   int
		modifier     float64
		idle         bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Let a bot play the shop for a number of days",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd)
			slot, _ := cmd.Flags().GetString("slot")

			db, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			store := storage.NewSaveStore(db)
			svc := game.NewService(logger.WithPrefix("game"), store, slot, shop.NewRand(seed1, seed2))
			if err := svc.Restore(cmd.Context()); err != nil {
				return fmt.Errorf("restore: %s", err)
			}

			config := autoplay.DefaultBotConfig()
			if idle {
				config = autoplay.IdleBotConfig()
			}
			config.DaySeconds = daySeconds
			config.PriceModifier = modifier

			sim := autoplay.NewSimulator(logger.WithPrefix("sim"), svc, seed1, seed2, config)
			results, err := sim.Run(cmd.Context(), days)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DAY\tREVENUE\tGOAL\tRESULT\tSERVED\tLOST\tBONUS\tPOPULAR")
			for _, res := range results {
				fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%d\t%d\t%d\t%s\n",
					res.Day,
					res.Summary.Revenue,
					res.Summary.Goal,
					outcome(res.Summary.Success),
					res.Summary.CustomersServed,
					res.Summary.CustomersLost,
					res.Bonus,
					res.Summary.MostPopularFilling,
				)
			}
			w.Flush()

			snap := svc.Snapshot()
			fmt.Fprintf(cmd.OutOrStdout(), "\nday %d, total revenue %d\n", snap.CurrentDay, snap.CumulativeRevenue)
			return err
		},
	}

	cmd.Flags().Uint64Var(&seed1, "seed1", 1, "first seed")
	cmd.Flags().Uint64Var(&seed2, "seed2", 2, "second seed")
	cmd.Flags().IntVar(&days, "days", 5, "number of days to play")
	cmd.Flags().IntVar(&daySeconds, "day-seconds", 90, "length of a day in seconds")
	cmd.Flags().Float64Var(&modifier, "price", 1.0, "price modifier")
	cmd.Flags().BoolVar(&idle, "idle", false, "never touch the molds")

	return cmd
}

func newHistoryCommand() *cobra.Command {
	var limit uint

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print finished days of a save slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 || limit > storage.MaxSummaryLimit {
				return fmt.Errorf("--limit must be between 1 and %d, got %d", storage.MaxSummaryLimit, limit)
			}
			slot, _ := cmd.Flags().GetString("slot")

			db, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			records, err := storage.NewSaveStore(db).Summaries(cmd.Context(), slot, limit)
			if err != nil {
				return fmt.Errorf("summaries: %s", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "FINISHED\tDAY\tREVENUE\tGOAL\tRESULT\tUNITS\tSATISFACTION")
			for _, rec := range records {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t%d\t%d%%\n",
					rec.FinishedAt.Format("2006-01-02 15:04:05"),
					rec.Day,
					rec.Summary.Revenue,
					rec.Summary.Goal,
					outcome(rec.Summary.Success),
					rec.Summary.UnitsSold,
					rec.Summary.AvgSatisfactionPercent,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().UintVar(&limit, "limit", 20, "number of days to print")

	return cmd
}

func outcome(success bool) string {
	if success {
		return "won"
	}
	return "lost"
}
