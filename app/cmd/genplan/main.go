// Command genplan writes a periodized training plan ending on two race days.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"stravadash/app/config"
	"stravadash/app/logging"
	"stravadash/app/plan"
	"stravadash/app/storage"
	"stravadash/app/storage/models"
	"stravadash/app/utils"
	"text/tabwriter"
	"time"
)

var errPlanExists = errors.New("plan already exists for this range, run with -replace to overwrite it")

func main() {
	configPath := flag.String("config", "./plan.toml", "path for the TOML plan config file")
	replace := flag.Bool("replace", false, "delete existing plan days in the generated range first")
	dryRun := flag.Bool("dry-run", false, "print the plan without writing it")
	logLevel := flag.String("log-level", "info", "log level [debug | info | warn | error]")
	flag.Parse()

	logging.Setup(logging.SetupParams{LogLevel: *logLevel})

	cfg, err := config.LoadPlanConfig(*configPath)
	if err != nil {
		slog.Error("cannot load plan config", "path", *configPath, "err", err)
		os.Exit(1)
	}

	if err := run(context.Background(), cfg, *replace, *dryRun); err != nil {
		slog.Error("plan generation failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.PlanConfig, replace, dryRun bool) error {
	gen := plan.NewGenerator(cfg.AthleteID)
	gen.RaceA = race(cfg.RaceA)
	gen.RaceB = race(cfg.RaceB)

	days, err := gen.Generate(cfg.RaceA.Date, cfg.RaceB.Date)
	if err != nil {
		return err
	}
	first, last := days[0].Date, days[len(days)-1].Date
	fmt.Printf("Generated %d days of training: %s to %s\n", len(days), first, last)

	if dryRun {
		printPlan(days)
		return nil
	}

	db := &storage.SQLiteStore{}
	if err := db.Connect(cfg.DBPath); err != nil {
		return err
	}
	defer db.Close()

	return store(ctx, db, cfg.AthleteID, days, replace)
}

// store writes days unless the range already holds a plan. With replace the
// range is cleared and rewritten in one transaction.
func store(ctx context.Context, db storage.Store, athleteID int64, days []models.PlanDay, replace bool) error {
	from := days[0].Date
	lastDay, err := utils.ParseDate(days[len(days)-1].Date, time.UTC)
	if err != nil {
		return err
	}
	to := lastDay.AddDate(0, 0, 1).Format(utils.DateLayout)

	existing, err := db.CountPlanDays(ctx, athleteID, from, to)
	if err != nil {
		return err
	}
	if existing > 0 {
		if !replace {
			return fmt.Errorf("%w: %d days between %s and %s", errPlanExists, existing, from, to)
		}
		deleted, err := db.ReplacePlanDays(ctx, athleteID, from, to, days)
		if err != nil {
			return err
		}
		slog.Info("training plan replaced", "athlete_id", athleteID, "deleted", deleted, "days", len(days))
		return nil
	}

	inserted, err := db.InsertPlanDays(ctx, days)
	if err != nil {
		return err
	}
	slog.Info("training plan stored", "athlete_id", athleteID, "days", inserted)
	return nil
}

func race(rc config.RaceConfig) plan.Race {
	return plan.Race{
		Name:          rc.Name,
		DistanceM:     rc.DistanceM,
		TargetPaceSKm: rc.TargetPaceSKm,
		Notes:         rc.Notes,
	}
}

func printPlan(days []models.PlanDay) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()
	for _, d := range days {
		dist := ""
		if d.TargetDistanceM != nil {
			dist = utils.FormatDistance(*d.TargetDistanceM)
		}
		pace := ""
		if d.TargetPaceSKm != nil {
			pace = utils.FormatPace(d.TargetPaceSKm)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.Date, d.SessionType, d.Description, dist, pace)
	}
}
