// Package plan reconciles the stored training plan with completed runs and
// generates new plans from race dates.
package plan

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"stravadash/app/storage/models"
	"stravadash/app/utils"
	"time"
)

const (
	// CompletionTolerance is the fraction of a target distance that counts as done.
	CompletionTolerance = 0.9

	weeksBack    = 3
	weeksForward = 5
)

type DayReader interface {
	GetPlanDays(ctx context.Context, athleteID int64, from, to string) ([]models.PlanDay, error)
}

type RunReader interface {
	GetRunsSince(ctx context.Context, athleteID int64, since time.Time) ([]models.Activity, error)
}

type Reconciler struct {
	Days DayReader
	Runs RunReader
	Loc  *time.Location
}

func NewReconciler(days DayReader, runs RunReader, loc *time.Location) *Reconciler {
	if loc == nil {
		loc = time.UTC
	}
	return &Reconciler{Days: days, Runs: runs, Loc: loc}
}

// Window is the 8 week span around now: from the Monday three weeks back
// up to, but excluding, the Monday five weeks ahead.
func (r *Reconciler) Window(now time.Time) (from, to time.Time) {
	monday := utils.StartOfWeek(now, r.Loc)
	return monday.AddDate(0, 0, -7*weeksBack), monday.AddDate(0, 0, 7*weeksForward)
}

// Reconcile loads the plan days inside the window and marks each one
// completed or not against activities. No plan days gives no weeks.
func (r *Reconciler) Reconcile(ctx context.Context, athleteID int64, activities []models.Activity, now time.Time) ([]models.PlanWeek, error) {
	from, to := r.Window(now)
	days, err := r.Days.GetPlanDays(ctx, athleteID, from.Format(utils.DateLayout), to.Format(utils.DateLayout))
	if err != nil {
		slog.Error("cannot read training plan", "athlete_id", athleteID, "from", from, "to", to, "err", err)
		return []models.PlanWeek{}, err
	}
	return ReconcileDays(days, activities, r.Loc), nil
}

// Weeks reads the runs of the window itself and reconciles the plan against them.
func (r *Reconciler) Weeks(ctx context.Context, athleteID int64, now time.Time) ([]models.PlanWeek, error) {
	from, _ := r.Window(now)
	runs, err := r.Runs.GetRunsSince(ctx, athleteID, from)
	if err != nil {
		slog.Error("cannot read runs for plan", "athlete_id", athleteID, "err", err)
		return []models.PlanWeek{}, err
	}
	return r.Reconcile(ctx, athleteID, runs, now)
}

// ReconcileDays matches days with activities by calendar date in loc,
// groups them by Monday and returns the weeks oldest first.
func ReconcileDays(days []models.PlanDay, activities []models.Activity, loc *time.Location) []models.PlanWeek {
	if len(days) == 0 {
		return []models.PlanWeek{}
	}

	// first activity of each date wins
	byDate := make(map[string]*models.Activity, len(activities))
	for i := range activities {
		date := utils.CalendarDate(activities[i].StartDate, loc)
		if _, ok := byDate[date]; !ok {
			byDate[date] = &activities[i]
		}
	}

	weeks := make(map[string]*models.PlanWeek)
	for _, day := range days {
		matched := byDate[day.Date]
		day.Completed = Completed(day, matched)
		day.ActualActivityID = nil
		if matched != nil {
			id := matched.ID
			day.ActualActivityID = &id
		}

		key, label := weekOf(day.Date, loc)
		w, ok := weeks[key]
		if !ok {
			w = &models.PlanWeek{WeekStart: key, WeekLabel: label}
			weeks[key] = w
		}
		w.Days = append(w.Days, day)
	}

	out := make([]models.PlanWeek, 0, len(weeks))
	for _, w := range weeks {
		w.CompletionRate = CompletionRate(w.Days)
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].WeekStart < out[j].WeekStart
	})
	return out
}

// Completed applies the completion rules to a day and its matched activity, if any.
func Completed(day models.PlanDay, activity *models.Activity) bool {
	switch {
	case day.SessionType == models.SessionRest:
		return true
	case activity == nil:
		return false
	case day.TargetDistanceM != nil:
		return activity.DistanceM >= *day.TargetDistanceM*CompletionTolerance
	default:
		return true
	}
}

// CompletionRate is the rounded share of completed non rest days. A week
// with only rest days is complete.
func CompletionRate(days []models.PlanDay) int {
	var workouts, done int
	for _, d := range days {
		if d.SessionType == models.SessionRest {
			continue
		}
		workouts++
		if d.Completed {
			done++
		}
	}
	if workouts == 0 {
		return 100
	}
	return int(math.Round(float64(done) / float64(workouts) * 100))
}

func weekOf(date string, loc *time.Location) (key, label string) {
	t, err := utils.ParseDate(date, loc)
	if err != nil {
		slog.Warn("plan day with malformed date", "date", date, "err", err)
		return date, date
	}
	monday := utils.StartOfWeek(t, loc)
	return monday.Format(utils.DateLayout), utils.WeekLabel(monday)
}
