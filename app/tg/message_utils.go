package tg

import (
	"fmt"
	dbModels "stravadash/app/storage/models"
	"stravadash/app/utils"
	"strings"
	"time"
)

const (
	defaultBotErrorMessage = "Something went wrong, please try again later."
	syncFailedMessage      = "Sync failed. If it keeps failing, reconnect Strava with /start."
	noPlanMessage          = "No training plan for this week."
	authLinkMessage        = "Connect your Strava account here: %s"
	helpMessage            = "Commands:\n/sync - import new runs from Strava\n/summary - last 60 days\n/week - this week's plan"
)

func privateBotMessage(chatID int64) string {
	return fmt.Sprintf("This bot is private. Your chat id is %d.", chatID)
}

func syncMessage(synced int, summary *dbModels.Summary) string {
	msg := fmt.Sprintf("Strava sync done: %d runs synced.", synced)
	if summary == nil {
		return msg
	}
	return msg + fmt.Sprintf("\n%.1f km this week · %d runs in the past 60 days", summary.ThisWeekKm, summary.TotalRuns)
}

func summaryMessage(s dbModels.Summary, targetPaceSKm float64) string {
	if s.TotalRuns == 0 {
		return "No runs in the past 60 days."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "This week: %.1f km\n", s.ThisWeekKm)
	fmt.Fprintf(&sb, "Runs in the past 60 days: %d\n", s.TotalRuns)
	fmt.Fprintf(&sb, "Current pace: %s", utils.FormatPace(s.CurrentPace))
	if targetPaceSKm > 0 {
		target := targetPaceSKm
		fmt.Fprintf(&sb, " (target %s, %s)", utils.FormatPace(&target), utils.PaceStatus(s.CurrentPace, targetPaceSKm))
	}

	if n := len(s.Activities); n > 0 {
		last := s.Activities[n-1]
		fmt.Fprintf(&sb, "\nLast run: %s, %s in %s at %s",
			last.Name,
			utils.FormatDistance(last.DistanceM),
			utils.FormatDuration(last.DurationS),
			utils.FormatPace(last.AvgPaceSKm),
		)
	}
	return sb.String()
}

func weekMessage(w dbModels.PlanWeek, loc *time.Location) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Week of %s: %d%% done\n", w.WeekLabel, w.CompletionRate)
	for _, d := range w.Days {
		weekday := d.Date
		if t, err := utils.ParseDate(d.Date, loc); err == nil {
			weekday = t.Format("Mon")
		}
		mark := "⬜"
		if d.Completed {
			mark = "✅"
		}
		fmt.Fprintf(&sb, "\n%s %s %s", mark, weekday, d.Description)
		if d.TargetDistanceM != nil && d.SessionType != dbModels.SessionRest {
			fmt.Fprintf(&sb, " (%s)", utils.FormatDistance(*d.TargetDistanceM))
		}
	}
	return sb.String()
}
