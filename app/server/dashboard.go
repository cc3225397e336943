package server

import (
	"log/slog"
	"net/http"
	"stravadash/app/storage/models"
	"stravadash/app/utils"
)

type AthleteView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Photo string `json:"photo"`
}

// RaceCard is the countdown entry of an upcoming race day.
type RaceCard struct {
	Name             string   `json:"name"`
	Date             string   `json:"date"`
	Distance         string   `json:"distance"`
	DaysLeft         int      `json:"daysLeft"`
	TargetPaceSKm    *float64 `json:"targetPace"`
	TargetPaceLabel  string   `json:"targetPaceLabel"`
	CurrentPaceLabel string   `json:"currentPaceLabel"`
	PaceGapSKm       *float64 `json:"paceGap"`
	Status           string   `json:"status"`
}

type Dashboard struct {
	Athlete *AthleteView      `json:"athlete"`
	Summary models.Summary    `json:"summary"`
	Plan    []models.PlanWeek `json:"plan"`
	Races   []RaceCard        `json:"races"`
}

// dashboardHandler never fails on read errors: every section that cannot be
// loaded is returned empty.
func (h *HttpHandler) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	athleteID, ok := h.athleteID(r)
	if !ok {
		notLoggedIn(w)
		return
	}
	ctx := r.Context()
	now := h.now()

	dash := Dashboard{
		Summary: models.EmptySummary(),
		Plan:    []models.PlanWeek{},
		Races:   []RaceCard{},
	}

	if cred, err := h.Credentials.Get(ctx, athleteID); err != nil {
		slog.Warn("dashboard without athlete profile", "athlete_id", athleteID, "err", err)
	} else {
		dash.Athlete = &AthleteView{ID: cred.AthleteID, Name: cred.AthleteName, Photo: cred.AthletePhoto}
	}

	// The summary window reaches further back than the plan window, so its
	// runs are enough to reconcile the plan.
	if summary, err := h.Summary.Summary(ctx, athleteID, now); err == nil {
		dash.Summary = summary
		if weeks, err := h.Plan.Reconcile(ctx, athleteID, summary.Activities, now); err == nil {
			dash.Plan = weeks
		}
	} else if weeks, err := h.Plan.Weeks(ctx, athleteID, now); err == nil {
		dash.Plan = weeks
	}

	if h.Races != nil {
		races, err := h.Races.GetUpcomingRaces(ctx, athleteID, utils.CalendarDate(now, h.loc()))
		if err != nil {
			slog.Warn("dashboard without races", "athlete_id", athleteID, "err", err)
		}
		for _, race := range races {
			dash.Races = append(dash.Races, h.raceCard(race, dash.Summary.CurrentPace))
		}
	}

	utils.WriteJSON(w, http.StatusOK, dash)
}

func (h *HttpHandler) raceCard(race models.PlanDay, currentPace *float64) RaceCard {
	card := RaceCard{
		Name:             race.Description,
		Date:             race.Date,
		TargetPaceSKm:    race.TargetPaceSKm,
		TargetPaceLabel:  utils.FormatPace(race.TargetPaceSKm),
		CurrentPaceLabel: utils.FormatPace(currentPace),
		Status:           utils.PaceUnknown,
	}
	if race.TargetDistanceM != nil {
		card.Distance = utils.FormatDistance(*race.TargetDistanceM)
	}
	if days, err := utils.DaysUntil(race.Date, h.now(), h.loc()); err == nil {
		card.DaysLeft = days
	}

	target := h.TargetPaceSKm
	if race.TargetPaceSKm != nil {
		target = *race.TargetPaceSKm
	}
	if target > 0 {
		card.Status = utils.PaceStatus(currentPace, target)
		if currentPace != nil && *currentPace > 0 {
			gap := *currentPace - target
			card.PaceGapSKm = &gap
		}
	}
	return card
}
