package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/healthbot/core/logger"
	"github.com/m3rciful/healthbot/core/telegram/state"
	"github.com/m3rciful/healthbot/internal/food"
)

// FoodSource searches products by free-text query.
type FoodSource interface {
	Search(ctx context.Context, query string) ([]food.Product, error)
}

// ProfileStore persists completed profiles. Get reports false for unknown users.
type ProfileStore interface {
	Get(ctx context.Context, userID int64) (Profile, bool, error)
	Save(ctx context.Context, p Profile) error
	Count(ctx context.Context) (int, error)
}

// Options wires Tracker collaborators.
type Options struct {
	Profiles ProfileStore
	Sessions *state.Store
	Weather  WeatherSource
	Food     FoodSource
	Now      func() time.Time
}

// Tracker runs the setup and food flows and all logging commands.
// Calls for the same user are serialised; different users proceed in parallel.
type Tracker struct {
	profiles ProfileStore
	sessions *state.Store
	weather  WeatherSource
	food     FoodSource
	now      func() time.Time
	locks    *userLocks
}

// New validates options and builds a Tracker.
func New(opts Options) (*Tracker, error) {
	if opts.Profiles == nil {
		return nil, errors.New("tracker: profile store is required")
	}
	if opts.Weather == nil {
		return nil, errors.New("tracker: weather source is required")
	}
	if opts.Food == nil {
		return nil, errors.New("tracker: food source is required")
	}
	if opts.Sessions == nil {
		opts.Sessions = state.NewStore()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Tracker{
		profiles: opts.Profiles,
		sessions: opts.Sessions,
		weather:  opts.Weather,
		food:     opts.Food,
		now:      opts.Now,
		locks:    newUserLocks(),
	}, nil
}

// StartSetup puts the user at the first setup step, discarding any active flow.
// It reports whether a flow was already in progress.
func (t *Tracker) StartSetup(ctx context.Context, userID int64) bool {
	defer t.locks.lock(userID)()

	restarted := t.sessions.InProgress(userID)
	t.sessions.Put(userID, state.New(StateAwaitingWeight))
	logger.Info(ctx, logger.CompTracker, "setup.start",
		slog.Bool("restarted", restarted),
		slog.String("next_state", string(StateAwaitingWeight)),
	)
	return restarted
}

// Cancel drops any active flow and reports whether there was one.
func (t *Tracker) Cancel(ctx context.Context, userID int64) bool {
	defer t.locks.lock(userID)()

	prev := t.sessions.GetState(userID)
	cancelled := t.sessions.Clear(userID)
	if cancelled {
		logger.Info(ctx, logger.CompTracker, "flow.cancel", slog.String("state", string(prev)))
	}
	return cancelled
}

// InFlow reports whether the user has a conversation in progress.
func (t *Tracker) InFlow(userID int64) bool {
	return t.sessions.InProgress(userID)
}

// FlowState returns the user's current conversation state.
func (t *Tracker) FlowState(userID int64) state.State {
	return t.sessions.GetState(userID)
}

// Continue feeds one message into the user's active flow.
func (t *Tracker) Continue(ctx context.Context, userID int64, input string) (Step, error) {
	defer t.locks.lock(userID)()

	sess := t.sessions.Get(userID)
	if sess.Idle() {
		return Step{}, ErrNoActiveFlow
	}

	out := Transition(ctx, sess, input, t.weather)
	t.sessions.Put(userID, out.Next)

	attrs := []slog.Attr{
		slog.String("state", string(sess.State)),
		slog.String("next_state", string(out.Next.State)),
		slog.String("status", logger.Status(out.Err)),
	}
	if out.Err != nil {
		attrs = append(attrs,
			slog.String("err_kind", string(KindOf(out.Err))),
			slog.String("field", FieldOf(out.Err)),
		)
	}
	logger.Debug(ctx, logger.CompTracker, "flow.transition", attrs...)

	if out.Err != nil {
		return Step{}, out.Err
	}

	switch {
	case out.Profile != nil:
		p := *out.Profile
		p.UserID = userID
		p.UpdatedAt = t.now()
		if err := t.profiles.Save(ctx, p); err != nil {
			return Step{}, upstream("storage", err)
		}
		logger.Info(ctx, logger.CompTracker, "profile.saved",
			slog.String("city", p.City),
			slog.Float64("water_goal_ml", p.WaterGoalML),
			slog.Float64("calorie_goal_kcal", p.CalorieGoalKcal),
		)
		return Step{Profile: &p}, nil

	case out.Food != nil:
		p, err := t.requireProfile(ctx, userID, "log_food")
		if err != nil {
			return Step{}, err
		}
		p.LoggedCaloriesKcal += out.Food.Kcal
		if err := t.save(ctx, p); err != nil {
			return Step{}, err
		}
		logger.Info(ctx, logger.CompTracker, "food.logged",
			slog.String("product", logger.SanitizeLimit(out.Food.Product, 64)),
			slog.Float64("grams", out.Food.Grams),
			slog.Float64("kcal", out.Food.Kcal),
		)
		logged := *out.Food
		return Step{Food: &logged}, nil
	}
	return Step{Prompt: out.Prompt}, nil
}

// LogWater adds a water amount given as the single command argument.
func (t *Tracker) LogWater(ctx context.Context, userID int64, args string) (WaterLogged, error) {
	defer t.locks.lock(userID)()

	p, err := t.requireProfile(ctx, userID, "log_water")
	if err != nil {
		return WaterLogged{}, err
	}
	fields := strings.Fields(args)
	if len(fields) != 1 {
		return WaterLogged{}, usage("log_water")
	}
	amount, err := parsePositiveFloat(fields[0])
	if err != nil {
		return WaterLogged{}, &Error{Kind: KindUsage, Field: "log_water", Err: err}
	}

	p.LoggedWaterML += amount
	if err := t.save(ctx, p); err != nil {
		return WaterLogged{}, err
	}
	res := WaterLogged{AmountML: amount, RemainingML: remaining(p.WaterGoalML, p.LoggedWaterML)}
	logger.Info(ctx, logger.CompTracker, "water.logged",
		slog.Float64("amount_ml", amount),
		slog.Float64("remaining_ml", res.RemainingML),
	)
	return res, nil
}

// LogFood looks up query and, on a usable match, waits for the eaten grams.
func (t *Tracker) LogFood(ctx context.Context, userID int64, query string) (FoodMatch, error) {
	defer t.locks.lock(userID)()

	if _, err := t.requireProfile(ctx, userID, "log_food"); err != nil {
		return FoodMatch{}, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return FoodMatch{}, usage("log_food")
	}

	products, err := t.food.Search(ctx, query)
	if err != nil {
		return FoodMatch{}, upstream("food", err)
	}
	if len(products) == 0 {
		return FoodMatch{}, notFound("food", fmt.Errorf("no products for %q", query))
	}
	first := products[0]
	if first.EnergyKcal100g == nil || *first.EnergyKcal100g <= 0 {
		return FoodMatch{}, &Error{Kind: KindNoCalorieData, Field: "food", Err: fmt.Errorf("product %q has no energy value", first.Name)}
	}

	match := FoodMatch{Product: first.Name, KcalPer100g: *first.EnergyKcal100g}
	t.sessions.Put(userID, state.New(StateAwaitingFoodGrams).
		With(keyFoodKcal, match.KcalPer100g).
		With(keyFoodName, match.Product))
	logger.Info(ctx, logger.CompTracker, "food.matched",
		slog.String("query", logger.SanitizeLimit(query, 64)),
		slog.String("product", logger.SanitizeLimit(match.Product, 64)),
		slog.Float64("kcal_100g", match.KcalPer100g),
		slog.String("next_state", string(StateAwaitingFoodGrams)),
	)
	return match, nil
}

// LogWorkout records "<type> <minutes>", adding burned calories and raising the water goal.
func (t *Tracker) LogWorkout(ctx context.Context, userID int64, args string) (Workout, error) {
	defer t.locks.lock(userID)()

	p, err := t.requireProfile(ctx, userID, "log_workout")
	if err != nil {
		return Workout{}, err
	}
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return Workout{}, usage("log_workout")
	}
	minutes, err := strconv.Atoi(fields[1])
	if err != nil || minutes < 0 {
		return Workout{}, &Error{Kind: KindUsage, Field: "log_workout", Err: err}
	}

	burned, extra := WorkoutBurn(minutes)
	p.BurnedCaloriesKcal += burned
	p.WaterGoalML += extra
	if err := t.save(ctx, p); err != nil {
		return Workout{}, err
	}
	w := Workout{Type: fields[0], Minutes: minutes, BurnedKcal: burned, ExtraWaterML: extra}
	logger.Info(ctx, logger.CompTracker, "workout.logged",
		slog.String("workout", logger.SanitizeLimit(w.Type, 32)),
		slog.Int("minutes", minutes),
		slog.Float64("burned_kcal", burned),
		slog.Float64("extra_water_ml", extra),
	)
	return w, nil
}

// Progress reports totals against goals.
func (t *Tracker) Progress(ctx context.Context, userID int64) (Progress, error) {
	defer t.locks.lock(userID)()

	p, err := t.requireProfile(ctx, userID, "check_progress")
	if err != nil {
		return Progress{}, err
	}
	balance := p.LoggedCaloriesKcal - p.BurnedCaloriesKcal
	return Progress{
		LoggedWaterML:        p.LoggedWaterML,
		WaterGoalML:          p.WaterGoalML,
		WaterRemainingML:     remaining(p.WaterGoalML, p.LoggedWaterML),
		LoggedCaloriesKcal:   p.LoggedCaloriesKcal,
		BurnedCaloriesKcal:   p.BurnedCaloriesKcal,
		CalorieBalanceKcal:   balance,
		CalorieGoalKcal:      p.CalorieGoalKcal,
		CalorieRemainingKcal: remaining(p.CalorieGoalKcal, balance),
	}, nil
}

// Profile returns a copy of the user's stored profile.
func (t *Tracker) Profile(ctx context.Context, userID int64) (Profile, error) {
	defer t.locks.lock(userID)()
	return t.requireProfile(ctx, userID, "my_profile")
}

// Stats counts stored profiles and active conversations.
func (t *Tracker) Stats(ctx context.Context) (Stats, error) {
	n, err := t.profiles.Count(ctx)
	if err != nil {
		return Stats{}, upstream("storage", err)
	}
	return Stats{Profiles: n, ActiveFlows: t.sessions.Active()}, nil
}

func (t *Tracker) requireProfile(ctx context.Context, userID int64, op string) (Profile, error) {
	p, ok, err := t.profiles.Get(ctx, userID)
	if err != nil {
		return Profile{}, upstream("storage", err)
	}
	if !ok {
		return Profile{}, profileNotSet(op)
	}
	return p, nil
}

func (t *Tracker) save(ctx context.Context, p Profile) error {
	p.UpdatedAt = t.now()
	if err := t.profiles.Save(ctx, p); err != nil {
		return upstream("storage", err)
	}
	return nil
}
