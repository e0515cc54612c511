package tracker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/healthbot/internal/food"
	"github.com/m3rciful/healthbot/internal/lookup"
	"github.com/m3rciful/healthbot/internal/store"
	"github.com/m3rciful/healthbot/internal/tracker"
)

type stubWeather struct {
	temp float64
	err  error
}

func (s stubWeather) TemperatureC(context.Context, string) (float64, error) { return s.temp, s.err }

type stubFood struct {
	products []food.Product
	err      error
}

func (s stubFood) Search(context.Context, string) ([]food.Product, error) { return s.products, s.err }

func kcal(v float64) *float64 { return &v }

var fixedNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func newTracker(t *testing.T, w tracker.WeatherSource, f tracker.FoodSource) *tracker.Tracker {
	t.Helper()
	if w == nil {
		w = stubWeather{temp: 30}
	}
	if f == nil {
		f = stubFood{products: []food.Product{{Name: "Banana", EnergyKcal100g: kcal(89)}}}
	}
	tr, err := tracker.New(tracker.Options{
		Profiles: store.NewMemory(),
		Weather:  w,
		Food:     f,
		Now:      func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("tracker.New: %v", err)
	}
	return tr
}

func setupProfile(t *testing.T, tr *tracker.Tracker, userID int64) tracker.Profile {
	t.Helper()
	ctx := context.Background()
	tr.StartSetup(ctx, userID)
	for _, in := range []string{"70", "175", "25", "45"} {
		if _, err := tr.Continue(ctx, userID, in); err != nil {
			t.Fatalf("setup input %q: %v", in, err)
		}
	}
	step, err := tr.Continue(ctx, userID, "London")
	if err != nil {
		t.Fatalf("setup city: %v", err)
	}
	if step.Profile == nil {
		t.Fatal("setup did not produce a profile")
	}
	return *step.Profile
}

func TestSetupFlowCreatesProfile(t *testing.T) {
	tr := newTracker(t, nil, nil)
	ctx := context.Background()

	if tr.StartSetup(ctx, 1) {
		t.Fatal("first StartSetup should not report a restart")
	}
	if _, err := tr.Profile(ctx, 1); !errors.Is(err, tracker.ErrProfileNotSet) {
		t.Fatalf("profile must not exist during setup, got %v", err)
	}

	p := setupProfile(t, tr, 1)
	if p.UserID != 1 || p.WaterGoalML != 3100 || p.CalorieGoalKcal != 1973.75 || !p.UpdatedAt.Equal(fixedNow) {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if tr.InFlow(1) {
		t.Fatal("flow must end after setup")
	}
	stored, err := tr.Profile(ctx, 1)
	if err != nil || stored.City != "London" {
		t.Fatalf("stored profile: %+v, %v", stored, err)
	}
}

func TestSetupRestartAndCancel(t *testing.T) {
	tr := newTracker(t, nil, nil)
	ctx := context.Background()

	tr.StartSetup(ctx, 1)
	if _, err := tr.Continue(ctx, 1, "70"); err != nil {
		t.Fatal(err)
	}
	if !tr.StartSetup(ctx, 1) {
		t.Fatal("second StartSetup should report a restart")
	}
	if tr.FlowState(1) != tracker.StateAwaitingWeight {
		t.Fatalf("restart should begin at weight, got %s", tr.FlowState(1))
	}
	if !tr.Cancel(ctx, 1) || tr.InFlow(1) {
		t.Fatal("Cancel should end the flow")
	}
	if tr.Cancel(ctx, 1) {
		t.Fatal("Cancel without a flow should report false")
	}
	if _, err := tr.Continue(ctx, 1, "70"); !errors.Is(err, tracker.ErrNoActiveFlow) {
		t.Fatalf("Continue without a flow: %v", err)
	}
}

func TestCityNotFoundAbortsSetup(t *testing.T) {
	tr := newTracker(t, stubWeather{err: lookup.ErrNotFound}, nil)
	ctx := context.Background()
	tr.StartSetup(ctx, 1)
	for _, in := range []string{"70", "175", "25", "45"} {
		_, _ = tr.Continue(ctx, 1, in)
	}
	if _, err := tr.Continue(ctx, 1, "Atlantis"); !errors.Is(err, tracker.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if tr.InFlow(1) {
		t.Fatal("not found must reset the flow")
	}
	if _, err := tr.Profile(ctx, 1); !errors.Is(err, tracker.ErrProfileNotSet) {
		t.Fatal("no profile may be stored after an aborted setup")
	}
}

func TestOperationsWithoutProfileFailWithPrecondition(t *testing.T) {
	tr := newTracker(t, nil, nil)
	ctx := context.Background()
	inputs := []string{"", "abc", "250", "run 45", "1 2 3"}
	for _, in := range inputs {
		if _, err := tr.LogWater(ctx, 9, in); !errors.Is(err, tracker.ErrProfileNotSet) {
			t.Fatalf("LogWater(%q): %v", in, err)
		}
		if _, err := tr.LogFood(ctx, 9, in); !errors.Is(err, tracker.ErrProfileNotSet) {
			t.Fatalf("LogFood(%q): %v", in, err)
		}
		if _, err := tr.LogWorkout(ctx, 9, in); !errors.Is(err, tracker.ErrProfileNotSet) {
			t.Fatalf("LogWorkout(%q): %v", in, err)
		}
	}
	if _, err := tr.Progress(ctx, 9); !errors.Is(err, tracker.ErrProfileNotSet) {
		t.Fatalf("Progress: %v", err)
	}
	if _, err := tr.Profile(ctx, 9); !errors.Is(err, tracker.ErrProfileNotSet) {
		t.Fatalf("Profile: %v", err)
	}
}

func TestLogWaterIsAdditive(t *testing.T) {
	ctx := context.Background()
	a := newTracker(t, nil, nil)
	b := newTracker(t, nil, nil)
	setupProfile(t, a, 1)
	setupProfile(t, b, 1)

	if _, err := a.LogWater(ctx, 1, "100"); err != nil {
		t.Fatal(err)
	}
	resA, err := a.LogWater(ctx, 1, "200")
	if err != nil {
		t.Fatal(err)
	}
	resB, err := b.LogWater(ctx, 1, "300")
	if err != nil {
		t.Fatal(err)
	}
	if resA.RemainingML != resB.RemainingML || resA.RemainingML != 2800 {
		t.Fatalf("remaining %v vs %v, want 2800", resA.RemainingML, resB.RemainingML)
	}

	res, err := a.LogWater(ctx, 1, "5000")
	if err != nil || res.RemainingML != 0 {
		t.Fatalf("remaining must clamp at zero: %+v, %v", res, err)
	}
}

func TestLogWaterUsage(t *testing.T) {
	tr := newTracker(t, nil, nil)
	setupProfile(t, tr, 1)
	for _, in := range []string{"", "abc", "100 200", "-50", "0"} {
		_, err := tr.LogWater(context.Background(), 1, in)
		if !errors.Is(err, tracker.ErrUsage) {
			t.Fatalf("LogWater(%q): expected usage error, got %v", in, err)
		}
	}
	if res, err := tr.LogWater(context.Background(), 1, "250,5"); err != nil || res.AmountML != 250.5 {
		t.Fatalf("decimal comma: %+v, %v", res, err)
	}
}

func TestLogWorkoutRaisesWaterGoal(t *testing.T) {
	tr := newTracker(t, nil, nil)
	ctx := context.Background()
	setupProfile(t, tr, 1)

	before, _ := tr.Progress(ctx, 1)
	w, err := tr.LogWorkout(ctx, 1, "run 45")
	if err != nil {
		t.Fatal(err)
	}
	if w.Type != "run" || w.Minutes != 45 || w.BurnedKcal != 450 || w.ExtraWaterML != 200 {
		t.Fatalf("unexpected workout: %+v", w)
	}
	after, _ := tr.Progress(ctx, 1)
	if after.WaterGoalML != before.WaterGoalML+200 {
		t.Fatalf("water goal %v -> %v, want +200", before.WaterGoalML, after.WaterGoalML)
	}
	if after.BurnedCaloriesKcal != 450 || after.CalorieBalanceKcal != -450 {
		t.Fatalf("unexpected calorie figures: %+v", after)
	}
	if after.CalorieRemainingKcal != 1973.75+450 {
		t.Fatalf("calorie remaining = %v", after.CalorieRemainingKcal)
	}
}

func TestLogWorkoutUsage(t *testing.T) {
	tr := newTracker(t, nil, nil)
	setupProfile(t, tr, 1)
	for _, in := range []string{"", "run", "run 45 fast", "run forty", "run -5", "run 4.5"} {
		if _, err := tr.LogWorkout(context.Background(), 1, in); !errors.Is(err, tracker.ErrUsage) {
			t.Fatalf("LogWorkout(%q): expected usage error, got %v", in, err)
		}
	}
}

func TestLogFoodFlow(t *testing.T) {
	tr := newTracker(t, nil, nil)
	ctx := context.Background()
	setupProfile(t, tr, 1)

	match, err := tr.LogFood(ctx, 1, "banana")
	if err != nil {
		t.Fatal(err)
	}
	if match.Product != "Banana" || match.KcalPer100g != 89 {
		t.Fatalf("unexpected match: %+v", match)
	}
	if tr.FlowState(1) != tracker.StateAwaitingFoodGrams {
		t.Fatalf("expected AwaitingFoodGrams, got %s", tr.FlowState(1))
	}

	step, err := tr.Continue(ctx, 1, "150")
	if err != nil {
		t.Fatal(err)
	}
	if step.Food == nil || step.Food.Kcal != 133.5 {
		t.Fatalf("unexpected food step: %+v", step)
	}
	prog, _ := tr.Progress(ctx, 1)
	if prog.LoggedCaloriesKcal != 133.5 || tr.InFlow(1) {
		t.Fatalf("calories not logged or flow still active: %+v", prog)
	}
}

// A bad grams reply drops the pending product instead of asking again.
func TestLogFoodBadGramsClearsPendingLookup(t *testing.T) {
	tr := newTracker(t, nil, nil)
	ctx := context.Background()
	setupProfile(t, tr, 1)

	if _, err := tr.LogFood(ctx, 1, "banana"); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Continue(ctx, 1, "lots"); !errors.Is(err, tracker.ErrInvalidInput) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if tr.InFlow(1) {
		t.Fatal("flow must clear after a bad grams reply")
	}
	if prog, _ := tr.Progress(ctx, 1); prog.LoggedCaloriesKcal != 0 {
		t.Fatalf("no calories may be logged, got %v", prog.LoggedCaloriesKcal)
	}
}

func TestLogFoodFailures(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		src  stubFood
		want error
	}{
		{"no results", stubFood{}, tracker.ErrNotFound},
		{"no energy", stubFood{products: []food.Product{{Name: "Mystery"}}}, tracker.ErrNoCalorieData},
		{"zero energy", stubFood{products: []food.Product{{Name: "Water", EnergyKcal100g: kcal(0)}}}, tracker.ErrNoCalorieData},
		{"upstream", stubFood{err: lookup.Upstream("food", 503, nil)}, tracker.ErrUpstream},
	}
	for _, tc := range cases {
		tr := newTracker(t, nil, tc.src)
		setupProfile(t, tr, 1)
		if _, err := tr.LogFood(ctx, 1, "thing"); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
		if tr.InFlow(1) {
			t.Fatalf("%s: failed lookup must not start the grams flow", tc.name)
		}
	}

	tr := newTracker(t, nil, nil)
	setupProfile(t, tr, 1)
	if _, err := tr.LogFood(ctx, 1, "   "); !errors.Is(err, tracker.ErrUsage) {
		t.Fatalf("empty query: %v", err)
	}
}

func TestProfileAndStats(t *testing.T) {
	tr := newTracker(t, nil, nil)
	ctx := context.Background()
	setupProfile(t, tr, 1)
	setupProfile(t, tr, 2)
	tr.StartSetup(ctx, 3)

	st, err := tr.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Profiles != 2 || st.ActiveFlows != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestConcurrentUsersDoNotInterfere(t *testing.T) {
	tr := newTracker(t, nil, nil)
	ctx := context.Background()
	const users = 20
	for id := int64(1); id <= users; id++ {
		setupProfile(t, tr, id)
	}

	var wg sync.WaitGroup
	for id := int64(1); id <= users; id++ {
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(id int64) {
				defer wg.Done()
				_, _ = tr.LogWater(ctx, id, "10")
			}(id)
		}
	}
	wg.Wait()

	for id := int64(1); id <= users; id++ {
		prog, err := tr.Progress(ctx, id)
		if err != nil || prog.LoggedWaterML != 100 {
			t.Fatalf("user %d: logged %v, %v", id, prog.LoggedWaterML, err)
		}
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := tracker.New(tracker.Options{}); err == nil {
		t.Fatal("expected error without collaborators")
	}
}
