package tracker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/m3rciful/healthbot/core/telegram/state"
	"github.com/m3rciful/healthbot/internal/lookup"
)

var cityPattern = regexp.MustCompile(`^[A-Za-z\s'-]+$`)

// WeatherSource returns the current temperature of a city.
type WeatherSource interface {
	TemperatureC(ctx context.Context, city string) (float64, error)
}

// Outcome is the result of one Transition.
type Outcome struct {
	Next    state.Session
	Prompt  Prompt
	Profile *Profile
	Food    *FoodLogged
	Err     error
}

// Transition advances a conversation by one user message.
// It never touches stores; the caller persists Next and applies Profile or Food.
// Profile, when set, carries goals but no UserID or totals beyond zero.
func Transition(ctx context.Context, sess state.Session, input string, weather WeatherSource) Outcome {
	switch sess.State {
	case StateAwaitingWeight:
		w, err := parsePositiveFloat(input)
		if err != nil {
			return stay(sess, invalid("weight", err))
		}
		return advance(sess, StateAwaitingHeight, PromptHeight, keyWeight, w)

	case StateAwaitingHeight:
		h, err := parsePositiveFloat(input)
		if err != nil {
			return stay(sess, invalid("height", err))
		}
		return advance(sess, StateAwaitingAge, PromptAge, keyHeight, h)

	case StateAwaitingAge:
		a, err := parseInt(input)
		if err == nil && a <= 0 {
			err = fmt.Errorf("age must be positive, got %d", a)
		}
		if err != nil {
			return stay(sess, invalid("age", err))
		}
		return advance(sess, StateAwaitingActivity, PromptActivity, keyAge, a)

	case StateAwaitingActivity:
		m, err := parseInt(input)
		if err == nil && m < 0 {
			err = fmt.Errorf("activity must not be negative, got %d", m)
		}
		if err != nil {
			return stay(sess, invalid("activity", err))
		}
		return advance(sess, StateAwaitingCity, PromptCity, keyActivity, m)

	case StateAwaitingCity:
		return completeSetup(ctx, sess, strings.TrimSpace(input), weather)

	case StateAwaitingFoodGrams:
		return logGrams(sess, input)
	}
	return Outcome{Next: state.Idle(), Err: ErrNoActiveFlow}
}

func stay(sess state.Session, err error) Outcome {
	return Outcome{Next: sess.Clone(), Err: err}
}

func advance(sess state.Session, next state.State, prompt Prompt, key string, value any) Outcome {
	out := sess.With(key, value)
	out.State = next
	return Outcome{Next: out, Prompt: prompt}
}

func completeSetup(ctx context.Context, sess state.Session, city string, weather WeatherSource) Outcome {
	if !cityPattern.MatchString(city) {
		return stay(sess, invalid("city", fmt.Errorf("city %q must use Latin letters", city)))
	}

	weight, okW := sess.Float(keyWeight)
	height, okH := sess.Float(keyHeight)
	age, okA := sess.Int(keyAge)
	activity, okAct := sess.Int(keyActivity)
	if !okW || !okH || !okA || !okAct {
		return Outcome{Next: state.Idle(), Err: invalid("city", errors.New("setup scratch incomplete"))}
	}

	if weather == nil {
		return Outcome{Next: state.Idle(), Err: upstream("weather", errors.New("weather source not configured"))}
	}
	temp, err := weather.TemperatureC(ctx, city)
	if err != nil {
		if errors.Is(err, lookup.ErrNotFound) {
			return Outcome{Next: state.Idle(), Err: notFound("city", err)}
		}
		return Outcome{Next: state.Idle(), Err: upstream("weather", err)}
	}

	p := &Profile{
		WeightKg:        weight,
		HeightCm:        height,
		AgeYears:        age,
		ActivityMinutes: activity,
		City:            city,
		WaterGoalML:     WaterGoal(weight, activity, temp),
		CalorieGoalKcal: CalorieGoal(weight, height, age, activity),
	}
	return Outcome{Next: state.Idle(), Profile: p}
}

// logGrams always ends the food flow, including when the reply is not a number.
func logGrams(sess state.Session, input string) Outcome {
	kcal100, ok := sess.Float(keyFoodKcal)
	if !ok {
		return Outcome{Next: state.Idle(), Err: invalid("grams", errors.New("no pending food lookup"))}
	}
	grams, err := parsePositiveFloat(input)
	if err != nil {
		return Outcome{Next: state.Idle(), Err: invalid("grams", err)}
	}
	name, _ := sess.String(keyFoodName)
	return Outcome{
		Next: state.Idle(),
		Food: &FoodLogged{Product: name, Grams: grams, Kcal: FoodKcal(grams, kcal100)},
	}
}

// parseFloat accepts surrounding whitespace and a decimal comma.
func parseFloat(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return v, nil
}

func parsePositiveFloat(s string) (float64, error) {
	v, err := parseFloat(s)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("value must be positive, got %v", v)
	}
	return v, nil
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
