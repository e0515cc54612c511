// Package tracker owns user profiles and the conversation flows that build and update them.
package tracker

import (
	"time"

	"github.com/m3rciful/healthbot/core/telegram/state"
)

// Conversation states.
const (
	StateIdle              = state.StateIdle
	StateAwaitingWeight    state.State = "awaiting_weight"
	StateAwaitingHeight    state.State = "awaiting_height"
	StateAwaitingAge       state.State = "awaiting_age"
	StateAwaitingActivity  state.State = "awaiting_activity"
	StateAwaitingCity      state.State = "awaiting_city"
	StateAwaitingFoodGrams state.State = "awaiting_food_grams"
)

// Scratch keys held in the session while a flow is active.
const (
	keyWeight   = "weight_kg"
	keyHeight   = "height_cm"
	keyAge      = "age_years"
	keyActivity = "activity_minutes"
	keyFoodKcal = "kcal_100g"
	keyFoodName = "product"
)

// Profile is a completed user profile with its goals and running totals.
type Profile struct {
	UserID             int64     `db:"user_id"`
	WeightKg           float64   `db:"weight_kg"`
	HeightCm           float64   `db:"height_cm"`
	AgeYears           int       `db:"age_years"`
	ActivityMinutes    int       `db:"activity_minutes"`
	City               string    `db:"city"`
	WaterGoalML        float64   `db:"water_goal_ml"`
	CalorieGoalKcal    float64   `db:"calorie_goal_kcal"`
	LoggedWaterML      float64   `db:"logged_water_ml"`
	LoggedCaloriesKcal float64   `db:"logged_calories_kcal"`
	BurnedCaloriesKcal float64   `db:"burned_calories_kcal"`
	UpdatedAt          time.Time `db:"updated_at"`
}

// Prompt names the question the bot should ask next.
type Prompt int

const (
	PromptNone Prompt = iota
	PromptWeight
	PromptHeight
	PromptAge
	PromptActivity
	PromptCity
)

func (p Prompt) String() string {
	switch p {
	case PromptWeight:
		return "weight"
	case PromptHeight:
		return "height"
	case PromptAge:
		return "age"
	case PromptActivity:
		return "activity"
	case PromptCity:
		return "city"
	}
	return "none"
}

// FoodMatch is the product picked for a log_food request.
type FoodMatch struct {
	Product     string
	KcalPer100g float64
}

// FoodLogged is the result of answering the grams question.
type FoodLogged struct {
	Product string
	Grams   float64
	Kcal    float64
}

// Step is the visible result of feeding one message into an active flow.
type Step struct {
	Prompt  Prompt
	Profile *Profile
	Food    *FoodLogged
}

// WaterLogged reports a log_water call.
type WaterLogged struct {
	AmountML    float64
	RemainingML float64
}

// Workout reports a log_workout call.
type Workout struct {
	Type         string
	Minutes      int
	BurnedKcal   float64
	ExtraWaterML float64
}

// Progress is the check_progress report.
type Progress struct {
	LoggedWaterML        float64
	WaterGoalML          float64
	WaterRemainingML     float64
	LoggedCaloriesKcal   float64
	BurnedCaloriesKcal   float64
	CalorieBalanceKcal   float64
	CalorieGoalKcal      float64
	CalorieRemainingKcal float64
}

// Stats summarises tracker contents for operators.
type Stats struct {
	Profiles    int `json:"profiles"`
	ActiveFlows int `json:"active_flows"`
}
