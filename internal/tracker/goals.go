package tracker

import "math"

// WaterGoal returns the daily water target in ml.
// Every full 30 minutes of activity adds 500 ml; hot weather (above 25 °C) adds another 500 ml.
func WaterGoal(weightKg float64, activityMinutes int, tempC float64) float64 {
	goal := weightKg*30 + float64(activityMinutes/30)*500
	if tempC > 25 {
		goal += 500
	}
	return goal
}

// CalorieGoal returns the daily calorie target: Mifflin-St Jeor plus 300 kcal per full 30 minutes of activity.
func CalorieGoal(weightKg, heightCm float64, ageYears, activityMinutes int) float64 {
	return 10*weightKg + 6.25*heightCm - 5*float64(ageYears) + 5 + float64(activityMinutes/30)*300
}

// WorkoutBurn returns calories burned and extra water needed for a workout.
func WorkoutBurn(minutes int) (burnedKcal, extraWaterML float64) {
	return float64(minutes) * 10, float64(minutes/30) * 200
}

// FoodKcal converts grams of a product into calories.
func FoodKcal(grams, kcalPer100g float64) float64 {
	return grams / 100 * kcalPer100g
}

// RoundKcal rounds to one decimal for display.
func RoundKcal(v float64) float64 {
	return math.Round(v*10) / 10
}

func remaining(goal, done float64) float64 {
	return math.Max(goal-done, 0)
}
