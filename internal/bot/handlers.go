package bot

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/healthbot/core/logger"
	"github.com/m3rciful/healthbot/core/telegram/helpers"
	"github.com/m3rciful/healthbot/internal/locales"
	"github.com/m3rciful/healthbot/internal/tracker"

	tele "gopkg.in/telebot.v4"
)

func (b *Bot) handleHelp(c tele.Context) error {
	return helpers.SendText(c, b.texts.Text("help"))
}

func (b *Bot) handleSetProfile(c tele.Context) error {
	if c.Sender() == nil {
		return nil
	}
	b.tr.StartSetup(helpers.BuildContext(c), c.Sender().ID)
	return b.sendPrompt(c, tracker.PromptWeight)
}

func (b *Bot) handleCancel(c tele.Context) error {
	if c.Sender() == nil {
		return nil
	}
	if b.tr.Cancel(helpers.BuildContext(c), c.Sender().ID) {
		return helpers.SendText(c, b.texts.Text("cancel.done"))
	}
	return helpers.SendText(c, b.texts.Text("cancel.nothing"))
}

func (b *Bot) handleCancelCallback(c tele.Context) error {
	if c.Sender() == nil {
		return nil
	}
	key := "cancel.nothing"
	if b.tr.Cancel(helpers.BuildContext(c), c.Sender().ID) {
		key = "cancel.done"
	}
	return helpers.EditOrSend(c, b.texts.Text(key))
}

func (b *Bot) handleMyProfile(c tele.Context) error {
	if c.Sender() == nil {
		return nil
	}
	ctx := helpers.BuildContext(c)
	p, err := b.tr.Profile(ctx, c.Sender().ID)
	if err != nil {
		return b.replyError(c, "my_profile", err)
	}
	return helpers.SendText(c, b.texts.Text("profile.view",
		"weight", locales.Num(p.WeightKg),
		"height", locales.Num(p.HeightCm),
		"age", strconv.Itoa(p.AgeYears),
		"activity", strconv.Itoa(p.ActivityMinutes),
		"city", p.City,
		"water_goal", locales.Num(p.WaterGoalML),
		"calorie_goal", locales.Num(p.CalorieGoalKcal),
	))
}

func (b *Bot) handleLogWater(c tele.Context) error {
	if c.Sender() == nil {
		return nil
	}
	res, err := b.tr.LogWater(helpers.BuildContext(c), c.Sender().ID, commandArgs(c.Text()))
	if err != nil {
		return b.replyError(c, "log_water", err)
	}
	return helpers.SendText(c, b.texts.Text("water.logged",
		"amount", locales.Num(res.AmountML),
		"remaining", locales.Num(res.RemainingML),
	))
}

func (b *Bot) handleLogFood(c tele.Context) error {
	if c.Sender() == nil {
		return nil
	}
	match, err := b.tr.LogFood(helpers.BuildContext(c), c.Sender().ID, commandArgs(c.Text()))
	if err != nil {
		return b.replyError(c, "log_food", err)
	}
	return helpers.SendWithMarkup(c, b.texts.Text("food.ask_grams",
		"product", b.productName(match.Product),
		"kcal", locales.Num(match.KcalPer100g),
	), b.cancelMarkup())
}

func (b *Bot) handleLogWorkout(c tele.Context) error {
	if c.Sender() == nil {
		return nil
	}
	w, err := b.tr.LogWorkout(helpers.BuildContext(c), c.Sender().ID, commandArgs(c.Text()))
	if err != nil {
		return b.replyError(c, "log_workout", err)
	}
	return helpers.SendText(c, b.texts.Text("workout.logged",
		"type", w.Type,
		"minutes", strconv.Itoa(w.Minutes),
		"burned", locales.Num(w.BurnedKcal),
		"water", locales.Num(w.ExtraWaterML),
	))
}

func (b *Bot) handleCheckProgress(c tele.Context) error {
	if c.Sender() == nil {
		return nil
	}
	p, err := b.tr.Progress(helpers.BuildContext(c), c.Sender().ID)
	if err != nil {
		return b.replyError(c, "check_progress", err)
	}
	return helpers.SendText(c, b.texts.Text("progress",
		"water", locales.Num(p.LoggedWaterML),
		"water_goal", locales.Num(p.WaterGoalML),
		"water_remaining", locales.Num(p.WaterRemainingML),
		"eaten", locales.Num(p.LoggedCaloriesKcal),
		"burned", locales.Num(p.BurnedCaloriesKcal),
		"balance", locales.Num(p.CalorieBalanceKcal),
		"calorie_goal", locales.Num(p.CalorieGoalKcal),
		"calorie_remaining", locales.Num(p.CalorieRemainingKcal),
	))
}

func (b *Bot) handleStats(c tele.Context) error {
	st, err := b.tr.Stats(helpers.BuildContext(c))
	if err != nil {
		return b.replyError(c, "stats", err)
	}
	return helpers.SendText(c, b.texts.Text("stats",
		"profiles", strconv.Itoa(st.Profiles),
		"active_flows", strconv.Itoa(st.ActiveFlows),
	))
}

func (b *Bot) handleUnknown(c tele.Context) error {
	return helpers.SendText(c, b.texts.Text("unknown_text"))
}

func (b *Bot) handleRateLimited(c tele.Context) error {
	return helpers.SendText(c, b.texts.Text("rate_limited"))
}

// InProgress reports whether text from userID belongs to an active flow.
func (b *Bot) InProgress(userID int64) bool {
	return b.tr.InFlow(userID)
}

// HandleText feeds a plain message into the sender's active flow.
func (b *Bot) HandleText(c tele.Context) error {
	if c.Sender() == nil {
		return nil
	}
	ctx := helpers.BuildContext(c)
	step, err := b.tr.Continue(ctx, c.Sender().ID, c.Text())
	if err != nil {
		return b.replyError(c, "flow", err)
	}
	switch {
	case step.Profile != nil:
		logger.Info(ctx, logger.CompBot, "setup.complete",
			slog.Float64("water_goal_ml", step.Profile.WaterGoalML),
			slog.Float64("calorie_goal_kcal", step.Profile.CalorieGoalKcal),
		)
		return helpers.SendText(c, b.texts.Text("setup.saved"))
	case step.Food != nil:
		return helpers.SendText(c, b.texts.Text("food.logged", "kcal", locales.Kcal(step.Food.Kcal)))
	}
	return b.sendPrompt(c, step.Prompt)
}

func (b *Bot) sendPrompt(c tele.Context, p tracker.Prompt) error {
	if p == tracker.PromptNone {
		return nil
	}
	return helpers.SendWithMarkup(c, b.texts.Text("setup."+p.String()), b.cancelMarkup())
}

func (b *Bot) productName(name string) string {
	if strings.TrimSpace(name) == "" {
		return b.texts.Text("food.unknown_product")
	}
	return name
}

// commandArgs returns everything after the command token.
func commandArgs(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexFunc(text, isSpace); i >= 0 {
		return strings.TrimSpace(text[i:])
	}
	return ""
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t'
}
