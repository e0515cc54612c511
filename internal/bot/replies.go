package bot

import (
	"errors"
	"log/slog"

	"github.com/m3rciful/healthbot/core/logger"
	"github.com/m3rciful/healthbot/core/telegram/helpers"
	"github.com/m3rciful/healthbot/core/telegram/keyboard"
	"github.com/m3rciful/healthbot/internal/lookup"
	"github.com/m3rciful/healthbot/internal/tracker"

	tele "gopkg.in/telebot.v4"
)

func (b *Bot) cancelMarkup() *tele.ReplyMarkup {
	return keyboard.SingleCancelMarkup(cbSetupCancel, "cancel", b.texts.Text("cancel.button"))
}

// replyError turns a tracker failure into a user reply. Only send errors are returned.
func (b *Bot) replyError(c tele.Context, op string, err error) error {
	ctx := helpers.BuildContext(c)
	kind := tracker.KindOf(err)
	field := tracker.FieldOf(err)

	attrs := []slog.Attr{
		slog.String("op", op),
		slog.String("err_kind", string(kind)),
		slog.String("field", field),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	}
	switch {
	case kind == tracker.KindUpstream || kind == "":
		var up *lookup.UpstreamError
		if errors.As(err, &up) {
			attrs = append(attrs,
				slog.String("service", up.Service),
				slog.Int("http_status", up.Status),
			)
		}
		if !errors.Is(err, tracker.ErrNoActiveFlow) {
			logger.Error(ctx, logger.CompBot, "request.failed", attrs...)
		}
	default:
		logger.Debug(ctx, logger.CompBot, "request.rejected", attrs...)
	}

	text := b.texts.Text(errorKey(err))
	if u := c.Sender(); u != nil && b.tr.InFlow(u.ID) {
		return helpers.SendWithMarkup(c, text, b.cancelMarkup())
	}
	return helpers.SendText(c, text)
}

// errorKey picks the locale key for err by kind and field.
func errorKey(err error) string {
	if errors.Is(err, tracker.ErrNoActiveFlow) {
		return "unknown_text"
	}
	field := tracker.FieldOf(err)
	switch tracker.KindOf(err) {
	case tracker.KindValidation:
		switch field {
		case "age", "activity":
			return "invalid.integer"
		case "city":
			return "invalid.city"
		case "grams":
			return "food.enter_number"
		}
		return "invalid.number"
	case tracker.KindUsage:
		switch field {
		case "log_water":
			return "water.usage"
		case "log_food":
			return "food.usage"
		case "log_workout":
			return "workout.usage"
		}
	case tracker.KindNotFound:
		if field == "city" {
			return "setup.city_not_found"
		}
		return "food.not_found"
	case tracker.KindNoCalorieData:
		return "food.no_calories"
	case tracker.KindPrecondition:
		if field == "my_profile" {
			return "profile.missing"
		}
		return "profile.required"
	case tracker.KindUpstream:
		if field == "food" {
			return "error.upstream"
		}
	}
	return "error.generic"
}
