package locales

import (
	"strings"
	"testing"
)

func TestDefaultCatalogHasRequiredKeys(t *testing.T) {
	c := Default()
	required := []string{
		"help", "setup.weight", "setup.height", "setup.age", "setup.activity", "setup.city",
		"setup.saved", "setup.city_not_found", "invalid.number", "invalid.integer", "invalid.city",
		"error.generic", "error.upstream", "profile.missing", "profile.required", "profile.view",
		"water.logged", "water.usage", "food.usage", "food.not_found", "food.unknown_product",
		"food.no_calories", "food.ask_grams", "food.logged", "food.enter_number",
		"workout.logged", "workout.usage", "progress", "cancel.button", "cancel.done",
		"cancel.nothing", "unknown_text", "rate_limited", "stats", "commands.log_water",
	}
	for _, k := range required {
		if !c.Has(k) {
			t.Fatalf("missing key %q", k)
		}
	}
}

func TestTextReplacesPlaceholders(t *testing.T) {
	c := Default()
	got := c.Text("water.logged", "amount", "250", "remaining", "2850")
	if got != "💧 Записано: 250 мл. Осталось: 2850 мл" {
		t.Fatalf("unexpected text: %q", got)
	}
	if got := c.Text("no.such.key"); got != "no.such.key" {
		t.Fatalf("unknown key should render as itself, got %q", got)
	}
}

func TestTextLeavesUnknownPlaceholders(t *testing.T) {
	c, err := Parse([]byte("greet: \"hi {name}, {other}\""))
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Text("greet", "name", "Ann"); got != "hi Ann, {other}" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestParseRejectsNonStringLeaves(t *testing.T) {
	if _, err := Parse([]byte("a:\n  b: 3\n")); err == nil || !strings.Contains(err.Error(), "a.b") {
		t.Fatalf("expected error naming a.b, got %v", err)
	}
}

func TestNumberFormatting(t *testing.T) {
	cases := map[float64]string{3100: "3100", 1973.75: "1973.75", 70.5: "70.5", 0: "0"}
	for in, want := range cases {
		if got := Num(in); got != want {
			t.Fatalf("Num(%v) = %q, want %q", in, got, want)
		}
	}
	if got := Kcal(133.5); got != "133.5" {
		t.Fatalf("Kcal(133.5) = %q", got)
	}
	if got := Kcal(123.456); got != "123.5" {
		t.Fatalf("Kcal(123.456) = %q", got)
	}
	if got := Kcal(100); got != "100" {
		t.Fatalf("Kcal(100) = %q", got)
	}
}
