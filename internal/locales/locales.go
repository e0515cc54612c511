// Package locales holds the bot's user-facing texts.
package locales

import (
	_ "embed"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed ru.yaml
var ruYAML []byte

// Catalog maps dotted keys such as "setup.weight" to texts.
type Catalog struct {
	texts map[string]string
}

// Default parses the embedded Russian catalogue. It panics on a malformed file.
func Default() *Catalog {
	c, err := Parse(ruYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// Parse builds a Catalog from nested YAML maps; nested keys are joined with dots.
func Parse(data []byte) (*Catalog, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("locales: parse: %w", err)
	}
	c := &Catalog{texts: make(map[string]string)}
	if err := flatten("", root, c.texts); err != nil {
		return nil, err
	}
	return c, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) error {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case string:
			out[key] = val
		case map[string]any:
			if err := flatten(key, val, out); err != nil {
				return err
			}
		default:
			return fmt.Errorf("locales: key %q has unsupported type %T", key, v)
		}
	}
	return nil
}

// Has reports whether key is defined.
func (c *Catalog) Has(key string) bool {
	_, ok := c.texts[key]
	return ok
}

// Keys returns all defined keys in sorted order.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.texts))
	for k := range c.texts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Text renders key, replacing {name} placeholders from pairs of name, value.
// An unknown key renders as the key itself.
func (c *Catalog) Text(key string, pairs ...string) string {
	s, ok := c.texts[key]
	if !ok {
		return key
	}
	if len(pairs) < 2 {
		return s
	}
	args := make([]string, 0, len(pairs))
	for i := 0; i+1 < len(pairs); i += 2 {
		args = append(args, "{"+pairs[i]+"}", pairs[i+1])
	}
	return strings.NewReplacer(args...).Replace(s)
}

// Num formats a stored value with the shortest representation that round-trips.
func Num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Kcal formats a calorie amount rounded to one decimal.
func Kcal(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}
