package logger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

type handlerConfig struct {
	level    slog.Leveler
	writer   *asyncWriter
	format   logFormat
	keyOrder []string
}

// structuredHandler renders one line per record with a stable key order.
type structuredHandler struct {
	cfg    handlerConfig
	rank   map[string]int
	attrs  []slog.Attr
	groups []string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if cfg.keyOrder == nil {
		cfg.keyOrder = append([]string(nil), defaultKeyOrder...)
	}
	rank := make(map[string]int, len(cfg.keyOrder))
	for i, k := range cfg.keyOrder {
		if _, dup := rank[k]; !dup {
			rank[k] = i
		}
	}
	return &structuredHandler{cfg: cfg, rank: rank}
}

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return errors.New("logger: writer not initialized")
	}
	isJSON := h.cfg.format == formatJSON

	rec := newRecord(16 + r.NumAttrs())
	ts := r.Time.UTC()
	rec.set("ts", ts.Truncate(time.Millisecond).Format(timeFormatMillis))
	rec.set("level", normalizeLevel(r.Level.String()))
	if isJSON {
		rec.set("ts_unix_nano", ts.UnixNano())
	}

	prefix := strings.Join(h.groups, ".")
	for _, a := range h.attrs {
		rec.addAttr(prefix, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		rec.addAttr(prefix, a)
		return true
	})
	rec.addContext(ctx)

	if rid, ok := rec.str("rid"); ok {
		if compact := CompactRID(rid); compact != "" && compact != rid {
			if isJSON {
				rec.setDefault("rid_full", rid)
			}
			rec.set("rid", compact)
		}
	}
	if ev, _ := rec.str("event"); ev == "" {
		ev = r.Message
		if ev == "" {
			ev = "unknown"
		}
		rec.set("event", ev)
	}
	if comp, _ := rec.str("component"); comp == "" {
		rec.set("component", CompApp)
	}
	rec.normalizeEnums()

	line, err := h.encode(rec)
	if err != nil {
		return err
	}
	return h.cfg.writer.Write(append(line, '\n'))
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

// sortedKeys puts configured keys first, the rest alphabetically.
func (h *structuredHandler) sortedKeys(rec *record) []string {
	keys := make([]string, 0, len(rec.vals))
	for k := range rec.vals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, iok := h.rank[keys[i]]
		rj, jok := h.rank[keys[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		}
		return keys[i] < keys[j]
	})
	return keys
}

func (h *structuredHandler) encode(rec *record) ([]byte, error) {
	keys := h.sortedKeys(rec)
	var b strings.Builder
	if h.cfg.format != formatJSON {
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(kvValue(rec.vals[k]))
		}
		return []byte(b.String()), nil
	}

	b.WriteByte('{')
	for i, k := range keys {
		data, err := json.Marshal(rec.vals[k])
		if err != nil {
			return nil, fmt.Errorf("logger: encode %s: %w", k, err)
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		b.Write(data)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// record collects the fields of one log line. Empty strings and nils are never stored.
type record struct {
	vals map[string]any
}

func newRecord(capacity int) *record {
	return &record{vals: make(map[string]any, capacity)}
}

func (r *record) set(key string, val any) {
	if key == "" || isEmpty(val) {
		return
	}
	r.vals[key] = val
}

func (r *record) setDefault(key string, val any) {
	if _, ok := r.vals[key]; !ok {
		r.set(key, val)
	}
}

func (r *record) str(key string) (string, bool) {
	s, ok := r.vals[key].(string)
	return s, ok
}

func (r *record) addAttr(prefix string, a slog.Attr) {
	key := a.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	} else if key == "" {
		key = prefix
	}
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			r.addAttr(key, child)
		}
		return
	}
	if key == "" {
		return
	}
	k, val := attrValue(key, v)
	r.set(k, val)
}

func (r *record) addContext(ctx context.Context) {
	if ctx == nil {
		return
	}
	r.setDefault("rid", RIDFrom(ctx))
	r.setDefault("trace_id", TraceIDFrom(ctx))
	r.setDefault("handler", HandlerFrom(ctx))
	if id := UserIDFrom(ctx); id != 0 {
		r.setDefault("user_id", id)
	}
	if id := UpdateIDFrom(ctx); id != 0 {
		r.setDefault("update_id", id)
	}
	if id := ChatIDFrom(ctx); id != 0 {
		r.setDefault("chat_id", id)
	}
}

// normalizeEnums keeps unknown statuses verbatim but drops unknown outcomes.
func (r *record) normalizeEnums() {
	if s, ok := r.str("status"); ok {
		norm, _ := normalizeStatus(s)
		r.set("status", norm)
	}
	if o, ok := r.str("outcome"); ok {
		if norm, valid := normalizeOutcome(o); valid {
			r.set("outcome", norm)
		} else {
			delete(r.vals, "outcome")
		}
	}
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	}
	return false
}

// attrValue converts a resolved slog value into a JSON-friendly scalar.
// Durations are emitted in milliseconds under a key ending in _ms.
func attrValue(key string, v slog.Value) (string, any) {
	switch v.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(v.String())
	case slog.KindBool:
		return key, v.Bool()
	case slog.KindInt64:
		return key, v.Int64()
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return key, int64(u)
		}
		return key, v.Uint64()
	case slog.KindFloat64:
		return key, v.Float64()
	case slog.KindDuration:
		return durationKey(key), RoundMS(v.Duration()).Milliseconds()
	case slog.KindTime:
		return key, v.Time().UTC().Format(time.RFC3339Nano)
	}
	switch x := v.Any().(type) {
	case nil:
		return key, nil
	case error:
		return key, x.Error()
	case time.Duration:
		return durationKey(key), RoundMS(x).Milliseconds()
	case fmt.Stringer:
		return key, x.String()
	default:
		return key, fmt.Sprint(x)
	}
}

func durationKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	}
	return key + "_ms"
}

func kvValue(val any) string {
	var s string
	switch v := val.(type) {
	case string:
		s = v
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		s = fmt.Sprint(v)
	}
	if strings.IndexFunc(s, needsQuote) >= 0 {
		return strconv.Quote(s)
	}
	return s
}

func needsQuote(r rune) bool {
	return r <= ' ' || r == '=' || r == '"'
}
