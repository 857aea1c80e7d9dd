package scoring

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/SFZPL/tms-sub000/internal/domain/model"
)

const (
	minScore = 0
	maxScore = 100
)

// Keys that may wrap a list of records.
var listKeys = []string{"designers", "rankings", "results"}

// Entry is one normalized score.
type Entry struct {
	Score     float64
	Rationale string
}

type rawEntry struct {
	key       string
	score     float64
	rationale string
}

// Normalize converts oracle output into a mapping from roster key to Entry.
// The accepted shapes are a list of records, an object wrapping such a list
// under "designers", "rankings" or "results", an object keyed by designer
// whose values are records, and a flat mapping of designer to number. The
// JSON may sit inside a Markdown code fence. Anything else yields
// ErrUnrecognizedResponse.
//
// Response keys are matched against roster IDs first, then against
// normalized names. Entries naming no roster member are dropped, a repeated
// designer keeps its first entry, and scores are clamped to [0, 100].
func Normalize(text string, roster []model.DesignerProfile) (map[string]Entry, error) {
	body := stripFence(text)
	if body == "" {
		return nil, ErrEmptyResponse
	}

	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnrecognizedResponse, err)
	}

	raw, err := extract(doc)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]string, len(roster))
	byName := make(map[string]string, len(roster))
	for _, d := range roster {
		if d.ID != "" {
			byID[strings.TrimSpace(d.ID)] = d.Key()
		}
		if n := model.NormalizeName(d.Name); n != "" {
			if _, dup := byName[n]; !dup {
				byName[n] = d.Key()
			}
		}
	}

	out := make(map[string]Entry, len(raw))
	for _, r := range raw {
		key, ok := byID[strings.TrimSpace(r.key)]
		if !ok {
			key, ok = byName[model.NormalizeName(r.key)]
		}
		if !ok {
			continue
		}
		if _, seen := out[key]; seen {
			continue
		}
		out[key] = Entry{Score: Clamp(r.score), Rationale: strings.TrimSpace(r.rationale)}
	}
	return out, nil
}

// Clamp limits a score to [0, 100].
func Clamp(score float64) float64 {
	return math.Max(minScore, math.Min(maxScore, score))
}

func stripFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func extract(doc any) ([]rawEntry, error) {
	switch v := doc.(type) {
	case []any:
		return fromList(v)
	case map[string]any:
		for _, k := range listKeys {
			if inner, ok := v[k]; ok {
				list, isList := inner.([]any)
				if !isList {
					return nil, fmt.Errorf("%w: %q is not a list", ErrUnrecognizedResponse, k)
				}
				return fromList(list)
			}
		}
		return fromObject(v)
	default:
		return nil, fmt.Errorf("%w: top level is %T", ErrUnrecognizedResponse, doc)
	}
}

func fromList(list []any) ([]rawEntry, error) {
	out := make([]rawEntry, 0, len(list))
	for _, item := range list {
		rec, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: list item is %T", ErrUnrecognizedResponse, item)
		}
		key := firstString(rec, "id", "name", "designer")
		if key == "" {
			continue
		}
		score, ok := number(rec["score"])
		if !ok || math.IsNaN(score) {
			continue
		}
		out = append(out, rawEntry{key: key, score: score, rationale: firstString(rec, "reason", "rationale")})
	}
	if len(out) == 0 && len(list) > 0 {
		return nil, fmt.Errorf("%w: no usable records", ErrUnrecognizedResponse)
	}
	return out, nil
}

// fromObject handles the keyed-record and flat-mapping shapes. All values
// must share one shape. Keys are visited in sorted order.
func fromObject(obj map[string]any) ([]rawEntry, error) {
	if len(obj) == 0 {
		return nil, fmt.Errorf("%w: empty object", ErrUnrecognizedResponse)
	}
	var records, numbers int
	out := make([]rawEntry, 0, len(obj))
	for _, key := range slices.Sorted(maps.Keys(obj)) {
		val := obj[key]
		if rec, ok := val.(map[string]any); ok {
			records++
			score, ok := number(rec["score"])
			if !ok || math.IsNaN(score) {
				continue
			}
			out = append(out, rawEntry{key: key, score: score, rationale: firstString(rec, "reason", "rationale")})
			continue
		}
		if score, ok := number(val); ok {
			numbers++
			if !math.IsNaN(score) {
				out = append(out, rawEntry{key: key, score: score})
			}
			continue
		}
		return nil, fmt.Errorf("%w: value for %q is %T", ErrUnrecognizedResponse, key, val)
	}
	if records > 0 && numbers > 0 {
		return nil, fmt.Errorf("%w: mixed keyed shapes", ErrUnrecognizedResponse)
	}
	return out, nil
}

func firstString(rec map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := rec[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// number accepts JSON numbers and numeric strings such as "85" or "85%".
// Callers treat NaN as absent.
func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(n), "%"))
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	return f, true
}
