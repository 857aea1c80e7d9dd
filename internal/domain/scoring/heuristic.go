package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/SFZPL/tms-sub000/internal/domain/model"
)

// Profile attributes the heuristic oracle weighs.
const (
	AttrRole      = "role"
	AttrTools     = "tools"
	AttrOutputs   = "outputs"
	AttrLanguages = "languages"
)

// Default heuristic configuration constants.
const (
	defaultAttributeWeight = 25
	defaultRandomSeed      = 42
)

var defaultAttributeWeights = map[string]float64{
	AttrRole:      20,
	AttrTools:     30,
	AttrOutputs:   30,
	AttrLanguages: 20,
}

// HeuristicOption applies a configuration option to the HeuristicOracle.
type HeuristicOption func(*HeuristicOracle)

// WithLatencyRange sets a simulated latency range, useful for exercising
// timeouts without a remote model.
func WithLatencyRange(minLatency, maxLatency time.Duration) HeuristicOption {
	return func(h *HeuristicOracle) {
		if minLatency >= 0 && maxLatency >= minLatency {
			h.minLatency = minLatency
			h.maxLatency = maxLatency
		}
	}
}

// WithAttributeWeightsFromConfig sets attribute weights from a configuration map.
func WithAttributeWeightsFromConfig(weights map[string]float64, defaultWeight float64) HeuristicOption {
	return func(h *HeuristicOracle) {
		// Copy the weights map to avoid external modifications
		h.weights = make(map[string]float64, len(weights))
		for attr, w := range weights {
			if w > 0 {
				h.weights[attr] = w
			}
		}
		if defaultWeight > 0 {
			h.defaultWeight = defaultWeight
		}
	}
}

// HeuristicOracle scores designers locally by looking for their role, tools,
// outputs and languages in the task description. It answers in the same
// JSON shape a remote model is asked for.
type HeuristicOracle struct {
	weights       map[string]float64
	defaultWeight float64
	minLatency    time.Duration
	maxLatency    time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewHeuristicOracle creates a new heuristic oracle with configuration options.
func NewHeuristicOracle(opts ...HeuristicOption) *HeuristicOracle {
	h := &HeuristicOracle{
		weights:       defaultAttributeWeights,
		defaultWeight: defaultAttributeWeight,
		rng:           rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // deterministic seed for reproducible latency
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type heuristicRecord struct {
	ID     string  `json:"id,omitempty"`
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// Rank implements Oracle.
func (h *HeuristicOracle) Rank(ctx context.Context, prompt Prompt) (string, error) {
	if err := h.wait(ctx); err != nil {
		return "", err
	}

	desc := " " + model.NormalizeName(prompt.Description) + " "
	records := make([]heuristicRecord, 0, len(prompt.Roster))
	for _, d := range prompt.Roster {
		score, matched := h.score(desc, d)
		reason := "no listed skills mentioned in the task"
		if len(matched) > 0 {
			reason = "mentions " + strings.Join(matched, ", ")
		}
		records = append(records, heuristicRecord{ID: d.ID, Name: d.Name, Score: score, Reason: reason})
	}

	data, err := json.Marshal(map[string]any{"designers": records})
	if err != nil {
		return "", fmt.Errorf("encode heuristic ranking: %w", err)
	}
	return string(data), nil
}

func (h *HeuristicOracle) score(desc string, d model.DesignerProfile) (float64, []string) {
	attrs := map[string][]string{
		AttrRole:      {d.Role},
		AttrTools:     d.Tools,
		AttrOutputs:   d.Outputs,
		AttrLanguages: d.Languages,
	}

	var score float64
	var matched []string
	for _, attr := range []string{AttrRole, AttrTools, AttrOutputs, AttrLanguages} {
		hit := false
		for _, term := range attrs[attr] {
			t := model.NormalizeName(term)
			if t == "" || !strings.Contains(desc, " "+t+" ") {
				continue
			}
			matched = append(matched, term)
			hit = true
		}
		if hit {
			score += h.weight(attr)
		}
	}
	return Clamp(score), matched
}

func (h *HeuristicOracle) weight(attr string) float64 {
	if w, ok := h.weights[attr]; ok {
		return w
	}
	return h.defaultWeight
}

func (h *HeuristicOracle) wait(ctx context.Context) error {
	if h.maxLatency <= 0 {
		return ctx.Err()
	}
	latency := h.minLatency
	if spread := h.maxLatency - h.minLatency; spread > 0 {
		h.mu.Lock()
		latency += time.Duration(h.rng.Int63n(int64(spread)))
		h.mu.Unlock()
	}
	t := time.NewTimer(latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled: %w", ctx.Err())
	case <-t.C:
		return nil
	}
}
