// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scoring

import (
	"math"
	"sort"

	"github.com/danielhkuo/compass/models"
)

// WeightMode selects which question weight scales an answer.
type WeightMode int

const (
	// SplitWeights uses weight_agree for agreement and weight_disagree for
	// disagreement. Quiz-taker answers are scored this way.
	SplitWeights WeightMode = iota
	// SingleWeight uses the question's single weight regardless of polarity.
	// Icon answers are scored this way.
	SingleWeight
)

const (
	MinAnswer = -2
	MaxAnswer = 2
	MinWeight = 1
	MaxWeight = 5

	// scaleFactor maps the per-question average contribution onto +-100.
	scaleFactor = 20
	maxScore    = 100

	PoleCentrist = "Centrist"
)

// Contribution returns the signed contribution of one answer.
// value*weight, negated when the question's direction is Right.
func Contribution(q models.Question, value int, mode WeightMode) (int, error) {
	if value < MinAnswer || value > MaxAnswer {
		return 0, models.NewValidationError("answer for question %s must be between %d and %d, got %d", q.ID, MinAnswer, MaxAnswer, value)
	}
	if err := validateWeights(q, mode); err != nil {
		return 0, err
	}
	if q.Direction != models.DirectionLeft && q.Direction != models.DirectionRight {
		return 0, models.NewValidationError("question %s has invalid direction %q", q.ID, q.Direction)
	}

	var c int
	switch {
	case value == 0:
		return 0, nil
	case mode == SingleWeight:
		c = value * q.Weight
	case value > 0:
		c = value * q.WeightAgree
	default:
		c = value * q.WeightDisagree
	}
	if q.Direction == models.DirectionRight {
		c = -c
	}
	return c, nil
}

func validateWeights(q models.Question, mode WeightMode) error {
	check := func(name string, w int) error {
		if w < MinWeight || w > MaxWeight {
			return models.NewValidationError("question %s %s must be between %d and %d, got %d", q.ID, name, MinWeight, MaxWeight, w)
		}
		return nil
	}
	if mode == SingleWeight {
		return check("weight", q.Weight)
	}
	if err := check("weight_agree", q.WeightAgree); err != nil {
		return err
	}
	return check("weight_disagree", q.WeightDisagree)
}

// NormalizeScore converts a raw axis sum into the [-100, 100] scale.
// An axis with nothing answered is neutral.
func NormalizeScore(raw, answered int) int {
	if answered <= 0 {
		return 0
	}
	n := int(math.Round(float64(raw) / float64(answered) * scaleFactor))
	return clamp(n, -maxScore, maxScore)
}

// RightPercent converts a normalized score into a 0-100 percentage.
func RightPercent(normalized int) float64 {
	return 50 + float64(clamp(normalized, -maxScore, maxScore))/2
}

// DominantPole names the pole a normalized score leans toward.
func DominantPole(a Axis, normalized int) string {
	switch {
	case normalized > 0:
		return a.Right
	case normalized < 0:
		return a.Left
	}
	return PoleCentrist
}

// ComputeAxisScores scores answers (question id -> value) against questions.
// A result is returned for every axis, in table order.
func ComputeAxisScores(questions []models.Question, answers map[string]int, mode WeightMode) ([]models.AxisResult, error) {
	byID := make(map[string]models.Question, len(questions))
	axisOf := make(map[string]Axis, len(questions))
	for _, q := range questions {
		a, err := Canonicalize(q.Axis)
		if err != nil {
			return nil, err
		}
		byID[q.ID] = q
		axisOf[q.ID] = a
	}

	// sorted so the first reported error is stable
	ids := make([]string, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	raw := make(map[string]int)
	answered := make(map[string]int)
	for _, id := range ids {
		q, ok := byID[id]
		if !ok {
			return nil, models.NewValidationError("answer references unknown question %s", id)
		}
		c, err := Contribution(q, answers[id], mode)
		if err != nil {
			return nil, err
		}
		key := axisOf[id].Key
		raw[key] += c
		answered[key]++
	}

	results := make([]models.AxisResult, 0, len(defaultTable.axes))
	for _, a := range defaultTable.axes {
		n := NormalizeScore(raw[a.Key], answered[a.Key])
		results = append(results, models.AxisResult{
			AxisKey:      a.Key,
			Axis:         a.Name,
			RawScore:     raw[a.Key],
			Answered:     answered[a.Key],
			Normalized:   n,
			RightPercent: RightPercent(n),
			DominantPole: DominantPole(a, n),
		})
	}
	return results, nil
}

// ResultsFromScores expands stored normalized scores into full results, so
// cached icon scores are presented the same way as quiz results.
func ResultsFromScores(scores models.AxisScores) []models.AxisResult {
	results := make([]models.AxisResult, 0, len(defaultTable.axes))
	for _, a := range defaultTable.axes {
		n := clamp(scores.ByKey(a.Key), -maxScore, maxScore)
		results = append(results, models.AxisResult{
			AxisKey:      a.Key,
			Axis:         a.Name,
			Normalized:   n,
			RightPercent: RightPercent(n),
			DominantPole: DominantPole(a, n),
		})
	}
	return results
}

// ScoresFromResults collects normalized results into the cached form.
func ScoresFromResults(results []models.AxisResult) models.AxisScores {
	var s models.AxisScores
	for _, r := range results {
		s.Set(r.AxisKey, r.Normalized)
	}
	return s
}

// CompassPosition places results on the 2-D compass: economic as X,
// authority as Y. Results are matched by key first, then by axis name so
// legacy names still resolve. A missing axis sits at the center.
func CompassPosition(results []models.AxisResult) models.Compass {
	percent := map[string]float64{AxisEconomic: 50, AxisAuthority: 50}
	for _, r := range results {
		key := r.AxisKey
		if _, ok := AxisByKey(key); !ok {
			a, ok := defaultTable.canonicalize(r.Axis)
			if !ok {
				continue
			}
			key = a.Key
		}
		if _, want := percent[key]; want {
			percent[key] = r.RightPercent
		}
	}
	return models.Compass{
		X: compassScale(percent[AxisEconomic]),
		Y: compassScale(percent[AxisAuthority]),
	}
}

func compassScale(p float64) float64 {
	p = math.Max(0, math.Min(100, p))
	return (p - 50) / 50
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
