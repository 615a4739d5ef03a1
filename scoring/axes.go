// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scoring

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/danielhkuo/compass/models"
)

// Axis keys
const (
	AxisEconomic  = "economic"
	AxisAuthority = "authority"
	AxisSocial    = "social"
	AxisForeign   = "foreign"
	AxisReligion  = "religion"
)

//go:embed axes.yaml
var axesYAML []byte

// Axis is one of the five fixed ideological dimensions.
type Axis struct {
	Key      string   `yaml:"key" validate:"required,oneof=economic authority social foreign religion"`
	Name     string   `yaml:"name" validate:"required"`
	Left     string   `yaml:"left" validate:"required"`
	Right    string   `yaml:"right" validate:"required"`
	Legacy   []string `yaml:"legacy" validate:"dive,required"`
	Synonyms []string `yaml:"synonyms" validate:"dive,required"`
}

type axisFile struct {
	Axes []Axis `yaml:"axes" validate:"len=5,unique=Key,dive"`
}

type axisTable struct {
	axes []Axis
	// folded canonical and legacy names -> index into axes
	names map[string]int
	// folded synonyms, in table order
	synonyms []synonym
}

type synonym struct {
	fragment string
	index    int
}

var defaultTable = mustLoadAxisTable(axesYAML)

func mustLoadAxisTable(data []byte) *axisTable {
	t, err := loadAxisTable(data)
	if err != nil {
		panic(fmt.Sprintf("scoring: invalid axis table: %v", err))
	}
	return t
}

func loadAxisTable(data []byte) (*axisTable, error) {
	var f axisFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse axis table: %w", err)
	}
	if err := validator.New().Struct(f); err != nil {
		return nil, fmt.Errorf("failed to validate axis table: %w", err)
	}

	t := &axisTable{axes: f.Axes, names: make(map[string]int)}
	for i, a := range f.Axes {
		for _, n := range append([]string{a.Name}, a.Legacy...) {
			key := fold(n)
			if prev, ok := t.names[key]; ok && prev != i {
				return nil, fmt.Errorf("axis name %q is ambiguous", n)
			}
			t.names[key] = i
		}
		for _, s := range a.Synonyms {
			t.synonyms = append(t.synonyms, synonym{fragment: fold(s), index: i})
		}
	}
	return t, nil
}

func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func (t *axisTable) canonicalize(name string) (Axis, bool) {
	folded := fold(name)
	if folded == "" {
		return Axis{}, false
	}
	if i, ok := t.names[folded]; ok {
		return t.axes[i], true
	}
	for _, s := range t.synonyms {
		if strings.Contains(folded, s.fragment) {
			return t.axes[s.index], true
		}
	}
	return Axis{}, false
}

// Axes returns the five canonical axes in reporting order.
func Axes() []Axis {
	out := make([]Axis, len(defaultTable.axes))
	copy(out, defaultTable.axes)
	return out
}

// AxisByKey looks up a canonical axis by its key.
func AxisByKey(key string) (Axis, bool) {
	for _, a := range defaultTable.axes {
		if a.Key == key {
			return a, true
		}
	}
	return Axis{}, false
}

// Canonicalize maps a current, legacy or alternate axis name onto its
// canonical axis. Exact (case-insensitive) names win over synonym fragments.
func Canonicalize(name string) (Axis, error) {
	a, ok := defaultTable.canonicalize(name)
	if !ok {
		return Axis{}, models.NewValidationError("unknown axis %q", name)
	}
	return a, nil
}

// CanonicalName returns the canonical name for name, or a validation error.
func CanonicalName(name string) (string, error) {
	a, err := Canonicalize(name)
	if err != nil {
		return "", err
	}
	return a.Name, nil
}

// LegacyNames returns the legacy name -> canonical name mapping.
func LegacyNames() map[string]string {
	m := make(map[string]string)
	for _, a := range defaultTable.axes {
		for _, l := range a.Legacy {
			m[l] = a.Name
		}
	}
	return m
}
