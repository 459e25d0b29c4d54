package formcheck

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed guidelines.yaml
var guidelinesYAML []byte

type Guidelines struct {
	Exercise       ExerciseType `json:"exercise" yaml:"-"`
	KeyPoints      []string     `json:"keyPoints" yaml:"key_points"`
	CommonMistakes []string     `json:"commonMistakes" yaml:"common_mistakes"`
}

var (
	guidelinesOnce sync.Once
	guidelines     map[ExerciseType]Guidelines
	guidelinesErr  error
)

func loadGuidelines() (map[ExerciseType]Guidelines, error) {
	guidelinesOnce.Do(func() {
		parsed := make(map[ExerciseType]Guidelines)
		if err := yaml.Unmarshal(guidelinesYAML, &parsed); err != nil {
			guidelinesErr = fmt.Errorf("parse guidelines: %w", err)
			return
		}
		for et, g := range parsed {
			if !et.IsValid() {
				guidelinesErr = fmt.Errorf("guidelines for unknown exercise %q", et)
				return
			}
			g.Exercise = et
			parsed[et] = g
		}
		guidelines = parsed
	})
	return guidelines, guidelinesErr
}

// GetGuidelines returns the static reference text for an exercise.
func GetGuidelines(et ExerciseType) (Guidelines, error) {
	if !et.IsValid() {
		return Guidelines{}, fmt.Errorf("unknown exercise type: %q", et)
	}
	all, err := loadGuidelines()
	if err != nil {
		return Guidelines{}, err
	}
	g, ok := all[et]
	if !ok {
		return Guidelines{
			Exercise:       et,
			KeyPoints:      []string{},
			CommonMistakes: []string{},
		}, nil
	}
	return g, nil
}
