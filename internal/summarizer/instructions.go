package summarizer

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"textdigest/internal/domain"
)

const (
	defaultSummaryInstruction = `Summarize the text.

Rules:
- Keep the core idea and critical context (dates, numbers, names).
- Neutral tone, no introductions like "This text is about".
- Output plain prose in the same language as the input.`

	defaultBulletPointsInstruction = `Produce a bullet list of the key points of the text.

Rules:
- One point per line, each line starts with "- ".
- Keep points short and factual.
- No heading, no closing remarks.
- Output in the same language as the input.`
)

// Instructions holds the system prompt used for each mode.
type Instructions struct {
	Summary      string `yaml:"summary"`
	BulletPoints string `yaml:"bullet_points"`
}

func DefaultInstructions() Instructions {
	return Instructions{
		Summary:      defaultSummaryInstruction,
		BulletPoints: defaultBulletPointsInstruction,
	}
}

// LoadInstructions reads YAML overrides from path on top of the defaults.
// An empty path yields the defaults.
func LoadInstructions(path string) (Instructions, error) {
	instructions := DefaultInstructions()

	path = strings.TrimSpace(path)
	if path == "" {
		return instructions, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Instructions{}, fmt.Errorf("read instructions file: %w", err)
	}

	var overrides Instructions
	if err = yaml.Unmarshal(data, &overrides); err != nil {
		return Instructions{}, fmt.Errorf("parse instructions file: %w", err)
	}

	if s := strings.TrimSpace(overrides.Summary); s != "" {
		instructions.Summary = s
	}
	if s := strings.TrimSpace(overrides.BulletPoints); s != "" {
		instructions.BulletPoints = s
	}

	return instructions, nil
}

func (i Instructions) For(mode domain.Mode) string {
	switch mode {
	case domain.ModeSummary:
		return i.Summary
	case domain.ModeBulletPoints:
		return i.BulletPoints
	default:
		return ""
	}
}
