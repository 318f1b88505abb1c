package config

import (
	"errors"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParserConfig captures prompt + tuning parameters for the AI parser
// backend. Fields can be overridden via a YAML file (JSON is accepted
// too, being a subset of YAML 1.2); missing fields keep the baked-in
// defaults. The rule-based fallback is NOT configured here: it must
// stay deterministic and reproducible across deployments.
type ParserConfig struct {
	Model       string  `json:"model" yaml:"model"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
	Prompt      string  `json:"prompt" yaml:"prompt"`
}

const (
	defaultParserModel = "gpt-4o-mini"
	defaultParserTemp  = 0.1
)

const defaultParserPrompt = `You are a road-incident analyst for a citizen reporting service.
Classify the report below. Reports may be in English or French.
Output exactly one JSON object with fields:
{
  "type": one of [accident, police_control, flooding, traffic_jam, road_damage, road_works, hazard, protest, roadblock, sos, other],
  "severity": integer 1-5,
  "description": short factual summary, never invented details,
  "location_hint": place name mentioned in the report, or "",
  "is_emergency": boolean, true only for life-threatening situations
}`

// DefaultParserConfig returns the baked-in prompt + tuning defaults.
func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		Model:       defaultParserModel,
		Temperature: defaultParserTemp,
		Prompt:      defaultParserPrompt,
	}
}

// LoadParserConfig reads the overlay at path on top of the defaults.
// An empty path returns the defaults unchanged.
func LoadParserConfig(path string) (ParserConfig, error) {
	cfg := DefaultParserConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.validate(); err != nil {
		return DefaultParserConfig(), err
	}
	return cfg, nil
}

func (c ParserConfig) validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("parser config: model is empty")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("parser config: temperature out of range")
	}
	if strings.TrimSpace(c.Prompt) == "" {
		return errors.New("parser config: prompt is empty")
	}
	return nil
}
