package config

import (
	"fmt"
	"os"
	"strings"
)

// Environment overrides applied after the config file.
const (
	EnvSTTEngine     = "HARK_STT_ENGINE"
	EnvLLMModel      = "HARK_LLM_MODEL"
	EnvNERURL        = "HARK_NER_URL"
	EnvMetricsListen = "HARK_METRICS_LISTEN"
	EnvNATSURL       = "HARK_NATS_URL"
)

// applyEnv overlays HARK_* variables onto cfg. lookup is os.LookupEnv in production.
func applyEnv(cfg Config, lookup func(string) (string, bool)) (Config, []Warning) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	targets := []struct {
		key string
		dst *string
	}{
		{key: EnvSTTEngine, dst: &cfg.STT.Engine},
		{key: EnvLLMModel, dst: &cfg.LLM.Model},
		{key: EnvNERURL, dst: &cfg.NER.URL},
		{key: EnvMetricsListen, dst: &cfg.Metrics.Listen},
		{key: EnvNATSURL, dst: &cfg.Translog.NATSURL},
	}

	var warnings []Warning
	for _, target := range targets {
		value, ok := lookup(target.key)
		if !ok {
			continue
		}
		*target.dst = strings.TrimSpace(value)
		warnings = append(warnings, Warning{Message: fmt.Sprintf("%s overrides config file", target.key)})
	}
	return cfg, warnings
}

// APIKey reads the secret named by envName. Missing keys yield "".
func APIKey(envName string) string {
	if strings.TrimSpace(envName) == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(envName))
}
