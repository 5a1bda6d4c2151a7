package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Chainalytics Configuration

[engine]
# Annualized risk-free rate (fraction, 0.05 = 5%)
risk_free_rate = 0.05
# Default implied volatility when the feed supplies none
default_iv = 0.20
# Assumed annualized volatility for probability-of-profit estimates
assumed_volatility = 0.20
# Payoff curve range as a fraction of spot (0.40 = spot +/- 40%)
payoff_width = 0.40
# Number of samples on the payoff curve
payoff_samples = 50

[cache]
# How long an enriched chain stays valid ("5m", "30s")
ttl = "5m"

[feed]
# Directory of JSON snapshot files for the file-based provider
data_dir = ""

[ui]
# Enable colored output
color_enabled = true
# Date format
date_format = "02-Jan-2006"
`

// createTemplateConfig writes a template config file so the user has
// something to edit on first run.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
