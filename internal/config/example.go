package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ExampleYAML is the starter configuration written by `necromancer init`.
const ExampleYAML = `# necromancer configuration
user:
  name: "Your Name"
  email: "you@example.com"
  title: "Full-Stack Unicorn"
  bio: "I build, write and design things."

ai:
  # Leave empty (or set GEMINI_API_KEY) to control AI usage; without a key
  # every project is rule-classified and template-summarized.
  api_key: ""
  model: "gemini-1.5-flash"
  timeout: 10s
  probe_timeout: 5s

classification:
  ai_enabled: true
  confidence_threshold: 0.7
  rule_floor: 0.3
  rule_ceiling: 0.9

summary:
  ai_enabled: true
  tone: professional   # professional | casual | enthusiastic
  length: medium       # short | medium | long

google:
  credentials_file: credentials.json
  token_file: token.json

sources:
  manual:
    enabled: true
    path: projects.yaml
  email:
    enabled: false
    max_emails: 100
    lookback_days: 365
  drive:
    enabled: false
    max_files: 100
  slack:
    enabled: false
    token: ""
    max_messages: 100
  figma:
    enabled: false
    access_token: ""
    team_id: ""
    max_files: 50
  screenshots:
    enabled: false
    folder_path: ~/Pictures/Screenshots
    max_files: 50

portfolio:
  output_dir: ./generated_portfolios
  theme: modern        # modern | minimal
  color_scheme: blue   # blue | green | purple
  max_projects: 20

features:
  unlimited_projects: false
  remove_watermark: false
  custom_branding: false
  custom_domain: ""

server:
  host: 0.0.0.0
  port: 5000
  storage_dir: ./api_portfolios
  retention: 168h      # delete API portfolios after a week; 0s keeps them
  cors:
    enabled: true
    allowed_origins: ["*"]

logging:
  level: info
  format: text
`

// WriteExample writes ExampleYAML to path. An existing file is only replaced
// when overwrite is set.
func WriteExample(path string, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("%s already exists", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(ExampleYAML), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
