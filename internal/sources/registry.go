package sources

import (
	"necromancer/internal/config"
)

// FromConfig builds every source in a fixed order. Disabled or
// unconfigured sources are still registered so they show up as skipped.
func FromConfig(cfg *config.Config) *Manager {
	auth := GoogleAuth{
		CredentialsFile: cfg.Google.CredentialsFile,
		TokenFile:       cfg.Google.TokenFile,
	}
	src := cfg.Sources
	return NewManager(
		NewManualSource(src.Manual.Enabled, src.Manual.Path),
		NewEmailSource(src.Email.Enabled, auth, src.Email.MaxEmails, src.Email.LookbackDays),
		NewDriveSource(src.Drive.Enabled, auth, src.Drive.MaxFiles),
		NewSlackSource(src.Slack.Enabled, src.Slack.Token, src.Slack.UserID, src.Slack.MaxMessages, src.Slack.BaseURL),
		NewFigmaSource(src.Figma.Enabled, src.Figma.AccessToken, src.Figma.TeamID, src.Figma.MaxFiles, src.Figma.BaseURL),
		NewScreenshotSource(src.Screenshots.Enabled, src.Screenshots.FolderPath, src.Screenshots.MaxFiles),
	)
}
