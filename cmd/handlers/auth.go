package handlers

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"necromancer/internal/sources"
)

// NewAuthCmd creates the auth command group
func NewAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to external sources",
	}
	cmd.AddCommand(newAuthGoogleCmd())
	return cmd
}

func newAuthGoogleCmd() *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "google",
		Short: "Authorize read-only Gmail and Drive access",
		Long: `Google prints the consent URL for the OAuth client in google.credentials_file,
then exchanges the authorization code for a token stored at google.token_file.

Examples:
  # Interactive: open the URL, then paste the code
  necromancer auth google

  # Non-interactive
  necromancer auth google --code 4/0AbCd...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			auth := sources.GoogleAuth{
				CredentialsFile: cfg.Google.CredentialsFile,
				TokenFile:       cfg.Google.TokenFile,
			}
			scopes := []string{sources.GmailScope, sources.DriveScope}
			out := cmd.OutOrStdout()

			if code == "" {
				url, err := auth.AuthCodeURL(scopes...)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "Open this URL in your browser and authorize access:")
				fmt.Fprintf(out, "\n  %s\n\n", url)
				fmt.Fprint(out, "Authorization code: ")

				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read authorization code: %w", err)
				}
				code = strings.TrimSpace(line)
			}
			if code == "" {
				return fmt.Errorf("no authorization code given")
			}

			if err := auth.Exchange(cmd.Context(), code, scopes...); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Token saved to %s\n", cfg.Google.TokenFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "authorization code from the consent page")

	return cmd
}
