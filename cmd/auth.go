package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/teemow/calsync/internal/google"
)

const authExchangeTimeout = 30 * time.Second

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage Google OAuth tokens",
		Long: `Authorize calsync to act on a user's Google Calendar.

Run "calsync auth url" and open the printed link as the user, then pass
the code Google shows to "calsync auth save". Tokens are stored per user
below GOOGLE_TOKEN_DIR and refreshed automatically.`,
	}
	cmd.AddCommand(newAuthURLCmd(), newAuthSaveCmd(), newAuthStatusCmd())
	return cmd
}

func loadGoogleConfig() (GoogleConfig, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return GoogleConfig{}, err
	}
	if err := cfg.Google.OAuth().Validate(); err != nil {
		return GoogleConfig{}, fmt.Errorf("%w (set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET)", err)
	}
	return cfg.Google, nil
}

func newAuthURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "url",
		Short: "Print the Google consent URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGoogleConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), g.OAuth().AuthURL(uuid.NewString()))
			return nil
		},
	}
}

func newAuthSaveCmd() *cobra.Command {
	var user, code string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Exchange an authorization code and store the token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGoogleConfig()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), authExchangeTimeout)
			defer cancel()

			tokens := google.NewFileTokenProvider(g.TokenDir)
			if err := tokens.ExchangeAndSave(ctx, g.OAuth().Config(), user, code); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token saved for %s\n", user)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User the token belongs to")
	cmd.Flags().StringVar(&code, "code", "", "Authorization code from the consent page")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}

func newAuthStatusCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether a token is stored for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return err
			}
			tokens := google.NewFileTokenProvider(cfg.Google.TokenDir)
			if tokens.HasTokenForAccount(user) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: authorized\n", user)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: not authorized\n", user)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User to check")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
