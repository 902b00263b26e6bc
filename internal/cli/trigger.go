package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/david/campus-events/internal/auth"
	"github.com/spf13/cobra"
)

// TriggerOptions holds flags for the trigger command.
type TriggerOptions struct {
	*RootOptions
	ServerURL string
	Async     bool
	Timeout   time.Duration
}

func NewTriggerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TriggerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Invoke scrape-events on a running server",
		Long: `Call POST /functions/v1/scrape-events on a running server with a
service_role token signed by auth.jwt_secret. This is what a cron job runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return trigger(cmd.Context(), cmd.OutOrStdout(), opts, cfg.Auth.JWTSecret)
		},
	}
	cmd.Flags().StringVar(&opts.ServerURL, "url", "http://localhost:8081", "server base URL")
	cmd.Flags().BoolVar(&opts.Async, "async", false, "start a background job and return its id")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 10*time.Minute, "request timeout")
	return cmd
}

func trigger(ctx context.Context, out io.Writer, opts *TriggerOptions, secret string) error {
	endpoint := strings.TrimSuffix(opts.ServerURL, "/") + "/functions/v1/scrape-events"
	if opts.Async {
		endpoint += "?async=true"
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if secret != "" {
		token, err := auth.SignToken(secret, "eventctl", auth.RoleServiceRole, 5*time.Minute)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	fmt.Fprintf(out, "Response Status: %s\n%s\n", resp.Status, strings.TrimSpace(string(body)))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("scrape-events returned %s", resp.Status)
	}
	return nil
}
