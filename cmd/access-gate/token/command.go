// Package token holds the operator commands that mint and check session
// tokens with the configured codec.
package token

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/openkcm/access-gate/internal/business"
	"github.com/openkcm/access-gate/internal/cmdutils"
)

func Cmd(buildInfo string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue and inspect session tokens",
	}

	cmd.AddCommand(issueCmd(buildInfo), inspectCmd(buildInfo))

	return cmd
}

func issueCmd(buildInfo string) *cobra.Command {
	var identifier string

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a session token without checking credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdutils.LoadConfig(buildInfo)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			tok, err := business.IssueToken(cfg, identifier, time.Now())
			if err != nil {
				return fmt.Errorf("issuing token: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok.Value)
			return err
		},
	}

	cmd.Flags().StringVar(&identifier, "identifier", "", "identifier the token is issued for")
	_ = cmd.MarkFlagRequired("identifier")

	return cmd
}

func inspectCmd(buildInfo string) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <token>",
		Short: "Verify a session token and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutils.LoadConfig(buildInfo)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			claims, err := business.InspectToken(cfg, args[0], time.Now())
			if err != nil {
				return fmt.Errorf("inspecting token: %w", err)
			}

			out := cmd.OutOrStdout()
			if claims.Identifier == "" {
				_, err = fmt.Fprintln(out, "valid")
				return err
			}

			_, err = fmt.Fprintf(out, "identifier: %s\nissuedAt: %s\nexpiresAt: %s\n",
				claims.Identifier,
				claims.IssuedAt.UTC().Format(time.RFC3339),
				claims.ExpiresAt.UTC().Format(time.RFC3339),
			)
			return err
		},
	}
}
