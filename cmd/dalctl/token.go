package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/digitaladdress/locator/internal/auth"
)

type tokenOutput struct {
	Token     string    `json:"token"`
	Subject   string    `json:"subject"`
	Scopes    []string  `json:"scopes"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func tokenCmd(opts *globalOptions) *cobra.Command {
	var (
		subject string
		scopes  []string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an operator token for the ops and admin endpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			for _, s := range scopes {
				if s != auth.ScopeOps && s != auth.ScopeAdmin {
					return fmt.Errorf("unknown scope %q", s)
				}
			}

			if ttl == 0 {
				ttl = cfg.Auth.TokenTTL
			}
			tokens := auth.NewJWTService(auth.JWTConfig{
				SigningKey: cfg.SigningKey(),
				Issuer:     cfg.Auth.Issuer,
				Audience:   cfg.Auth.Audience,
				TokenTTL:   ttl,
			})

			token, expiresAt, err := tokens.GenerateOperatorToken(subject, scopes...)
			if err != nil {
				return err
			}

			out := tokenOutput{Token: token, Subject: subject, Scopes: scopes, ExpiresAt: expiresAt}
			return opts.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintln(w, token)
			})
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Operator identity placed in the sub claim")
	cmd.Flags().StringSliceVar(&scopes, "scope", []string{auth.ScopeOps}, "Granted scopes (ops, admin)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default: auth.token_ttl)")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}
