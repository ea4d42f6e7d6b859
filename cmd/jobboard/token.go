package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobboard/internal/auth"
	"github.com/amishk599/jobboard/internal/model"
)

var (
	tokenUser string
	tokenRole string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development bearer token",
	Long:  "Signs a token with auth.jwt_secret. Identity issuance belongs to the auth service; this is for local testing.",
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user id (required)")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(model.RoleApplicant), "applicant or employer")
	_ = tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	role := model.Role(tokenRole)
	if !role.Recognized() {
		return fmt.Errorf("role must be %q or %q, got %q", model.RoleApplicant, model.RoleEmployer, tokenRole)
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.RequireServer(); err != nil {
		return err
	}

	tokens, err := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	signed, err := tokens.Issue(tokenUser, role)
	if err != nil {
		return err
	}
	fmt.Println(signed)
	return nil
}
