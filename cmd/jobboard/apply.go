package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobboard/internal/model"
)

var applyCoverLetter string

var applyCmd = &cobra.Command{
	Use:   "apply <jobId>",
	Short: "Apply to a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runApply,
}

func init() {
	applyCmd.Flags().StringVar(&applyCoverLetter, "cover-letter", "", "cover letter text (required)")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	c, _, role, err := setupClient(cfg)
	if err != nil {
		return err
	}
	if role != model.RoleApplicant {
		return fmt.Errorf("apply needs an applicant token, have %q", role)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	app, err := c.Apply(ctx, args[0], applyCoverLetter)
	if err != nil {
		return err
	}
	fmt.Printf("applied: %s (job %s, %s)\n", app.ID, app.JobID, app.Status)
	return nil
}
