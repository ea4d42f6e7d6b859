package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobboard/internal/model"
)

var decideCmd = &cobra.Command{
	Use:       "decide <applicationId> accepted|rejected",
	Short:     "Accept or reject an application",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{string(model.StatusAccepted), string(model.StatusRejected)},
	RunE:      runDecide,
}

func init() {
	rootCmd.AddCommand(decideCmd)
}

func runDecide(cmd *cobra.Command, args []string) error {
	status, err := model.ParseDecision(args[1])
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	c, _, role, err := setupClient(cfg)
	if err != nil {
		return err
	}
	if role != model.RoleEmployer {
		return fmt.Errorf("decide needs an employer token, have %q", role)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	app, err := c.UpdateStatus(ctx, args[0], status)
	if err != nil {
		return err
	}
	fmt.Printf("application %s is now %s\n", app.ID, app.Status)
	return nil
}
