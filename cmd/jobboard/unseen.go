package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobboard/internal/model"
	"github.com/amishk599/jobboard/internal/poller"
	"github.com/amishk599/jobboard/internal/retry"
)

var unseenList bool

var unseenCmd = &cobra.Command{
	Use:   "unseen",
	Short: "Print the unseen notification count",
	Long:  "Prints the applicant badge count, or with --list the current unseen feed for the token's role. Nothing is marked seen.",
	RunE:  runUnseen,
}

func init() {
	unseenCmd.Flags().BoolVar(&unseenList, "list", false, "print the unseen feed items")
	rootCmd.AddCommand(unseenCmd)
}

func runUnseen(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	c, _, role, err := setupClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()
	retrier := newRetrier(logger)

	if !unseenList {
		if role != model.RoleApplicant {
			return fmt.Errorf("the unseen count is only kept for applicants; use --list")
		}
		count, err := retry.Value(ctx, retrier, "unseen count", c.UnseenCount)
		if err != nil {
			return err
		}
		fmt.Println(count)
		return nil
	}

	items, err := retry.Value(ctx, retrier, "unseen feed", func(ctx context.Context) ([]model.Notification, error) {
		return poller.Fetch(ctx, c, role)
	})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("nothing new")
		return nil
	}

	fmt.Printf("%-38s %-8s %s\n", "Application", "Type", "Message")
	fmt.Println(strings.Repeat("─", 80))
	for _, n := range items {
		fmt.Printf("%-38s %-8s %s\n", n.ApplicationID(), n.Variant(), n.Message())
	}
	return nil
}
