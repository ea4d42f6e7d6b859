package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobboard/internal/model"
	"github.com/amishk599/jobboard/internal/store"
)

var (
	jobTitle    string
	jobCompany  string
	jobLocation string
	jobOwner    string
	jobOpenFor  time.Duration
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Job fixtures for local development",
}

var jobsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Insert a job open for applications from now",
	Long:  "Writes a job straight into the configured database. Job posting belongs to another service; this seeds a local store.",
	RunE:  runJobsAdd,
}

func init() {
	jobsAddCmd.Flags().StringVar(&jobTitle, "title", "", "job title (required)")
	jobsAddCmd.Flags().StringVar(&jobCompany, "company", "", "company name")
	jobsAddCmd.Flags().StringVar(&jobLocation, "location", "", "job location")
	jobsAddCmd.Flags().StringVar(&jobOwner, "owner", "", "employer user id (required)")
	jobsAddCmd.Flags().DurationVar(&jobOpenFor, "open-for", 30*24*time.Hour, "how long the job accepts applications")
	_ = jobsAddCmd.MarkFlagRequired("title")
	_ = jobsAddCmd.MarkFlagRequired("owner")
	jobsCmd.AddCommand(jobsAddCmd)
	rootCmd.AddCommand(jobsCmd)
}

func runJobsAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := store.Open(cmd.Context(), cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	now := time.Now().UTC()
	job, err := db.CreateJob(cmd.Context(), model.Job{
		Title:                jobTitle,
		Company:              jobCompany,
		Location:             jobLocation,
		OwnerID:              jobOwner,
		ApplicationStartDate: now.Format(time.RFC3339),
		ApplicationEndDate:   now.Add(jobOpenFor).Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	fmt.Printf("%s\t%s\topen until %s\n", job.ID, job.Title, job.ApplicationEndDate)
	return nil
}
