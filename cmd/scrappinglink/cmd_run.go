package main

import (
	"github.com/spf13/cobra"

	"github.com/sromero1905/scrapping-link/internal/usecase"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one pipeline run and print the report",
	RunE:  runOnce,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on the configured cron expression until interrupted",
	RunE:  runSchedule,
}

func runOnce(cmd *cobra.Command, _ []string) error {
	application, err := loadApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer application.Close()

	report, runErr := application.Run(cmd.Context())
	if err := report.Render(cmd.OutOrStdout()); err != nil {
		return err
	}
	return runErr
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	application, err := loadApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer application.Close()

	out := cmd.OutOrStdout()
	return application.Schedule(cmd.Context(), func(r usecase.Report) {
		_ = r.Render(out)
	})
}
