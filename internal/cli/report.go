package cli

import (
	"github.com/spf13/cobra"

	"tably-service/internal/config"
	"tably-service/internal/logger"
	"tably-service/internal/report"
)

// NewReportCmd prints a user's progress report.
func NewReportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "report <userId>",
		Short: "Print a user's progress report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger.Init(cfg.Log.Level)

			service, cleanup, err := buildService(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			rep, err := service.Report(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return report.RenderText(cmd.OutOrStdout(), rep)
		},
	}
}
