package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nightowl-sec/vantage/pkg/utils"
)

func NewReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <target-id>",
		Short: "Fetch a rendered report for a target",
		Long: `Fetch the backend-rendered report document for a target and write it to
disk. The document is stored untouched; rendering is entirely a backend
concern.`,
		Args: cobra.ExactArgs(1),
		RunE: runReport,
	}

	cmd.Flags().StringP("format", "f", "html", "Report format (html, pdf)")
	cmd.Flags().StringP("out", "o", "", "Output path (defaults to the configured report directory)")
	viper.BindPFlag("report.format", cmd.Flags().Lookup("format"))
	viper.BindPFlag("report.out", cmd.Flags().Lookup("out"))

	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	if err := requireAuth(app); err != nil {
		return err
	}

	targetID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid target id: %s", args[0])
	}
	format := viper.GetString("report.format")

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout())
	defer cancel()

	data, err := app.API.FetchReport(ctx, targetID, format)
	if err != nil {
		return app.handleAPIError(err)
	}

	out := viper.GetString("report.out")
	if out == "" {
		if err := utils.EnsureDir(app.Config.Console.ReportDir); err != nil {
			return fmt.Errorf("ensure report dir: %w", err)
		}
		out = filepath.Join(app.Config.Console.ReportDir,
			fmt.Sprintf("target_%d_%s.%s", targetID, time.Now().Format("20060102_150405"), format))
	}

	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	logrus.Infof("Report saved to %s", out)
	fmt.Printf("Report written: %s (%d bytes)\n", out, len(data))
	return nil
}
