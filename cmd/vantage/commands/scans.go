package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nightowl-sec/vantage/internal/console"
	"github.com/nightowl-sec/vantage/pkg/models"
)

func NewScansCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scans",
		Short: "Launch scan modules and review scan history",
	}

	cmd.AddCommand(newScansListCommand())
	cmd.AddCommand(newScansStartCommand())
	return cmd
}

func newScansListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List scans, most recent first",
		RunE:  runScansList,
	}

	cmd.Flags().Bool("active", false, "Only show pending and running scans")
	viper.BindPFlag("scans.active", cmd.Flags().Lookup("active"))

	return cmd
}

func newScansStartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start <target-id>",
		Short: "Launch a scan module against a target",
		Long: fmt.Sprintf(`Launch one scan module against a registered target. The scan is queued
by the backend and observed through its status transitions; use
"vantage watch scans" to follow progress.

Available modules: %s`, strings.Join(models.ScanTypes, ", ")),
		Args: cobra.ExactArgs(1),
		RunE: runScansStart,
	}

	cmd.Flags().StringP("module", "m", "DNS", "Scan module to launch")
	viper.BindPFlag("scans.module", cmd.Flags().Lookup("module"))

	return cmd
}

func runScansList(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	if err := requireAuth(app); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout())
	defer cancel()

	scans, err := app.API.ListScans(ctx)
	if err != nil {
		return app.handleAPIError(err)
	}

	if viper.GetBool("scans.active") {
		active := scans[:0]
		for i := range scans {
			if scans[i].IsActive() {
				active = append(active, scans[i])
			}
		}
		scans = active
	}

	console.RenderScans(os.Stdout, scans)
	return nil
}

func runScansStart(cmd *cobra.Command, args []string) error {
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

	module := strings.ToUpper(viper.GetString("scans.module"))

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout())
	defer cancel()

	scan, err := app.API.CreateScan(ctx, models.ScanCreateRequest{
		TargetID: targetID,
		ScanType: module,
	})
	if err != nil {
		return app.handleAPIError(err)
	}

	logrus.Infof("Scan %d launched: %s against target %d", scan.ID, scan.ScanType, scan.TargetID)
	fmt.Printf("Scan %d queued (%s, status %s)\n\n", scan.ID, scan.ScanType, scan.Status)

	scans, err := app.API.ListScans(ctx)
	if err != nil {
		return app.handleAPIError(err)
	}
	console.RenderScans(os.Stdout, scans)
	return nil
}
