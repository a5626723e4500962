package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nightowl-sec/vantage/internal/console"
	"github.com/nightowl-sec/vantage/pkg/models"
)

func NewFindingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "findings",
		Short: "Review security findings",
	}

	cmd.AddCommand(newFindingsListCommand())
	return cmd
}

func newFindingsListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List findings, optionally filtered by severity",
		RunE:  runFindingsList,
	}

	cmd.Flags().StringP("severity", "s", "", "Only show findings at this severity (Critical, High, Medium, Low, Info)")
	viper.BindPFlag("findings.severity", cmd.Flags().Lookup("severity"))

	return cmd
}

func runFindingsList(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	if err := requireAuth(app); err != nil {
		return err
	}

	severity := viper.GetString("findings.severity")
	if severity != "" {
		severity = strings.ToUpper(severity[:1]) + strings.ToLower(severity[1:])
		found := false
		for _, s := range models.SeverityOrder {
			if s == severity {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown severity: %s", severity)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout())
	defer cancel()

	findings, err := app.API.ListFindings(ctx)
	if err != nil {
		return app.handleAPIError(err)
	}

	if severity != "" {
		filtered := findings[:0]
		for i := range findings {
			if findings[i].NormalizedSeverity() == severity {
				filtered = append(filtered, findings[i])
			}
		}
		findings = filtered
	}

	console.RenderFindings(os.Stdout, findings)
	return nil
}
