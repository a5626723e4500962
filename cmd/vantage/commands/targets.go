package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nightowl-sec/vantage/internal/console"
	"github.com/nightowl-sec/vantage/pkg/models"
	"github.com/nightowl-sec/vantage/pkg/utils"
)

func NewTargetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "Manage reconnaissance targets",
	}

	cmd.AddCommand(newTargetsListCommand())
	cmd.AddCommand(newTargetsAddCommand())
	cmd.AddCommand(newTargetsDeleteCommand())
	return cmd
}

func newTargetsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered targets",
		RunE:  runTargetsList,
	}
}

func newTargetsAddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a new target",
		Long: `Register a domain or IP target. Domain names are normalized (lowercase,
punycode) before submission; target names must be unique, duplicates are
rejected by the backend.`,
		Args: cobra.ExactArgs(1),
		RunE: runTargetsAdd,
	}

	cmd.Flags().StringP("type", "t", "", "Target type (domain, ip); inferred when omitted")
	cmd.Flags().StringP("description", "d", "", "Free-form description")
	viper.BindPFlag("targets.type", cmd.Flags().Lookup("type"))
	viper.BindPFlag("targets.description", cmd.Flags().Lookup("description"))

	return cmd
}

func newTargetsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a target",
		Args:  cobra.ExactArgs(1),
		RunE:  runTargetsDelete,
	}
}

func runTargetsList(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	if err := requireAuth(app); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout())
	defer cancel()

	targets, err := app.API.ListTargets(ctx)
	if err != nil {
		return app.handleAPIError(err)
	}

	console.RenderTargets(os.Stdout, targets)
	return nil
}

func runTargetsAdd(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	if err := requireAuth(app); err != nil {
		return err
	}

	name := args[0]
	targetType := viper.GetString("targets.type")

	if targetType == "" {
		if utils.IsValidIP(name) {
			targetType = models.TargetTypeIP
		} else {
			targetType = models.TargetTypeDomain
		}
	}

	if targetType == models.TargetTypeDomain {
		normalized, err := utils.NormalizeDomain(name)
		if err != nil {
			return err
		}
		if normalized != name {
			logrus.Infof("Normalized target name %q -> %q", name, normalized)
		}
		name = normalized
	} else if !utils.IsValidIP(name) {
		return fmt.Errorf("invalid IP address: %s", name)
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout())
	defer cancel()

	target, err := app.API.CreateTarget(ctx, models.TargetCreateRequest{
		Name:        name,
		TargetType:  targetType,
		Description: viper.GetString("targets.description"),
	})
	if err != nil {
		return app.handleAPIError(err)
	}

	fmt.Printf("Target registered: %s (id %d)\n", target.Name, target.ID)
	return nil
}

func runTargetsDelete(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	if err := requireAuth(app); err != nil {
		return err
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid target id: %s", args[0])
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout())
	defer cancel()

	if err := app.API.DeleteTarget(ctx, id); err != nil {
		return app.handleAPIError(err)
	}

	fmt.Printf("Target %d deleted.\n", id)
	return nil
}
