package commands

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewLoginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the backend and store the session token",
		Long: `Authenticate with email and password. On success the bearer token is
persisted locally, so the session survives restarts until logout or expiry.`,
		RunE: runLogin,
	}

	cmd.Flags().StringP("email", "e", "", "Account email")
	cmd.Flags().StringP("password", "w", "", "Account password (prompted when omitted)")
	viper.BindPFlag("auth.email", cmd.Flags().Lookup("email"))
	viper.BindPFlag("auth.password", cmd.Flags().Lookup("password"))

	return cmd
}

func NewRegisterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an operator account and log in",
		RunE:  runRegister,
	}

	cmd.Flags().StringP("email", "e", "", "Account email")
	cmd.Flags().StringP("password", "w", "", "Account password (prompted when omitted)")
	viper.BindPFlag("auth.email", cmd.Flags().Lookup("email"))
	viper.BindPFlag("auth.password", cmd.Flags().Lookup("password"))

	return cmd
}

func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			if !app.Session.IsAuthenticated() {
				logrus.Info("Already logged out")
				return nil
			}
			if err := app.Session.Logout(); err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func runLogin(cmd *cobra.Command, args []string) error {
	return authenticate("login")
}

func runRegister(cmd *cobra.Command, args []string) error {
	return authenticate("register")
}

func authenticate(mode string) error {
	app, err := newApp()
	if err != nil {
		return err
	}

	email := viper.GetString("auth.email")
	password := viper.GetString("auth.password")

	if email == "" {
		if email, err = promptLine("Email"); err != nil {
			return err
		}
	}
	if password == "" {
		if password, err = promptLine("Password"); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout())
	defer cancel()

	var token string
	switch mode {
	case "register":
		token, err = app.API.Register(ctx, email, password)
	default:
		token, err = app.API.Login(ctx, email, password)
	}
	if err != nil {
		return app.handleAPIError(err)
	}

	if err := app.Session.Login(token); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	fmt.Printf("Authenticated as %s\n", email)
	return nil
}
