package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/newsboard/newsboard/internal/db"
	"github.com/newsboard/newsboard/internal/repository"
	"github.com/newsboard/newsboard/internal/service"
	"github.com/newsboard/newsboard/internal/validation"
)

func UserCmd() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage administrator accounts",
	}

	var username, email, password string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator with a bcrypt password hash",
		RunE: func(cmd *cobra.Command, args []string) error {
			username = strings.TrimSpace(username)
			email = strings.TrimSpace(email)

			var problems []error
			if err := validation.ValidateUsername(username); err != nil {
				problems = append(problems, err)
			}
			if err := validation.ValidateEmail(email); err != nil {
				problems = append(problems, err)
			}
			if err := validation.ValidatePassword(password); err != nil {
				problems = append(problems, err)
			}
			if len(problems) > 0 {
				return errors.Join(problems...)
			}

			cfg, conn, err := open()
			if err != nil {
				return err
			}
			defer conn.Close()

			err = db.RunMigrations(conn.DB, cfg.DBDriver)
			if err != nil {
				return err
			}

			// user creation never mails, so no mailer is needed
			auth := service.NewAuthService(repository.NewUserRepository(conn), nil, cfg.OTPExpiry)
			user, err := auth.CreateUser(cmd.Context(), username, email, password)
			if errors.Is(err, repository.ErrDuplicateUsername) {
				return fmt.Errorf("username %q is already taken", username)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s)\n", user.ID, user.Username)
			return nil
		},
	}
	createCmd.Flags().StringVar(&username, "username", "", "login name")
	createCmd.Flags().StringVar(&email, "email", "", "address the login codes are sent to")
	createCmd.Flags().StringVar(&password, "password", "", "initial password")
	_ = createCmd.MarkFlagRequired("username")
	_ = createCmd.MarkFlagRequired("email")
	_ = createCmd.MarkFlagRequired("password")

	userCmd.AddCommand(createCmd)
	return userCmd
}
