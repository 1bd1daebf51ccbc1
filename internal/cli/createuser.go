package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"textdigest/internal/auth"
	"textdigest/internal/config"
	"textdigest/internal/database"
)

const passwordEnvVar = "TEXTDIGEST_PASSWORD"

var (
	createUserUsername string
	createUserPassword string
)

var createUserCmd = &cobra.Command{
	Use:   "createuser",
	Short: "Create an API user that can obtain tokens",
	Long: `Create an API user that can obtain tokens.

The password is taken from --password or, when omitted, from the
TEXTDIGEST_PASSWORD environment variable.`,
	Args: cobra.NoArgs,
	RunE: runCreateUser,
}

func init() {
	createUserCmd.Flags().StringVar(&createUserUsername, "username", "", "Username")
	createUserCmd.Flags().StringVar(&createUserPassword, "password", "", "Password")
	_ = createUserCmd.MarkFlagRequired("username")

	rootCmd.AddCommand(createUserCmd)
}

func runCreateUser(cmd *cobra.Command, _ []string) error {
	password := createUserPassword
	if password == "" {
		password = os.Getenv(passwordEnvVar)
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password is required (--password or %s)", passwordEnvVar)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.New(cmd.Context(), cfg.DBDriver, cfg.DBDSN, logger)
	if err != nil {
		return fmt.Errorf("initialize db: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	user, err := db.CreateUser(cmd.Context(), createUserUsername, hash)
	if err != nil {
		if errors.Is(err, database.ErrUserExists) {
			return fmt.Errorf("user %q already exists", strings.TrimSpace(createUserUsername))
		}
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "User %q created (id %d)\n", user.Username, user.ID)

	return nil
}
