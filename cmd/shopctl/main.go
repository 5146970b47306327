// Package main provides shopctl, the operator CLI for the shop API database.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"shop-admin/internal/app"
	"shop-admin/internal/auth"
	"shop-admin/internal/config"
	"shop-admin/internal/db"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var loadDotEnv bool

	cmd := &cobra.Command{
		Use:           "shopctl",
		Short:         "Administer the shop API database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVar(&loadDotEnv, "dotenv", true, "Load a .env file from the working directory")

	cmd.AddCommand(migrateCmd(&loadDotEnv))
	cmd.AddCommand(createUserCmd(&loadDotEnv))
	cmd.AddCommand(hashPasswordCmd())

	return cmd
}

func loadConfig(loadDotEnv bool) (config.APIConfig, error) {
	return config.LoadAPI(config.Options{LoadDotEnv: loadDotEnv})
}

func migrateCmd(loadDotEnv *bool) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if list {
				versions, err := db.Versions()
				if err != nil {
					return err
				}
				for _, v := range versions {
					fmt.Fprintln(out, v)
				}
				return nil
			}

			cfg, err := loadConfig(*loadDotEnv)
			if err != nil {
				return err
			}
			database, err := app.OpenDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			applied, err := db.RunMigrations(cmd.Context(), database)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(out, "database is up to date")
				return nil
			}
			for _, v := range applied {
				fmt.Fprintf(out, "applied %s\n", v)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "Print the embedded migration versions and exit")
	return cmd
}

type createUserOptions struct {
	username      string
	password      string
	passwordStdin bool
	role          string
	cost          int
}

func createUserCmd(loadDotEnv *bool) *cobra.Command {
	var opts createUserOptions

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an account directly in the database",
		Example: `  shopctl create-user --username admin --role Admin --password-stdin < secret.txt
  shopctl create-user --username alice --password 'p4ssw0rd'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*loadDotEnv)
			if err != nil {
				return err
			}
			database, err := app.OpenDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			return createUser(cmd.Context(), auth.NewRepository(database), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.username, "username", "", "Account name (stored lowercased)")
	cmd.Flags().StringVar(&opts.password, "password", "", "Account password")
	cmd.Flags().BoolVar(&opts.passwordStdin, "password-stdin", false, "Read the password from stdin")
	cmd.Flags().StringVar(&opts.role, "role", string(auth.RoleUser), "Account role (Admin or User)")
	cmd.Flags().IntVar(&opts.cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	_ = cmd.MarkFlagRequired("username")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")

	return cmd
}

func createUser(ctx context.Context, store auth.CredentialStore, opts createUserOptions, in io.Reader, out io.Writer) error {
	role, err := auth.ParseRole(opts.role)
	if err != nil {
		return err
	}

	password := opts.password
	if opts.passwordStdin {
		if password, err = readPassword(in); err != nil {
			return err
		}
	}
	if password == "" {
		return errors.New("a password is required (--password or --password-stdin)")
	}

	// Account creation does not issue tokens, so no token service is needed.
	service := auth.NewService(store, nil).WithPasswordHasher(auth.NewPasswordHasher(opts.cost))
	identity, err := service.CreateUser(ctx, opts.username, password, role)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "created %s (id %d, role %s)\n", identity.Username, identity.ID, identity.Role)
	return nil
}

func hashPasswordCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Read a password from stdin and print its bcrypt hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(cmd.InOrStdin())
			if err != nil {
				return err
			}
			if password == "" {
				return errors.New("empty password")
			}
			hash, err := auth.NewPasswordHasher(cost).Hash(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}

// readPassword takes the first line of in. Only the line terminator is
// stripped; surrounding spaces are part of the password.
func readPassword(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
