package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/2beens/fittrack/internal/config"
	"github.com/2beens/fittrack/internal/db"
)

var (
	env        string
	configPath string
	envFile    string
	timeout    time.Duration

	rootCmd = &cobra.Command{
		Use:   "dbtool",
		Short: "Admin tasks for the fittrack database",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := godotenv.Load(envFile); err != nil {
				log.Debugf("no env file loaded [%s]: %s", envFile, err)
			}
		},
	}
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Creates the tables and indexes that do not exist yet",
		Args:  cobra.NoArgs,
		RunE:  runMigrate,
	}
	schemaCmd = &cobra.Command{
		Use:   "schema",
		Short: "Prints the schema applied by migrate",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), db.Schema())
		},
	}
	addExerciseCmd = &cobra.Command{
		Use:   "add-exercise [name] [muscle group]",
		Short: "Adds an exercise to the catalog",
		Args:  cobra.ExactArgs(2),
		RunE:  runAddExercise,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment [prod | production | dev | development]")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./config.toml", "path for the TOML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional .env file with secrets")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "timeout of the whole command")

	rootCmd.AddCommand(migrateCmd, schemaCmd, addExerciseCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load(env, configPath)
	if err != nil {
		return nil, err
	}
	secrets := config.SecretsFromEnv()
	return db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:     cfg.PostgresHost,
		DBPort:     cfg.PostgresPort,
		DBName:     cfg.PostgresDBName,
		DBUser:     cfg.PostgresUser,
		DBPassword: secrets.DBPassword,
		MaxConns:   2,
	})
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	pool, err := openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
	return nil
}

func runAddExercise(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	pool, err := openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	var id int
	err = pool.QueryRow(
		ctx,
		`INSERT INTO exercise (exercise_name, muscle_group) VALUES ($1, $2) RETURNING id;`,
		args[0], args[1],
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("add exercise: %w", db.TranslateError(err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "exercise %s added with id %d\n", args[0], id)
	return nil
}
