package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yigit/schoolroll/internal/bootstrap"
	"github.com/yigit/schoolroll/internal/pkg/logger"
	"github.com/yigit/schoolroll/internal/server"
)

// @title Schoolroll API
// @version 1.0
// @description Administration API for departments, subjects, student groups, students, staff and attendance.

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

const maintenanceTimeout = 2 * time.Minute

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func newApp() *cli.App {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Value:   bootstrap.DefaultConfigPath,
		Usage:   "path to the YAML configuration file",
		EnvVars: []string{"CONFIG_PATH"},
	}

	return &cli.App{
		Name:   "schoolroll",
		Usage:  "school administration API",
		Flags:  []cli.Flag{configFlag},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "migrate, optionally seed, then serve HTTP",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply pending migrations and exit",
				Action: migrate,
			},
			{
				Name:   "seed",
				Usage:  "apply migrations and load the demo data set",
				Action: seedData,
			},
		},
	}
}

func serve(c *cli.Context) error {
	srv, err := server.NewServer(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}
	return srv.Run()
}

func migrate(c *cli.Context) error {
	return withDatabase(c, false)
}

func seedData(c *cli.Context) error {
	return withDatabase(c, true)
}

func withDatabase(c *cli.Context, seed bool) error {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(c.String("config"))
	if err != nil {
		return err
	}

	database, err := bootstrap.ConnectDatabase(cfg, lgr)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(c.Context, maintenanceTimeout)
	defer cancel()

	if err := bootstrap.RunMigrations(ctx, cfg, database, lgr); err != nil {
		return err
	}
	if seed {
		return bootstrap.SeedDatabase(ctx, cfg, database)
	}
	return nil
}
