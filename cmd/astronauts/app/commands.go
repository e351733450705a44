package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/astronauts/cmd/astronauts/cmd/fixtures"
	"github.com/agentstation/astronauts/cmd/astronauts/cmd/serve"
	"github.com/agentstation/astronauts/internal/server"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(a.CreateServeCommand())
	rootCmd.AddCommand(a.CreateFixturesCommand())
	rootCmd.AddCommand(a.CreateVersionCommand())
}

// CreateServeCommand creates the serve command with app dependencies.
// Server defaults are resolved when the command runs so that a
// --config given on the command line is honored.
func (a *App) CreateServeCommand() *cobra.Command {
	return serve.NewCommand(a, func() server.Config {
		return a.config.ServerConfig()
	}, a.useFixtures)
}

// CreateFixturesCommand creates the fixtures command with app dependencies.
func (a *App) CreateFixturesCommand() *cobra.Command {
	return fixtures.NewCommand(a.Seed, a.useFixtures)
}

// CreateVersionCommand creates the version command.
func (a *App) CreateVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("astronauts %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}

// useFixtures points the store at a different seed file. It has no
// effect once the store has been created.
func (a *App) useFixtures(path string) {
	if path == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.config.FixturesPath = path
}
