// Package application provides the application interface for astronauts
// commands.
//
// The Application interface is the contract between the application layer
// and command implementations. Commands accept it instead of the concrete
// App type so they can be tested with a small fake:
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            st, err := app.Store()
//	            if err != nil {
//	                return err
//	            }
//	            // ... use st
//	            return nil
//	        },
//	    }
//	}
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/astronauts/internal/store"
)

// Application provides what commands need from the running process.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Store returns the process-wide record store, seeding it on first use.
	Store() (*store.Store, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
