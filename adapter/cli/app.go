package cli

import (
	"context"
	"errors"

	internalApp "github.com/felixgeelhaar/flightwatch/internal/app"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/queries"
)

// ErrNotInitialized is returned when a command runs without a database.
var ErrNotInitialized = errors.New("application not initialized - database connection required")

// App holds the CLI application dependencies.
type App struct {
	// Command Handlers
	CheckAllActiveHandler  *commands.CheckAllActiveHandler
	ResolveConflictHandler *commands.ResolveConflictHandler
	GenerateOptionsHandler *commands.GenerateRescheduleOptionsHandler
	AcceptOptionHandler    *commands.AcceptOptionHandler
	RejectOptionsHandler   *commands.RejectOptionsHandler

	// Query Handlers
	GetConflictHandler       *queries.GetConflictHandler
	ListOpenConflictsHandler *queries.ListOpenConflictsHandler
	GetOptionSetHandler      *queries.GetOptionSetHandler

	// AfterCommand runs once a command finished, to flush the outbox.
	AfterCommand func(ctx context.Context)
}

// NewApp takes the handlers from a wired container. The outbox is flushed
// after every command so in-process subscribers run before the CLI exits.
func NewApp(c *internalApp.Container) *App {
	return &App{
		CheckAllActiveHandler:    c.CheckAllActiveHandler,
		ResolveConflictHandler:   c.ResolveConflictHandler,
		GenerateOptionsHandler:   c.GenerateOptionsHandler,
		AcceptOptionHandler:      c.AcceptOptionHandler,
		RejectOptionsHandler:     c.RejectOptionsHandler,
		GetConflictHandler:       c.GetConflictHandler,
		ListOpenConflictsHandler: c.ListOpenConflictsHandler,
		GetOptionSetHandler:      c.GetOptionSetHandler,
		AfterCommand:             c.FlushOutbox,
	}
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
