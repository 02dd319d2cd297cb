// Package app wires configuration, the AI provider, ingestion, the
// vector index, retrieval and the HTTP server into a runnable
// application.
package app

import (
	"context"

	"github.com/firebase/genkit/go/genkit"

	"github.com/cloudshift-ai/migbot/internal/api"
	"github.com/cloudshift-ai/migbot/internal/config"
	"github.com/cloudshift-ai/migbot/internal/index"
	"github.com/cloudshift-ai/migbot/internal/log"
	"github.com/cloudshift-ai/migbot/internal/memory"
)

// App holds the initialized application components.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit *genkit.Genkit
	Index  *index.Store
	Memory memory.Store
	Server *api.Server
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	return a.Server.Run(ctx, a.Config.Addr)
}
