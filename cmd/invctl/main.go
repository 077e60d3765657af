// Command invctl seeds and exports an owner's inventory map from the shell.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/invmap/engine/internal/app"
	"github.com/invmap/engine/internal/inventory"
	"github.com/invmap/engine/pkg/config"
	"github.com/invmap/engine/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// session is the loaded map of one owner plus the connections behind it.
type session struct {
	backend *app.Backend
	sync    *inventory.Synchronizer
}

func (s *session) Close() { s.backend.Close() }

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "invctl",
		Short:         "Inventory map maintenance: seed fixtures and export spreadsheets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			_, err = logger.Init(cfg.LogLevel, cfg.LogFormat)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) { logger.Sync() },
	}
	root.AddCommand(newSeedCmd(), newExportCmd())
	return root
}

// open connects to the configured store and loads owner's map.
func open(ctx context.Context, owner string) (*session, error) {
	ownerID, err := uuid.Parse(owner)
	if err != nil {
		return nil, fmt.Errorf("invalid --owner %q: %w", owner, err)
	}
	cfg := config.Get()
	backend, err := app.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := backend.Migrate(); err != nil {
		backend.Close()
		return nil, err
	}
	sy := inventory.NewSynchronizer(ownerID, backend.Store,
		inventory.WithPlacement(inventory.NewPlacement(cfg.PlacementMin, cfg.PlacementSpan, nil)))
	if _, err := sy.Load(ctx); err != nil {
		backend.Close()
		return nil, err
	}
	return &session{backend: backend, sync: sy}, nil
}
