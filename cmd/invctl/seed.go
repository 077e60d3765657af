package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/invmap/engine/internal/seed"
	"github.com/invmap/engine/pkg/logger"
)

func newSeedCmd() *cobra.Command {
	var owner, file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the nodes of a YAML fixture for an owner",
		Long:  "Create the nodes of a YAML fixture for an owner. Without --file the built-in sample map (MANAUS) is used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			fx := seed.Default()
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				if fx, err = seed.Parse(f); err != nil {
					return fmt.Errorf("%s: %w", file, err)
				}
			}

			s, err := open(cmd.Context(), owner)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := seed.Apply(cmd.Context(), s.sync, fx)
			if err != nil {
				return err
			}
			logger.L().Info("seed applied",
				zap.String("owner_id", owner),
				zap.Int("locations", res.Locations),
				zap.Int("units", res.Units),
				zap.Int("equipment", res.Equipment))
			fmt.Fprintf(cmd.OutOrStdout(), "created %d locations, %d units, %d equipment\n", res.Locations, res.Units, res.Equipment)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner id (uuid)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "fixture file (YAML)")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
