package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/invmap/engine/internal/export"
)

func newExportCmd() *cobra.Command {
	var owner, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write an owner's equipment spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd.Context(), owner)
			if err != nil {
				return err
			}
			defer s.Close()

			if out == "" {
				out = export.FileName(time.Now())
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := export.Write(f, s.sync.Snapshot()); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner id (uuid)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default inventario-DD-MM-YYYY.xlsx)")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
