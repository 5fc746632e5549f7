package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vsfs-dev/vsfs/common"
	"github.com/vsfs-dev/vsfs/mkfs"
)

var mkfsCmd = &cobra.Command{
	Use:   "mkfs [image]",
	Short: "Create a fresh filesystem image",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := flagImage
		if len(args) == 1 {
			path = args[0]
		}
		if err := mkfs.WriteImage(path); err != nil {
			return err
		}
		slog.Info("created image", "path", path, "blocks", common.TotalBlocks)
		fmt.Printf("Created VSFS image '%s' (%d blocks).\n", path, common.TotalBlocks)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mkfsCmd)
}
