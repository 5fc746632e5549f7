package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vsfs-dev/vsfs/fs"
	"github.com/vsfs-dev/vsfs/jrnl"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Replay committed journal transactions into the image",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := fs.OpenImage(flagImage)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := jrnl.New(st).ReplayAndClear(); err != nil {
			return err
		}
		fmt.Println("Journal replayed and cleared.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}
