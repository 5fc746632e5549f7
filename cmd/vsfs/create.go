package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vsfs-dev/vsfs/fs"
	"github.com/vsfs-dev/vsfs/fstxn"
	"github.com/vsfs-dev/vsfs/jrnl"
)

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty file in the root directory",
	Long: "Create stages the new file as a journal transaction. The change is\n" +
		"durable once create returns, but only becomes visible in the primary\n" +
		"structures after 'vsfs install'.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := fs.OpenImage(flagImage)
		if err != nil {
			return err
		}
		defer st.Close()

		inum, err := fstxn.Create(st, jrnl.New(st), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Created '%s' as inode %d (journaled; run install to apply).\n", args[0], inum)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
}
