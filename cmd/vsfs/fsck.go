package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vsfs-dev/vsfs/fsck"
)

var flagIgnoreJournal bool

var fsckCmd = &cobra.Command{
	Use:   "fsck [image]",
	Short: "Validate the consistency of an image",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := flagImage
		if len(args) == 1 {
			path = args[0]
		}

		report, err := fsck.CheckImage(path, fsck.Opts{IgnoreJournal: flagIgnoreJournal})
		if err != nil {
			return err
		}

		if report.OK() {
			color.Green("Filesystem '%s' is consistent.", path)
			return nil
		}
		for _, v := range report.Violations {
			fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("ERROR:"), v.Msg)
		}
		return fmt.Errorf("%d inconsistencies found", report.Count())
	},
}

func init() {
	fsckCmd.Flags().BoolVar(&flagIgnoreJournal, "ignore-journal", false,
		"validate primary structures even with a pending journal")
	rootCmd.AddCommand(fsckCmd)
}
