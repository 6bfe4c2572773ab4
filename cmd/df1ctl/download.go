package main

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newDownloadCmd() *cobra.Command {
	var inPath string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Write a previously uploaded bundle back to the processor",
		Long: `Writes a program/data file bundle (produced by "df1ctl upload") back to the
controller: sets program mode, begins the download, acquires sole access,
writes the directory and every file, completes the download, then releases
sole access. Any failure aborts the sequence; the controller is left in
program mode, with no rollback.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(inPath)
			if err != nil {
				return err
			}
			defer f.Close()

			var bundle uploadBundle
			if err := gob.NewDecoder(f).Decode(&bundle); err != nil {
				return err
			}

			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Download(bundle.FileZero, bundle.Files); err != nil {
				return err
			}

			fmt.Printf("downloaded %d files\n", len(bundle.Files))
			return nil
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "upload.bundle", "bundle file produced by 'df1ctl upload'")

	return cmd
}
