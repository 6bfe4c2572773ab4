package main

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/ab-df1/df1"
	"github.com/spf13/cobra"
)

// uploadBundle is the on-disk shape written by `df1ctl upload` and read by
// `df1ctl download`: the program/data file collection plus the raw file
// zero directory bytes needed to replay a download.
type uploadBundle struct {
	FileZero []byte
	Files    []df1.ProgramFileBlob
}

func newUploadCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload the processor's program and data files to a local bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			dir, err := client.ReadDirectory()
			if err != nil {
				return err
			}
			fmt.Printf("found %d data files\n", len(dir))

			fileZero, files, err := client.Upload()
			if err != nil {
				return err
			}
			fmt.Printf("uploaded %d program/data files\n", len(files))

			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer f.Close()

			return gob.NewEncoder(f).Encode(uploadBundle{FileZero: fileZero, Files: files})
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "upload.bundle", "output file for the uploaded program/data files")

	return cmd
}
