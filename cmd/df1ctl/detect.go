package main

import (
	"fmt"

	"github.com/ab-df1/df1"
	"github.com/spf13/cobra"
)

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Sweep baud/parity/checksum combinations to find a link the processor answers on",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig()
			if err != nil {
				return err
			}

			events := &detectPrinter{}
			client, err := df1.NewClient(cfg, events)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.AutoDetect(); err != nil {
				return err
			}

			fmt.Printf("found a responding link at %d baud, parity=%v, checksum=%v\n",
				cfg.Baud, cfg.Parity, cfg.Checksum)
			return nil
		},
	}
}

// detectPrinter implements df1.Events, printing only the AutoDetectTry
// progress the detect subcommand cares about.
type detectPrinter struct {
	df1.NoopEvents
}

func (*detectPrinter) AutoDetectTry(baud uint, parity df1.Parity, checksum df1.ChecksumKind) {
	fmt.Printf("trying %d baud, parity=%v, checksum=%v...\n", baud, parity, checksum)
}
