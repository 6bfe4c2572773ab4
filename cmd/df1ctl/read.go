package main

import (
	"fmt"

	"github.com/ab-df1/df1"
	"github.com/spf13/cobra"
)

func newReadCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "read <address>",
		Short: "Read one or more elements starting at a typed PCCC address",
		Args:  cobra.ExactArgs(1),
		Example: `  df1ctl --port /dev/ttyUSB0 read N7:0 --count 10
  df1ctl --port /dev/ttyUSB0 read F8:0 --count 4
  df1ctl --port /dev/ttyUSB0 read B3/16`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			res, err := client.Read(args[0], count)
			if err != nil {
				return err
			}

			printReadResult(res)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 1, "number of elements to read")

	return cmd
}

func printReadResult(res df1.ReadResult) {
	switch {
	case res.Floats != nil:
		for i, v := range res.Floats {
			fmt.Printf("%d: %v\n", i, v)
		}
	case res.Longs != nil:
		for i, v := range res.Longs {
			fmt.Printf("%d: %v\n", i, v)
		}
	case res.Strings != nil:
		for i, v := range res.Strings {
			fmt.Printf("%d: %q\n", i, v)
		}
	case res.Messages != nil:
		for i, v := range res.Messages {
			fmt.Printf("%d: % x\n", i, v)
		}
	case res.Bits != nil:
		for i, v := range res.Bits {
			fmt.Printf("%d: %v\n", i, v)
		}
	default:
		for i, v := range res.Ints {
			fmt.Printf("%d: %v\n", i, v)
		}
	}
}
