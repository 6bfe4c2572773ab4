package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newWriteCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "write <address> <value>[,<value>...]",
		Short: "Write one or more values to a typed PCCC address",
		Args:  cobra.ExactArgs(2),
		Example: `  df1ctl --port /dev/ttyUSB0 write N7:0 42
  df1ctl --port /dev/ttyUSB0 write F8:0 --type float 3.14
  df1ctl --port /dev/ttyUSB0 write ST9:0 --type string "HELLO"
  df1ctl --port /dev/ttyUSB0 write B3:5/4 --type bit true`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			addr, raw := args[0], args[1]

			switch kind {
			case "int":
				values, err := parseInts(raw)
				if err != nil {
					return err
				}
				return client.WriteInts(addr, values)

			case "float":
				values, err := parseFloats(raw)
				if err != nil {
					return err
				}
				return client.WriteFloats(addr, values)

			case "long":
				values, err := parseLongs(raw)
				if err != nil {
					return err
				}
				return client.WriteLongs(addr, values)

			case "string":
				return client.WriteString(addr, raw)

			case "bit":
				v, err := strconv.ParseBool(raw)
				if err != nil {
					return fmt.Errorf("parse bit value %q: %w", raw, err)
				}
				return client.WriteBit(addr, v)

			default:
				return fmt.Errorf("unknown --type %q (want int|float|long|string|bit)", kind)
			}
		},
	}

	cmd.Flags().StringVar(&kind, "type", "int", "value type: int|float|long|string|bit")

	return cmd
}

func parseInts(raw string) ([]int16, error) {
	var out []int16
	for _, s := range strings.Split(raw, ",") {
		v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("parse int %q: %w", s, err)
		}
		out = append(out, int16(v))
	}
	return out, nil
}

func parseLongs(raw string) ([]int32, error) {
	var out []int32
	for _, s := range strings.Split(raw, ",") {
		v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parse long %q: %w", s, err)
		}
		out = append(out, int32(v))
	}
	return out, nil
}

func parseFloats(raw string) ([]float32, error) {
	var out []float32
	for _, s := range strings.Split(raw, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
		if err != nil {
			return nil, fmt.Errorf("parse float %q: %w", s, err)
		}
		out = append(out, float32(v))
	}
	return out, nil
}
