// Command df1ctl is a command-line client for the Allen-Bradley DF1/DH485
// protocol stack implemented by the df1 package.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "df1ctl",
		Short:         "Talk DF1/DH485 to an SLC 500 or MicroLogix processor",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&globalFlags.configPath, "config", "", "YAML connection profile (see LoadConfigFile)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.port, "port", "", "serial port device (overrides --config)")
	rootCmd.PersistentFlags().UintVar(&globalFlags.baud, "baud", 0, "baud rate (overrides --config)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.parity, "parity", "", "parity <none|even|odd> (overrides --config)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.protocol, "protocol", "", "protocol <DF1|DH485> (overrides --config)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.checksum, "checksum", "", "checksum <BCC|CRC> (overrides --config)")
	rootCmd.PersistentFlags().Uint8Var(&globalFlags.myNode, "my-node", 0, "my node id (overrides --config)")
	rootCmd.PersistentFlags().Uint8Var(&globalFlags.targetNode, "target-node", 1, "target node id (overrides --config)")

	rootCmd.AddCommand(newReadCmd())
	rootCmd.AddCommand(newWriteCmd())
	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newDownloadCmd())
	rootCmd.AddCommand(newDetectCmd())
	rootCmd.AddCommand(newDumpCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// commonFlags holds the connection settings shared by every subcommand via
// persistent flags, layered on top of an optional --config YAML profile.
type commonFlags struct {
	configPath string
	port       string
	baud       uint
	parity     string
	protocol   string
	checksum   string
	myNode     uint8
	targetNode uint8
}

var globalFlags commonFlags
