package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	dumpHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7"))
	dumpRowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#c0caf5"))
)

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print the processor's data-file directory as a table",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			descriptors, err := client.ReadDirectory()
			if err != nil {
				return err
			}

			fmt.Println(dumpHeaderStyle.Render(fmt.Sprintf("%-6s %-6s %-10s", "TYPE", "FILE#", "ELEMENTS")))
			for _, d := range descriptors {
				fmt.Println(dumpRowStyle.Render(fmt.Sprintf("%-6s %-6d %-10d", d.FileTypeTag, d.FileNumber, d.ElementCount)))
			}

			return nil
		},
	}
}
