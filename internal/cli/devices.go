// ABOUTME: Devices command
// ABOUTME: Lists capture devices and loopback support
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sessioncast/audiograph/pkg/audio/source"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available capture devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := source.ListCaptureDevices()
		if err != nil {
			return err
		}
		if len(devices) == 0 {
			fmt.Println("No capture devices found")
		}
		for _, d := range devices {
			marker := " "
			if d.IsDefault {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, d.Name)
		}
		if source.SystemAudioSupported() {
			fmt.Println("\nSystem audio loopback: supported")
		} else {
			fmt.Println("\nSystem audio loopback: not supported on this platform")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
