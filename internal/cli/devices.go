package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tessro/turntable/internal/core"
	"github.com/tessro/turntable/internal/tui/styles"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available playback devices",
	Long: `Lists the Spotify devices available to your account. Playback commands
always target the first device in the list.`,
	Args: cobra.NoArgs,
	RunE: runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		devices, err := a.player.ListDevices(ctx)
		if err != nil {
			return err
		}

		if JSONOutput() {
			if devices == nil {
				devices = []core.Device{}
			}
			return json.NewEncoder(os.Stdout).Encode(devices)
		}

		if len(devices) == 0 {
			fmt.Println("No devices found. Open Spotify on a device to make it available.")
			return nil
		}
		for i, d := range devices {
			printDevice(d, i == 0)
		}
		return nil
	})
}

func printDevice(d core.Device, target bool) {
	marker := " "
	if target {
		marker = "▸"
	}
	active := ""
	if d.IsActive {
		active = " " + StatusIcon(true)
	}
	volume := ""
	if d.VolumePercent != nil {
		volume = fmt.Sprintf(" (%d%%)", *d.VolumePercent)
	}
	restricted := ""
	if d.IsRestricted {
		restricted = " [restricted]"
	}

	fmt.Printf("%s %s %s%s%s%s\n", marker, styles.DeviceIcon(string(d.Type)), d.Name, active, volume, restricted)

	if Verbose() {
		fmt.Printf("      ID: %s\n", d.ID)
		fmt.Printf("      Type: %s\n", d.Type)
	}
}
