package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-soundscape/pkg/space"
	"github.com/teslashibe/go-soundscape/pkg/spatial"
)

func newPerceiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "perceive",
		Short: "Print the configured scene as heard from a listener pose",
		Long: `perceive transforms the configured scene into the frame of a listener
and prints the resulting spatial objects as JSON.

Angles are in degrees. Flags that are not set fall back to the listener
in the config file.`,
		Example: `  soundscape perceive --yaw 90
  soundscape perceive --location 0,0,1.7 --pitch -10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			listener := cfg.ListenerModel()
			l := cfg.Listener
			flags := cmd.Flags()

			if flags.Changed("location") {
				loc, _ := flags.GetFloat64Slice("location")
				if len(loc) != 3 {
					return fmt.Errorf("--location needs 3 values, got %d", len(loc))
				}
				listener = listener.WithLocation(space.Point3{loc[0], loc[1], loc[2]})
			}
			if flags.Changed("roll") || flags.Changed("pitch") || flags.Changed("yaw") {
				if flags.Changed("roll") {
					l.Roll, _ = flags.GetFloat64("roll")
				}
				if flags.Changed("pitch") {
					l.Pitch, _ = flags.GetFloat64("pitch")
				}
				if flags.Changed("yaw") {
					l.Yaw, _ = flags.GetFloat64("yaw")
				}
				listener = listener.WithOrientation(space.FromEuler(
					space.Radians(l.Roll), space.Radians(l.Pitch), space.Radians(l.Yaw),
				))
			}

			perceived := listener.PerceivedScene(cfg.SceneModel())
			return printObjects(cmd, perceived)
		},
	}

	cmd.Flags().Float64Slice("location", nil, "Listener location x,y,z")
	cmd.Flags().Float64("roll", 0, "Listener roll in degrees")
	cmd.Flags().Float64("pitch", 0, "Listener pitch in degrees")
	cmd.Flags().Float64("yaw", 0, "Listener yaw in degrees")
	return cmd
}

func printObjects(cmd *cobra.Command, scene spatial.Scene) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(scene.SpatialObjects())
}
