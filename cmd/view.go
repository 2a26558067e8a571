package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saiful3278/Screenshare-fronted/internal/config"
	"github.com/saiful3278/Screenshare-fronted/internal/media"
	"github.com/saiful3278/Screenshare-fronted/internal/session"
)

var flagRecord string

var viewCmd = &cobra.Command{
	Use:     "view <room-id|link>",
	Aliases: []string{"v"},
	Short:   "Watch a shared screen",
	Long: `Join a room and watch the sharer's screen. The video can be saved to an IVF
file while it plays.

Examples:
  screenshare view sleepy-otter-comet
  screenshare view "http://localhost:8080/?room=sleepy-otter-comet"
  screenshare view sleepy-otter-comet --record session.ivf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		room := config.ParseRoom(args[0])
		if room == "" {
			return fmt.Errorf("invalid room: %q", args[0])
		}

		cfg, err := loadConfig(0)
		if err != nil {
			return err
		}

		var sinks media.SinkFactory
		if flagRecord != "" {
			sinks = media.IVFRecorder(flagRecord)
		}

		return RunSession(cmd.Context(), cfg, SessionOptions{
			Surface: media.NewSurface(sinks),
			Start:   session.ViewRequested{RoomID: room},
		})
	},
}

func init() {
	rootCmd.AddCommand(viewCmd)

	viewCmd.Flags().StringVarP(&flagRecord, "record", "o", "", "Save the received video to this IVF file")
}
