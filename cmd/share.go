package cmd

import (
	"github.com/spf13/cobra"

	"github.com/saiful3278/Screenshare-fronted/internal/capture"
	"github.com/saiful3278/Screenshare-fronted/internal/session"
)

var (
	flagSource string
	flagLoop   bool
)

var shareCmd = &cobra.Command{
	Use:     "share",
	Aliases: []string{"s"},
	Short:   "Open a room and share your screen",
	Long: `Open a room on the relay and stream a screen capture to the first viewer
that joins. The capture is read from an IVF recording (VP8, VP9 or AV1).

Examples:
  screenshare share --source screen.ivf
  screenshare share --source demo.ivf --loop
  screenshare share --relay wss://relay.example.com/ws --source screen.ivf`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(0)
		if err != nil {
			return err
		}

		var capturer capture.Capturer = capture.Unavailable
		if flagSource != "" {
			capturer = &capture.IVFCapturer{Path: flagSource, Loop: flagLoop}
		}

		return RunSession(cmd.Context(), cfg, SessionOptions{
			Capturer: capturer,
			Start:    session.ShareRequested{},
		})
	},
}

func init() {
	rootCmd.AddCommand(shareCmd)

	shareCmd.Flags().StringVarP(&flagSource, "source", "f", "", "IVF file to use as the screen capture")
	shareCmd.Flags().BoolVarP(&flagLoop, "loop", "l", false, "Restart the capture when the file ends")
}
