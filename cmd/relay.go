package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/saiful3278/Screenshare-fronted/internal/relay"
)

var (
	flagPort  int
	flagDebug bool
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run the relay service that pairs sharers with viewers",
	Long: `Run the relay: a WebSocket endpoint at /ws that creates rooms and forwards
offers, answers and ICE candidates between the two members of a room, plus
/health and /api/rooms.

Examples:
  screenshare relay
  screenshare relay --port 9000`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(flagPort)
		if err != nil {
			return err
		}

		level := zerolog.InfoLevel
		if flagDebug {
			level = zerolog.DebugLevel
		}
		log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			Level(level).
			With().Timestamp().Str("service", "relay").
			Logger()

		return relay.Serve(cmd.Context(), fmt.Sprintf(":%d", cfg.Port), log, flagDebug)
	},
}

func init() {
	rootCmd.AddCommand(relayCmd)

	relayCmd.Flags().IntVarP(&flagPort, "port", "p", 0, "Port to listen on (env SCREENSHARE_PORT, default 8080)")
	relayCmd.Flags().BoolVar(&flagDebug, "debug", false, "Log every request and relay message")
}
