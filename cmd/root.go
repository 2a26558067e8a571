package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/saiful3278/Screenshare-fronted/internal/config"
	"github.com/saiful3278/Screenshare-fronted/internal/ui"
	"github.com/saiful3278/Screenshare-fronted/internal/version"
)

var (
	flagRelayURL   string
	flagShareBase  string
	flagSTUN       string
	flagConfigFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "screenshare",
	Short: "Share your screen with one viewer over WebRTC",
	Long: `screenshare streams a screen capture to a single viewer over a direct WebRTC
connection. A small relay service pairs the two sides by room id and forwards
the negotiation messages; video never passes through it.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError(err.Error())
		stop()
		os.Exit(1)
	}
}

// loadConfig merges the persistent flags over env, file and defaults.
func loadConfig(port int) (*config.Config, error) {
	cfg, err := config.Load(config.Options{
		RelayURL:   flagRelayURL,
		ShareBase:  flagShareBase,
		STUNServer: flagSTUN,
		Port:       port,
		ConfigFile: flagConfigFile,
	})
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagRelayURL, "relay", "", "Relay WebSocket URL (env SCREENSHARE_RELAY_URL)")
	pf.StringVar(&flagShareBase, "share-base", "", "Base URL of share links (env SCREENSHARE_SHARE_BASE)")
	pf.StringVar(&flagSTUN, "stun", "", "STUN server (env SCREENSHARE_STUN_SERVER)")
	pf.StringVar(&flagConfigFile, "config", "", "Config file (default ./screenshare.yaml)")
}
