package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/saiful3278/Screenshare-fronted/internal/relay"
	"github.com/saiful3278/Screenshare-fronted/internal/ui"
)

const roomsTimeout = 10 * time.Second

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List the rooms open on the relay",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(0)
		if err != nil {
			return err
		}

		stopSpinner := ui.RunConnectionSpinner("Fetching rooms...")
		rooms, err := fetchRooms(cmd.Context(), cfg.RelayHTTPURL()+"/api/rooms")
		stopSpinner()
		if err != nil {
			return err
		}

		rows := make([]ui.RoomRow, len(rooms))
		for i, r := range rooms {
			rows[i] = ui.RoomRow{ID: r.ID, HasViewer: r.HasViewer, Created: r.Created}
		}
		ui.RenderRooms(os.Stdout, rows, time.Now())
		return nil
	},
}

func fetchRooms(ctx context.Context, endpoint string) ([]relay.RoomInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, roomsTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rooms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rooms: relay answered %s", resp.Status)
	}

	var body struct {
		Rooms []relay.RoomInfo `json:"rooms"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	return body.Rooms, nil
}

func init() {
	rootCmd.AddCommand(roomsCmd)
}
