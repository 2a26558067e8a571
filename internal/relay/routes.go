package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Configure the websocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,

	// Sharers and viewers connect from anywhere; there is no session to protect.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWs upgrades the request and attaches a new client to hub.
func ServeWs(hub *Hub, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn().Err(err).Msg("failed to upgrade connection")
			return
		}

		id := uuid.NewString()
		client := &Client{
			ID:   id,
			Hub:  hub,
			Conn: conn,
			Send: make(chan *Message, sendBuffer),
			log:  log.With().Str("module", "relay.client").Str("client", id).Logger(),
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()
	}
}

type roomsResponse struct {
	Rooms     []RoomInfo `json:"rooms"`
	Available int        `json:"available"`
}

// NewRouter wires the relay's HTTP surface.
func NewRouter(hub *Hub, log zerolog.Logger, debug bool) *gin.Engine {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if debug {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "Relay is healthy.")
	})

	r.GET("/ws", ServeWs(hub, log))

	// Share links point here; the terminal client takes the same link.
	r.GET("/", func(c *gin.Context) {
		room := c.Query("room")
		if room == "" {
			c.String(http.StatusOK, "screenshare relay\n\nshare: screenshare share --source screen.ivf\n")
			return
		}
		c.String(http.StatusOK, "Room ID: %s\n\nwatch with: screenshare view %s\n", room, room)
	})

	api := r.Group("/api")
	api.GET("/rooms", func(c *gin.Context) {
		rooms, err := hub.Rooms(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		available := 0
		for _, room := range rooms {
			if !room.HasViewer {
				available++
			}
		}
		c.JSON(http.StatusOK, roomsResponse{Rooms: rooms, Available: available})
	})

	log.Info().Str("module", "relay.http").Msg("router setup")
	return r
}

// Serve runs a hub and its HTTP server on addr until ctx is cancelled, then
// shuts down gracefully.
func Serve(ctx context.Context, addr string, log zerolog.Logger, debug bool) error {
	hub := NewHub(log)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	srv := &http.Server{
		Addr:    addr,
		Handler: NewRouter(hub, log, debug),
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("relay started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("relay server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stopHub()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("relay shutdown: %w", err)
	}
	log.Info().Msg("relay exited gracefully")
	return nil
}
