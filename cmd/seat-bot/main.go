// Command seat-bot enters a room and keeps claiming, switching and dropping
// seats at random. It is a load and smoke tool for seat-server.
package main

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/url"
	"os"
	"os/signal"
	"time"

	"arcade-seats/internal/config"
	"arcade-seats/internal/logging"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logging.Init(logCfg)
	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatal().Err(err).Msg("load bot config failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := newClient(cfg.APIURL, cfg.Token)
	if err := c.enterRoom(ctx, cfg.RoomID); err != nil {
		log.Fatal().Err(err).Str("room_id", cfg.RoomID).Msg("enter room failed")
	}
	defer func() {
		if err := c.leaveRoom(context.Background(), cfg.RoomID); err != nil {
			log.Warn().Err(err).Msg("leave room failed")
		}
	}()

	go watch(ctx, cfg.WSURL, cfg.RoomID)

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for moves := 0; cfg.Moves == 0 || moves < cfg.Moves; moves++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := step(ctx, c, rnd, cfg.RoomID); err != nil {
			log.Warn().Err(err).Msg("bot_step_failed")
		}
	}
}

func step(ctx context.Context, c *client, rnd *rand.Rand, roomID string) error {
	loc, err := c.location(ctx)
	if err != nil {
		return err
	}
	tables, err := c.roomTables(ctx, roomID)
	if err != nil {
		return err
	}
	mv := decide(rnd, tables, loc)
	log.Info().Str("move", string(mv.Kind)).Str("table_id", mv.TableID).Int("seat", mv.Seat).Msg("bot_move")
	switch mv.Kind {
	case moveJoin:
		return c.joinSeat(ctx, mv.TableID, mv.Seat)
	case moveLeave:
		return c.leaveSeat(ctx, mv.TableID, mv.Seat)
	default:
		return c.heartbeat(ctx)
	}
}

// watch logs room events until ctx is done.
func watch(ctx context.Context, wsURL, roomID string) {
	u, err := url.Parse(wsURL)
	if err != nil {
		log.Error().Err(err).Msg("bad ws url")
		return
	}
	q := u.Query()
	q.Set("room_id", roomID)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		log.Error().Err(err).Msg("ws dial failed")
		return
	}
	defer conn.Close()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var ev struct {
			EventID string `json:"event_id"`
			Event   string `json:"event"`
		}
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		log.Debug().Str("event", ev.Event).Str("event_id", ev.EventID).Msg("room_event")
	}
}
