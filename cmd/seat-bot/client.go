package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type tableView struct {
	TableID        string   `json:"table_id"`
	Status         string   `json:"status"`
	CurrentPlayers int      `json:"current_players"`
	Seats          []*int64 `json:"seats"`
}

type location struct {
	RoomID     string `json:"room_id"`
	TableID    string `json:"table_id"`
	SeatNumber int    `json:"seat_number"`
	State      string `json:"state"`
}

type client struct {
	base  string
	token string
	http  *http.Client
}

func newClient(base, token string) *client {
	return &client{
		base:  strings.TrimRight(base, "/"),
		token: token,
		http:  &http.Client{Timeout: 5 * time.Second},
	}
}

type apiError struct {
	Status int
	Code   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Code)
}

func (c *client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return &apiError{Status: resp.StatusCode, Code: body.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *client) enterRoom(ctx context.Context, roomID string) error {
	return c.do(ctx, http.MethodPost, "/api/rooms/"+roomID+"/enter", nil)
}

func (c *client) leaveRoom(ctx context.Context, roomID string) error {
	return c.do(ctx, http.MethodPost, "/api/rooms/"+roomID+"/leave", nil)
}

func (c *client) joinSeat(ctx context.Context, tableID string, seat int) error {
	return c.do(ctx, http.MethodPost, "/api/tables/"+tableID+"/seats/"+strconv.Itoa(seat), nil)
}

func (c *client) leaveSeat(ctx context.Context, tableID string, seat int) error {
	return c.do(ctx, http.MethodDelete, "/api/tables/"+tableID+"/seats/"+strconv.Itoa(seat), nil)
}

func (c *client) heartbeat(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/me/heartbeat", nil)
}

func (c *client) location(ctx context.Context) (location, error) {
	var loc location
	err := c.do(ctx, http.MethodGet, "/api/me/location", &loc)
	return loc, err
}

func (c *client) roomTables(ctx context.Context, roomID string) ([]tableView, error) {
	var body struct {
		Items []tableView `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "/api/rooms/"+roomID+"/tables", &body)
	return body.Items, err
}
