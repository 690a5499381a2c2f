package main

import "math/rand"

type moveKind string

const (
	moveJoin      moveKind = "join"
	moveLeave     moveKind = "leave"
	moveHeartbeat moveKind = "heartbeat"
)

type move struct {
	Kind    moveKind
	TableID string
	Seat    int
}

// decide picks the next move. A seated bot leaves one time in four and
// otherwise switches to a random free seat or just heartbeats.
func decide(rnd *rand.Rand, tables []tableView, loc location) move {
	seated := loc.TableID != "" && loc.SeatNumber != 0
	if seated {
		switch rnd.Intn(4) {
		case 0:
			return move{Kind: moveLeave, TableID: loc.TableID, Seat: loc.SeatNumber}
		case 1:
			return move{Kind: moveHeartbeat}
		}
	}
	free := freeSeats(tables)
	if len(free) == 0 {
		return move{Kind: moveHeartbeat}
	}
	return free[rnd.Intn(len(free))]
}

func freeSeats(tables []tableView) []move {
	var out []move
	for _, t := range tables {
		if t.Status == "playing" {
			continue
		}
		for i, occ := range t.Seats {
			if occ == nil {
				out = append(out, move{Kind: moveJoin, TableID: t.TableID, Seat: i + 1})
			}
		}
	}
	return out
}
