package main

import (
	"math/rand"
	"testing"
)

func seatPtr(v int64) *int64 { return &v }

func TestDecideSkipsPlayingAndFullTables(t *testing.T) {
	tables := []tableView{
		{TableID: "t1", Status: "playing", Seats: []*int64{seatPtr(1), nil, nil, nil}},
		{TableID: "t2", Status: "waiting", Seats: []*int64{seatPtr(2), seatPtr(3), seatPtr(4), nil}},
	}
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		mv := decide(rnd, tables, location{})
		if mv.Kind != moveJoin || mv.TableID != "t2" || mv.Seat != 4 {
			t.Fatalf("unexpected move %+v", mv)
		}
	}
}

func TestDecideHeartbeatsWhenNothingFree(t *testing.T) {
	tables := []tableView{{TableID: "t1", Status: "waiting", Seats: []*int64{seatPtr(1), seatPtr(2), seatPtr(3), seatPtr(4)}}}
	mv := decide(rand.New(rand.NewSource(1)), tables, location{})
	if mv.Kind != moveHeartbeat {
		t.Fatalf("expected heartbeat, got %+v", mv)
	}
}

func TestDecideSeatedMovesStayValid(t *testing.T) {
	tables := []tableView{{TableID: "t1", Status: "waiting", Seats: []*int64{seatPtr(9), nil, nil, nil}}}
	loc := location{TableID: "t1", SeatNumber: 1}
	rnd := rand.New(rand.NewSource(7))
	seen := map[moveKind]bool{}
	for i := 0; i < 200; i++ {
		mv := decide(rnd, tables, loc)
		seen[mv.Kind] = true
		if mv.Kind == moveLeave && (mv.TableID != "t1" || mv.Seat != 1) {
			t.Fatalf("leave must target the held seat, got %+v", mv)
		}
		if mv.Kind == moveJoin && mv.Seat == 1 {
			t.Fatalf("join must target a free seat, got %+v", mv)
		}
	}
	for _, k := range []moveKind{moveJoin, moveLeave, moveHeartbeat} {
		if !seen[k] {
			t.Fatalf("move %s never chosen", k)
		}
	}
}
