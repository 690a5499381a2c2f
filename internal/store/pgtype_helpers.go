package store

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

func mapNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func textParam(v string) pgtype.Text {
	if v == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: v, Valid: true}
}

func seatParam(v int) pgtype.Int4 {
	if v == 0 {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(v), Valid: true}
}

func timestamptzParam(v time.Time) pgtype.Timestamptz {
	if v.IsZero() {
		v = time.Now()
	}
	return pgtype.Timestamptz{Time: v, Valid: true}
}

func textVal(v pgtype.Text) string {
	if !v.Valid {
		return ""
	}
	return v.String
}

func seatVal(v pgtype.Int4) int {
	if !v.Valid {
		return 0
	}
	return int(v.Int32)
}

func seatsVal(v []pgtype.Int8) [SeatsPerTable]int64 {
	var out [SeatsPerTable]int64
	for i := 0; i < len(v) && i < SeatsPerTable; i++ {
		if v[i].Valid {
			out[i] = v[i].Int64
		}
	}
	return out
}
