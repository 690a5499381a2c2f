package reservation

import (
	"errors"
	"fmt"

	"arcade-seats/internal/store"
)

// Kind groups error codes by how a caller should react to them.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindInvalidInput Kind = "invalid_input"
	KindConflict     Kind = "conflict"
	KindInternal     Kind = "internal"
)

// Error is returned by every Coordinator operation. Two errors match under
// errors.Is when their codes match, so callers compare against the package
// sentinels below.
type Error struct {
	Kind Kind
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrRoomNotFound    = &Error{Kind: KindNotFound, Code: "room_not_found"}
	ErrTableNotFound   = &Error{Kind: KindNotFound, Code: "table_not_found"}
	ErrSessionNotFound = &Error{Kind: KindNotFound, Code: "session_not_found"}

	ErrInvalidSeat = &Error{Kind: KindInvalidInput, Code: "invalid_seat"}

	ErrRoomFull      = &Error{Kind: KindConflict, Code: "room_full"}
	ErrSeatOccupied  = &Error{Kind: KindConflict, Code: "seat_occupied"}
	ErrAlreadySeated = &Error{Kind: KindConflict, Code: "already_seated"}
	ErrTableBusy     = &Error{Kind: KindConflict, Code: "table_busy"}
	ErrNotSeated     = &Error{Kind: KindConflict, Code: "not_seated"}
	ErrNotInRoom     = &Error{Kind: KindConflict, Code: "not_in_room"}
	ErrTableEmpty    = &Error{Kind: KindConflict, Code: "table_empty"}

	// ErrSessionChanged means other transitions for the same user kept
	// moving its room while EnterRoom ran.
	ErrSessionChanged = &Error{Kind: KindConflict, Code: "session_changed"}

	ErrInternal = &Error{Kind: KindInternal, Code: "internal_error"}
)

// KindOf reports the kind of err. Errors that did not come from this package
// count as internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf reports the snake_case code of err, "internal_error" for foreign errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrInternal.Code
}

func internalError(op string, err error) error {
	return &Error{Kind: KindInternal, Code: ErrInternal.Code, Err: fmt.Errorf("%s: %w", op, err)}
}

// mapStoreErr translates a store sentinel into the matching coordinator
// error. notFound names which entity the call was looking up.
func mapStoreErr(op string, err error, notFound *Error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		if notFound == nil {
			return internalError(op, err)
		}
		return notFound
	case errors.Is(err, store.ErrInvalidSeat):
		return ErrInvalidSeat
	case errors.Is(err, store.ErrRoomFull):
		return ErrRoomFull
	case errors.Is(err, store.ErrSeatTaken):
		return ErrSeatOccupied
	case errors.Is(err, store.ErrAlreadySeated):
		return ErrAlreadySeated
	case errors.Is(err, store.ErrTableBusy):
		return ErrTableBusy
	case errors.Is(err, store.ErrSeatMismatch):
		return ErrNotSeated
	case errors.Is(err, store.ErrTableEmpty):
		return ErrTableEmpty
	default:
		return internalError(op, err)
	}
}
