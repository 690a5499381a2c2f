package httptransport

import (
	"net/http"

	"arcade-seats/internal/reservation"
)

// MapReservationError picks the HTTP status and error code for a
// coordinator error.
func MapReservationError(err error) (int, string) {
	code := reservation.CodeOf(err)
	switch reservation.KindOf(err) {
	case reservation.KindNotFound:
		return http.StatusNotFound, code
	case reservation.KindInvalidInput:
		return http.StatusBadRequest, code
	case reservation.KindConflict:
		return http.StatusConflict, code
	default:
		return http.StatusInternalServerError, reservation.ErrInternal.Code
	}
}

func writeReservationError(w http.ResponseWriter, op string, err error) {
	status, code := MapReservationError(err)
	metricRequestErrors.Add(op+":"+code, 1)
	WriteHTTPError(w, status, code)
}
