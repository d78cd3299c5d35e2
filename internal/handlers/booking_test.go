package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/TaherAlradaei/studio-sub000/internal/booking"
	"github.com/TaherAlradaei/studio-sub000/internal/model"
	"github.com/TaherAlradaei/studio-sub000/internal/pricing"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	h := NewBookingHandler(nil, pricing.Default(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "validation error",
			err:        &model.ValidationError{Field: "start_time", Msg: "must be HH:MM"},
			wantStatus: 400,
			wantBody:   "start_time",
		},
		{
			name:       "wrapped validation error",
			err:        fmt.Errorf("submit: %w", &model.ValidationError{Field: "date", Msg: "invalid"}),
			wantStatus: 400,
			wantBody:   "date",
		},
		{
			name:       "not found",
			err:        booking.ErrNotFound,
			wantStatus: 404,
			wantBody:   "reservation not found",
		},
		{
			name:       "wrapped not found",
			err:        fmt.Errorf("quote: %w", booking.ErrNotFound),
			wantStatus: 404,
			wantBody:   "reservation not found",
		},
		{
			name:       "invalid state",
			err:        fmt.Errorf("cancel a block: %w", booking.ErrInvalidState),
			wantStatus: 409,
			wantBody:   "cancel a block",
		},
		{
			name:       "store failure",
			err:        errors.New("dial tcp: connection refused"),
			wantStatus: 503,
			wantBody:   "store unavailable",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rw := httptest.NewRecorder()
			h.writeError(rw, tc.err)
			if rw.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rw.Code, tc.wantStatus)
			}
			if !strings.Contains(rw.Body.String(), tc.wantBody) {
				t.Fatalf("body = %q, want it to contain %q", rw.Body.String(), tc.wantBody)
			}
		})
	}
}
