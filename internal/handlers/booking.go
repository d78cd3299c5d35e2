package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/TaherAlradaei/studio-sub000/internal/booking"
	"github.com/TaherAlradaei/studio-sub000/internal/model"
	"github.com/TaherAlradaei/studio-sub000/internal/pricing"
)

// BookingHandler serves the public booking surface: the slot picker, request
// submission, and the customer side of the acceptance protocol.
type BookingHandler struct {
	coordinator *booking.Coordinator
	rates       pricing.RateTable
	logger      *slog.Logger
}

func NewBookingHandler(coordinator *booking.Coordinator, rates pricing.RateTable, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{
		coordinator: coordinator,
		rates:       rates,
		logger:      logger,
	}
}

type submitRequest struct {
	OwnerID       string  `json:"owner_id"`
	DisplayName   string  `json:"display_name"`
	ContactPhone  string  `json:"contact_phone"`
	Date          string  `json:"date"`
	StartTime     string  `json:"start_time"`
	DurationHours float64 `json:"duration_hours"`
}

type reservationResponse struct {
	ReservationID   string   `json:"reservation_id"`
	OwnerID         string   `json:"owner_id"`
	DisplayName     string   `json:"display_name,omitempty"`
	Date            string   `json:"date"`
	StartTime       string   `json:"start_time"`
	DurationMinutes int      `json:"duration_minutes"`
	Status          string   `json:"status"`
	Price           *float64 `json:"price,omitempty"`
}

type slotItem struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type acceptRequest struct {
	ReservationID string `json:"reservation_id"`
}

type acceptResponse struct {
	ReservationID string `json:"reservation_id"`
	Result        string `json:"result"`
}

func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if dateStr == "" {
		http.Error(w, "date is required", http.StatusBadRequest)
		return
	}
	durationHours := 1.0
	if raw := strings.TrimSpace(r.URL.Query().Get("duration_hours")); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			http.Error(w, "invalid duration_hours", http.StatusBadRequest)
			return
		}
		durationHours = f
	}

	starts, err := h.coordinator.AvailableSlots(r.Context(), dateStr, durationHours, time.Now().UTC())
	if err != nil {
		h.writeError(w, err)
		return
	}

	duration, _ := model.DurationToMinutes(durationHours)
	items := make([]slotItem, 0, len(starts))
	for _, s := range starts {
		startMinutes, _ := model.ParseClock(s)
		items = append(items, slotItem{
			StartTime: s,
			EndTime:   model.FormatClock(startMinutes + duration),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *BookingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	res, err := h.coordinator.Submit(r.Context(), booking.SubmitInput{
		OwnerID:       strings.TrimSpace(req.OwnerID),
		DisplayName:   strings.TrimSpace(req.DisplayName),
		ContactPhone:  strings.TrimSpace(req.ContactPhone),
		Date:          req.Date,
		StartTime:     req.StartTime,
		DurationHours: req.DurationHours,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReservationResponse(res))
}

func (h *BookingHandler) Accept(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req acceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	id := strings.TrimSpace(req.ReservationID)
	if id == "" {
		http.Error(w, "reservation_id required", http.StatusBadRequest)
		return
	}

	result, err := h.coordinator.Accept(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	status := http.StatusOK
	if result == booking.SlotTaken {
		// The caller should send the customer back to the slot picker.
		status = http.StatusConflict
	}
	writeJSON(w, status, acceptResponse{ReservationID: id, Result: result.String()})
}

func (h *BookingHandler) Decline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req acceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	id := strings.TrimSpace(req.ReservationID)
	if id == "" {
		http.Error(w, "reservation_id required", http.StatusBadRequest)
		return
	}

	res, err := h.coordinator.Decline(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(res))
}

func (h *BookingHandler) writeError(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, booking.ErrNotFound):
		http.Error(w, "reservation not found", http.StatusNotFound)
	case errors.Is(err, booking.ErrInvalidState):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("store error", "err", err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
	}
}

func toReservationResponse(res model.Reservation) reservationResponse {
	return reservationResponse{
		ReservationID:   res.ID,
		OwnerID:         res.OwnerID,
		DisplayName:     res.DisplayName,
		Date:            res.Date.Format("2006-01-02"),
		StartTime:       res.StartClock(),
		DurationMinutes: res.DurationMinutes,
		Status:          res.Status.String(),
		Price:           res.Price,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
