package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

// AdminHandler serves the administrator surface: day listings, quoting,
// cancellation, and slot blocking. It shares the coordinator (and therefore
// the one overlap predicate) with the public surface.
type AdminHandler struct {
	*BookingHandler
}

func NewAdminHandler(h *BookingHandler) *AdminHandler {
	return &AdminHandler{BookingHandler: h}
}

type quoteRequest struct {
	ReservationID string  `json:"reservation_id"`
	HourlyRate    float64 `json:"hourly_rate"`
}

type quoteResponse struct {
	reservationResponse
	DefaultHourlyRate float64 `json:"default_hourly_rate"`
}

type blockRequest struct {
	Date          string  `json:"date"`
	StartTime     string  `json:"start_time"`
	DurationHours float64 `json:"duration_hours"`
}

type idRequest struct {
	ReservationID string `json:"reservation_id"`
}

func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if dateStr == "" {
		http.Error(w, "date is required", http.StatusBadRequest)
		return
	}

	reservations, err := h.coordinator.DayReservations(r.Context(), dateStr)
	if err != nil {
		h.writeError(w, err)
		return
	}
	items := make([]reservationResponse, 0, len(reservations))
	for _, res := range reservations {
		items = append(items, toReservationResponse(res))
	}
	writeJSON(w, http.StatusOK, items)
}

// Quote prices a pending request and moves it to awaiting-confirmation. A
// missing hourly_rate falls back to the time-of-day default the admin UI
// pre-fills.
func (h *AdminHandler) Quote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	id := strings.TrimSpace(req.ReservationID)
	if id == "" {
		http.Error(w, "reservation_id required", http.StatusBadRequest)
		return
	}

	existing, err := h.coordinator.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	defaultRate := h.rates.RateFor(existing.StartMinutes)
	rate := req.HourlyRate
	if rate <= 0 {
		rate = defaultRate
	}

	res, err := h.coordinator.Quote(r.Context(), id, rate)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quoteResponse{
		reservationResponse: toReservationResponse(res),
		DefaultHourlyRate:   defaultRate,
	})
}

func (h *AdminHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req idRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	id := strings.TrimSpace(req.ReservationID)
	if id == "" {
		http.Error(w, "reservation_id required", http.StatusBadRequest)
		return
	}

	res, err := h.coordinator.Cancel(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(res))
}

func (h *AdminHandler) Block(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req blockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	res, err := h.coordinator.Block(r.Context(), req.Date, req.StartTime, req.DurationHours)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReservationResponse(res))
}

func (h *AdminHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req idRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	id := strings.TrimSpace(req.ReservationID)
	if id == "" {
		http.Error(w, "reservation_id required", http.StatusBadRequest)
		return
	}

	if err := h.coordinator.Unblock(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
