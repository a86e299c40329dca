package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/room-reservation/internal/application"
	"github.com/example/room-reservation/internal/lifecycle"
)

type reservationService interface {
	CreateReservation(ctx context.Context, params application.CreateReservationParams) (application.Reservation, error)
	UpdateReservation(ctx context.Context, params application.UpdateReservationParams) (application.UpdateReservationResult, error)
	ApproveReservation(ctx context.Context, principal application.Principal, reservationID string) (application.Reservation, error)
	RejectReservation(ctx context.Context, params application.RejectReservationParams) (application.Reservation, error)
	CancelReservation(ctx context.Context, params application.CancelReservationParams) (application.Reservation, error)
	CheckInReservation(ctx context.Context, principal application.Principal, reservationID string) (application.Reservation, error)
	MarkNoShow(ctx context.Context, principal application.Principal, reservationID string) (application.Reservation, error)
	ConfirmCompletion(ctx context.Context, principal application.Principal, reservationID string) (application.Reservation, error)
	GetReservation(ctx context.Context, principal application.Principal, reservationID string) (application.Reservation, error)
	ListReservations(ctx context.Context, params application.ListReservationsParams) ([]application.Reservation, error)
	ListPendingApprovals(ctx context.Context, principal application.Principal) ([]application.Reservation, error)
	ListUpcoming(ctx context.Context, principal application.Principal, hours int) ([]application.Reservation, error)
}

// ReservationHandler serves the reservation lifecycle endpoints.
type ReservationHandler struct {
	service   reservationService
	responder responder
}

// NewReservationHandler constructs a reservation handler.
func NewReservationHandler(service reservationService, logger *slog.Logger) *ReservationHandler {
	return &ReservationHandler{service: service, responder: newResponder(defaultLogger(logger))}
}

type createReservationRequest struct {
	RoomID         string `json:"room_id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Start          string `json:"start"`
	End            string `json:"end"`
	AttendeesCount int    `json:"attendees_count"`
	CoffeeBreak    *bool  `json:"coffee_break"`
}

func (r createReservationRequest) toInput() application.ReservationInput {
	return application.ReservationInput{
		RoomID:         strings.TrimSpace(r.RoomID),
		Title:          strings.TrimSpace(r.Title),
		Description:    r.Description,
		Start:          parseTimestamp(r.Start),
		End:            parseTimestamp(r.End),
		AttendeesCount: r.AttendeesCount,
		CoffeeBreak:    r.CoffeeBreak,
	}
}

type updateReservationRequest struct {
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	Start          *string `json:"start"`
	End            *string `json:"end"`
	AttendeesCount *int    `json:"attendees_count"`
	CoffeeBreak    *bool   `json:"coffee_break"`
}

func (r updateReservationRequest) toPatch() application.ReservationPatch {
	patch := application.ReservationPatch{
		Title:          r.Title,
		Description:    r.Description,
		AttendeesCount: r.AttendeesCount,
		CoffeeBreak:    r.CoffeeBreak,
	}
	if r.Start != nil {
		start := parseTimestamp(*r.Start)
		patch.Start = &start
	}
	if r.End != nil {
		end := parseTimestamp(*r.End)
		patch.End = &end
	}
	return patch
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type reservationDTO struct {
	ID                    string  `json:"id"`
	RoomID                string  `json:"room_id"`
	OrganizerID           string  `json:"organizer_id"`
	Title                 string  `json:"title"`
	Description           string  `json:"description,omitempty"`
	Start                 string  `json:"start"`
	End                   string  `json:"end"`
	AttendeesCount        int     `json:"attendees_count"`
	CoffeeBreak           string  `json:"coffee_break"`
	Status                string  `json:"status"`
	ApproverID            *string `json:"approver_id,omitempty"`
	ApprovedAt            *string `json:"approved_at,omitempty"`
	RejectionReason       *string `json:"rejection_reason,omitempty"`
	CheckedIn             bool    `json:"checked_in"`
	CheckedInAt           *string `json:"checked_in_at,omitempty"`
	NoShow                bool    `json:"no_show"`
	CompletionConfirmed   bool    `json:"completion_confirmed"`
	CompletionConfirmedAt *string `json:"completion_confirmed_at,omitempty"`
	CreatedAt             string  `json:"created_at"`
	UpdatedAt             string  `json:"updated_at"`
}

type reservationResponse struct {
	Reservation        reservationDTO `json:"reservation"`
	RequiresReapproval bool           `json:"requires_reapproval,omitempty"`
}

type listReservationsResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatOptionalTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := formatTimestamp(*t)
	return &formatted
}

func toReservationDTO(reservation application.Reservation) reservationDTO {
	return reservationDTO{
		ID:                    reservation.ID,
		RoomID:                reservation.RoomID,
		OrganizerID:           reservation.OrganizerID,
		Title:                 reservation.Title,
		Description:           reservation.Description,
		Start:                 formatTimestamp(reservation.Start),
		End:                   formatTimestamp(reservation.End),
		AttendeesCount:        reservation.AttendeesCount,
		CoffeeBreak:           string(reservation.CoffeeBreak),
		Status:                string(reservation.Status),
		ApproverID:            reservation.ApproverID,
		ApprovedAt:            formatOptionalTimestamp(reservation.ApprovedAt),
		RejectionReason:       reservation.RejectionReason,
		CheckedIn:             reservation.CheckedIn,
		CheckedInAt:           formatOptionalTimestamp(reservation.CheckedInAt),
		NoShow:                reservation.NoShow,
		CompletionConfirmed:   reservation.CompletionConfirmed,
		CompletionConfirmedAt: formatOptionalTimestamp(reservation.CompletionConfirmedAt),
		CreatedAt:             formatTimestamp(reservation.CreatedAt),
		UpdatedAt:             formatTimestamp(reservation.UpdatedAt),
	}
}

func toReservationDTOs(reservations []application.Reservation) []reservationDTO {
	out := make([]reservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		out = append(out, toReservationDTO(reservation))
	}
	return out
}

// Create registers a new reservation in pending status.
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	reservation, err := h.service.CreateReservation(r.Context(), application.CreateReservationParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reservationResponse{
		Reservation: toReservationDTO(reservation),
	})
}

// Update applies a partial update to a reservation.
func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	var req updateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	result, err := h.service.UpdateReservation(r.Context(), application.UpdateReservationParams{
		Principal:     principal,
		ReservationID: reservationID,
		Patch:         req.toPatch(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{
		Reservation:        toReservationDTO(result.Reservation),
		RequiresReapproval: result.RequiresReapproval,
	})
}

// Get returns a single reservation.
func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	reservation, err := h.service.GetReservation(r.Context(), principal, reservationID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{
		Reservation: toReservationDTO(reservation),
	})
}

// List enumerates reservations visible to the caller.
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	reservations, err := h.service.ListReservations(r.Context(), buildListParams(r.URL.Query(), principal))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{
		Reservations: toReservationDTOs(reservations),
	})
}

func buildListParams(query url.Values, principal application.Principal) application.ListReservationsParams {
	params := application.ListReservationsParams{
		Principal:   principal,
		RoomID:      strings.TrimSpace(query.Get("room_id")),
		OrganizerID: strings.TrimSpace(query.Get("organizer_id")),
		Status:      lifecycle.Status(strings.TrimSpace(query.Get("status"))),
	}
	if from := parseTimestamp(query.Get("from")); !from.IsZero() {
		params.StartsAfter = &from
	}
	if to := parseTimestamp(query.Get("to")); !to.IsZero() {
		params.EndsBefore = &to
	}
	if raw := query.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			params.Limit = limit
		}
	}
	return params
}

// PendingApprovals returns reservations awaiting a decision.
func (h *ReservationHandler) PendingApprovals(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	reservations, err := h.service.ListPendingApprovals(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{
		Reservations: toReservationDTOs(reservations),
	})
}

// Upcoming returns approved reservations starting soon. The optional hours
// query parameter bounds the window, defaulting to 24.
func (h *ReservationHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	hours := 0
	if raw := r.URL.Query().Get("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}
		hours = parsed
	}

	principal, _ := PrincipalFromContext(r.Context())
	reservations, err := h.service.ListUpcoming(r.Context(), principal, hours)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{
		Reservations: toReservationDTOs(reservations),
	})
}

// Action dispatches the lifecycle sub-resource endpoints: approve, reject,
// cancel, checkin, noshow, complete.
func (h *ReservationHandler) Action(w http.ResponseWriter, r *http.Request, action string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var reservation application.Reservation
	var err error
	switch action {
	case "approve":
		reservation, err = h.service.ApproveReservation(r.Context(), principal, reservationID)
	case "reject":
		var req reasonRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}
		reservation, err = h.service.RejectReservation(r.Context(), application.RejectReservationParams{
			Principal:     principal,
			ReservationID: reservationID,
			Reason:        req.Reason,
		})
	case "cancel":
		var req reasonRequest
		// The cancellation reason is optional; an empty body is fine.
		_ = json.NewDecoder(r.Body).Decode(&req)
		reservation, err = h.service.CancelReservation(r.Context(), application.CancelReservationParams{
			Principal:     principal,
			ReservationID: reservationID,
			Reason:        req.Reason,
		})
	case "checkin":
		reservation, err = h.service.CheckInReservation(r.Context(), principal, reservationID)
	case "noshow":
		reservation, err = h.service.MarkNoShow(r.Context(), principal, reservationID)
	case "complete":
		reservation, err = h.service.ConfirmCompletion(r.Context(), principal, reservationID)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{
		Reservation: toReservationDTO(reservation),
	})
}
