package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"aircnc/internal/app"
	"aircnc/internal/domain"
)

const maxBody = 1 << 20

type Handlers struct {
	Tokens   domain.TokenService
	Rooms    *app.RoomService
	Users    *app.UserService
	Bookings *app.BookingService
	Payments *app.PaymentService

	// Strict puts owner checks in front of room edits, deletion, status changes and booking writes.
	Strict    bool
	JWTPerMin int
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	gate := &Gate{Tokens: h.Tokens, Users: h.Users}
	bearer := gate.RequireBearer
	limiter := NewIPLimiter(h.JWTPerMin)

	// open routes become bearer + owner routes in strict mode
	strict := func(mw ...func(http.Handler) http.Handler) chi.Middlewares {
		if !h.Strict {
			return nil
		}
		return append(chi.Middlewares{bearer}, mw...)
	}
	roomOwner := RequireOwner("id", h.Rooms.OwnedBy)
	bookingGuest := RequireOwner("id", h.Bookings.BookedBy)
	// edits always need a token; strict mode also needs the room's host
	editGate := chi.Middlewares{bearer}
	if h.Strict {
		editGate = append(editGate, RequireOwner("id", h.Rooms.EditableBy))
	}

	m := s.mux
	m.Get("/", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("Server is busy")) })
	m.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	m.With(limiter.Middleware).Post("/jwt", h.issueToken)
	m.With(bearer).Post("/create-payment-intent", h.createPaymentIntent)

	m.Put("/users/{email}", h.putUser)
	m.Get("/users/{email}", h.getUser)

	m.Get("/rooms", h.listRooms)
	m.Get("/rooms/{id}", h.getRoom)
	m.With(bearer, gate.RequireHost).Post("/rooms", h.createRoom)
	m.With(editGate...).Put("/rooms/{id}", h.putRoom)
	m.With(bearer, RequireSelf("email")).Get("/rooms/host/{email}", h.listHostRooms)
	m.With(strict(roomOwner)...).Delete("/rooms/{id}", h.deleteRoom)
	m.With(strict(roomOwner)...).Patch("/rooms/status/{id}", h.setRoomStatus)

	m.With(strict()...).Post("/bookings", h.createBooking)
	m.Get("/bookings/{email}", h.listGuestBookings)
	m.With(bearer, RequireSelf("email")).Get("/bookings/host/{email}", h.listHostBookings)
	m.With(strict(bookingGuest)...).Delete("/bookings/{id}", h.deleteBooking)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain errors onto status codes. Processor 400/402 answers
// are the caller's fault (422); every other processor failure is a 502.
func writeError(w http.ResponseWriter, err error) {
	var ue *domain.UpstreamError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		writeUnauthorized(w, "invalid_token")
	case errors.Is(err, domain.ErrForbidden):
		writeForbidden(w, "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.As(err, &ue) && (ue.Status == http.StatusBadRequest || ue.Status == http.StatusPaymentRequired):
		writeProblem(w, http.StatusUnprocessableEntity, "Payment Rejected", ue.Err.Error())
	case errors.Is(err, domain.ErrUpstream):
		log.Error().Err(err).Msg("upstream failure")
		writeProblem(w, http.StatusBadGateway, "Bad Gateway", "payment processor unavailable")
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("malformed body: %v: %w", err, domain.ErrInvalidRequest)
	}
	return nil
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}

// writeCacheable answers 304 when the client already holds the current representation.
func writeCacheable(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	w.Header().Set("ETag", etag)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(append(body, '\n')); err != nil {
		log.Error().Err(err).Msg("failed to write body")
	}
}

// ---- tokens & payments ----

func (h *Handlers) issueToken(w http.ResponseWriter, r *http.Request) {
	var in domain.Claim
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	tok, err := h.Tokens.Issue(domain.Claim{Email: strings.TrimSpace(in.Email)})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": tok})
}

func (h *Handlers) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Price json.Number `json:"price"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	secret, err := h.Payments.CreateIntent(r.Context(), in.Price)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"clientSecret": secret})
}

// ---- users ----

func (h *Handlers) putUser(w http.ResponseWriter, r *http.Request) {
	var u domain.User
	if err := decodeJSON(w, r, &u); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.Users.Upsert(r.Context(), chi.URLParam(r, "email"), u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.Users.Get(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ---- rooms ----

func (h *Handlers) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Rooms.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeCacheable(w, r, rooms)
}

func (h *Handlers) getRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.Rooms.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if room == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeCacheable(w, r, room)
}

func (h *Handlers) createRoom(w http.ResponseWriter, r *http.Request) {
	var room domain.Room
	if err := decodeJSON(w, r, &room); err != nil {
		writeError(w, err)
		return
	}
	c, _ := ClaimFromContext(r.Context())
	res, err := h.Rooms.Create(r.Context(), c.Email, room)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) putRoom(w http.ResponseWriter, r *http.Request) {
	var room domain.Room
	if err := decodeJSON(w, r, &room); err != nil {
		writeError(w, err)
		return
	}
	c, _ := ClaimFromContext(r.Context())
	res, err := h.Rooms.Upsert(r.Context(), c.Email, chi.URLParam(r, "id"), room)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) listHostRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Rooms.ListByHost(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *Handlers) deleteRoom(w http.ResponseWriter, r *http.Request) {
	res, err := h.Rooms.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) setRoomStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status *bool `json:"status"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	if in.Status == nil {
		writeError(w, fmt.Errorf("status is required: %w", domain.ErrInvalidRequest))
		return
	}
	res, err := h.Rooms.SetStatus(r.Context(), chi.URLParam(r, "id"), *in.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ---- bookings ----

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var b domain.Booking
	if err := decodeJSON(w, r, &b); err != nil {
		writeError(w, err)
		return
	}
	if h.Strict {
		c, _ := ClaimFromContext(r.Context())
		if !strings.EqualFold(b.Guest.Email, c.Email) {
			writeForbidden(w, "not_self")
			return
		}
	}
	res, err := h.Bookings.Create(r.Context(), b)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) listGuestBookings(w http.ResponseWriter, r *http.Request) {
	bs, err := h.Bookings.ListByGuest(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bs)
}

func (h *Handlers) listHostBookings(w http.ResponseWriter, r *http.Request) {
	bs, err := h.Bookings.ListByHost(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bs)
}

func (h *Handlers) deleteBooking(w http.ResponseWriter, r *http.Request) {
	res, err := h.Bookings.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
