package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"

	"github.com/flashmod/card-services/internal/cardsvc/models"
	"github.com/flashmod/card-services/internal/cardsvc/service"
)

type Handler struct {
	cards     *service.CardService
	tokenAuth *jwtauth.JWTAuth
}

func NewHandler(cards *service.CardService) *Handler {
	return &Handler{cards: cards}
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUnknownModule):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "card service is running at port " + os.Getenv("CARD_SERVICE_PORT"),
	})
}

// GET /api/{module}/cards
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	module := chi.URLParam(r, "module")

	cards, err := h.cards.List(r.Context(), module)
	if err != nil {
		h.writeJSON(w, statusFor(err), map[string]interface{}{"error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, cards)
}

// POST /api/{module}/cards
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	module := chi.URLParam(r, "module")

	var card models.Card
	if err := json.NewDecoder(r.Body).Decode(&card); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid card payload: " + err.Error()})
		return
	}

	created, err := h.cards.Create(r.Context(), module, card)
	if err != nil {
		h.writeJSON(w, statusFor(err), map[string]interface{}{"success": false, "error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "card": created})
}

// PUT /api/{module}/cards/{cardID}
func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	module := chi.URLParam(r, "module")
	cardID := chi.URLParam(r, "cardID")

	var card models.Card
	if err := json.NewDecoder(r.Body).Decode(&card); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid card payload: " + err.Error()})
		return
	}

	updated, err := h.cards.Update(r.Context(), module, cardID, card)
	if errors.Is(err, service.ErrNotFound) {
		h.writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": err.Error()})
		return
	}
	if err != nil {
		h.writeJSON(w, statusFor(err), map[string]interface{}{"success": false, "error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "card": updated})
}

// DELETE /api/{module}/cards/{cardID}
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	module := chi.URLParam(r, "module")
	cardID := chi.URLParam(r, "cardID")

	if err := h.cards.Delete(r.Context(), module, cardID); err != nil {
		h.writeJSON(w, statusFor(err), map[string]interface{}{"success": false, "error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// POST /api/{module}/reset
func (h *Handler) ResetCards(w http.ResponseWriter, r *http.Request) {
	module := chi.URLParam(r, "module")

	count, err := h.cards.Reset(r.Context(), module)
	if err != nil {
		h.writeJSON(w, statusFor(err), map[string]interface{}{"success": false, "error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "module " + module + " has been reset",
		"count":   count,
	})
}

// POST /api/{module}/import
func (h *Handler) ImportCards(w http.ResponseWriter, r *http.Request) {
	module := chi.URLParam(r, "module")

	cards, err := decodeImportBody(r.Body)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": err.Error()})
		return
	}

	count, err := h.cards.Import(r.Context(), module, cards)
	if err != nil {
		h.writeJSON(w, statusFor(err), map[string]interface{}{"success": false, "error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "count": count})
}

// decodeImportBody accepts either a bare JSON array of cards or the
// legacy {"cards": [...]} wrapper.
func decodeImportBody(body io.Reader) ([]models.Card, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	var cards []models.Card
	if err := json.Unmarshal(raw, &cards); err == nil && cards != nil {
		return cards, nil
	}

	var wrapper struct {
		Cards []models.Card `json:"cards"`
	}
	if err := json.Unmarshal(raw, &wrapper); err == nil && wrapper.Cards != nil {
		return wrapper.Cards, nil
	}
	return nil, errors.New("import payload must be a JSON array of cards")
}
