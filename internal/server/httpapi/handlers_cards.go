package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/flippy/internal/common"
)

func (h *handler) listCardGroups(w http.ResponseWriter, r *http.Request) {
	s, _ := sessionFrom(r.Context())

	groups, err := h.deps.Cards.ListCardGroups(r.Context(), s.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(r.Context(), h.log, w, http.StatusOK, map[string]any{"groups": newCardGroupDTOs(groups)})
}

func (h *handler) createCardGroup(w http.ResponseWriter, r *http.Request) {
	s, _ := sessionFrom(r.Context())

	var req createCardGroupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), h.log, w, http.StatusBadRequest, bodyErrorMessage(err))
		return
	}

	res, err := h.deps.Cards.CreateCardGroup(r.Context(), s.UserID, req.Name, req.Description, draftsFromDTO(req.Cards))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(r.Context(), h.log, w, http.StatusOK, map[string]any{
		"message":           "Card group created successfully",
		"groupId":           res.GroupID,
		"cardsCreated":      res.CardsCreated,
		"remainingApiCalls": res.RemainingAPICalls,
	})
}

func (h *handler) generateExplanation(w http.ResponseWriter, r *http.Request) {
	s, _ := sessionFrom(r.Context())

	var req generateExplanationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), h.log, w, http.StatusBadRequest, bodyErrorMessage(err))
		return
	}
	if req.CardID <= 0 {
		respondError(r.Context(), h.log, w, http.StatusBadRequest, "Card ID is required")
		return
	}

	res, err := h.deps.Cards.GenerateExplanation(r.Context(), s.UserID, req.CardID, req.Difficulty)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			respondError(r.Context(), h.log, w, http.StatusNotFound, "Card not found or access denied")
			return
		}
		h.fail(w, r, err)
		return
	}

	respondJSON(r.Context(), h.log, w, http.StatusOK, map[string]any{
		"success":     true,
		"explanation": res.Explanation,
		"difficulty":  res.Difficulty,
		"cardId":      res.CardID,
	})
}

func (h *handler) generateCards(w http.ResponseWriter, r *http.Request) {
	s, _ := sessionFrom(r.Context())

	var req generateCardsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), h.log, w, http.StatusBadRequest, bodyErrorMessage(err))
		return
	}

	drafts, err := h.deps.Cards.GenerateCards(r.Context(), s.UserID, req.SourceText)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(r.Context(), h.log, w, http.StatusOK, map[string]any{"cards": draftsToDTO(drafts)})
}
