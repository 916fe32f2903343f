package families

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	familydomain "cepas/internal/domain/family"
	"cepas/internal/transport/httpserver/handler/common"
	"cepas/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

type createResponse struct {
	Message  string                  `json:"message"`
	ID       int64                   `json:"id"`
	Family   *familydomain.Aggregate `json:"family"`
	Warnings []string                `json:"warnings"`
}

type reportResponse struct {
	Message string `json:"message"`
	*familydomain.Report
}

func (h *Handlers) CreateFamily(w http.ResponseWriter, r *http.Request) {
	var payload familydomain.Payload
	if err := common.DecodeJSON(r, &payload); err != nil {
		h.log.BusinessError("families.create: invalid json", err)
		common.WriteError(w, http.StatusBadRequest, common.CodeInvalidJSON, "invalid json body", err)
		return
	}

	actor := actorName(r)
	result, err := h.Families.Create(r.Context(), actor, payload)
	if err != nil {
		common.Fail(w, h.log, "families.create", err, "actor", actor)
		return
	}

	writeCreated(w, result)
}

func (h *Handlers) GetFamily(w http.ResponseWriter, r *http.Request) {
	familyID, ok := familyIDParam(w, r)
	if !ok {
		return
	}

	aggregate, err := h.Families.Read(r.Context(), familyID)
	if err != nil {
		common.Fail(w, h.log, "families.get", err, "family_id", familyID)
		return
	}
	common.WriteJSON(w, http.StatusOK, aggregate)
}

func (h *Handlers) UpdateFamily(w http.ResponseWriter, r *http.Request) {
	familyID, ok := familyIDParam(w, r)
	if !ok {
		return
	}

	var payload familydomain.Payload
	if err := common.DecodeJSON(r, &payload); err != nil {
		h.log.BusinessError("families.update: invalid json", err, "family_id", familyID)
		common.WriteError(w, http.StatusBadRequest, common.CodeInvalidJSON, "invalid json body", err)
		return
	}

	actor := actorName(r)
	report, err := h.Families.Update(r.Context(), actor, familyID, payload)
	if err != nil {
		common.Fail(w, h.log, "families.update", err, "family_id", familyID, "actor", actor)
		return
	}
	if report.Failed() {
		h.log.Warn("families.update: partial failure", "family_id", familyID, "report", report.Sections)
	}

	common.WriteJSON(w, http.StatusOK, reportResponse{
		Message: outcomeMessage("family updated", report),
		Report:  report,
	})
}

func (h *Handlers) DeleteFamily(w http.ResponseWriter, r *http.Request) {
	familyID, ok := familyIDParam(w, r)
	if !ok {
		return
	}

	report, err := h.Families.Delete(r.Context(), familyID)
	if err != nil {
		common.Fail(w, h.log, "families.delete", err, "family_id", familyID)
		return
	}
	if report.Failed() {
		h.log.Warn("families.delete: partial failure", "family_id", familyID, "report", report.Sections)
	}

	common.WriteJSON(w, http.StatusOK, reportResponse{
		Message: outcomeMessage("family deleted", report),
		Report:  report,
	})
}

func (h *Handlers) ListFamilies(w http.ResponseWriter, r *http.Request) {
	items, err := h.Families.List(r.Context())
	if err != nil {
		common.Fail(w, h.log, "families.list", err)
		return
	}
	if items == nil {
		items = []familydomain.ListItem{}
	}
	common.WriteJSON(w, http.StatusOK, items)
}

func writeCreated(w http.ResponseWriter, result *familydomain.CreateResult) {
	response := createResponse{
		Message:  "family created",
		Family:   result.Aggregate,
		Warnings: result.Warnings,
	}
	if result.Aggregate != nil {
		response.ID = result.Aggregate.ID
	}
	if response.Warnings == nil {
		response.Warnings = []string{}
	}
	common.WriteJSON(w, http.StatusCreated, response)
}

func outcomeMessage(done string, report *familydomain.Report) string {
	if report.Failed() {
		return done + " with errors"
	}
	return done
}

func familyIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		common.WriteError(w, http.StatusBadRequest, common.CodeValidation, "invalid family id", fmt.Errorf("invalid family id %q", raw))
		return 0, false
	}
	return id, true
}

func actorName(r *http.Request) string {
	if identity, ok := middleware.IdentityFromContext(r.Context()); ok {
		return identity.Username
	}
	return ""
}
