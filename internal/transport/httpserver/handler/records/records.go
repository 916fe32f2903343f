package records

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	recordsdomain "cepas/internal/domain/records"
	"cepas/internal/transport/httpserver/handler/common"
	"github.com/go-chi/chi/v5"
)

type insertResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

type affectedResponse struct {
	Message  string `json:"message"`
	Affected int64  `json:"rowsAffected"`
}

// Fetch lists a table, or returns one row when ?id= is given.
func (h *Handlers) Fetch(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	if raw := strings.TrimSpace(r.URL.Query().Get("id")); raw != "" {
		id, ok := parseID(w, raw)
		if !ok {
			return
		}
		row, err := h.Records.Get(r.Context(), table, id)
		if err != nil {
			common.Fail(w, h.log, "records.get", err, "table", table, "id", id)
			return
		}
		common.WriteJSON(w, http.StatusOK, row)
		return
	}

	rows, err := h.Records.List(r.Context(), table)
	if err != nil {
		common.Fail(w, h.log, "records.list", err, "table", table)
		return
	}
	if rows == nil {
		rows = []recordsdomain.Row{}
	}
	common.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handlers) Insert(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	body, err := common.DecodeObject(r)
	if err != nil {
		h.log.BusinessError("records.insert: invalid json", err, "table", table)
		common.WriteError(w, http.StatusBadRequest, common.CodeInvalidJSON, "invalid json body", err)
		return
	}

	id, err := h.Records.Insert(r.Context(), table, body)
	if err != nil {
		common.Fail(w, h.log, "records.insert", err, "table", table)
		return
	}
	common.WriteJSON(w, http.StatusCreated, insertResponse{Message: "record created", ID: id})
}

func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	body, err := common.DecodeObject(r)
	if err != nil {
		h.log.BusinessError("records.update: invalid json", err, "table", table, "id", id)
		common.WriteError(w, http.StatusBadRequest, common.CodeInvalidJSON, "invalid json body", err)
		return
	}

	affected, err := h.Records.Update(r.Context(), table, id, body)
	if err != nil {
		common.Fail(w, h.log, "records.update", err, "table", table, "id", id)
		return
	}
	common.WriteJSON(w, http.StatusOK, affectedResponse{Message: "record updated", Affected: affected})
}

func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	affected, err := h.Records.Delete(r.Context(), table, id)
	if err != nil {
		common.Fail(w, h.log, "records.delete", err, "table", table, "id", id)
		return
	}
	common.WriteJSON(w, http.StatusOK, affectedResponse{Message: "record deleted", Affected: affected})
}

func parseID(w http.ResponseWriter, raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		common.WriteError(w, http.StatusBadRequest, common.CodeValidation, "invalid id", fmt.Errorf("invalid id %q", raw))
		return 0, false
	}
	return id, true
}
