package interviews

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cepas/internal/domain/dates"
	interviewdomain "cepas/internal/domain/interview"
	"cepas/internal/transport/httpserver/handler/common"
	"cepas/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

type registerRequest struct {
	Date            string  `json:"date"`
	IntervieweeName string  `json:"intervieweeName"`
	ContactPhone    string  `json:"contactPhone"`
	Notes           string  `json:"notes"`
	NextVisit       string  `json:"nextVisit"`
	MonitorIDs      []int64 `json:"monitorIds"`
}

type interviewResponse struct {
	ID              int64                        `json:"id"`
	FamilyID        int64                        `json:"familyId"`
	FamilyName      string                       `json:"familyName,omitempty"`
	Date            string                       `json:"date"`
	IntervieweeName string                       `json:"intervieweeName"`
	ContactPhone    string                       `json:"contactPhone"`
	Notes           string                       `json:"notes"`
	NextVisit       string                       `json:"nextVisit"`
	Monitors        []interviewdomain.MonitorRef `json:"monitors"`
}

type registerResponse struct {
	Message        string            `json:"message"`
	Interview      interviewResponse `json:"interview"`
	LinkedMonitors []int64           `json:"linkedMonitors"`
	Warnings       []string          `json:"warnings"`
}

type completeResponse struct {
	Message     string    `json:"message"`
	InterviewID int64     `json:"interviewId"`
	CompletedAt time.Time `json:"completedAt"`
}

func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Interviews.Summary(r.Context())
	if err != nil {
		common.Fail(w, h.log, "interviews.summary", err)
		return
	}
	common.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handlers) Calendar(w http.ResponseWriter, r *http.Request) {
	events, err := h.Interviews.Calendar(r.Context())
	if err != nil {
		common.Fail(w, h.log, "interviews.calendar", err)
		return
	}
	if events == nil {
		events = []interviewdomain.CalendarEvent{}
	}
	common.WriteJSON(w, http.StatusOK, events)
}

func (h *Handlers) CompleteNextVisit(w http.ResponseWriter, r *http.Request) {
	interviewID, ok := idParam(w, r, "interview")
	if !ok {
		return
	}

	completedAt, err := h.Interviews.CompleteNextVisit(r.Context(), interviewID)
	if err != nil {
		common.Fail(w, h.log, "interviews.complete_next_visit", err, "interview_id", interviewID)
		return
	}
	h.cache.InvalidateAll()

	common.WriteJSON(w, http.StatusOK, completeResponse{
		Message:     "scheduled visit completed",
		InterviewID: interviewID,
		CompletedAt: completedAt,
	})
}

func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	familyID, ok := idParam(w, r, "family")
	if !ok {
		return
	}

	records, err := h.Interviews.History(r.Context(), familyID)
	if err != nil {
		common.Fail(w, h.log, "interviews.history", err, "family_id", familyID)
		return
	}

	response := make([]interviewResponse, 0, len(records))
	for _, record := range records {
		response = append(response, toResponse(record.Interview, record.FamilyName, record.Monitors))
	}
	common.WriteJSON(w, http.StatusOK, response)
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	familyID, ok := idParam(w, r, "family")
	if !ok {
		return
	}

	var req registerRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		h.log.BusinessError("interviews.register: invalid json", err, "family_id", familyID)
		common.WriteError(w, http.StatusBadRequest, common.CodeInvalidJSON, "invalid json body", err)
		return
	}

	actor := ""
	if identity, ok := middleware.IdentityFromContext(r.Context()); ok {
		actor = identity.Username
	}
	result, err := h.Interviews.Register(r.Context(), actor, familyID, interviewdomain.RegisterInput{
		Date:            req.Date,
		IntervieweeName: req.IntervieweeName,
		ContactPhone:    req.ContactPhone,
		Notes:           req.Notes,
		NextVisit:       req.NextVisit,
		MonitorIDs:      req.MonitorIDs,
	})
	if err != nil {
		common.Fail(w, h.log, "interviews.register", err, "family_id", familyID, "actor", actor)
		return
	}
	h.cache.Invalidate(familyID)
	if len(result.Warnings) > 0 {
		h.log.Warn("interviews.register: monitor links failed", "family_id", familyID, "warnings", result.Warnings)
	}

	common.WriteJSON(w, http.StatusCreated, registerResponse{
		Message:        "interview registered",
		Interview:      toResponse(result.Interview, "", nil),
		LinkedMonitors: result.Linked,
		Warnings:       result.Warnings,
	})
}

func toResponse(interview interviewdomain.Interview, familyName string, monitors []interviewdomain.MonitorRef) interviewResponse {
	if monitors == nil {
		monitors = []interviewdomain.MonitorRef{}
	}
	return interviewResponse{
		ID:              interview.ID,
		FamilyID:        interview.FamilyID,
		FamilyName:      familyName,
		Date:            dates.Format(&interview.Date),
		IntervieweeName: interview.IntervieweeName,
		ContactPhone:    interview.ContactPhone,
		Notes:           interview.Notes,
		NextVisit:       dates.Format(interview.NextVisit),
		Monitors:        monitors,
	}
}

func idParam(w http.ResponseWriter, r *http.Request, what string) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		common.WriteError(w, http.StatusBadRequest, common.CodeValidation, "invalid "+what+" id", fmt.Errorf("invalid %s id %q", what, raw))
		return 0, false
	}
	return id, true
}
