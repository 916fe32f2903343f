package handler

import (
	"cepas/internal/transport/httpserver/handler/auth"
	"cepas/internal/transport/httpserver/handler/common"
	"cepas/internal/transport/httpserver/handler/families"
	"cepas/internal/transport/httpserver/handler/interviews"
	"cepas/internal/transport/httpserver/handler/records"
)

type Handlers struct {
	Common     *common.Handlers
	Auth       *auth.Handlers
	Families   *families.Handlers
	Interviews *interviews.Handlers
	Records    *records.Handlers
}

func New(commonHandlers *common.Handlers, authHandlers *auth.Handlers, familyHandlers *families.Handlers, interviewHandlers *interviews.Handlers, recordHandlers *records.Handlers) *Handlers {
	return &Handlers{
		Common:     commonHandlers,
		Auth:       authHandlers,
		Families:   familyHandlers,
		Interviews: interviewHandlers,
		Records:    recordHandlers,
	}
}
