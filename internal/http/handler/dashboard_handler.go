package handler

import (
	"net/http"

	"github.com/taskhub/taskhub/internal/http/response"
	"github.com/taskhub/taskhub/internal/service"
)

type DashboardHandler struct {
	userSvc service.UserServiceInterface
}

func NewDashboardHandler(userSvc service.UserServiceInterface) *DashboardHandler {
	return &DashboardHandler{userSvc: userSvc}
}

func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.userSvc.Dashboard(r.Context())
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "Sorry, something went wrong!", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, summary)
}
