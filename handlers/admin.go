package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"critiverse/services/scheduler"
)

// AdminHandler exposes maintenance endpoints (admin only).
type AdminHandler struct {
	scheduler *scheduler.Service
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(schedulerSvc *scheduler.Service) *AdminHandler {
	return &AdminHandler{scheduler: schedulerSvc}
}

// Tasks returns the status of every scheduled task.
func (h *AdminHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.scheduler.Status())
}

// RunTask triggers a scheduled task immediately.
func (h *AdminHandler) RunTask(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name := vars["name"]

	if err := h.scheduler.RunTaskNow(name); err != nil {
		status := http.StatusInternalServerError
		switch err {
		case scheduler.ErrTaskNotFound:
			status = http.StatusNotFound
		case scheduler.ErrAlreadyRunning:
			status = http.StatusConflict
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "started", "task": name})
}

// Options handles CORS preflight requests.
func (h *AdminHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
