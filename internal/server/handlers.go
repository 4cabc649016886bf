package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"leadlens/internal/form"
	"leadlens/internal/leads"
	"leadlens/internal/logging"
	"leadlens/internal/services"
)

type saveRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	FavoriteColor string `json:"favoriteColor"`
	IsUpdate      bool   `json:"isUpdate"`
}

type saveResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Action  string            `json:"action,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Detail  string            `json:"detail,omitempty"`
}

type lensConfigResponse struct {
	APIToken         string `json:"apiToken"`
	LensGroupID      string `json:"lensGroupId"`
	LensID           string `json:"lensId"`
	LensEnabled      bool   `json:"lensEnabled"`
	MaxRecordSeconds int    `json:"maxRecordSeconds"`
	HoldDelayMillis  int    `json:"holdDelayMs"`
	ShareLimitBytes  int64  `json:"shareLimitBytes"`
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	data, ok := s.decodeSubmission(w, r)
	if !ok {
		return
	}
	result, err := s.leads.Upsert(r.Context(), leads.Submission{
		Name:          data.Name,
		Email:         data.Email,
		FavoriteColor: data.FavoriteColor,
	})
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, saveResponse{Success: true, Action: string(result.Action)})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	data, ok := s.decodeSubmission(w, r)
	if !ok {
		return
	}
	result, err := s.leads.Update(r.Context(), leads.Submission{
		Name:          data.Name,
		Email:         data.Email,
		FavoriteColor: data.FavoriteColor,
	})
	if errors.Is(err, leads.ErrNotFound) {
		s.writeJSON(w, http.StatusNotFound, saveResponse{Success: false, Message: "lead not found"})
		return
	}
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, saveResponse{Success: true, Action: string(result.Action)})
}

func (s *Server) handleExists(w http.ResponseWriter, r *http.Request) {
	lang := services.LanguageFromContext(r.Context())
	email := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("email")))
	if !form.ValidateEmail(email) {
		s.writeJSON(w, http.StatusBadRequest, saveResponse{
			Success: false,
			Message: services.MessageFor(services.KindFormValidation, lang),
			Errors:  map[string]string{form.FieldEmail: form.FieldMessage(form.FieldEmail, lang)},
		})
		return
	}
	exists, err := s.leads.Exists(r.Context(), email)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	payload := map[string]any{"status": "ok"}
	if len(s.checks) > 0 {
		results := make(map[string]string, len(s.checks))
		for _, c := range s.checks {
			if err := c.check(r.Context()); err != nil {
				results[c.name] = err.Error()
				status = http.StatusServiceUnavailable
				payload["status"] = "degraded"
				continue
			}
			results[c.name] = "ok"
		}
		payload["checks"] = results
	}
	s.writeJSON(w, status, payload)
}

func (s *Server) handleLensConfig(w http.ResponseWriter, r *http.Request) {
	lensID := strings.TrimSpace(r.URL.Query().Get("id"))
	if lensID == "" {
		lensID = s.cfg.Lens.DefaultLensID
	}
	s.writeJSON(w, http.StatusOK, lensConfigResponse{
		APIToken:         s.cfg.Lens.APIToken,
		LensGroupID:      s.cfg.Lens.GroupID,
		LensID:           lensID,
		LensEnabled:      lensID != "" && s.cfg.Lens.APIToken != "",
		MaxRecordSeconds: s.cfg.Capture.MaxRecordSeconds,
		HoldDelayMillis:  s.cfg.Capture.HoldDelayMillis,
		ShareLimitBytes:  s.cfg.Capture.ShareLimitBytes,
	})
}

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	list, err := s.leads.List(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"leads": list, "count": len(list)})
}

// decodeSubmission parses, sanitizes and validates a lead body. It writes the
// 400 response itself and reports false when the request should stop.
func (s *Server) decodeSubmission(w http.ResponseWriter, r *http.Request) (form.Data, bool) {
	lang := services.LanguageFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req saveRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		s.logger.DebugContext(r.Context(), "invalid request body", logging.Error(err))
		s.writeJSON(w, http.StatusBadRequest, saveResponse{
			Success: false,
			Message: services.MessageFor(services.KindFormValidation, lang),
		})
		return form.Data{}, false
	}

	data := form.Sanitize(form.Data{Name: req.Name, Email: req.Email, FavoriteColor: req.FavoriteColor})
	result := form.Validate(data)
	if !result.Valid {
		s.writeJSON(w, http.StatusBadRequest, saveResponse{
			Success: false,
			Message: services.MessageFor(services.KindFormValidation, lang),
			Errors:  result.Messages(lang),
		})
		return form.Data{}, false
	}
	return data, true
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	lang := services.LanguageFromContext(r.Context())
	logging.ErrorWithContext(r.Context(), s.logger, "lead request failed", "lead_request_failed",
		logging.String("path", r.URL.Path),
		logging.String(logging.FieldErrorKind, string(services.KindOf(err))),
		logging.Error(err),
	)
	resp := saveResponse{Success: false, Message: services.UserMessage(err, lang)}
	if s.cfg.Server.Development {
		resp.Detail = err.Error()
	}
	s.writeJSON(w, http.StatusInternalServerError, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}
