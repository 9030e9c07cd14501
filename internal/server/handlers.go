package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"seeforme/internal/app"
	"seeforme/internal/media"
	"seeforme/pkg/domain"
)

// auth

type registerRequest struct {
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type authResponse struct {
	User   domain.User   `json:"user"`
	Tokens app.TokenPair `json:"tokens"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.registerLimiter, "too many registration attempts, try again later") {
		return
	}
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}
	user, tokens, err := s.app.Register(app.RegisterInput{
		Phone:    req.Phone,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.UserRole(req.Role),
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.audit(r, "auth.register", "success", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, authResponse{User: user, Tokens: tokens})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.loginLimiter, "too many login attempts, try again later") {
		return
	}
	var req struct {
		Account  string `json:"account"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}
	user, tokens, err := s.app.Login(req.Account, req.Password)
	if err != nil {
		s.audit(r, "auth.login", "fail")
		s.writeAppError(w, r, err)
		return
	}
	s.audit(r, "auth.login", "success", "user_id", user.ID)
	writeJSON(w, http.StatusOK, authResponse{User: user, Tokens: tokens})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}
	tokens, err := s.app.Refresh(req.RefreshToken)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

// profile & settings

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, c caller) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	user, err := s.app.Profile(c.ID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request, c caller) {
	switch r.Method {
	case http.MethodGet:
		settings, err := s.app.Settings(c.ID)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, settings)
	case http.MethodPut, http.MethodPatch:
		var req app.SettingsUpdate
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
			return
		}
		settings, err := s.app.UpdateSettings(c.ID, req)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, settings)
	default:
		methodNotAllowed(w)
	}
}

// help requests

func (s *Server) handleRequests(w http.ResponseWriter, r *http.Request, c caller) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.requireRole(w, r, c, domain.RoleSeeker) {
		return
	}
	var req app.CreateRequestInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}
	created, err := s.app.CreateRequest(c.ID, req)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, requestResponse(created))
}

func (s *Server) handleHall(w http.ResponseWriter, r *http.Request, c caller) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if !s.requireRole(w, r, c, domain.RoleVolunteer) {
		return
	}
	page, pageSize := pageParams(r)
	result, err := s.app.ListHall(page, pageSize, r.URL.Query().Get("status"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageResponse(result))
}

func (s *Server) handleMine(w http.ResponseWriter, r *http.Request, c caller) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if !s.requireRole(w, r, c, domain.RoleSeeker) {
		return
	}
	page, pageSize := pageParams(r)
	result, err := s.app.ListMine(c.ID, page, pageSize, r.URL.Query().Get("status"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageResponse(result))
}

// handleRequestSubtree routes /help-requests/{id} and its nested
// lifecycle operations.
func (s *Server) handleRequestSubtree(w http.ResponseWriter, r *http.Request, c caller) {
	rest := strings.TrimPrefix(r.URL.Path, apiPrefix+"/help-requests/")
	requestID, action, _ := strings.Cut(rest, "/")
	if requestID == "" {
		writeError(w, http.StatusNotFound, "request_not_found", "help request not found")
		return
	}
	switch action {
	case "":
		s.handleRequestByID(w, r, c, requestID)
	case "cancel":
		s.handleCancel(w, r, c, requestID)
	case "claim":
		s.handleClaim(w, r, c, requestID)
	case "replies":
		s.handleReplies(w, r, c, requestID)
	case "feedback":
		s.handleFeedback(w, r, c, requestID)
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown resource")
	}
}

func (s *Server) handleRequestByID(w http.ResponseWriter, r *http.Request, c caller, requestID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	req, err := s.app.GetRequest(requestID, c.ID, c.Role)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requestResponse(req))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request, c caller, requestID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.requireRole(w, r, c, domain.RoleSeeker) {
		return
	}
	req, err := s.app.CancelRequest(requestID, c.ID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requestResponse(req))
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request, c caller, requestID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.requireRole(w, r, c, domain.RoleVolunteer) {
		return
	}
	assignment, err := s.app.Claim(requestID, c.ID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.audit(r, "request.claim", "success", "request_id", requestID, "volunteer_id", c.ID)
	writeJSON(w, http.StatusCreated, assignment)
}

func (s *Server) handleReplies(w http.ResponseWriter, r *http.Request, c caller, requestID string) {
	switch r.Method {
	case http.MethodGet:
		replies, err := s.app.ListReplies(requestID)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": replies})
	case http.MethodPost:
		if !s.requireRole(w, r, c, domain.RoleVolunteer) {
			return
		}
		var req app.ReplyInput
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
			return
		}
		reply, err := s.app.CreateReply(requestID, c.ID, req)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, reply)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request, c caller, requestID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.requireRole(w, r, c, domain.RoleSeeker) {
		return
	}
	var req app.FeedbackInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}
	feedback, updated, err := s.app.SubmitFeedback(requestID, c.ID, req)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"feedback": feedback,
		"request":  requestResponse(updated),
	})
}

// notifications & moderation

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request, c caller) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	items, err := s.app.Notifications(c.ID, c.Role)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request, c caller) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req app.ReportInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}
	report, err := s.app.SubmitReport(c.ID, req)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": report.ID, "message": "report submitted"})
}

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request, c caller) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		TargetUserID string `json:"targetUserId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}
	block, err := s.app.BlockUser(c.ID, req.TargetUserID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": block.ID, "message": "user blocked"})
}

// response shaping

type attachmentView struct {
	FileID   string              `json:"fileId"`
	FileType domain.FileCategory `json:"fileType"`
	FileURL  string              `json:"fileUrl"`
}

type requestView struct {
	domain.HelpRequest
	Attachments []attachmentView `json:"attachments"`
}

// requestResponse replaces raw attachment records with views carrying
// a derived content URL; storage paths never leave the server.
func requestResponse(req domain.HelpRequest) requestView {
	views := make([]attachmentView, 0, len(req.Attachments))
	for _, attachment := range req.Attachments {
		views = append(views, attachmentView{
			FileID:   attachment.FileID,
			FileType: attachment.FileType,
			FileURL:  media.ContentURL(attachment.FileID),
		})
	}
	return requestView{HelpRequest: req, Attachments: views}
}

func pageResponse(page app.RequestPage) map[string]any {
	items := make([]requestView, 0, len(page.Items))
	for _, req := range page.Items {
		items = append(items, requestResponse(req))
	}
	return map[string]any{
		"items":    items,
		"total":    page.Total,
		"page":     page.Page,
		"pageSize": page.PageSize,
	}
}

func pageParams(r *http.Request) (int, int) {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	pageSize, _ := strconv.Atoi(query.Get("pageSize"))
	return page, pageSize
}

// uploads

func (s *Server) handlePresign(w http.ResponseWriter, r *http.Request, c caller) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Filename string `json:"filename"`
		MimeType string `json:"mimeType"`
		Size     int64  `json:"size"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}
	file, err := s.app.Media().Reserve(c.ID, req.Filename, req.MimeType, req.Size)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"fileId":    file.ID,
		"uploadUrl": media.ContentURL(file.ID),
		"category":  file.Category,
	})
}

// handleUploadSubtree routes /uploads/{id}/content for both the
// content write and the download.
func (s *Server) handleUploadSubtree(w http.ResponseWriter, r *http.Request, c caller) {
	rest := strings.TrimPrefix(r.URL.Path, apiPrefix+"/uploads/")
	fileID, action, _ := strings.Cut(rest, "/")
	if fileID == "" || action != "content" {
		writeError(w, http.StatusNotFound, "not_found", "unknown resource")
		return
	}
	switch r.Method {
	case http.MethodPut, http.MethodPost:
		s.handleUploadContent(w, r, c, fileID)
	case http.MethodGet:
		s.handleDownloadContent(w, r, fileID)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleUploadContent(w http.ResponseWriter, r *http.Request, c caller, fileID string) {
	maxBytes := s.app.Media().Config().MaxVideoBytes
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "payload_too_large", "upload exceeds the size limit")
		return
	}
	file, err := s.app.Media().StoreContent(r.Context(), fileID, c.ID, r.URL.Query().Get("filename"), raw, r.Header.Get("Content-Type"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"fileId":   file.ID,
		"fileUrl":  media.ContentURL(file.ID),
		"category": file.Category,
		"mimeType": file.MimeType,
		"size":     file.Size,
	})
}

func (s *Server) handleDownloadContent(w http.ResponseWriter, r *http.Request, fileID string) {
	rc, file, err := s.app.Media().ReadContent(r.Context(), fileID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", file.MimeType)
	if file.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}

// AI assist

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request, c caller) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		VoiceFileID string `json:"voiceFileId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}
	result, err := s.app.Transcribe(r.Context(), req.VoiceFileID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request, c caller) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Text     string  `json:"text"`
		Language string  `json:"language"`
		Speed    float64 `json:"speed"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}
	result, err := s.app.Synthesize(r.Context(), req.Text, req.Language, req.Speed)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request, c caller) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		ImageFileID string `json:"imageFileId"`
		Language    string `json:"language"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}
	result, err := s.app.DescribeImage(r.Context(), req.ImageFileID, req.Language)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
