package app

import (
	"errors"
	"strings"

	"seeforme/internal/store"
	"seeforme/internal/util"
	"seeforme/pkg/apperr"
	"seeforme/pkg/domain"
)

const (
	maxImageAttachments = 3
	maxVideoAttachments = 3
	maxVoiceAttachments = 3

	defaultPageSize = 20
	maxPageSize     = 100
)

// CreateRequestInput is a seeker's new help request. A request must
// carry text or at least one media reference.
type CreateRequestInput struct {
	Text              string   `json:"text"`
	VoiceFileIDs      []string `json:"voiceFileIds"`
	ImageFileIDs      []string `json:"imageFileIds"`
	VideoFileIDs      []string `json:"videoFileIds"`
	Mode              string   `json:"mode"`
	TargetVolunteerID string   `json:"targetVolunteerId"`
	Priority          int      `json:"priority"`
	Category          string   `json:"category"`
}

// RequestPage is one page of help requests plus the unpaginated total.
type RequestPage struct {
	Items    []domain.HelpRequest `json:"items"`
	Total    int64                `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"pageSize"`
}

// CreateRequest opens a new help request in the hall or addressed to a
// specific volunteer.
func (a *App) CreateRequest(seekerID string, in CreateRequestInput) (domain.HelpRequest, error) {
	mode := domain.RequestMode(in.Mode)
	if mode == "" {
		mode = domain.ModeHall
	}
	if mode != domain.ModeHall && mode != domain.ModeDirect {
		return domain.HelpRequest{}, apperr.Newf(apperr.KindInvalidPayload, "invalid_mode", "mode must be hall or direct, got %q", in.Mode)
	}
	if mode == domain.ModeDirect && strings.TrimSpace(in.TargetVolunteerID) == "" {
		return domain.HelpRequest{}, apperr.New(apperr.KindInvalidPayload, "target_required", "direct requests need a target volunteer")
	}
	if in.Priority < domain.PriorityNormal || in.Priority > domain.PriorityCritical {
		return domain.HelpRequest{}, apperr.New(apperr.KindInvalidPayload, "invalid_priority", "priority must be 0, 1, or 2")
	}

	text := strings.TrimSpace(in.Text)
	voices := dedupKeepOrder(in.VoiceFileIDs, maxVoiceAttachments)
	images := capList(in.ImageFileIDs, maxImageAttachments)
	videos := capList(in.VideoFileIDs, maxVideoAttachments)
	if text == "" && len(voices) == 0 && len(images) == 0 && len(videos) == 0 {
		return domain.HelpRequest{}, apperr.New(apperr.KindInvalidPayload, "empty_request", "a request needs text or at least one attachment")
	}

	now := a.now().UTC()
	req := domain.HelpRequest{
		ID:                util.NewID(),
		SeekerID:          seekerID,
		Mode:              mode,
		TargetVolunteerID: strings.TrimSpace(in.TargetVolunteerID),
		Status:            domain.StatusOpen,
		VoiceFileID:       domain.PlaceholderVoiceFileID,
		RawText:           text,
		Category:          strings.TrimSpace(in.Category),
		Priority:          in.Priority,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if len(voices) > 0 {
		req.VoiceFileID = voices[0]
	}
	for _, fid := range images {
		req.Attachments = append(req.Attachments, newAttachment(req.ID, fid, domain.CategoryImage))
	}
	for _, fid := range videos {
		req.Attachments = append(req.Attachments, newAttachment(req.ID, fid, domain.CategoryVideo))
	}
	for _, fid := range voices {
		req.Attachments = append(req.Attachments, newAttachment(req.ID, fid, domain.CategoryVoice))
	}

	if err := a.store.CreateRequest(req); err != nil {
		return domain.HelpRequest{}, apperr.Wrap(apperr.KindInternal, "request_create_failed", "could not create help request", err)
	}
	a.logger.Info("help request created",
		"request_id", req.ID, "seeker_id", seekerID, "mode", mode, "priority", in.Priority, "attachments", len(req.Attachments))
	return req, nil
}

// ListHall pages through the shared pool, urgent requests first.
func (a *App) ListHall(page, pageSize int, status string) (RequestPage, error) {
	page, pageSize = normalizePage(page, pageSize)
	filter, err := parseStatusFilter(status)
	if err != nil {
		return RequestPage{}, err
	}
	items, total, err := a.store.ListHallRequests(page, pageSize, filter)
	if err != nil {
		return RequestPage{}, apperr.Wrap(apperr.KindInternal, "list_failed", "could not list hall requests", err)
	}
	return RequestPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// ListMine pages through the caller's own requests, newest first.
func (a *App) ListMine(seekerID string, page, pageSize int, status string) (RequestPage, error) {
	page, pageSize = normalizePage(page, pageSize)
	filter, err := parseStatusFilter(status)
	if err != nil {
		return RequestPage{}, err
	}
	items, total, err := a.store.ListSeekerRequests(seekerID, page, pageSize, filter)
	if err != nil {
		return RequestPage{}, apperr.Wrap(apperr.KindInternal, "list_failed", "could not list requests", err)
	}
	return RequestPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// GetRequest returns a single request. Volunteers may read any
// request; a seeker may only read their own.
func (a *App) GetRequest(requestID, callerID string, callerRole domain.UserRole) (domain.HelpRequest, error) {
	req, err := a.loadRequest(requestID)
	if err != nil {
		return domain.HelpRequest{}, err
	}
	if callerRole == domain.RoleSeeker && req.SeekerID != callerID {
		return domain.HelpRequest{}, apperr.New(apperr.KindForbidden, "not_owner", "request belongs to another seeker")
	}
	return req, nil
}

// CancelRequest moves a non-terminal request to cancelled. Only the
// owning seeker may cancel.
func (a *App) CancelRequest(requestID, seekerID string) (domain.HelpRequest, error) {
	req, err := a.loadRequest(requestID)
	if err != nil {
		return domain.HelpRequest{}, err
	}
	if req.SeekerID != seekerID {
		return domain.HelpRequest{}, apperr.New(apperr.KindForbidden, "not_owner", "request belongs to another seeker")
	}
	if req.Status.Terminal() {
		return domain.HelpRequest{}, apperr.Newf(apperr.KindInvalidState, "already_closed", "cannot cancel a %s request", req.Status)
	}
	if err := a.store.CancelRequest(requestID); err != nil {
		if errors.Is(err, store.ErrStale) {
			return domain.HelpRequest{}, apperr.New(apperr.KindInvalidState, "already_closed", "request was closed concurrently")
		}
		return domain.HelpRequest{}, apperr.Wrap(apperr.KindInternal, "cancel_failed", "could not cancel request", err)
	}
	return a.loadRequest(requestID)
}

func (a *App) loadRequest(requestID string) (domain.HelpRequest, error) {
	req, found, err := a.store.GetRequest(requestID)
	if err != nil {
		return domain.HelpRequest{}, apperr.Wrap(apperr.KindInternal, "request_load_failed", "could not load request", err)
	}
	if !found {
		return domain.HelpRequest{}, apperr.New(apperr.KindNotFound, "request_not_found", "help request not found")
	}
	return req, nil
}

func newAttachment(requestID, fileID string, category domain.FileCategory) domain.Attachment {
	return domain.Attachment{
		ID:        util.NewID(),
		RequestID: requestID,
		FileID:    fileID,
		FileType:  category,
	}
}

// dedupKeepOrder keeps the first occurrence of each id, preserving
// input order, up to max entries.
func dedupKeepOrder(ids []string, max int) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
		if len(out) == max {
			break
		}
	}
	return out
}

func capList(ids []string, max int) []string {
	out := make([]string, 0, max)
	for _, id := range ids {
		if id = strings.TrimSpace(id); id == "" {
			continue
		}
		out = append(out, id)
		if len(out) == max {
			break
		}
	}
	return out
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func parseStatusFilter(status string) (domain.RequestStatus, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return "", nil
	}
	switch s := domain.RequestStatus(status); s {
	case domain.StatusOpen, domain.StatusClaimed, domain.StatusReplied,
		domain.StatusResolved, domain.StatusUnresolved, domain.StatusCancelled:
		return s, nil
	}
	return "", apperr.Newf(apperr.KindInvalidPayload, "invalid_status", "unknown status filter %q", status)
}
