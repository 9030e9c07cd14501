package app

import (
	"errors"
	"strings"

	"seeforme/internal/store"
	"seeforme/internal/util"
	"seeforme/pkg/apperr"
	"seeforme/pkg/domain"
)

// Claim gives a volunteer exclusive responsibility for an open
// request. The one-assignment-per-request rule is enforced by the
// store's unique index, so two racing claims resolve to exactly one
// winner.
func (a *App) Claim(requestID, volunteerID string) (domain.Assignment, error) {
	req, err := a.loadRequest(requestID)
	if err != nil {
		return domain.Assignment{}, err
	}
	if _, found, err := a.store.GetAssignmentByRequest(requestID); err != nil {
		return domain.Assignment{}, apperr.Wrap(apperr.KindInternal, "claim_failed", "could not check assignment", err)
	} else if found {
		return domain.Assignment{}, apperr.New(apperr.KindConflict, "already_claimed", "request was already claimed")
	}
	if req.Status != domain.StatusOpen {
		return domain.Assignment{}, apperr.Newf(apperr.KindInvalidState, "not_open", "cannot claim a %s request", req.Status)
	}

	assignment := domain.Assignment{
		ID:          util.NewID(),
		RequestID:   requestID,
		VolunteerID: volunteerID,
		ClaimedAt:   a.now().UTC(),
	}
	if err := a.store.ClaimRequest(assignment); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			return domain.Assignment{}, apperr.New(apperr.KindConflict, "already_claimed", "request was already claimed")
		case errors.Is(err, store.ErrStale):
			return domain.Assignment{}, apperr.New(apperr.KindInvalidState, "not_open", "request is no longer open")
		}
		return domain.Assignment{}, apperr.Wrap(apperr.KindInternal, "claim_failed", "could not claim request", err)
	}
	a.logger.Info("request claimed", "request_id", requestID, "volunteer_id", volunteerID)
	return assignment, nil
}

// ReplyInput is a volunteer's answer: a voice recording or text,
// matching the declared type.
type ReplyInput struct {
	ReplyType   string `json:"replyType"`
	VoiceFileID string `json:"voiceFileId"`
	Text        string `json:"text"`
}

// CreateReply records an answer from the assigned volunteer. The first
// reply moves the request from claimed to replied; later replies leave
// the status alone.
func (a *App) CreateReply(requestID, volunteerID string, in ReplyInput) (domain.Reply, error) {
	if _, err := a.loadRequest(requestID); err != nil {
		return domain.Reply{}, err
	}
	assignment, found, err := a.store.GetAssignmentByRequest(requestID)
	if err != nil {
		return domain.Reply{}, apperr.Wrap(apperr.KindInternal, "reply_failed", "could not load assignment", err)
	}
	if !found || assignment.VolunteerID != volunteerID {
		return domain.Reply{}, apperr.New(apperr.KindUnauthorized, "not_assigned", "you are not assigned to this request")
	}

	replyType := domain.ReplyType(in.ReplyType)
	voiceFileID := strings.TrimSpace(in.VoiceFileID)
	text := strings.TrimSpace(in.Text)
	switch replyType {
	case domain.ReplyVoice:
		if voiceFileID == "" {
			return domain.Reply{}, apperr.New(apperr.KindInvalidPayload, "voice_required", "voice reply needs a voiceFileId")
		}
		text = ""
	case domain.ReplyText:
		if text == "" {
			return domain.Reply{}, apperr.New(apperr.KindInvalidPayload, "text_required", "text reply needs text")
		}
		voiceFileID = ""
	default:
		return domain.Reply{}, apperr.Newf(apperr.KindInvalidPayload, "invalid_reply_type", "replyType must be voice or text, got %q", in.ReplyType)
	}

	reply := domain.Reply{
		ID:          util.NewID(),
		RequestID:   requestID,
		VolunteerID: volunteerID,
		ReplyType:   replyType,
		VoiceFileID: voiceFileID,
		Text:        text,
		CreatedAt:   a.now().UTC(),
	}
	if err := a.store.CreateReply(reply); err != nil {
		return domain.Reply{}, apperr.Wrap(apperr.KindInternal, "reply_failed", "could not create reply", err)
	}
	a.logger.Info("reply created", "request_id", requestID, "reply_id", reply.ID, "type", replyType)
	return reply, nil
}

// ListReplies returns all replies on a request, oldest first.
func (a *App) ListReplies(requestID string) ([]domain.Reply, error) {
	if _, err := a.loadRequest(requestID); err != nil {
		return nil, err
	}
	replies, err := a.store.ListReplies(requestID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list_failed", "could not list replies", err)
	}
	return replies, nil
}

// FeedbackInput is the seeker's closing verdict on a request.
type FeedbackInput struct {
	Resolved bool   `json:"resolved"`
	Comment  string `json:"comment"`
}

// SubmitFeedback finalizes a request. Only the owning seeker may
// submit, only once, and only while the request awaits a verdict.
func (a *App) SubmitFeedback(requestID, seekerID string, in FeedbackInput) (domain.Feedback, domain.HelpRequest, error) {
	req, err := a.loadRequest(requestID)
	if err != nil {
		return domain.Feedback{}, domain.HelpRequest{}, err
	}
	if req.SeekerID != seekerID {
		return domain.Feedback{}, domain.HelpRequest{}, apperr.New(apperr.KindForbidden, "not_owner", "request belongs to another seeker")
	}
	if req.Status != domain.StatusReplied && req.Status != domain.StatusClaimed {
		return domain.Feedback{}, domain.HelpRequest{}, apperr.Newf(apperr.KindInvalidState, "not_awaiting_feedback",
			"cannot give feedback on a %s request", req.Status)
	}

	final := domain.StatusUnresolved
	if in.Resolved {
		final = domain.StatusResolved
	}
	feedback := domain.Feedback{
		ID:        util.NewID(),
		RequestID: requestID,
		SeekerID:  seekerID,
		Resolved:  in.Resolved,
		Comment:   strings.TrimSpace(in.Comment),
		CreatedAt: a.now().UTC(),
	}
	if err := a.store.CreateFeedback(feedback, final); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			return domain.Feedback{}, domain.HelpRequest{}, apperr.New(apperr.KindConflict, "feedback_exists", "feedback was already submitted")
		case errors.Is(err, store.ErrStale):
			return domain.Feedback{}, domain.HelpRequest{}, apperr.New(apperr.KindInvalidState, "not_awaiting_feedback", "request was closed concurrently")
		}
		return domain.Feedback{}, domain.HelpRequest{}, apperr.Wrap(apperr.KindInternal, "feedback_failed", "could not submit feedback", err)
	}

	updated, err := a.loadRequest(requestID)
	if err != nil {
		return domain.Feedback{}, domain.HelpRequest{}, err
	}
	a.logger.Info("feedback submitted", "request_id", requestID, "resolved", in.Resolved)
	return feedback, updated, nil
}
