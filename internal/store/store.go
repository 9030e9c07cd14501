package store

import (
	"errors"

	"seeforme/pkg/domain"
)

var (
	// ErrConflict reports a storage-level uniqueness violation
	// (duplicate claim, duplicate feedback, duplicate account identity).
	ErrConflict = errors.New("store: conflict")

	// ErrStale reports that a transition guard matched zero rows:
	// the entity moved to another state between read and write.
	ErrStale = errors.New("store: stale state")
)

// Store defines persistence operations for users, help requests,
// assignments, replies, feedback, uploads, and moderation records.
//
// Lifecycle mutations (ClaimRequest, CreateReply, CreateFeedback,
// CancelRequest) run as single transactions with conditional status
// guards so concurrent callers cannot skip or reverse a transition.
type Store interface {
	// users
	CreateUser(user domain.User, settings domain.UserSettings) error
	GetUserByID(id string) (domain.User, bool, error)
	GetUserByAccount(account string) (domain.User, bool, error)
	GetSettings(userID string) (domain.UserSettings, bool, error)
	SaveSettings(settings domain.UserSettings) error

	// uploads
	CreateUpload(file domain.UploadedFile) error
	GetUpload(id string) (domain.UploadedFile, bool, error)
	UpdateUpload(file domain.UploadedFile) error

	// help requests
	CreateRequest(req domain.HelpRequest) error
	GetRequest(id string) (domain.HelpRequest, bool, error)
	ListHallRequests(page, pageSize int, status domain.RequestStatus) ([]domain.HelpRequest, int64, error)
	ListSeekerRequests(seekerID string, page, pageSize int, status domain.RequestStatus) ([]domain.HelpRequest, int64, error)
	// CancelRequest moves a non-terminal request to cancelled.
	CancelRequest(id string) error

	// assignments
	// ClaimRequest inserts the assignment and moves the request from
	// open to claimed. Returns ErrConflict when an assignment already
	// exists, ErrStale when the request left the open state.
	ClaimRequest(a domain.Assignment) error
	GetAssignmentByRequest(requestID string) (domain.Assignment, bool, error)

	// replies
	// CreateReply inserts the reply and, when the request is claimed,
	// moves it to replied. Later replies leave the status untouched.
	CreateReply(r domain.Reply) error
	ListReplies(requestID string) ([]domain.Reply, error)
	// ListRepliesToSeeker returns replies on the seeker's own requests,
	// newest first, for the notification feed.
	ListRepliesToSeeker(seekerID string, limit int) ([]domain.Reply, error)

	// feedback
	// CreateFeedback inserts the verdict and finalizes the request
	// status. Returns ErrConflict on duplicate feedback, ErrStale when
	// the request is no longer awaiting feedback.
	CreateFeedback(f domain.Feedback, final domain.RequestStatus) error

	// moderation
	CreateReport(r domain.Report) error
	CreateBlock(b domain.Block) error
}
