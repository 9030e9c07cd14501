package domain

import "time"

// UserRole is fixed at registration and never changes afterwards.
type UserRole string

const (
	RoleSeeker    UserRole = "seeker"
	RoleVolunteer UserRole = "volunteer"
)

// RequestStatus is the lifecycle state of a help request.
type RequestStatus string

const (
	StatusOpen       RequestStatus = "open"
	StatusClaimed    RequestStatus = "claimed"
	StatusReplied    RequestStatus = "replied"
	StatusResolved   RequestStatus = "resolved"
	StatusUnresolved RequestStatus = "unresolved"
	StatusCancelled  RequestStatus = "cancelled"
)

// Terminal reports whether no further transition is possible from s.
func (s RequestStatus) Terminal() bool {
	switch s {
	case StatusResolved, StatusUnresolved, StatusCancelled:
		return true
	}
	return false
}

// RequestMode selects between the shared hall pool and a direct request.
type RequestMode string

const (
	ModeHall   RequestMode = "hall"
	ModeDirect RequestMode = "direct"
)

// Request priority levels, used only for hall ordering.
const (
	PriorityNormal   = 0
	PriorityUrgent   = 1
	PriorityCritical = 2
)

// FileCategory classifies uploaded media.
type FileCategory string

const (
	CategoryImage FileCategory = "image"
	CategoryVoice FileCategory = "voice"
	CategoryVideo FileCategory = "video"
)

// ReplyType distinguishes voice replies from text replies.
type ReplyType string

const (
	ReplyVoice ReplyType = "voice"
	ReplyText  ReplyType = "text"
)

// PlaceholderVoiceFileID is recorded on text-only requests so the voice
// reference column is never empty.
const PlaceholderVoiceFileID = "text-only"

type User struct {
	ID           string    `json:"id"`
	Role         UserRole  `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserSettings holds per-user accessibility preferences.
type UserSettings struct {
	UserID           string  `json:"userId"`
	TTSEnabled       bool    `json:"ttsEnabled"`
	TTSRate          float64 `json:"ttsRate"`
	HapticEnabled    bool    `json:"hapticEnabled"`
	VoicePromptLevel int     `json:"voicePromptLevel"`
}

// DefaultSettings returns the accessibility defaults for a new user.
func DefaultSettings(userID string) UserSettings {
	return UserSettings{
		UserID:           userID,
		TTSEnabled:       true,
		TTSRate:          1.0,
		HapticEnabled:    true,
		VoicePromptLevel: 2,
	}
}

type HelpRequest struct {
	ID                string        `json:"id"`
	SeekerID          string        `json:"seekerId"`
	Mode              RequestMode   `json:"mode"`
	TargetVolunteerID string        `json:"targetVolunteerId,omitempty"`
	Status            RequestStatus `json:"status"`
	VoiceFileID       string        `json:"voiceFileId"`
	RawText           string        `json:"rawText,omitempty"`
	TranscribedText   string        `json:"transcribedText,omitempty"`
	Category          string        `json:"category,omitempty"`
	Priority          int           `json:"priority"`
	Attachments       []Attachment  `json:"attachments"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

// Attachment references an uploaded file from a help request.
// Insertion order is preserved for display.
type Attachment struct {
	ID        string       `json:"id"`
	RequestID string       `json:"requestId"`
	FileID    string       `json:"fileId"`
	FileType  FileCategory `json:"fileType"`
}

type Assignment struct {
	ID          string     `json:"id"`
	RequestID   string     `json:"requestId"`
	VolunteerID string     `json:"volunteerId"`
	ClaimedAt   time.Time  `json:"claimedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

type Reply struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"requestId"`
	VolunteerID string    `json:"volunteerId"`
	ReplyType   ReplyType `json:"replyType"`
	VoiceFileID string    `json:"voiceFileId,omitempty"`
	Text        string    `json:"text,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Feedback struct {
	ID        string    `json:"id"`
	RequestID string    `json:"requestId"`
	SeekerID  string    `json:"seekerId"`
	Resolved  bool      `json:"resolved"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// UploadedFile is the Media Store metadata record. StoragePath stays
// empty between the presign phase and the content upload phase.
type UploadedFile struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	Filename    string       `json:"filename"`
	MimeType    string       `json:"mimeType"`
	Size        int64        `json:"size"`
	Category    FileCategory `json:"category"`
	StoragePath string       `json:"-"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Notification is a read-only feed item projected from replies.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Sender    string    `json:"sender"`
	Title     string    `json:"title"`
	Preview   string    `json:"preview"`
	Tag       string    `json:"tag"`
	RequestID string    `json:"requestId"`
	ReplyID   string    `json:"replyId"`
	CreatedAt time.Time `json:"createdAt"`
}

type Report struct {
	ID              string         `json:"id"`
	ReporterID      string         `json:"reporterId"`
	TargetUserID    string         `json:"targetUserId,omitempty"`
	TargetRequestID string         `json:"targetRequestId,omitempty"`
	Reason          string         `json:"reason"`
	Evidence        map[string]any `json:"evidence,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

type Block struct {
	ID        string    `json:"id"`
	BlockerID string    `json:"blockerId"`
	BlockedID string    `json:"blockedId"`
	CreatedAt time.Time `json:"createdAt"`
}
