package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string    `gorm:"primaryKey"`
	Role         string    `gorm:"not null"`
	Phone        *string   `gorm:"uniqueIndex"`
	Email        *string   `gorm:"uniqueIndex"`
	PasswordHash string    `gorm:"not null"`
	IsActive     bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (UserModel) TableName() string { return "users" }

type UserSettingsModel struct {
	UserID           string  `gorm:"primaryKey"`
	TTSEnabled       bool    `gorm:"not null;default:true"`
	TTSRate          float64 `gorm:"not null;default:1.0"`
	HapticEnabled    bool    `gorm:"not null;default:true"`
	VoicePromptLevel int     `gorm:"not null;default:2"`
}

func (UserSettingsModel) TableName() string { return "user_settings" }

type HelpRequestModel struct {
	ID                string `gorm:"primaryKey"`
	SeekerID          string `gorm:"not null;index"`
	Mode              string `gorm:"not null;index"`
	TargetVolunteerID string
	Status            string `gorm:"not null;index"`
	VoiceFileID       string `gorm:"not null"`
	RawText           string
	TranscribedText   string
	Category          string
	Priority          int               `gorm:"not null;default:0"`
	CreatedAt         time.Time         `gorm:"not null;index"`
	UpdatedAt         time.Time         `gorm:"not null"`
	Attachments       []AttachmentModel `gorm:"foreignKey:RequestID"`
}

func (HelpRequestModel) TableName() string { return "help_requests" }

type AttachmentModel struct {
	ID        string `gorm:"primaryKey"`
	RequestID string `gorm:"not null;index"`
	FileID    string `gorm:"not null"`
	FileType  string `gorm:"not null"`
	// Seq keeps the client-supplied attachment order stable for display.
	Seq int `gorm:"not null;default:0"`
}

func (AttachmentModel) TableName() string { return "request_attachments" }

type AssignmentModel struct {
	ID          string    `gorm:"primaryKey"`
	RequestID   string    `gorm:"uniqueIndex;not null"`
	VolunteerID string    `gorm:"not null;index"`
	ClaimedAt   time.Time `gorm:"not null"`
	CompletedAt *time.Time
}

func (AssignmentModel) TableName() string { return "assignments" }

type ReplyModel struct {
	ID          string `gorm:"primaryKey"`
	RequestID   string `gorm:"not null;index"`
	VolunteerID string `gorm:"not null;index"`
	ReplyType   string `gorm:"not null"`
	VoiceFileID string
	Text        string
	CreatedAt   time.Time `gorm:"not null;index"`
}

func (ReplyModel) TableName() string { return "replies" }

type FeedbackModel struct {
	ID        string    `gorm:"primaryKey"`
	RequestID string    `gorm:"uniqueIndex;not null"`
	SeekerID  string    `gorm:"not null"`
	Resolved  bool      `gorm:"not null"`
	Comment   string
	CreatedAt time.Time `gorm:"not null"`
}

func (FeedbackModel) TableName() string { return "feedback" }

type UploadedFileModel struct {
	ID          string    `gorm:"primaryKey"`
	UserID      string    `gorm:"not null;index"`
	Filename    string    `gorm:"not null"`
	MimeType    string    `gorm:"not null"`
	Size        int64     `gorm:"not null"`
	Category    string    `gorm:"not null"`
	StoragePath string
	CreatedAt   time.Time `gorm:"not null"`
}

func (UploadedFileModel) TableName() string { return "uploaded_files" }

type ReportModel struct {
	ID              string `gorm:"primaryKey"`
	ReporterID      string `gorm:"not null;index"`
	TargetUserID    string
	TargetRequestID string
	Reason          string         `gorm:"not null"`
	Evidence        datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt       time.Time      `gorm:"not null"`
}

func (ReportModel) TableName() string { return "reports" }

type BlockModel struct {
	ID        string    `gorm:"primaryKey"`
	BlockerID string    `gorm:"not null;uniqueIndex:idx_blocks_pair"`
	BlockedID string    `gorm:"not null;uniqueIndex:idx_blocks_pair"`
	CreatedAt time.Time `gorm:"not null"`
}

func (BlockModel) TableName() string { return "blocks" }
