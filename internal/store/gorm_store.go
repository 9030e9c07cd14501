package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"seeforme/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(
		&UserModel{},
		&UserSettingsModel{},
		&HelpRequestModel{},
		&AttachmentModel{},
		&AssignmentModel{},
		&ReplyModel{},
		&FeedbackModel{},
		&UploadedFileModel{},
		&ReportModel{},
		&BlockModel{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// translate maps driver-level uniqueness violations onto ErrConflict.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return err
}

// CreateUser inserts a user together with default settings.
func (s *GormStore) CreateUser(u domain.User, settings domain.UserSettings) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(userToModel(u)).Error; err != nil {
			return translate(err)
		}
		if err := tx.Create(settingsToModel(settings)).Error; err != nil {
			return translate(err)
		}
		return nil
	})
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByAccount looks up a user by phone or email.
func (s *GormStore) GetUserByAccount(account string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("phone = ? OR email = ?", account, account).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetSettings returns accessibility settings for a user.
func (s *GormStore) GetSettings(userID string) (domain.UserSettings, bool, error) {
	var model UserSettingsModel
	if err := s.db.First(&model, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserSettings{}, false, nil
		}
		return domain.UserSettings{}, false, err
	}
	return settingsFromModel(model), true, nil
}

// SaveSettings stores or replaces a user's settings.
func (s *GormStore) SaveSettings(settings domain.UserSettings) error {
	return translate(s.db.Save(settingsToModel(settings)).Error)
}

// CreateUpload inserts the presign-phase metadata record.
func (s *GormStore) CreateUpload(f domain.UploadedFile) error {
	return translate(s.db.Create(uploadToModel(f)).Error)
}

// GetUpload fetches upload metadata by ID.
func (s *GormStore) GetUpload(id string) (domain.UploadedFile, bool, error) {
	var model UploadedFileModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UploadedFile{}, false, nil
		}
		return domain.UploadedFile{}, false, err
	}
	return uploadFromModel(model), true, nil
}

// UpdateUpload replaces upload metadata. Last write wins.
func (s *GormStore) UpdateUpload(f domain.UploadedFile) error {
	return translate(s.db.Save(uploadToModel(f)).Error)
}

// CreateRequest inserts a help request with its attachments.
func (s *GormStore) CreateRequest(req domain.HelpRequest) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		model := requestToModel(req)
		// Attachments inserted separately to control the Seq column.
		attachments := model.Attachments
		model.Attachments = nil
		if err := tx.Create(&model).Error; err != nil {
			return translate(err)
		}
		for i := range attachments {
			attachments[i].Seq = i
			if err := tx.Create(&attachments[i]).Error; err != nil {
				return translate(err)
			}
		}
		return nil
	})
}

// GetRequest retrieves a request with attachments eagerly loaded.
func (s *GormStore) GetRequest(id string) (domain.HelpRequest, bool, error) {
	var model HelpRequestModel
	err := s.db.Preload("Attachments", func(db *gorm.DB) *gorm.DB {
		return db.Order("seq ASC")
	}).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.HelpRequest{}, false, nil
		}
		return domain.HelpRequest{}, false, err
	}
	return requestFromModel(model), true, nil
}

// ListHallRequests pages through hall-mode requests, urgent first.
func (s *GormStore) ListHallRequests(page, pageSize int, status domain.RequestStatus) ([]domain.HelpRequest, int64, error) {
	return s.listRequests("priority DESC, created_at DESC", page, pageSize, status, "mode = ?", string(domain.ModeHall))
}

// ListSeekerRequests pages through a seeker's own requests, newest first.
func (s *GormStore) ListSeekerRequests(seekerID string, page, pageSize int, status domain.RequestStatus) ([]domain.HelpRequest, int64, error) {
	return s.listRequests("created_at DESC", page, pageSize, status, "seeker_id = ?", seekerID)
}

func (s *GormStore) listRequests(order string, page, pageSize int, status domain.RequestStatus, cond string, arg any) ([]domain.HelpRequest, int64, error) {
	base := s.db.Model(&HelpRequestModel{}).Where(cond, arg)
	if status != "" {
		base = base.Where("status = ?", string(status))
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []HelpRequestModel
	err := base.Session(&gorm.Session{}).
		Order(order).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Preload("Attachments", func(db *gorm.DB) *gorm.DB {
			return db.Order("seq ASC")
		}).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	res := make([]domain.HelpRequest, 0, len(models))
	for _, m := range models {
		res = append(res, requestFromModel(m))
	}
	return res, total, nil
}

// CancelRequest moves a non-terminal request to cancelled.
func (s *GormStore) CancelRequest(id string) error {
	result := s.db.Model(&HelpRequestModel{}).
		Where("id = ? AND status IN ?", id, []string{
			string(domain.StatusOpen),
			string(domain.StatusClaimed),
			string(domain.StatusReplied),
		}).
		Updates(map[string]any{
			"status":     string(domain.StatusCancelled),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}

// ClaimRequest atomically records the assignment and claims the request.
// The unique index on assignments.request_id makes the second of two
// concurrent claims fail with ErrConflict rather than double-claiming.
func (s *GormStore) ClaimRequest(a domain.Assignment) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(assignmentToModel(a)).Error; err != nil {
			return translate(err)
		}
		result := tx.Model(&HelpRequestModel{}).
			Where("id = ? AND status = ?", a.RequestID, string(domain.StatusOpen)).
			Updates(map[string]any{
				"status":     string(domain.StatusClaimed),
				"updated_at": time.Now().UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStale
		}
		return nil
	})
}

// GetAssignmentByRequest returns the assignment holding a request, if any.
func (s *GormStore) GetAssignmentByRequest(requestID string) (domain.Assignment, bool, error) {
	var model AssignmentModel
	if err := s.db.First(&model, "request_id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Assignment{}, false, nil
		}
		return domain.Assignment{}, false, err
	}
	return assignmentFromModel(model), true, nil
}

// CreateReply records the reply and fires the claimed→replied
// transition exactly once; later replies match zero rows and are no-ops
// status-wise.
func (s *GormStore) CreateReply(r domain.Reply) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(replyToModel(r)).Error; err != nil {
			return translate(err)
		}
		return tx.Model(&HelpRequestModel{}).
			Where("id = ? AND status = ?", r.RequestID, string(domain.StatusClaimed)).
			Updates(map[string]any{
				"status":     string(domain.StatusReplied),
				"updated_at": time.Now().UTC(),
			}).Error
	})
}

// ListReplies returns replies for a request, oldest first.
func (s *GormStore) ListReplies(requestID string) ([]domain.Reply, error) {
	var models []ReplyModel
	if err := s.db.Where("request_id = ?", requestID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Reply, 0, len(models))
	for _, m := range models {
		res = append(res, replyFromModel(m))
	}
	return res, nil
}

// ListRepliesToSeeker returns replies on the seeker's own requests,
// newest first.
func (s *GormStore) ListRepliesToSeeker(seekerID string, limit int) ([]domain.Reply, error) {
	var models []ReplyModel
	err := s.db.
		Joins("JOIN help_requests ON help_requests.id = replies.request_id").
		Where("help_requests.seeker_id = ?", seekerID).
		Order("replies.created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	res := make([]domain.Reply, 0, len(models))
	for _, m := range models {
		res = append(res, replyFromModel(m))
	}
	return res, nil
}

// CreateFeedback records the verdict and finalizes the request. The
// unique index on feedback.request_id rejects a second verdict.
func (s *GormStore) CreateFeedback(f domain.Feedback, final domain.RequestStatus) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(feedbackToModel(f)).Error; err != nil {
			return translate(err)
		}
		result := tx.Model(&HelpRequestModel{}).
			Where("id = ? AND status IN ?", f.RequestID, []string{
				string(domain.StatusReplied),
				string(domain.StatusClaimed),
			}).
			Updates(map[string]any{
				"status":     string(final),
				"updated_at": time.Now().UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStale
		}
		return nil
	})
}

// CreateReport stores a moderation report.
func (s *GormStore) CreateReport(r domain.Report) error {
	model, err := reportToModel(r)
	if err != nil {
		return err
	}
	return translate(s.db.Create(model).Error)
}

// CreateBlock stores a user block.
func (s *GormStore) CreateBlock(b domain.Block) error {
	return translate(s.db.Create(blockToModel(b)).Error)
}

// conversions

func strPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func userToModel(u domain.User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Role:         string(u.Role),
		Phone:        strPtr(u.Phone),
		Email:        strPtr(u.Email),
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Role:         domain.UserRole(m.Role),
		Phone:        strVal(m.Phone),
		Email:        strVal(m.Email),
		PasswordHash: m.PasswordHash,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
	}
}

func settingsToModel(s domain.UserSettings) *UserSettingsModel {
	return &UserSettingsModel{
		UserID:           s.UserID,
		TTSEnabled:       s.TTSEnabled,
		TTSRate:          s.TTSRate,
		HapticEnabled:    s.HapticEnabled,
		VoicePromptLevel: s.VoicePromptLevel,
	}
}

func settingsFromModel(m UserSettingsModel) domain.UserSettings {
	return domain.UserSettings{
		UserID:           m.UserID,
		TTSEnabled:       m.TTSEnabled,
		TTSRate:          m.TTSRate,
		HapticEnabled:    m.HapticEnabled,
		VoicePromptLevel: m.VoicePromptLevel,
	}
}

func uploadToModel(f domain.UploadedFile) *UploadedFileModel {
	return &UploadedFileModel{
		ID:          f.ID,
		UserID:      f.UserID,
		Filename:    f.Filename,
		MimeType:    f.MimeType,
		Size:        f.Size,
		Category:    string(f.Category),
		StoragePath: f.StoragePath,
		CreatedAt:   f.CreatedAt,
	}
}

func uploadFromModel(m UploadedFileModel) domain.UploadedFile {
	return domain.UploadedFile{
		ID:          m.ID,
		UserID:      m.UserID,
		Filename:    m.Filename,
		MimeType:    m.MimeType,
		Size:        m.Size,
		Category:    domain.FileCategory(m.Category),
		StoragePath: m.StoragePath,
		CreatedAt:   m.CreatedAt,
	}
}

func requestToModel(r domain.HelpRequest) HelpRequestModel {
	attachments := make([]AttachmentModel, 0, len(r.Attachments))
	for _, a := range r.Attachments {
		attachments = append(attachments, AttachmentModel{
			ID:        a.ID,
			RequestID: a.RequestID,
			FileID:    a.FileID,
			FileType:  string(a.FileType),
		})
	}
	return HelpRequestModel{
		ID:                r.ID,
		SeekerID:          r.SeekerID,
		Mode:              string(r.Mode),
		TargetVolunteerID: r.TargetVolunteerID,
		Status:            string(r.Status),
		VoiceFileID:       r.VoiceFileID,
		RawText:           r.RawText,
		TranscribedText:   r.TranscribedText,
		Category:          r.Category,
		Priority:          r.Priority,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		Attachments:       attachments,
	}
}

func requestFromModel(m HelpRequestModel) domain.HelpRequest {
	attachments := make([]domain.Attachment, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		attachments = append(attachments, domain.Attachment{
			ID:        a.ID,
			RequestID: a.RequestID,
			FileID:    a.FileID,
			FileType:  domain.FileCategory(a.FileType),
		})
	}
	return domain.HelpRequest{
		ID:                m.ID,
		SeekerID:          m.SeekerID,
		Mode:              domain.RequestMode(m.Mode),
		TargetVolunteerID: m.TargetVolunteerID,
		Status:            domain.RequestStatus(m.Status),
		VoiceFileID:       m.VoiceFileID,
		RawText:           m.RawText,
		TranscribedText:   m.TranscribedText,
		Category:          m.Category,
		Priority:          m.Priority,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
		Attachments:       attachments,
	}
}

func assignmentToModel(a domain.Assignment) *AssignmentModel {
	return &AssignmentModel{
		ID:          a.ID,
		RequestID:   a.RequestID,
		VolunteerID: a.VolunteerID,
		ClaimedAt:   a.ClaimedAt,
		CompletedAt: a.CompletedAt,
	}
}

func assignmentFromModel(m AssignmentModel) domain.Assignment {
	return domain.Assignment{
		ID:          m.ID,
		RequestID:   m.RequestID,
		VolunteerID: m.VolunteerID,
		ClaimedAt:   m.ClaimedAt,
		CompletedAt: m.CompletedAt,
	}
}

func replyToModel(r domain.Reply) *ReplyModel {
	return &ReplyModel{
		ID:          r.ID,
		RequestID:   r.RequestID,
		VolunteerID: r.VolunteerID,
		ReplyType:   string(r.ReplyType),
		VoiceFileID: r.VoiceFileID,
		Text:        r.Text,
		CreatedAt:   r.CreatedAt,
	}
}

func replyFromModel(m ReplyModel) domain.Reply {
	return domain.Reply{
		ID:          m.ID,
		RequestID:   m.RequestID,
		VolunteerID: m.VolunteerID,
		ReplyType:   domain.ReplyType(m.ReplyType),
		VoiceFileID: m.VoiceFileID,
		Text:        m.Text,
		CreatedAt:   m.CreatedAt,
	}
}

func feedbackToModel(f domain.Feedback) *FeedbackModel {
	return &FeedbackModel{
		ID:        f.ID,
		RequestID: f.RequestID,
		SeekerID:  f.SeekerID,
		Resolved:  f.Resolved,
		Comment:   f.Comment,
		CreatedAt: f.CreatedAt,
	}
}

func reportToModel(r domain.Report) (*ReportModel, error) {
	var evidence datatypes.JSON
	if len(r.Evidence) > 0 {
		raw, err := json.Marshal(r.Evidence)
		if err != nil {
			return nil, fmt.Errorf("marshal report evidence: %w", err)
		}
		evidence = datatypes.JSON(raw)
	}
	return &ReportModel{
		ID:              r.ID,
		ReporterID:      r.ReporterID,
		TargetUserID:    r.TargetUserID,
		TargetRequestID: r.TargetRequestID,
		Reason:          r.Reason,
		Evidence:        evidence,
		CreatedAt:       r.CreatedAt,
	}, nil
}

func blockToModel(b domain.Block) *BlockModel {
	return &BlockModel{
		ID:        b.ID,
		BlockerID: b.BlockerID,
		BlockedID: b.BlockedID,
		CreatedAt: b.CreatedAt,
	}
}
