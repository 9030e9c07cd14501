package app

import (
	"errors"
	"strings"

	"seeforme/internal/store"
	"seeforme/internal/util"
	"seeforme/pkg/apperr"
	"seeforme/pkg/domain"
)

// ReportInput flags a user or a request for review. At least one
// target is required.
type ReportInput struct {
	TargetUserID    string         `json:"targetUserId"`
	TargetRequestID string         `json:"targetRequestId"`
	Reason          string         `json:"reason"`
	Evidence        map[string]any `json:"evidence"`
}

// SubmitReport records a moderation report.
func (a *App) SubmitReport(reporterID string, in ReportInput) (domain.Report, error) {
	targetUser := strings.TrimSpace(in.TargetUserID)
	targetRequest := strings.TrimSpace(in.TargetRequestID)
	if targetUser == "" && targetRequest == "" {
		return domain.Report{}, apperr.New(apperr.KindInvalidPayload, "target_required", "a report needs a target user or request")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return domain.Report{}, apperr.New(apperr.KindInvalidPayload, "reason_required", "a report needs a reason")
	}

	report := domain.Report{
		ID:              util.NewID(),
		ReporterID:      reporterID,
		TargetUserID:    targetUser,
		TargetRequestID: targetRequest,
		Reason:          strings.TrimSpace(in.Reason),
		Evidence:        in.Evidence,
		CreatedAt:       a.now().UTC(),
	}
	if err := a.store.CreateReport(report); err != nil {
		return domain.Report{}, apperr.Wrap(apperr.KindInternal, "report_failed", "could not submit report", err)
	}
	a.logger.Info("report submitted", "report_id", report.ID, "reporter_id", reporterID)
	return report, nil
}

// BlockUser hides another user's content from the blocker.
func (a *App) BlockUser(blockerID, blockedID string) (domain.Block, error) {
	blockedID = strings.TrimSpace(blockedID)
	if blockedID == "" {
		return domain.Block{}, apperr.New(apperr.KindInvalidPayload, "target_required", "a block needs a target user")
	}
	if blockedID == blockerID {
		return domain.Block{}, apperr.New(apperr.KindInvalidPayload, "self_block", "cannot block yourself")
	}

	block := domain.Block{
		ID:        util.NewID(),
		BlockerID: blockerID,
		BlockedID: blockedID,
		CreatedAt: a.now().UTC(),
	}
	if err := a.store.CreateBlock(block); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.Block{}, apperr.New(apperr.KindConflict, "already_blocked", "user is already blocked")
		}
		return domain.Block{}, apperr.Wrap(apperr.KindInternal, "block_failed", "could not block user", err)
	}
	return block, nil
}
