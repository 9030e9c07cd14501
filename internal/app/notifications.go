package app

import (
	"strings"

	"seeforme/pkg/apperr"
	"seeforme/pkg/domain"
)

const notificationLimit = 100

// Notifications projects a read-only feed from the reply stream.
// Seekers see replies on their own requests, newest first; volunteers
// have no message center yet and get an empty feed.
func (a *App) Notifications(userID string, role domain.UserRole) ([]domain.Notification, error) {
	if role != domain.RoleSeeker {
		return []domain.Notification{}, nil
	}
	replies, err := a.store.ListRepliesToSeeker(userID, notificationLimit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "notifications_failed", "could not load notifications", err)
	}

	items := make([]domain.Notification, 0, len(replies))
	for _, reply := range replies {
		items = append(items, domain.Notification{
			ID:        "reply-" + reply.ID,
			Type:      "reply",
			Sender:    "志愿者",
			Title:     "你的求助收到新回复",
			Preview:   replyPreview(reply),
			Tag:       replyTag(reply),
			RequestID: reply.RequestID,
			ReplyID:   reply.ID,
			CreatedAt: reply.CreatedAt,
		})
	}
	return items, nil
}

func replyPreview(reply domain.Reply) string {
	if reply.ReplyType == domain.ReplyVoice {
		return "收到一条语音回复，点击进入详情收听。"
	}
	if text := strings.TrimSpace(reply.Text); text != "" {
		return text
	}
	return "收到一条文本回复，点击查看详情。"
}

func replyTag(reply domain.Reply) string {
	if reply.ReplyType == domain.ReplyVoice {
		return "语音"
	}
	return "回复"
}
