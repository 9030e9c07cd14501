package store

import (
	"sort"
	"sync"
	"time"

	"seeforme/pkg/domain"
)

// MemoryStore keeps everything in-process. It mirrors the Postgres
// store's guard and uniqueness semantics under a single mutex, which
// makes it a faithful stand-in for concurrency tests.
type MemoryStore struct {
	mu           sync.Mutex
	users        map[string]domain.User
	accounts     map[string]string // phone or email -> user ID
	settings     map[string]domain.UserSettings
	uploads      map[string]domain.UploadedFile
	requests     map[string]domain.HelpRequest
	requestOrder []string
	assignments  map[string]domain.Assignment // key: request ID
	replies      []domain.Reply
	feedback     map[string]domain.Feedback // key: request ID
	reports      []domain.Report
	blocks       []domain.Block
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]domain.User),
		accounts:    make(map[string]string),
		settings:    make(map[string]domain.UserSettings),
		uploads:     make(map[string]domain.UploadedFile),
		requests:    make(map[string]domain.HelpRequest),
		assignments: make(map[string]domain.Assignment),
		feedback:    make(map[string]domain.Feedback),
	}
}

func (m *MemoryStore) CreateUser(u domain.User, settings domain.UserSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.Phone != "" {
		if _, taken := m.accounts[u.Phone]; taken {
			return ErrConflict
		}
	}
	if u.Email != "" {
		if _, taken := m.accounts[u.Email]; taken {
			return ErrConflict
		}
	}
	m.users[u.ID] = u
	if u.Phone != "" {
		m.accounts[u.Phone] = u.ID
	}
	if u.Email != "" {
		m.accounts[u.Email] = u.ID
	}
	m.settings[settings.UserID] = settings
	return nil
}

func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *MemoryStore) GetUserByAccount(account string) (domain.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.accounts[account]
	if !ok {
		return domain.User{}, false, nil
	}
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *MemoryStore) GetSettings(userID string) (domain.UserSettings, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[userID]
	return s, ok, nil
}

func (m *MemoryStore) SaveSettings(settings domain.UserSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[settings.UserID] = settings
	return nil
}

func (m *MemoryStore) CreateUpload(f domain.UploadedFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads[f.ID] = f
	return nil
}

func (m *MemoryStore) GetUpload(id string) (domain.UploadedFile, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.uploads[id]
	return f, ok, nil
}

func (m *MemoryStore) UpdateUpload(f domain.UploadedFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads[f.ID] = f
	return nil
}

func (m *MemoryStore) CreateRequest(req domain.HelpRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[req.ID] = req
	m.requestOrder = append(m.requestOrder, req.ID)
	return nil
}

func (m *MemoryStore) GetRequest(id string) (domain.HelpRequest, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	return r, ok, nil
}

func (m *MemoryStore) ListHallRequests(page, pageSize int, status domain.RequestStatus) ([]domain.HelpRequest, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := m.filter(func(r domain.HelpRequest) bool {
		return r.Mode == domain.ModeHall && (status == "" || r.Status == status)
	})
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Priority != matched[j].Priority {
			return matched[i].Priority > matched[j].Priority
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, page, pageSize)
}

func (m *MemoryStore) ListSeekerRequests(seekerID string, page, pageSize int, status domain.RequestStatus) ([]domain.HelpRequest, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := m.filter(func(r domain.HelpRequest) bool {
		return r.SeekerID == seekerID && (status == "" || r.Status == status)
	})
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, page, pageSize)
}

func (m *MemoryStore) filter(keep func(domain.HelpRequest) bool) []domain.HelpRequest {
	matched := make([]domain.HelpRequest, 0, len(m.requestOrder))
	for _, id := range m.requestOrder {
		if r, ok := m.requests[id]; ok && keep(r) {
			matched = append(matched, r)
		}
	}
	return matched
}

func paginate(items []domain.HelpRequest, page, pageSize int) ([]domain.HelpRequest, int64, error) {
	total := int64(len(items))
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []domain.HelpRequest{}, total, nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], total, nil
}

func (m *MemoryStore) CancelRequest(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok || r.Status.Terminal() {
		return ErrStale
	}
	r.Status = domain.StatusCancelled
	r.UpdatedAt = time.Now().UTC()
	m.requests[id] = r
	return nil
}

func (m *MemoryStore) ClaimRequest(a domain.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.assignments[a.RequestID]; taken {
		return ErrConflict
	}
	r, ok := m.requests[a.RequestID]
	if !ok || r.Status != domain.StatusOpen {
		return ErrStale
	}
	m.assignments[a.RequestID] = a
	r.Status = domain.StatusClaimed
	r.UpdatedAt = time.Now().UTC()
	m.requests[a.RequestID] = r
	return nil
}

func (m *MemoryStore) GetAssignmentByRequest(requestID string) (domain.Assignment, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[requestID]
	return a, ok, nil
}

func (m *MemoryStore) CreateReply(r domain.Reply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, r)
	req, ok := m.requests[r.RequestID]
	if ok && req.Status == domain.StatusClaimed {
		req.Status = domain.StatusReplied
		req.UpdatedAt = time.Now().UTC()
		m.requests[r.RequestID] = req
	}
	return nil
}

func (m *MemoryStore) ListReplies(requestID string) ([]domain.Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := make([]domain.Reply, 0)
	for _, r := range m.replies {
		if r.RequestID == requestID {
			res = append(res, r)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}

func (m *MemoryStore) ListRepliesToSeeker(seekerID string, limit int) ([]domain.Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := make([]domain.Reply, 0)
	for _, r := range m.replies {
		req, ok := m.requests[r.RequestID]
		if ok && req.SeekerID == seekerID {
			res = append(res, r)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (m *MemoryStore) CreateFeedback(f domain.Feedback, final domain.RequestStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.feedback[f.RequestID]; exists {
		return ErrConflict
	}
	r, ok := m.requests[f.RequestID]
	if !ok || (r.Status != domain.StatusReplied && r.Status != domain.StatusClaimed) {
		return ErrStale
	}
	m.feedback[f.RequestID] = f
	r.Status = final
	r.UpdatedAt = time.Now().UTC()
	m.requests[f.RequestID] = r
	return nil
}

func (m *MemoryStore) CreateReport(r domain.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, r)
	return nil
}

func (m *MemoryStore) CreateBlock(b domain.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.blocks {
		if existing.BlockerID == b.BlockerID && existing.BlockedID == b.BlockedID {
			return ErrConflict
		}
	}
	m.blocks = append(m.blocks, b)
	return nil
}
