package service

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/netbar/billing-system/internal/core/domain"
	"github.com/netbar/billing-system/internal/core/ports"
)

// Audit appends to the audit trail. Write failures are logged and swallowed
// so that auditing never fails the operation being audited.
type Audit struct {
	repo ports.LogRepository
	log  zerolog.Logger
}

// NewAudit returns an AuditRecorder backed by repo.
func NewAudit(repo ports.LogRepository, log zerolog.Logger) *Audit {
	return &Audit{repo: repo, log: log}
}

func (a *Audit) UserEvent(ctx context.Context, userID int64, action, details string) {
	a.write(ctx, domain.LogUser, strconv.FormatInt(userID, 10), action, details)
}

func (a *Audit) ManagementEvent(ctx context.Context, actor, action, details string) {
	a.write(ctx, domain.LogManagement, actor, action, details)
}

func (a *Audit) write(ctx context.Context, kind domain.LogKind, actor, action, details string) {
	entry := &domain.LogEntry{
		Timestamp: time.Now().UTC(),
		Kind:      kind,
		ActorID:   actor,
		Action:    action,
		Details:   details,
	}
	if err := a.repo.Insert(ctx, entry); err != nil {
		a.log.Warn().Err(err).
			Str("kind", string(kind)).
			Str("action", action).
			Msg("failed to write audit log")
	}
}

// LogService lists audit records.
type LogService struct {
	repo ports.LogRepository
}

func NewLogService(repo ports.LogRepository) *LogService {
	return &LogService{repo: repo}
}

func (s *LogService) List(ctx context.Context, filter ports.LogFilter) (*domain.Page[*domain.LogEntry], error) {
	filter.PageNum, filter.PageSize = domain.NormalizePage(filter.PageNum, filter.PageSize)

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := domain.NewPage(items, total, filter.PageNum, filter.PageSize)
	return &page, nil
}
