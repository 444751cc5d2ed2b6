package mysql

import (
	"context"

	"invoice-ledger/internal/domain/event"
	"invoice-ledger/pkg/id"

	"gorm.io/gorm"
)

type EventRepository struct{ db *gorm.DB }

func NewEventRepository(db *gorm.DB) *EventRepository { return &EventRepository{db: db} }

func (r *EventRepository) Append(ctx context.Context, e *event.Event) error {
	if e.EventID == "" {
		e.EventID = id.NewID32()
	}
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *EventRepository) ListBySubject(ctx context.Context, subject event.Subject, subjectID uint64) ([]event.Event, error) {
	var out []event.Event
	err := r.db.WithContext(ctx).
		Where("subject = ? AND subject_id = ?", subject, subjectID).
		Order("seq ASC").
		Find(&out).Error
	return out, err
}
