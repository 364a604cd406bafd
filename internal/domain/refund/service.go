package refund

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// Service handles refund requests: it locates the order by reference code,
// flags it, and records the request.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a refund Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Request flags the order matching refCode as refund-requested and persists
// a refund record with the reason and contact email. Flagging is idempotent;
// the refund row is not: a second submission for the same order creates a
// second row.
// Returns ErrOrderNotFound for an unknown reference code.
func (s *Service) Request(ctx context.Context, refCode, reason, email string) (*Refund, error) {
	orderID, err := s.repo.FindOrderIDByRefCode(ctx, strings.TrimSpace(refCode))
	if err != nil {
		return nil, err
	}

	if err := s.repo.MarkRefundRequested(ctx, orderID); err != nil {
		return nil, errors.Wrap(err, "mark refund requested")
	}

	r := &Refund{
		ID:        uuid.New().String(),
		OrderID:   orderID,
		Reason:    reason,
		Email:     email,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, errors.Wrap(err, "create refund")
	}
	return r, nil
}
