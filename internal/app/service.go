package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neomorfeo/leaseiq/internal/domain"
)

// LeaseService is the lifecycle orchestrator. For every operation it runs
// the same sequence: transition legality → rules validation → settlement
// calculation → snapshot mutation → persistence → event publication. A
// rejection never produces a partially mutated lease; each call is a pure
// function of (current lease, payload) up to persistence.
type LeaseService struct {
	repo      domain.LeaseRepository
	publisher domain.EventPublisher
	validator domain.TransitionValidator
	now       func() time.Time
}

// NewLeaseService creates a service with the given adapters.
func NewLeaseService(repo domain.LeaseRepository, publisher domain.EventPublisher, validator domain.TransitionValidator) *LeaseService {
	return &LeaseService{
		repo:      repo,
		publisher: publisher,
		validator: validator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create validates and persists a new lease in draft or directly active
// state. It returns non-fatal warnings alongside the lease.
func (s *LeaseService) Create(ctx context.Context, p domain.CreatePayload) (domain.Lease, []string, error) {
	warnings, err := domain.ValidateCreate(p)
	if err != nil {
		return domain.Lease{}, warnings, err
	}

	id, err := generateID()
	if err != nil {
		return domain.Lease{}, nil, fmt.Errorf("generating lease id: %w", err)
	}

	lease, signals := domain.NewLease(id, p, s.now())

	if err := s.repo.Create(ctx, lease); err != nil {
		return domain.Lease{}, nil, fmt.Errorf("creating lease: %w", err)
	}

	if err := s.publisher.Publish(ctx, domain.EventCreate, lease, signals); err != nil {
		return domain.Lease{}, nil, fmt.Errorf("publishing creation event: %w", err)
	}

	return lease, warnings, nil
}

// GetByID returns a lease by its unique identifier.
func (s *LeaseService) GetByID(ctx context.Context, id string) (domain.Lease, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns leases matching the given filter.
func (s *LeaseService) List(ctx context.Context, filter domain.ListFilter) ([]domain.Lease, error) {
	return s.repo.List(ctx, filter)
}

// Activate moves a draft lease to active.
func (s *LeaseService) Activate(ctx context.Context, id string, p domain.ActivatePayload) (domain.Lease, error) {
	lease, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Lease{}, err
	}

	if err := s.checkRules(ctx, lease, domain.EventActivate, domain.ValidateActivate(lease, p)); err != nil {
		return domain.Lease{}, err
	}

	updated, signals := domain.ActivatedLease(lease, p, s.now())
	return s.commit(ctx, domain.EventActivate, updated, signals)
}

// Renew extends a lease with a new end date and applies the rent increase.
func (s *LeaseService) Renew(ctx context.Context, id string, p domain.RenewPayload) (domain.Lease, error) {
	lease, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Lease{}, err
	}

	if err := s.checkRules(ctx, lease, domain.EventRenew, domain.ValidateRenew(lease, p)); err != nil {
		return domain.Lease{}, err
	}

	updated, signals := domain.RenewedLease(lease, p, s.now())
	return s.commit(ctx, domain.EventRenew, updated, signals)
}

// Cancel terminates a lease and settles its security deposit.
func (s *LeaseService) Cancel(ctx context.Context, id string, p domain.CancelPayload) (domain.Lease, error) {
	lease, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Lease{}, err
	}

	if err := s.checkRules(ctx, lease, domain.EventCancel, domain.ValidateCancel(lease, p, s.now())); err != nil {
		return domain.Lease{}, err
	}

	// Validation bounds the refund to [0, deposit], so a negative deduction
	// here means a caller reached the calculator around the rules engine.
	if deduction := domain.ComputeDeduction(lease.SecurityDeposit, p.RefundAmount); deduction < 0 {
		return domain.Lease{}, &domain.PreconditionError{
			Op:     "Cancel",
			Detail: fmt.Sprintf("deduction is negative (%.2f)", deduction),
		}
	}

	updated, signals := domain.TerminatedLease(lease, p, s.now())
	return s.commit(ctx, domain.EventCancel, updated, signals)
}

// ExpireDue marks every lease whose end date has passed without renewal as
// expired and publishes the expiry signal. It is invoked by the periodic
// sweep job, not by users, and returns the number of leases expired.
func (s *LeaseService) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	today := time.Date(now.UTC().Year(), now.UTC().Month(), now.UTC().Day(), 0, 0, 0, 0, time.UTC)

	leases, err := s.repo.List(ctx, domain.ListFilter{EndBefore: &today})
	if err != nil {
		return 0, fmt.Errorf("listing expirable leases: %w", err)
	}

	expired := 0
	for _, lease := range leases {
		if _, err := s.validator.Apply(ctx, lease.Status, domain.EventExpire); err != nil {
			var trErr *domain.TransitionError
			if errors.As(err, &trErr) {
				continue // not in an expirable state
			}
			return expired, err
		}

		updated, signals := domain.ExpiredLease(lease, now)
		if _, err := s.commit(ctx, domain.EventExpire, updated, signals); err != nil {
			return expired, err
		}
		expired++
	}

	return expired, nil
}

// checkRules merges transition legality and the operation's rule validation
// into a single rejection, so callers see every problem in one pass.
func (s *LeaseService) checkRules(ctx context.Context, lease domain.Lease, event domain.Event, ruleErr error) error {
	var reasons []string

	if _, err := s.validator.Apply(ctx, lease.Status, event); err != nil {
		var trErr *domain.TransitionError
		if !errors.As(err, &trErr) {
			return err
		}
		reasons = append(reasons, trErr.Error())
	}

	if ruleErr != nil {
		var rej *domain.Rejection
		if !errors.As(ruleErr, &rej) {
			return ruleErr
		}
		reasons = append(reasons, rej.Reasons...)
	}

	if len(reasons) > 0 {
		return &domain.Rejection{Reasons: reasons}
	}
	return nil
}

// commit persists the new snapshot and publishes its event.
func (s *LeaseService) commit(ctx context.Context, event domain.Event, lease domain.Lease, signals []domain.Signal) (domain.Lease, error) {
	if err := s.repo.Update(ctx, lease); err != nil {
		return domain.Lease{}, fmt.Errorf("updating lease: %w", err)
	}

	if err := s.publisher.Publish(ctx, event, lease, signals); err != nil {
		return domain.Lease{}, fmt.Errorf("publishing event %q: %w", event, err)
	}

	return lease, nil
}
