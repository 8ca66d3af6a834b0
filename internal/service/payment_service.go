package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/jobpay/internal/config"
	"github.com/nurpe/jobpay/internal/model"
	"github.com/nurpe/jobpay/internal/repository"
)

type ReceiptGenerator interface {
	Generate(doc model.ReceiptDocument) ([]byte, error)
}

// PaymentService owns the two balance-mutating operations: job settlement and
// the capped deposit. Both run as serializable transactions; serialization
// conflicts are retried a bounded number of times before surfacing.
type PaymentService struct {
	repo       *repository.LedgerRepository
	receipts   ReceiptGenerator
	capRatio   float64
	maxRetries int
	log        zerolog.Logger
}

type ReceiptResult struct {
	FileName string
	Content  []byte
}

func NewPaymentService(repo *repository.LedgerRepository, receipts ReceiptGenerator, cfg *config.Config, log zerolog.Logger) *PaymentService {
	return &PaymentService{
		repo:       repo,
		receipts:   receipts,
		capRatio:   cfg.Billing.DepositCapRatio,
		maxRetries: cfg.Billing.PayMaxRetries,
		log:        log,
	}
}

// PayJob settles a job: the client's balance is debited, the contractor's is
// credited and the job is marked paid, all within one transaction. Only the
// contract's client may pay, a job is payable at most once, and the client
// balance never goes below zero.
func (s *PaymentService) PayJob(ctx context.Context, principal model.Principal, jobID uuid.UUID) (*model.Job, error) {
	if jobID == uuid.Nil {
		return nil, ErrInvalidInput
	}

	var settled *model.Job
	err := s.withRetry(ctx, "pay job", func(ctx context.Context) error {
		settled = nil
		return s.repo.InSerializableTx(ctx, func(tx *repository.LedgerRepository) error {
			job, err := tx.GetJob(ctx, jobID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrJobNotPayable
				}
				return err
			}
			if job.IsPaid() {
				return ErrJobNotPayable
			}

			contract, err := tx.GetContract(ctx, job.ContractID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrJobNotPayable
				}
				return err
			}
			if contract.ClientID != principal.ProfileID {
				return ErrNotAuthorized
			}

			paidAt := time.Now().UTC()
			flipped, err := tx.MarkJobPaid(ctx, job.ID, paidAt)
			if err != nil {
				return err
			}
			if !flipped {
				return ErrJobNotPayable
			}

			debited, err := tx.DebitClientBalance(ctx, contract.ClientID, job.Price)
			if err != nil {
				return err
			}
			if !debited {
				return ErrInsufficientFunds
			}

			credited, err := tx.CreditBalance(ctx, contract.ContractorID, job.Price)
			if err != nil {
				return err
			}
			if !credited {
				return fmt.Errorf("contractor profile %s missing during settlement", contract.ContractorID)
			}

			paid := true
			job.Paid = &paid
			job.PaymentDate = &paidAt
			settled = job
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return settled, nil
}

// Deposit credits the target client account with the allowed amount: the
// configured ratio of the caller's outstanding unpaid job total. The amount
// requested by the caller plays no role. Zero outstanding means a zero
// credit, not an error.
func (s *PaymentService) Deposit(ctx context.Context, principal model.Principal, targetID uuid.UUID) (float64, error) {
	if targetID == uuid.Nil {
		return 0, ErrInvalidInput
	}
	// Depositing to an account the caller does not own looks the same as a
	// missing account.
	if !principal.Owns(targetID) {
		return 0, ErrAccountNotFound
	}

	var credited float64
	err := s.withRetry(ctx, "deposit", func(ctx context.Context) error {
		return s.repo.InSerializableTx(ctx, func(tx *repository.LedgerRepository) error {
			outstanding, err := tx.SumUnpaidForClient(ctx, principal.ProfileID)
			if err != nil {
				return err
			}
			amount := outstanding * s.capRatio

			ok, err := tx.CreditClientBalance(ctx, targetID, amount)
			if err != nil {
				return err
			}
			if !ok {
				return ErrAccountNotFound
			}
			credited = amount
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return credited, nil
}

// Receipt renders a PDF receipt for a settled job the caller is party to.
func (s *PaymentService) Receipt(ctx context.Context, principal model.Principal, jobID uuid.UUID) (*ReceiptResult, error) {
	if jobID == uuid.Nil {
		return nil, ErrInvalidInput
	}

	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !job.IsPaid() {
		return nil, ErrNotFound
	}

	contract, err := s.repo.GetContract(ctx, job.ContractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !contract.IsParty(principal.ProfileID) {
		return nil, ErrNotFound
	}

	client, err := s.repo.GetProfile(ctx, contract.ClientID)
	if err != nil {
		return nil, err
	}
	contractor, err := s.repo.GetProfile(ctx, contract.ContractorID)
	if err != nil {
		return nil, err
	}

	content, err := s.receipts.Generate(model.ReceiptDocument{
		Job:        *job,
		Contract:   *contract,
		Client:     *client,
		Contractor: *contractor,
	})
	if err != nil {
		return nil, err
	}

	return &ReceiptResult{
		FileName: fmt.Sprintf("receipt-%s.pdf", job.ID),
		Content:  content,
	}, nil
}

func (s *PaymentService) withRetry(ctx context.Context, operation string, attempt func(ctx context.Context) error) error {
	var err error
	for try := 0; try <= s.maxRetries; try++ {
		err = attempt(ctx)
		if err == nil || !isSerializationConflict(err) {
			return err
		}
		s.log.Warn().Str("operation", operation).Int("attempt", try+1).Msg("transaction conflict, retrying")
	}
	return fmt.Errorf("%s: transaction contention persisted: %w", operation, err)
}

func isSerializationConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
