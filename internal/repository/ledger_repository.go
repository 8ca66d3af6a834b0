package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/jobpay/internal/model"
)

// LedgerRepository is the single access path to persisted profiles, contracts
// and jobs. Balance and paid-flag mutations are guarded updates whose WHERE
// clause re-checks the precondition, so a row is only touched when the
// invariant still holds at commit time.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// InSerializableTx runs fn against a repository bound to a serializable
// transaction. Every settlement mutation goes through here; a conflict aborts
// the whole unit and leaves no partial effect.
func (r *LedgerRepository) InSerializableTx(ctx context.Context, fn func(tx *LedgerRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&LedgerRepository{db: tx})
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
}

func (r *LedgerRepository) GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, first_name, last_name, profession, type, balance
		FROM profiles
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&profile).Error; err != nil {
		return nil, err
	}
	if profile.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &profile, nil
}

func (r *LedgerRepository) GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var contract model.Contract
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, client_id, contractor_id, terms, status
		FROM contracts
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&contract).Error; err != nil {
		return nil, err
	}
	if contract.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &contract, nil
}

func (r *LedgerRepository) GetJob(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	var job model.Job
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, contract_id, description, price, paid, payment_date
		FROM jobs
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&job).Error; err != nil {
		return nil, err
	}
	if job.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &job, nil
}

func (r *LedgerRepository) ListContractsForParty(ctx context.Context, profileID uuid.UUID) ([]model.Contract, error) {
	var contracts []model.Contract
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, client_id, contractor_id, terms, status
		FROM contracts
		WHERE (client_id = ? OR contractor_id = ?)
			AND status <> 'terminated'
		ORDER BY id ASC
	`, profileID, profileID).Scan(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *LedgerRepository) ListUnpaidJobsForParty(ctx context.Context, profileID uuid.UUID) ([]model.Job, error) {
	var jobs []model.Job
	if err := r.db.WithContext(ctx).Raw(`
		SELECT j.id, j.contract_id, j.description, j.price, j.paid, j.payment_date
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		WHERE (c.client_id = ? OR c.contractor_id = ?)
			AND c.status = 'in_progress'
			AND j.paid IS NOT TRUE
		ORDER BY j.id ASC
	`, profileID, profileID).Scan(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// MarkJobPaid flips the paid flag exactly once. Returns false when the job is
// missing or a concurrent settlement already flipped it.
func (r *LedgerRepository) MarkJobPaid(ctx context.Context, jobID uuid.UUID, paidAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE jobs
		SET paid = TRUE, payment_date = ?
		WHERE id = ? AND paid IS NOT TRUE
	`, paidAt, jobID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DebitClientBalance subtracts amount from a client profile, refusing to go
// below zero. Returns false when the profile is not a client or funds are
// short.
func (r *LedgerRepository) DebitClientBalance(ctx context.Context, profileID uuid.UUID, amount float64) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE profiles
		SET balance = balance - ?
		WHERE id = ? AND type = 'client' AND balance >= ?
	`, amount, profileID, amount)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *LedgerRepository) CreditBalance(ctx context.Context, profileID uuid.UUID, amount float64) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE profiles
		SET balance = balance + ?
		WHERE id = ?
	`, amount, profileID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CreditClientBalance is CreditBalance gated on the target being a client
// profile.
func (r *LedgerRepository) CreditClientBalance(ctx context.Context, profileID uuid.UUID, amount float64) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE profiles
		SET balance = balance + ?
		WHERE id = ? AND type = 'client'
	`, amount, profileID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SumUnpaidForClient totals the outstanding (unpaid) job prices across all of
// the client's contracts, regardless of contract status.
func (r *LedgerRepository) SumUnpaidForClient(ctx context.Context, clientID uuid.UUID) (float64, error) {
	var total float64
	if err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(j.price), 0)
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		WHERE c.client_id = ? AND j.paid IS NOT TRUE
	`, clientID).Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// ProfessionEarnings sums paid-out job prices per contractor profession over
// the [from, to) window, highest first. Ordering among equal totals follows
// the store.
func (r *LedgerRepository) ProfessionEarnings(ctx context.Context, from, to time.Time) ([]model.ProfessionEarnings, error) {
	var rows []model.ProfessionEarnings
	if err := r.db.WithContext(ctx).Raw(`
		SELECT p.profession AS profession, SUM(j.price) AS total_earned
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		JOIN profiles p ON p.id = c.contractor_id
		WHERE j.paid = TRUE
			AND j.payment_date >= ?
			AND j.payment_date < ?
		GROUP BY p.profession
		ORDER BY total_earned DESC
	`, from, to).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// TopClients sums paid job prices per client over the [from, to) window,
// highest spenders first.
func (r *LedgerRepository) TopClients(ctx context.Context, from, to time.Time, limit int) ([]model.ClientSpend, error) {
	var rows []model.ClientSpend
	if err := r.db.WithContext(ctx).Raw(`
		SELECT p.id, p.first_name, p.last_name, SUM(j.price) AS total_paid
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		JOIN profiles p ON p.id = c.client_id
		WHERE j.paid = TRUE
			AND j.payment_date >= ?
			AND j.payment_date < ?
		GROUP BY p.id, p.first_name, p.last_name
		ORDER BY total_paid DESC
		LIMIT ?
	`, from, to, limit).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
