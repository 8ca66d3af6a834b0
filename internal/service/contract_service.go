package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/jobpay/internal/model"
	"github.com/nurpe/jobpay/internal/repository"
)

// ContractService serves the read-only contract and job views. A caller only
// sees contracts they are a party to; anything else is reported as missing,
// so a forbidden contract is indistinguishable from one that does not exist.
type ContractService struct {
	repo *repository.LedgerRepository
}

func NewContractService(repo *repository.LedgerRepository) *ContractService {
	return &ContractService{repo: repo}
}

func (s *ContractService) GetContract(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Contract, error) {
	if id == uuid.Nil {
		return nil, ErrInvalidInput
	}
	contract, err := s.repo.GetContract(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !contract.IsParty(principal.ProfileID) {
		return nil, ErrNotFound
	}
	return contract, nil
}

// ListContracts returns the caller's non-terminated contracts.
func (s *ContractService) ListContracts(ctx context.Context, principal model.Principal) ([]model.Contract, error) {
	return s.repo.ListContractsForParty(ctx, principal.ProfileID)
}

// ListUnpaidJobs returns unpaid jobs under the caller's in_progress
// contracts, for either side of the contract.
func (s *ContractService) ListUnpaidJobs(ctx context.Context, principal model.Principal) ([]model.Job, error) {
	return s.repo.ListUnpaidJobsForParty(ctx, principal.ProfileID)
}
