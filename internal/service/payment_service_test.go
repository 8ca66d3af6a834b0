package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/jobpay/internal/model"
	"github.com/nurpe/jobpay/internal/pdf"
)

func TestPayJobTransfersFunds(t *testing.T) {
	db, repo := newTestDB(t)
	svc := NewPaymentService(repo, pdf.NewGenerator(), testConfig(), testLogger())

	client := createProfile(t, db, model.ProfileTypeClient, "Harry", "Potter", "", 100)
	contractor := createProfile(t, db, model.ProfileTypeContractor, "John", "Lenon", "Musician", 0)
	contract := createContract(t, db, client, contractor, model.ContractStatusInProgress)
	job := createJob(t, db, contract, 100)

	settled, err := svc.PayJob(context.Background(), clientPrincipal(client), job)
	require.NoError(t, err)
	require.NotNil(t, settled)
	assert.True(t, settled.IsPaid())
	assert.NotNil(t, settled.PaymentDate)

	assert.InDelta(t, 0, profileBalance(t, repo, client), 1e-9)
	assert.InDelta(t, 100, profileBalance(t, repo, contractor), 1e-9)

	stored, err := repo.GetJob(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, stored.IsPaid())
}

func TestPayJobConservesFunds(t *testing.T) {
	db, repo := newTestDB(t)
	svc := NewPaymentService(repo, pdf.NewGenerator(), testConfig(), testLogger())

	client := createProfile(t, db, model.ProfileTypeClient, "Mr", "Robot", "", 640)
	contractor := createProfile(t, db, model.ProfileTypeContractor, "Alan", "Turing", "Programmer", 115)
	contract := createContract(t, db, client, contractor, model.ContractStatusInProgress)
	job := createJob(t, db, contract, 202)

	before := profileBalance(t, repo, client) + profileBalance(t, repo, contractor)

	_, err := svc.PayJob(context.Background(), clientPrincipal(client), job)
	require.NoError(t, err)

	after := profileBalance(t, repo, client) + profileBalance(t, repo, contractor)
	assert.InDelta(t, before, after, 1e-9)
}

func TestPayJobInsufficientFunds(t *testing.T) {
	db, repo := newTestDB(t)
	svc := NewPaymentService(repo, pdf.NewGenerator(), testConfig(), testLogger())

	client := createProfile(t, db, model.ProfileTypeClient, "Harry", "Potter", "", 50)
	contractor := createProfile(t, db, model.ProfileTypeContractor, "John", "Lenon", "Musician", 0)
	contract := createContract(t, db, client, contractor, model.ContractStatusInProgress)
	job := createJob(t, db, contract, 100)

	_, err := svc.PayJob(context.Background(), clientPrincipal(client), job)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	// the failed attempt must leave no partial effect
	assert.InDelta(t, 50, profileBalance(t, repo, client), 1e-9)
	assert.InDelta(t, 0, profileBalance(t, repo, contractor), 1e-9)

	stored, err := repo.GetJob(context.Background(), job)
	require.NoError(t, err)
	assert.False(t, stored.IsPaid())
	assert.Nil(t, stored.PaymentDate)
}

func TestPayJobAlreadyPaid(t *testing.T) {
	db, repo := newTestDB(t)
	svc := NewPaymentService(repo, pdf.NewGenerator(), testConfig(), testLogger())

	client := createProfile(t, db, model.ProfileTypeClient, "Ash", "Kethcum", "", 500)
	contractor := createProfile(t, db, model.ProfileTypeContractor, "Linus", "Torvalds", "Programmer", 0)
	contract := createContract(t, db, client, contractor, model.ContractStatusInProgress)
	job := createJob(t, db, contract, 100)

	_, err := svc.PayJob(context.Background(), clientPrincipal(client), job)
	require.NoError(t, err)

	_, err = svc.PayJob(context.Background(), clientPrincipal(client), job)
	require.ErrorIs(t, err, ErrJobNotPayable)

	assert.InDelta(t, 400, profileBalance(t, repo, client), 1e-9)
	assert.InDelta(t, 100, profileBalance(t, repo, contractor), 1e-9)
}

func TestPayJobUnknownJob(t *testing.T) {
	db, repo := newTestDB(t)
	svc := NewPaymentService(repo, pdf.NewGenerator(), testConfig(), testLogger())

	client := createProfile(t, db, model.ProfileTypeClient, "Harry", "Potter", "", 100)

	_, err := svc.PayJob(context.Background(), clientPrincipal(client), uuid.New())
	require.ErrorIs(t, err, ErrJobNotPayable)
}

func TestPayJobOnlyContractClientMayPay(t *testing.T) {
	db, repo := newTestDB(t)
	svc := NewPaymentService(repo, pdf.NewGenerator(), testConfig(), testLogger())

	client := createProfile(t, db, model.ProfileTypeClient, "Harry", "Potter", "", 500)
	contractor := createProfile(t, db, model.ProfileTypeContractor, "John", "Lenon", "Musician", 0)
	stranger := createProfile(t, db, model.ProfileTypeClient, "Mr", "Robot", "", 500)
	contract := createContract(t, db, client, contractor, model.ContractStatusInProgress)
	job := createJob(t, db, contract, 100)

	_, err := svc.PayJob(context.Background(), contractorPrincipal(contractor), job)
	require.ErrorIs(t, err, ErrNotAuthorized)

	_, err = svc.PayJob(context.Background(), clientPrincipal(stranger), job)
	require.ErrorIs(t, err, ErrNotAuthorized)

	stored, err := repo.GetJob(context.Background(), job)
	require.NoError(t, err)
	assert.False(t, stored.IsPaid())
}

func TestPayJobConcurrentDoublePay(t *testing.T) {
	db, repo := newTestDB(t)
	svc := NewPaymentService(repo, pdf.NewGenerator(), testConfig(), testLogger())

	client := createProfile(t, db, model.ProfileTypeClient, "Harry", "Potter", "", 1000)
	contractor := createProfile(t, db, model.ProfileTypeContractor, "John", "Lenon", "Musician", 0)
	contract := createContract(t, db, client, contractor, model.ContractStatusInProgress)
	job := createJob(t, db, contract, 100)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PayJob(context.Background(), clientPrincipal(client), job)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, rejections int
	for err := range results {
		switch {
		case err == nil:
			successes++
		default:
			require.ErrorIs(t, err, ErrJobNotPayable)
			rejections++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, rejections)

	// debited exactly once
	assert.InDelta(t, 900, profileBalance(t, repo, client), 1e-9)
	assert.InDelta(t, 100, profileBalance(t, repo, contractor), 1e-9)
}

func TestDepositCreditsQuarterOfOutstanding(t *testing.T) {
	db, repo := newTestDB(t)
	svc := NewPaymentService(repo, pdf.NewGenerator(), testConfig(), testLogger())

	client := createProfile(t, db, model.ProfileTypeClient, "Harry", "Potter", "", 0)
	contractor := createProfile(t, db, model.ProfileTypeContractor, "John", "Lenon", "Musician", 0)
	contract := createContract(t, db, client, contractor, model.ContractStatusInProgress)
	createJob(t, db, contract, 200)
	createJob(t, db, contract, 300)

	credited, err := svc.Deposit(context.Background(), clientPrincipal(client), client)
	require.NoError(t, err)
	assert.InDelta(t, 125, credited, 1e-9)
	assert.InDelta(t, 125, profileBalance(t, repo, client), 1e-9)
}

func TestDepositIgnoresPaidJobs(t *testing.T) {
	db, repo := newTestDB(t)
	svc := NewPaymentService(repo, pdf.NewGenerator(), testConfig(), testLogger())

	client := createProfile(t, db, model.ProfileTypeClient, "Ash", "Kethcum", "", 0)
	contractor := createProfile(t, db, model.ProfileTypeContractor, "Linus", "Torvalds", "Programmer", 0)
	contract := createContract(t, db, client, contractor, model.ContractStatusInProgress)
	createJob(t, db, contract, 1000)
	createPaidJob(t, db, contract, 400, time.Date(2020, 8, 10, 12, 0, 0, 0, time.UTC))

	credited, err := svc.Deposit(context.Background(), clientPrincipal(client), client)
	require.NoError(t, err)
	assert.InDelta(t, 250, credited, 1e-9)
}

func TestDepositZeroOutstandingIsNoop(t *testing.T) {
	db, repo := newTestDB(t)
	svc := NewPaymentService(repo, pdf.NewGenerator(), testConfig(), testLogger())

	client := createProfile(t, db, model.ProfileTypeClient, "Harry", "Potter", "", 42)

	credited, err := svc.Deposit(context.Background(), clientPrincipal(client), client)
	require.NoError(t, err)
	assert.InDelta(t, 0, credited, 1e-9)
	assert.InDelta(t, 42, profileBalance(t, repo, client), 1e-9)
}

func TestDepositToForeignAccountLooksMissing(t *testing.T) {
	db, repo := newTestDB(t)
	svc := NewPaymentService(repo, pdf.NewGenerator(), testConfig(), testLogger())

	client := createProfile(t, db, model.ProfileTypeClient, "Harry", "Potter", "", 0)
	other := createProfile(t, db, model.ProfileTypeClient, "Mr", "Robot", "", 0)

	_, err := svc.Deposit(context.Background(), clientPrincipal(client), other)
	require.ErrorIs(t, err, ErrAccountNotFound)
	assert.InDelta(t, 0, profileBalance(t, repo, other), 1e-9)
}

func TestDepositToContractorAccountFails(t *testing.T) {
	db, repo := newTestDB(t)
	svc := NewPaymentService(repo, pdf.NewGenerator(), testConfig(), testLogger())

	contractor := createProfile(t, db, model.ProfileTypeContractor, "John", "Lenon", "Musician", 0)

	_, err := svc.Deposit(context.Background(), contractorPrincipal(contractor), contractor)
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestReceiptForSettledJob(t *testing.T) {
	db, repo := newTestDB(t)
	svc := NewPaymentService(repo, pdf.NewGenerator(), testConfig(), testLogger())

	client := createProfile(t, db, model.ProfileTypeClient, "Harry", "Potter", "", 100)
	contractor := createProfile(t, db, model.ProfileTypeContractor, "John", "Lenon", "Musician", 0)
	contract := createContract(t, db, client, contractor, model.ContractStatusInProgress)
	job := createJob(t, db, contract, 100)

	_, err := svc.PayJob(context.Background(), clientPrincipal(client), job)
	require.NoError(t, err)

	result, err := svc.Receipt(context.Background(), clientPrincipal(client), job)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Content)
	assert.Equal(t, "receipt-"+job.String()+".pdf", result.FileName)

	// the contractor is a party too
	_, err = svc.Receipt(context.Background(), contractorPrincipal(contractor), job)
	require.NoError(t, err)
}

func TestReceiptHiddenFromStrangersAndUnpaidJobs(t *testing.T) {
	db, repo := newTestDB(t)
	svc := NewPaymentService(repo, pdf.NewGenerator(), testConfig(), testLogger())

	client := createProfile(t, db, model.ProfileTypeClient, "Harry", "Potter", "", 100)
	contractor := createProfile(t, db, model.ProfileTypeContractor, "John", "Lenon", "Musician", 0)
	stranger := createProfile(t, db, model.ProfileTypeClient, "Mr", "Robot", "", 0)
	contract := createContract(t, db, client, contractor, model.ContractStatusInProgress)
	unpaid := createJob(t, db, contract, 100)

	_, err := svc.Receipt(context.Background(), clientPrincipal(client), unpaid)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.PayJob(context.Background(), clientPrincipal(client), unpaid)
	require.NoError(t, err)

	_, err = svc.Receipt(context.Background(), clientPrincipal(stranger), unpaid)
	require.ErrorIs(t, err, ErrNotFound)
}
