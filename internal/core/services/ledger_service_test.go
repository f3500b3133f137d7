package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/beansapp/beans/internal/apperrors"
	"github.com/beansapp/beans/internal/core/domain"
	"github.com/beansapp/beans/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock EntryRepository ---
type MockEntryRepository struct {
	mock.Mock
}

func (m *MockEntryRepository) Insert(ctx context.Context, entry domain.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockEntryRepository) FindByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

func (m *MockEntryRepository) Update(ctx context.Context, entry domain.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockEntryRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEntryRepository) Find(ctx context.Context, filter domain.EntryFilter) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockEntryRepository) Count(ctx context.Context, filter domain.EntryFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockEntryRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

// --- Test Suite ---
type LedgerServiceTestSuite struct {
	suite.Suite
	mockRepo *MockEntryRepository
	service  *services.LedgerService
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockEntryRepository)
	suite.service = services.NewLedgerService(suite.mockRepo)
}

func (suite *LedgerServiceTestSuite) validEntry() domain.LedgerEntry {
	entry, err := domain.NewEntryBuilder().
		WithName("Groceries").
		WithAmount(decimal.NewFromInt(50)).
		WithCurrency("USD").
		WithEntryType(domain.Expense).
		WithTags("food").
		Build()
	suite.Require().NoError(err)
	return entry
}

// --- Test Cases ---

func (suite *LedgerServiceTestSuite) TestAddEntry_Success() {
	ctx := context.Background()
	entry := suite.validEntry()

	suite.mockRepo.On("Insert", ctx, mock.MatchedBy(func(e domain.LedgerEntry) bool {
		return e.ID == entry.ID && e.Name == entry.Name
	})).Return(nil).Once()

	id, err := suite.service.AddEntry(ctx, entry)

	suite.Require().NoError(err)
	suite.Equal(entry.ID, id)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestAddEntry_RejectsInvalid() {
	ctx := context.Background()
	entry := suite.validEntry()
	entry.Name = ""

	_, err := suite.service.AddEntry(ctx, entry)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRepo.AssertNotCalled(suite.T(), "Insert")
}

func (suite *LedgerServiceTestSuite) TestAddEntry_RepoError() {
	ctx := context.Background()
	entry := suite.validEntry()
	suite.mockRepo.On("Insert", ctx, mock.AnythingOfType("domain.LedgerEntry")).
		Return(apperrors.ErrDuplicate).Once()

	_, err := suite.service.AddEntry(ctx, entry)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
	suite.Contains(err.Error(), entry.ID)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestGetEntry_Success() {
	ctx := context.Background()
	entry := suite.validEntry()
	suite.mockRepo.On("FindByID", ctx, entry.ID).Return(&entry, nil).Once()

	got, err := suite.service.GetEntry(ctx, entry.ID)

	suite.Require().NoError(err)
	suite.Equal(&entry, got)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestGetEntry_NotFound() {
	ctx := context.Background()
	suite.mockRepo.On("FindByID", ctx, "missing").Return(nil, apperrors.ErrNotFound).Once()

	got, err := suite.service.GetEntry(ctx, "missing")

	suite.Require().Error(err)
	suite.Nil(got)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestUpdateEntry_RefreshesUpdatedAt() {
	ctx := context.Background()
	entry := suite.validEntry()
	stale := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	entry.UpdatedAt = stale

	suite.mockRepo.On("Update", ctx, mock.MatchedBy(func(e domain.LedgerEntry) bool {
		return e.ID == entry.ID && e.UpdatedAt.After(stale) && e.CreatedAt.Equal(entry.CreatedAt)
	})).Return(nil).Once()

	err := suite.service.UpdateEntry(ctx, entry)

	suite.Require().NoError(err)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestUpdateEntry_RejectsInvalid() {
	ctx := context.Background()
	entry := suite.validEntry()
	entry.Amount = decimal.NewFromInt(-5)

	err := suite.service.UpdateEntry(ctx, entry)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRepo.AssertNotCalled(suite.T(), "Update")
}

func (suite *LedgerServiceTestSuite) TestUpdateEntry_NotFound() {
	ctx := context.Background()
	entry := suite.validEntry()
	suite.mockRepo.On("Update", ctx, mock.AnythingOfType("domain.LedgerEntry")).
		Return(apperrors.ErrNotFound).Once()

	err := suite.service.UpdateEntry(ctx, entry)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestDeleteEntry() {
	ctx := context.Background()
	suite.mockRepo.On("Delete", ctx, "some-id").Return(nil).Once()

	err := suite.service.DeleteEntry(ctx, "some-id")

	suite.Require().NoError(err)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestListEntries() {
	ctx := context.Background()
	entries := []domain.LedgerEntry{suite.validEntry()}
	filter := domain.EntryFilter{}.WithEntryType(domain.Expense)
	suite.mockRepo.On("Find", ctx, filter).Return(entries, nil).Once()

	got, err := suite.service.ListEntries(ctx, filter)

	suite.Require().NoError(err)
	suite.Equal(entries, got)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestListEntries_RepoError() {
	ctx := context.Background()
	suite.mockRepo.On("Find", ctx, mock.AnythingOfType("domain.EntryFilter")).
		Return(nil, assert.AnError).Once()

	got, err := suite.service.ListEntries(ctx, domain.EntryFilter{})

	suite.Require().Error(err)
	suite.Nil(got)
	suite.ErrorIs(err, assert.AnError)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestCountEntries() {
	ctx := context.Background()
	suite.mockRepo.On("Count", ctx, mock.AnythingOfType("domain.EntryFilter")).
		Return(7, nil).Once()

	count, err := suite.service.CountEntries(ctx, domain.EntryFilter{})

	suite.Require().NoError(err)
	suite.Equal(7, count)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestClose() {
	suite.mockRepo.On("Close").Return(nil).Once()
	suite.Require().NoError(suite.service.Close())
	suite.mockRepo.AssertExpectations(suite.T())
}

// --- Run Suite ---
func TestLedgerService(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}

func TestOpenLedger_RejectsWrongSuffix(t *testing.T) {
	_, err := services.OpenLedger("/tmp/ledger.db")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestOpenLedger_CreatesFile(t *testing.T) {
	path := t.TempDir() + "/books.bean"

	ledger, err := services.OpenLedger(path)
	assert.NoError(t, err)
	if ledger != nil {
		assert.NoError(t, ledger.Close())
	}
	assert.FileExists(t, path)
}
