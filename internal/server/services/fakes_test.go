package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/quotakeeper/internal/common"
	"github.com/dmitrijs2005/quotakeeper/internal/dbx"
	"github.com/dmitrijs2005/quotakeeper/internal/logging"
	"github.com/dmitrijs2005/quotakeeper/internal/server/catalog"
	"github.com/dmitrijs2005/quotakeeper/internal/server/models"
	"github.com/dmitrijs2005/quotakeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/quotakeeper/internal/server/repositories/fulfillments"
	"github.com/dmitrijs2005/quotakeeper/internal/server/repositories/payments"
)

// fakeAccountRepo mirrors the conditional-write semantics of the postgres
// implementation on an in-memory map.
type fakeAccountRepo struct {
	accounts map[string]*models.Account
	err      error // when set, every call fails with it
}

func (f *fakeAccountRepo) Get(_ context.Context, id string) (*models.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccountRepo) GetByReferralCode(_ context.Context, code string) (*models.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, a := range f.accounts {
		if a.ReferralCode == code {
			cp := *a
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeAccountRepo) Create(_ context.Context, account *models.Account) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.accounts[account.ID]; ok {
		return false, nil
	}
	cp := *account
	f.accounts[account.ID] = &cp
	return true, nil
}

func (f *fakeAccountRepo) ResetDailyIfStale(_ context.Context, id string, dayKey string) error {
	if f.err != nil {
		return f.err
	}
	a, ok := f.accounts[id]
	if !ok || a.LastDailyReset == dayKey {
		return nil
	}
	a.Messages, a.ImagesGenerated, a.ImagesSent, a.VideosSent = 0, 0, 0, 0
	a.LastDailyReset = dayKey
	return nil
}

func (f *fakeAccountRepo) ResetMonthlyIfStale(_ context.Context, id string, monthKey string) error {
	if f.err != nil {
		return f.err
	}
	a, ok := f.accounts[id]
	if !ok || a.LastMonthlyReset == monthKey {
		return nil
	}
	a.TokensTotal, a.TokensInput, a.TokensOutput = 0, 0, 0
	a.Blocked = false
	a.LastMonthlyReset = monthKey
	return nil
}

func (f *fakeAccountRepo) IncrementDaily(_ context.Context, id string, dim models.Dimension) error {
	if f.err != nil {
		return f.err
	}
	a, ok := f.accounts[id]
	if !ok {
		return nil
	}
	switch dim {
	case models.DimensionMessage:
		a.Messages++
	case models.DimensionImageGenerate:
		a.ImagesGenerated++
	case models.DimensionImageSend:
		a.ImagesSent++
	case models.DimensionVideoSend:
		a.VideosSent++
	}
	return nil
}

func (f *fakeAccountRepo) AddTokens(_ context.Context, id string, input, output int64) error {
	if f.err != nil {
		return f.err
	}
	if a, ok := f.accounts[id]; ok {
		a.TokensInput += input
		a.TokensOutput += output
		a.TokensTotal += input + output
	}
	return nil
}

func (f *fakeAccountRepo) SetBlocked(_ context.Context, id string, blocked bool) error {
	if f.err != nil {
		return f.err
	}
	if a, ok := f.accounts[id]; ok {
		a.Blocked = blocked
	}
	return nil
}

func (f *fakeAccountRepo) GrantSubscription(_ context.Context, id string, tierID string, until time.Time) error {
	if f.err != nil {
		return f.err
	}
	if a, ok := f.accounts[id]; ok {
		a.TierID = tierID
		a.SubscriptionEnd = &until
	}
	return nil
}

func (f *fakeAccountRepo) CreditReferrer(_ context.Context, id string, bonusDays int64) error {
	if f.err != nil {
		return f.err
	}
	if a, ok := f.accounts[id]; ok {
		a.ReferralCount++
		a.ReferralBonusDays += bonusDays
		extendTrial(a, bonusDays)
	}
	return nil
}

func (f *fakeAccountRepo) CreditReferred(_ context.Context, id string, bonusDays int64) error {
	if f.err != nil {
		return f.err
	}
	if a, ok := f.accounts[id]; ok {
		a.ReferralBonusDays += bonusDays
		extendTrial(a, bonusDays)
	}
	return nil
}

func extendTrial(a *models.Account, bonusDays int64) {
	base := time.Now()
	if a.TrialEnd != nil {
		base = *a.TrialEnd
	}
	end := base.AddDate(0, 0, int(bonusDays))
	a.TrialEnd = &end
}

type fakePaymentRepo struct {
	payments map[string]*models.Payment
	err      error
}

func (f *fakePaymentRepo) Create(_ context.Context, payment *models.Payment) error {
	if f.err != nil {
		return f.err
	}
	cp := *payment
	f.payments[payment.ID] = &cp
	return nil
}

func (f *fakePaymentRepo) Get(_ context.Context, id string) (*models.Payment, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.payments[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePaymentRepo) SetProviderRef(_ context.Context, id string, providerRef string) error {
	if f.err != nil {
		return f.err
	}
	if p, ok := f.payments[id]; ok {
		p.ProviderRef = &providerRef
	}
	return nil
}

func (f *fakePaymentRepo) FinishIfPending(_ context.Context, id string, status models.PaymentStatus, providerRef *string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	p, ok := f.payments[id]
	if !ok || p.Status != models.PaymentPending {
		return false, nil
	}
	p.Status = status
	if providerRef != nil {
		p.ProviderRef = providerRef
	}
	return true, nil
}

type fakeFulfillmentRepo struct {
	created []*models.Fulfillment
	err     error
}

func (f *fakeFulfillmentRepo) Create(_ context.Context, accountID, modelID, paymentID string) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, &models.Fulfillment{
		AccountID: accountID,
		ModelID:   modelID,
		PaymentID: paymentID,
	})
	return nil
}

func (f *fakeFulfillmentRepo) ListByAccount(_ context.Context, accountID string) ([]*models.Fulfillment, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Fulfillment
	for _, c := range f.created {
		if c.AccountID == accountID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeRepoManager struct {
	accounts     *fakeAccountRepo
	payments     *fakePaymentRepo
	fulfillments *fakeFulfillmentRepo
}

func (m *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository         { return m.accounts }
func (m *fakeRepoManager) Payments(dbx.DBTX) payments.Repository         { return m.payments }
func (m *fakeRepoManager) Fulfillments(dbx.DBTX) fulfillments.Repository { return m.fulfillments }
func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error  { return nil }

func newFakes(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *fakeRepoManager) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	rm := &fakeRepoManager{
		accounts:     &fakeAccountRepo{accounts: make(map[string]*models.Account)},
		payments:     &fakePaymentRepo{payments: make(map[string]*models.Payment)},
		fulfillments: &fakeFulfillmentRepo{},
	}
	return db, mock, rm
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Tier{
		{ID: "free", Name: "Free", Price: 0,
			Limits: catalog.TierLimits{DailyMessages: 2, DailyImageGenerate: 1, MonthlyTokens: 1_000},
			Models: []string{"m-free"}},
		{ID: "vip", Name: "VIP", Price: 999,
			Limits: catalog.TierLimits{DailyMessages: 10, DailyImageGenerate: 5, MonthlyTokens: 15_000},
			Models: []string{"m-vip"}},
	}, map[string]int64{"m-key": 2_999})
}
