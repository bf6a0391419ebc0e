package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/quotakeeper/internal/common"
)

func TestReferralCodeFor_DeterministicAndShort(t *testing.T) {
	a := ReferralCodeFor("123456789")
	b := ReferralCodeFor("123456789")
	c := ReferralCodeFor("987654321")

	if a != b {
		t.Fatalf("code must be deterministic: %q vs %q", a, b)
	}
	if a == c {
		t.Fatalf("different ids produced the same code %q", a)
	}
	if len(a) != referralCodeLen {
		t.Fatalf("want %d chars, got %q", referralCodeLen, a)
	}
}

func TestRegister_CreatesWithTrial(t *testing.T) {
	db, mock, rm := newFakes(t)
	defer db.Close()
	s := NewAccountService(db, rm, testCatalog(), testLogger(), 3, 7)
	s.now = func() time.Time { return testNow }

	mock.ExpectBegin()
	mock.ExpectCommit()

	acc, created, err := s.Register(context.Background(), "u-1", "")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if !created {
		t.Fatalf("expected created == true")
	}
	if acc.TierID != "free" {
		t.Fatalf("want free tier, got %q", acc.TierID)
	}
	wantTrial := testNow.AddDate(0, 3, 0)
	if acc.TrialEnd == nil || !acc.TrialEnd.Equal(wantTrial) {
		t.Fatalf("want trial end %v, got %v", wantTrial, acc.TrialEnd)
	}
	if acc.ReferralCode != ReferralCodeFor("u-1") {
		t.Fatalf("unexpected referral code %q", acc.ReferralCode)
	}
	if acc.LastDailyReset != "2026-09-01" || acc.LastMonthlyReset != "2026-09" {
		t.Fatalf("window keys not initialized: %+v", acc)
	}
}

func TestRegister_RetryIsNoop(t *testing.T) {
	db, mock, rm := newFakes(t)
	defer db.Close()
	s := NewAccountService(db, rm, testCatalog(), testLogger(), 3, 7)
	s.now = func() time.Time { return testNow }

	mock.ExpectBegin()
	mock.ExpectCommit()
	if _, _, err := s.Register(context.Background(), "u-1", ""); err != nil {
		t.Fatalf("first Register error: %v", err)
	}
	rm.accounts.accounts["u-1"].Messages = 5

	mock.ExpectBegin()
	mock.ExpectCommit()
	acc, created, err := s.Register(context.Background(), "u-1", "")
	if err != nil {
		t.Fatalf("second Register error: %v", err)
	}
	if created {
		t.Fatalf("retry must not report created")
	}
	if acc.Messages != 5 {
		t.Fatalf("retry must return the stored account, got %+v", acc)
	}
}

func TestRegister_ReferralCreditedOnce(t *testing.T) {
	db, mock, rm := newFakes(t)
	defer db.Close()
	s := NewAccountService(db, rm, testCatalog(), testLogger(), 3, 7)
	s.now = func() time.Time { return testNow }

	referrer := freshAccount("u-ref", "free")
	rm.accounts.accounts["u-ref"] = referrer

	mock.ExpectBegin()
	mock.ExpectCommit()
	acc, created, err := s.Register(context.Background(), "u-new", referrer.ReferralCode)
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if !created {
		t.Fatalf("expected created == true")
	}
	if acc.ReferredBy == nil || *acc.ReferredBy != "u-ref" {
		t.Fatalf("referred_by not stored: %+v", acc)
	}
	if got := rm.accounts.accounts["u-ref"]; got.ReferralCount != 1 || got.ReferralBonusDays != 7 {
		t.Fatalf("referrer not credited: %+v", got)
	}
	if acc.ReferralBonusDays != 7 {
		t.Fatalf("referred bonus not applied: %+v", acc)
	}

	// A duplicate registration with the same code must not credit again.
	mock.ExpectBegin()
	mock.ExpectCommit()
	if _, created, err = s.Register(context.Background(), "u-new", referrer.ReferralCode); err != nil || created {
		t.Fatalf("retry: created=%v err=%v", created, err)
	}
	if got := rm.accounts.accounts["u-ref"]; got.ReferralCount != 1 || got.ReferralBonusDays != 7 {
		t.Fatalf("retry credited the referrer again: %+v", got)
	}
}

func TestRegister_UnknownCodeIgnored(t *testing.T) {
	db, mock, rm := newFakes(t)
	defer db.Close()
	s := NewAccountService(db, rm, testCatalog(), testLogger(), 3, 7)
	s.now = func() time.Time { return testNow }

	mock.ExpectBegin()
	mock.ExpectCommit()

	acc, created, err := s.Register(context.Background(), "u-1", "zzzzzzzzzz")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if !created || acc.ReferredBy != nil {
		t.Fatalf("unknown code must be ignored: created=%v acc=%+v", created, acc)
	}
}

func TestRegister_SelfReferralIgnored(t *testing.T) {
	db, mock, rm := newFakes(t)
	defer db.Close()
	s := NewAccountService(db, rm, testCatalog(), testLogger(), 3, 7)
	s.now = func() time.Time { return testNow }

	// The account was created before, deleted, and re-registers with its own
	// code. Simplest reproduction: preload an account owning the code, then
	// register the same id.
	existing := freshAccount("u-1", "free")
	rm.accounts.accounts["u-1"] = existing

	mock.ExpectBegin()
	mock.ExpectCommit()

	acc, created, err := s.Register(context.Background(), "u-1", existing.ReferralCode)
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if created || acc.ReferredBy != nil || acc.ReferralCount != 0 {
		t.Fatalf("self-referral must be ignored: created=%v acc=%+v", created, acc)
	}
}

func TestRegister_FailsClosedOnStorageError(t *testing.T) {
	db, mock, rm := newFakes(t)
	defer db.Close()
	s := NewAccountService(db, rm, testCatalog(), testLogger(), 3, 7)

	rm.accounts.err = errors.New("connection refused")

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, _, err := s.Register(context.Background(), "u-1", "")
	if !errors.Is(err, common.ErrorStorageUnavailable) {
		t.Fatalf("want ErrorStorageUnavailable, got %v", err)
	}
}

func TestProfile(t *testing.T) {
	db, _, rm := newFakes(t)
	defer db.Close()
	s := NewAccountService(db, rm, testCatalog(), testLogger(), 3, 7)
	s.now = func() time.Time { return testNow }

	future := testNow.AddDate(0, 1, 0)
	a := freshAccount("u-1", "vip")
	a.SubscriptionEnd = &future
	rm.accounts.accounts["u-1"] = a

	p, err := s.Profile(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("Profile error: %v", err)
	}
	if p.Tier.ID != "vip" {
		t.Fatalf("want vip tier, got %q", p.Tier.ID)
	}
	if len(p.Models) != 2 {
		t.Fatalf("vip must see the cumulative model set, got %v", p.Models)
	}
}

func TestProfile_ExpiredTermShowsFree(t *testing.T) {
	db, _, rm := newFakes(t)
	defer db.Close()
	s := NewAccountService(db, rm, testCatalog(), testLogger(), 3, 7)
	s.now = func() time.Time { return testNow }

	past := testNow.AddDate(0, 0, -1)
	a := freshAccount("u-1", "vip")
	a.SubscriptionEnd = &past
	rm.accounts.accounts["u-1"] = a

	p, err := s.Profile(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("Profile error: %v", err)
	}
	if p.Tier.ID != "free" {
		t.Fatalf("lapsed term must show free, got %q", p.Tier.ID)
	}
}

func TestProfile_NotFound(t *testing.T) {
	db, _, rm := newFakes(t)
	defer db.Close()
	s := NewAccountService(db, rm, testCatalog(), testLogger(), 3, 7)

	_, err := s.Profile(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}
