// Package services contains the entitlement core's business logic: usage
// enforcement with window rollovers, idempotent payment reconciliation, and
// account registration with referral credit.
package services

import "time"

// DenyReason explains a negative enforcement decision. Denials are routine
// business outcomes and travel as values, never as errors.
type DenyReason string

const (
	DenyDailyLimit   DenyReason = "daily limit reached"
	DenyBlocked      DenyReason = "account blocked"
	DenyUnknownTier  DenyReason = "tier not configured"
	DenyTokenBudget  DenyReason = "monthly token budget exceeded"
	DenyInputBudget  DenyReason = "monthly input token budget exceeded"
	DenyOutputBudget DenyReason = "monthly output token budget exceeded"
)

// Decision is the outcome of an enforcement check.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

func allow() Decision { return Decision{Allowed: true} }

func deny(r DenyReason) Decision { return Decision{Reason: r} }

// dayKey is the daily rollover window key.
func dayKey(t time.Time) string { return t.Format("2006-01-02") }

// monthKey is the monthly rollover window key.
func monthKey(t time.Time) string { return t.Format("2006-01") }
