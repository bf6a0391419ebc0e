// Package models defines the persistent row types owned by the entitlement
// core: accounts, payments, and api-key fulfillments.
package models

import "time"

// Dimension names a metered daily counter on an account.
type Dimension string

const (
	DimensionMessage       Dimension = "message"
	DimensionImageGenerate Dimension = "image_generate"
	DimensionImageSend     Dimension = "image_send"
	DimensionVideoSend     Dimension = "video_send"
)

// Account is the per-user entitlement record. All mutable user state lives
// here; the messaging front end only reads it.
//
// Daily counters are meaningless without LastDailyReset: a counter must never
// be compared against a limit unless the stored reset key equals the current
// day, and a stale key is rolled over in the same transaction as the
// comparison. The same holds for the monthly token counters and
// LastMonthlyReset.
//
// Invariant: TokensInput + TokensOutput == TokensTotal after every update.
type Account struct {
	ID              string
	TierID          string
	SubscriptionEnd *time.Time // nil means no active paid term
	TrialEnd        *time.Time

	Messages        int64
	ImagesGenerated int64
	ImagesSent      int64
	VideosSent      int64
	LastDailyReset  string // day key, "2006-01-02"

	TokensTotal      int64
	TokensInput      int64
	TokensOutput     int64
	LastMonthlyReset string // month key, "2006-01"

	Blocked bool

	ReferralCode      string
	ReferredBy        *string
	ReferralCount     int64
	ReferralBonusDays int64

	CreatedAt time.Time
}

// DailyCounter returns the counter value for the given dimension.
func (a *Account) DailyCounter(dim Dimension) int64 {
	switch dim {
	case DimensionMessage:
		return a.Messages
	case DimensionImageGenerate:
		return a.ImagesGenerated
	case DimensionImageSend:
		return a.ImagesSent
	case DimensionVideoSend:
		return a.VideosSent
	}
	return 0
}
