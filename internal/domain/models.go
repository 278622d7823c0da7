// Package domain defines the persistence models for the guardian bot
// backend: users, authentication attempts, bans, admins, monitored
// messages, per-owner statistics, business connections, subscriptions,
// payments, and referrals. These types are mapped with GORM and keep the
// table and column names of the deployed PostgreSQL schema, so the service
// can run against an existing database without migration.
package domain

import "time"

// Plan enumerates the subscription plans sold by the bot. The zero value
// is not a valid plan.
type Plan string

// Subscription plans. Durations are configured, not encoded here; see
// services.PlanPolicy.
const (
	PlanTrial    Plan = "trial"
	PlanWeek     Plan = "week"
	PlanMonth    Plan = "month"
	PlanYear     Plan = "year"
	PlanLifetime Plan = "lifetime"
)

// Valid reports whether p names a known plan.
func (p Plan) Valid() bool {
	switch p {
	case PlanTrial, PlanWeek, PlanMonth, PlanYear, PlanLifetime:
		return true
	}
	return false
}

// PaymentStatus enumerates the lifecycle states of a payment row.
type PaymentStatus string

// Payment statuses. A payment starts pending and is settled exactly once
// to completed or failed.
const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// User represents a Telegram identity known to the bot. One row per
// distinct Telegram user id.
//
// Fields:
//   - UserID: Telegram user id (BIGINT primary key).
//   - Username / FirstName: display identity, refreshed on login.
//   - IsAuthenticated: true once the user passed the bot password check.
//   - IsBanned: mirror of the BannedUser row; checked on every update.
//   - CreatedAt: set by the store on first insert.
//   - LastLogin: updated on every successful authentication.
type User struct {
	UserID          int64      `json:"user_id"          gorm:"column:user_id;primaryKey;autoIncrement:false"`
	Username        string     `json:"username"         gorm:"column:username;type:varchar(255)"`
	FirstName       string     `json:"first_name"       gorm:"column:first_name;type:varchar(255)"`
	IsAuthenticated bool       `json:"is_authenticated" gorm:"column:is_authenticated;not null;default:false"`
	IsBanned        bool       `json:"is_banned"        gorm:"column:is_banned;not null;default:false"`
	CreatedAt       time.Time  `json:"created_at"       gorm:"column:created_at"`
	LastLogin       *time.Time `json:"last_login"       gorm:"column:last_login"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// FailedLogin is an append-only log entry for a rejected password attempt.
// The effective attempt count for a user is recomputed over a rolling
// window (see services.AccessService), not read from a single row.
type FailedLogin struct {
	ID            int64     `json:"id"             gorm:"column:id;primaryKey;autoIncrement"`
	UserID        int64     `json:"user_id"        gorm:"column:user_id;not null;index:idx_failed_logins_user_time,priority:1"`
	Username      string    `json:"username"       gorm:"column:username;type:varchar(255)"`
	FirstName     string    `json:"first_name"     gorm:"column:first_name;type:varchar(255)"`
	AttemptsCount int       `json:"attempts_count" gorm:"column:attempts_count;not null"`
	AttemptTime   time.Time `json:"attempt_time"   gorm:"column:attempt_time;index:idx_failed_logins_user_time,priority:2"`
}

// TableName returns the database table name for FailedLogin.
func (FailedLogin) TableName() string { return "failed_logins" }

// BannedUser is one row per banned identity. A row here implies the
// matching User has IsBanned set; both are written in one transaction.
type BannedUser struct {
	UserID    int64     `json:"user_id"    gorm:"column:user_id;primaryKey;autoIncrement:false"`
	Username  string    `json:"username"   gorm:"column:username;type:varchar(255)"`
	FirstName string    `json:"first_name" gorm:"column:first_name;type:varchar(255)"`
	Reason    string    `json:"reason"     gorm:"column:reason;type:varchar(255)"`
	BannedAt  time.Time `json:"banned_at"  gorm:"column:banned_at;index"`
}

// TableName returns the database table name for BannedUser.
func (BannedUser) TableName() string { return "banned_users" }

// Message is a staging row for a monitored message: it exists from the
// moment the message is seen until the deletion/edit notification has been
// dispatched, at which point the dispatcher removes it. Uniqueness is per
// (owner_id, chat_id, message_id); Owner is the bot operator whose chat is
// monitored, UserID the sender.
type Message struct {
	ID        int64     `json:"id"         gorm:"column:id;primaryKey;autoIncrement"`
	OwnerID   int64     `json:"owner_id"   gorm:"column:owner_id;not null;uniqueIndex:ux_messages_owner_chat_msg,priority:1"`
	ChatID    int64     `json:"chat_id"    gorm:"column:chat_id;not null;uniqueIndex:ux_messages_owner_chat_msg,priority:2"`
	MessageID int64     `json:"message_id" gorm:"column:message_id;not null;uniqueIndex:ux_messages_owner_chat_msg,priority:3"`
	UserID    int64     `json:"user_id"    gorm:"column:user_id"`
	Text      string    `json:"text"       gorm:"column:text;type:text"`
	MediaType string    `json:"media_type" gorm:"column:media_type;type:varchar(32)"`
	FilePath  string    `json:"file_path"  gorm:"column:file_path;type:varchar(512)"`
	Caption   string    `json:"caption"    gorm:"column:caption;type:text"`
	Links     string    `json:"links"      gorm:"column:links;type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;index"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Stats is the per-owner aggregate of message lifecycle events. Counters
// only grow; increments are expressed as a single upsert statement so
// concurrent bumps for the same owner never lose updates.
type Stats struct {
	OwnerID       int64     `json:"owner_id"       gorm:"column:owner_id;primaryKey;autoIncrement:false"`
	TotalMessages int64     `json:"total_messages" gorm:"column:total_messages;not null;default:0"`
	TotalEdits    int64     `json:"total_edits"    gorm:"column:total_edits;not null;default:0"`
	TotalDeletes  int64     `json:"total_deletes"  gorm:"column:total_deletes;not null;default:0"`
	UpdatedAt     time.Time `json:"updated_at"     gorm:"column:updated_at"`
}

// TableName returns the database table name for Stats.
func (Stats) TableName() string { return "stats" }

// BusinessConnection maps a Telegram business connection id to the owner
// account it belongs to. Reconnects overwrite the previous mapping.
type BusinessConnection struct {
	ConnectionID string    `json:"connection_id" gorm:"column:connection_id;type:varchar(255);primaryKey"`
	UserID       int64     `json:"user_id"       gorm:"column:user_id;not null;index"`
	Username     string    `json:"username"      gorm:"column:username;type:varchar(255)"`
	FirstName    string    `json:"first_name"    gorm:"column:first_name;type:varchar(255)"`
	ConnectedAt  time.Time `json:"connected_at"  gorm:"column:connected_at"`
}

// TableName returns the database table name for BusinessConnection.
func (BusinessConnection) TableName() string { return "business_connections" }

// Subscription is the single subscription row per user; a new grant
// supersedes the prior one in place. EndDate is always concrete: lifetime
// plans carry a far-future sentinel (see services.LifetimeEnd), never NULL.
//
// Invariant: IsActive must be false once EndDate has passed. The flip is
// performed by the scheduled expiry job, not by reads.
type Subscription struct {
	UserID           int64     `json:"user_id"           gorm:"column:user_id;primaryKey;autoIncrement:false"`
	SubscriptionType Plan      `json:"subscription_type" gorm:"column:subscription_type;type:varchar(32);not null"`
	StartDate        time.Time `json:"start_date"        gorm:"column:start_date;not null"`
	EndDate          time.Time `json:"end_date"          gorm:"column:end_date;not null;index"`
	IsActive         bool      `json:"is_active"         gorm:"column:is_active;not null;default:false;index"`
	AutoRenew        bool      `json:"auto_renew"        gorm:"column:auto_renew;not null;default:false"`
	CreatedAt        time.Time `json:"created_at"        gorm:"column:created_at"`
	UpdatedAt        time.Time `json:"updated_at"        gorm:"column:updated_at"`
}

// TableName returns the database table name for Subscription.
func (Subscription) TableName() string { return "subscriptions" }

// PaymentHistory is the append-only ledger of payment attempts. PaymentID
// is the external (gateway) charge id and is unique; Amount is in Telegram
// Stars, the smallest unit, so an integer is exact.
type PaymentHistory struct {
	ID               int64         `json:"id"                gorm:"column:id;primaryKey;autoIncrement"`
	UserID           int64         `json:"user_id"           gorm:"column:user_id;not null;index"`
	SubscriptionType Plan          `json:"subscription_type" gorm:"column:subscription_type;type:varchar(32);not null"`
	Amount           int64         `json:"amount"            gorm:"column:amount;not null"`
	PaymentID        string        `json:"payment_id"        gorm:"column:payment_id;type:varchar(255);uniqueIndex:ux_payment_history_payment_id"`
	Status           PaymentStatus `json:"status"            gorm:"column:status;type:varchar(16);not null;default:'pending';index"`
	CreatedAt        time.Time     `json:"created_at"        gorm:"column:created_at"`
}

// TableName returns the database table name for PaymentHistory.
func (PaymentHistory) TableName() string { return "payment_history" }

// Admin is a privilege record. Exactly one super-admin is expected by
// convention; it is seeded at startup and cannot be revoked.
type Admin struct {
	UserID       int64     `json:"user_id"        gorm:"column:user_id;primaryKey;autoIncrement:false"`
	Username     string    `json:"username"       gorm:"column:username;type:varchar(255)"`
	FirstName    string    `json:"first_name"     gorm:"column:first_name;type:varchar(255)"`
	AddedBy      int64     `json:"added_by"       gorm:"column:added_by"`
	IsSuperAdmin bool      `json:"is_super_admin" gorm:"column:is_super_admin;not null;default:false"`
	CreatedAt    time.Time `json:"created_at"     gorm:"column:created_at"`
}

// TableName returns the database table name for Admin.
func (Admin) TableName() string { return "admins" }

// Referral records that ReferredID joined through ReferrerID. A user can
// be referred at most once (unique on referred_id); Used flips to true
// when the referrer's reward is claimed.
type Referral struct {
	ID         int64     `json:"id"          gorm:"column:id;primaryKey;autoIncrement"`
	ReferrerID int64     `json:"referrer_id" gorm:"column:referrer_id;not null;index"`
	ReferredID int64     `json:"referred_id" gorm:"column:referred_id;not null;uniqueIndex:ux_referrals_referred"`
	Used       bool      `json:"used"        gorm:"column:used;not null;default:false"`
	CreatedAt  time.Time `json:"created_at"  gorm:"column:created_at"`
}

// TableName returns the database table name for Referral.
func (Referral) TableName() string { return "referrals" }
