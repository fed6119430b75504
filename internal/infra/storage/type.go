package storage

import "time"

const (
	StatusPending = "pending"
	StatusUsed    = "used"
	StatusExpired = "expired"
)

type InviteRecord struct {
	Code      string
	RoleID    string
	Email     string
	Status    string // pending | used | expired
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
	MemberID  *string
}

// Resultado de atribución persistido en el join; el gate-clear lo lee
// en vez de re-derivar.
type MemberAttribution struct {
	GuildID      string
	MemberID     string
	InviteCode   string
	AttributedAt time.Time
}
