package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/xcg-invite-bot/internal/domain"
	"github.com/jose-valero/xcg-invite-bot/internal/infra/storage"
)

func TestGrant_Success(t *testing.T) {
	guild := newFakeGuild()
	guild.roles = []domain.Role{{ID: "R1", Rank: 4}}
	guild.botRank = 9
	ledger := newFakeLedger()
	ledger.seed(pendingRecord("ABC123", "R1", "a@x.com", time.Hour))

	NewGrantor(guild, ledger).Grant(context.Background(), "g1", "m1", "ABC123")

	require.Len(t, guild.granted, 1)
	assert.Equal(t, grantCall{"g1", "m1", "R1"}, guild.granted[0])
	assert.Equal(t, storage.StatusUsed, ledger.get("ABC123").Status)
}

func TestGrant_HierarchyRefused(t *testing.T) {
	// rol rank 5, bot rank 3: no grant y el registro sigue pending
	guild := newFakeGuild()
	guild.roles = []domain.Role{{ID: "R1", Rank: 5}}
	guild.botRank = 3
	ledger := newFakeLedger()
	ledger.seed(pendingRecord("ABC123", "R1", "a@x.com", time.Hour))

	NewGrantor(guild, ledger).Grant(context.Background(), "g1", "m1", "ABC123")

	assert.Empty(t, guild.granted)
	assert.Equal(t, storage.StatusPending, ledger.get("ABC123").Status)
}

func TestGrant_EqualRankRefused(t *testing.T) {
	// la plataforma exige estrictamente menor: rank == rank del bot también se rechaza
	guild := newFakeGuild()
	guild.roles = []domain.Role{{ID: "R1", Rank: 3}}
	guild.botRank = 3
	ledger := newFakeLedger()
	ledger.seed(pendingRecord("ABC123", "R1", "a@x.com", time.Hour))

	NewGrantor(guild, ledger).Grant(context.Background(), "g1", "m1", "ABC123")

	assert.Empty(t, guild.granted)
	assert.Equal(t, storage.StatusPending, ledger.get("ABC123").Status)
}

func TestGrant_RoleNotFound(t *testing.T) {
	guild := newFakeGuild()
	guild.roles = []domain.Role{{ID: "OTHER", Rank: 1}}
	ledger := newFakeLedger()
	ledger.seed(pendingRecord("ABC123", "R1", "a@x.com", time.Hour))

	NewGrantor(guild, ledger).Grant(context.Background(), "g1", "m1", "ABC123")

	assert.Empty(t, guild.granted)
	assert.Equal(t, storage.StatusPending, ledger.get("ABC123").Status)
}

func TestGrant_StaleCodeIsNoop(t *testing.T) {
	guild := newFakeGuild()
	guild.roles = []domain.Role{{ID: "R1", Rank: 1}}
	ledger := newFakeLedger()
	mid := "other"
	usedAt := time.Now()
	ledger.seed(storage.InviteRecord{
		Code: "ABC123", RoleID: "R1", Email: "a@x.com", Status: storage.StatusUsed,
		CreatedAt: time.Now().Add(-time.Hour), ExpiresAt: time.Now().Add(23 * time.Hour),
		UsedAt: &usedAt, MemberID: &mid,
	})

	NewGrantor(guild, ledger).Grant(context.Background(), "g1", "m1", "ABC123")

	assert.Empty(t, guild.granted)
	// used_at/member_id no se tocan
	rec := ledger.get("ABC123")
	assert.Equal(t, "other", *rec.MemberID)
}

func TestGrant_PlatformErrorLeavesLedgerPending(t *testing.T) {
	guild := newFakeGuild()
	guild.roles = []domain.Role{{ID: "R1", Rank: 1}}
	guild.grantErr = errors.New("missing permissions")
	ledger := newFakeLedger()
	ledger.seed(pendingRecord("ABC123", "R1", "a@x.com", time.Hour))

	NewGrantor(guild, ledger).Grant(context.Background(), "g1", "m1", "ABC123")

	assert.Equal(t, storage.StatusPending, ledger.get("ABC123").Status)
}
