package service

import (
	"sync"

	"github.com/jose-valero/xcg-invite-bot/internal/domain"
)

// UsageCache: último snapshot conocido de code -> usos acumulados, por guild.
// Una sola instancia inyectada; sin historial, sin expiry de guilds viejos.
type UsageCache struct {
	mu     sync.Mutex
	guilds map[string]map[string]int
}

func NewUsageCache() *UsageCache {
	return &UsageCache{guilds: map[string]map[string]int{}}
}

// Populate reemplaza entero el snapshot del guild con la lista recién traída.
func (c *UsageCache) Populate(guildID string, invites []domain.Invite) {
	snap := make(map[string]int, len(invites))
	for _, in := range invites {
		snap[in.Code] = in.Uses
	}
	c.mu.Lock()
	c.guilds[guildID] = snap
	c.mu.Unlock()
}

func (c *UsageCache) ApplyCreated(guildID, code string, uses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.guilds[guildID]
	if !ok {
		snap = map[string]int{}
		c.guilds[guildID] = snap
	}
	snap[code] = uses
}

func (c *UsageCache) ApplyDeleted(guildID, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if snap, ok := c.guilds[guildID]; ok {
		delete(snap, code) // ausente = no-op
	}
}

// Snapshot devuelve una copia; el caller puede diffear sin carrera.
func (c *UsageCache) Snapshot(guildID string) map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.guilds[guildID]))
	for code, uses := range c.guilds[guildID] {
		out[code] = uses
	}
	return out
}
