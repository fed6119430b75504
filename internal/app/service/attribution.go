package service

import (
	"context"
	"log"

	"github.com/jose-valero/xcg-invite-bot/internal/infra/storage"
)

// Attributor deduce qué invite consumió un join comparando el snapshot previo
// contra el recién traído, con el ledger como último recurso.
type Attributor struct {
	ledger InviteLedger
}

func NewAttributor(ledger InviteLedger) *Attributor { return &Attributor{ledger: ledger} }

// diffSnapshots corre los dos escaneos en orden estricto:
//  1. algún code presente en ambos con más usos en fresh
//  2. algún code de old que desapareció (single-use consumido y borrado)
//
// Si suben varios counts en la misma ventana gana el primero que itere el map;
// empate arbitrario conocido bajo joins concurrentes.
func diffSnapshots(old, fresh map[string]int) (string, bool) {
	for code, uses := range fresh {
		if prev, ok := old[code]; ok && uses > prev {
			return code, true
		}
	}
	for code := range old {
		if _, ok := fresh[code]; !ok {
			return code, true
		}
	}
	return "", false
}

// Resolve devuelve el code atribuido, o "" si no hay señal alguna
// (vanity URL, rejoin).
func (a *Attributor) Resolve(ctx context.Context, old, fresh map[string]int) string {
	if code, ok := diffSnapshots(old, fresh); ok {
		return code
	}
	// Fallback por recencia: el pending más nuevo. No tiene correlación real
	// con el member que acaba de entrar; bajo onboarding concurrente puede
	// atribuir mal. Best-effort, nunca autoritativo.
	rec, err := a.ledger.LookupMostRecentPending(ctx)
	if err != nil {
		if err != storage.ErrNotFound {
			log.Printf("attribution: fallback ledger: %v", err)
		}
		return ""
	}
	return rec.Code
}
