package workers

import (
	"context"
	"errors"
	"log"
	"time"

	"goon-fighter/models"
	"goon-fighter/services"
)

// checkoutExpiry is how long the provider keeps an unpaid checkout open.
const checkoutExpiry = 24 * time.Hour

// PurchaseReconciler unlocks players whose checkout completed but who never
// came back through the unlock call (closed tab, lost redirect).
type PurchaseReconciler struct {
	Gateway   *services.PaymentGateway
	Sessions  *services.PurchaseSessionStore
	BatchSize int

	now func() time.Time
}

func NewPurchaseReconciler(gateway *services.PaymentGateway, sessions *services.PurchaseSessionStore) *PurchaseReconciler {
	return &PurchaseReconciler{
		Gateway:   gateway,
		Sessions:  sessions,
		BatchSize: 50,
		now:       time.Now,
	}
}

// ReconcileOnce checks one batch of pending sessions and returns how many
// were unlocked.
func (r *PurchaseReconciler) ReconcileOnce(ctx context.Context) (int, error) {
	pending, err := r.Sessions.Pending(ctx, r.BatchSize)
	if err != nil {
		return 0, err
	}

	unlocked := 0
	for _, sess := range pending {
		if ctx.Err() != nil {
			return unlocked, ctx.Err()
		}
		err := r.Gateway.Unlock(ctx, sess.ExternalUserID, sess.ID)
		switch {
		case err == nil:
			unlocked++
		case errors.Is(err, services.ErrNotConfigured):
			return unlocked, err
		case errors.Is(err, services.ErrInvalidSession):
			r.fail(ctx, sess)
		case errors.Is(err, services.ErrPaymentNotCompleted):
			if r.now().Sub(sess.CreatedAt) > checkoutExpiry {
				r.fail(ctx, sess)
			}
		default:
			log.Printf("❌ [RECONCILE] Session %s: %v", sess.ID, err)
		}
	}
	return unlocked, nil
}

func (r *PurchaseReconciler) fail(ctx context.Context, sess models.PurchaseSession) {
	if err := r.Sessions.MarkFailed(ctx, sess.ID); err != nil {
		log.Printf("❌ [RECONCILE] Failed to mark session %s failed: %v", sess.ID, err)
		return
	}
	log.Printf("🗑️ [RECONCILE] Session %s for %s marked failed", sess.ID, sess.ExternalUserID)
}

// PollPurchases runs ReconcileOnce every interval until ctx is cancelled.
func PollPurchases(ctx context.Context, r *PurchaseReconciler, interval time.Duration) {
	log.Printf("Starting purchase reconciliation (every %s)...", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Purchase reconciliation stopped.")
			return
		case <-ticker.C:
			n, err := r.ReconcileOnce(ctx)
			if errors.Is(err, services.ErrNotConfigured) {
				continue
			}
			if err != nil {
				log.Printf("❌ Error reconciling purchases: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("✅ Unlocked %d purchase(s) from pending sessions.", n)
			}
		}
	}
}
