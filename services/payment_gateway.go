package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"goon-fighter/models"

	"github.com/gosimple/unidecode"
)

// maxDescriptorSuffix is the provider's limit on statement descriptor suffixes.
const maxDescriptorSuffix = 22

// CheckoutRequest describes the one-time purchase offered to a player.
type CheckoutRequest struct {
	Principal        models.Principal
	SuccessURL       string
	CancelURL        string
	AmountCents      int64
	Currency         string
	ProductName      string
	DescriptorSuffix string
	AllowedCountries []string
}

// CheckoutSession is the provider's view of a session.
type CheckoutSession struct {
	ID              string           `json:"id"`
	URL             string           `json:"url"`
	ClientReference models.Principal `json:"client_reference_id,omitempty"`
	Complete        bool             `json:"complete"`
	Status          string           `json:"status"`
	PaymentStatus   string           `json:"payment_status"`
}

// CheckoutProvider is the hosted checkout backend. The secret key is passed
// per call because it can be replaced at runtime.
type CheckoutProvider interface {
	CreateSession(ctx context.Context, secretKey string, req CheckoutRequest) (*CheckoutSession, error)
	GetSession(ctx context.Context, secretKey, sessionID string) (*CheckoutSession, error)
}

// PurchaseOffer is the product configuration for story mode.
type PurchaseOffer struct {
	AmountCents int64
	Currency    string
	ProductName string
}

// PaymentGateway verifies checkout sessions and grants entitlements.
type PaymentGateway struct {
	Provider     CheckoutProvider
	Config       *PaymentConfigStore
	Sessions     *PurchaseSessionStore
	Entitlements *EntitlementStore
	Offer        PurchaseOffer
}

func NewPaymentGateway(provider CheckoutProvider, cfg *PaymentConfigStore, sessions *PurchaseSessionStore, ents *EntitlementStore, offer PurchaseOffer) *PaymentGateway {
	return &PaymentGateway{
		Provider:     provider,
		Config:       cfg,
		Sessions:     sessions,
		Entitlements: ents,
		Offer:        offer,
	}
}

// CreateSession opens a checkout for caller and returns the JSON descriptor
// {"id": ..., "url": ...} the client redirects with.
func (g *PaymentGateway) CreateSession(ctx context.Context, caller models.Principal, successURL, cancelURL string) (string, error) {
	if caller.IsAnonymous() {
		return "", ErrUnauthorized
	}
	if strings.TrimSpace(successURL) == "" || strings.TrimSpace(cancelURL) == "" {
		return "", fmt.Errorf("%w: success and cancel urls are required", ErrInvalidArgument)
	}
	cfg, err := g.requireConfig(ctx)
	if err != nil {
		return "", err
	}

	sess, err := g.Provider.CreateSession(ctx, cfg.SecretKey, CheckoutRequest{
		Principal:        caller,
		SuccessURL:       successURL,
		CancelURL:        cancelURL,
		AmountCents:      g.Offer.AmountCents,
		Currency:         g.Offer.Currency,
		ProductName:      g.Offer.ProductName,
		DescriptorSuffix: DescriptorSuffix(g.Offer.ProductName),
		AllowedCountries: SplitCountries(cfg.AllowedCountries),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	if err := g.Sessions.Create(ctx, &models.PurchaseSession{
		ID:             sess.ID,
		ExternalUserID: caller,
		CheckoutURL:    sess.URL,
		AmountCents:    g.Offer.AmountCents,
		Currency:       g.Offer.Currency,
	}); err != nil {
		return "", fmt.Errorf("failed to record checkout session: %w", err)
	}

	out, err := json.Marshal(struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}{sess.ID, sess.URL})
	if err != nil {
		return "", err
	}
	log.Printf("💳 [PAYMENTS] Checkout session %s created for %s", sess.ID, caller)
	return string(out), nil
}

// SessionStatus asks the provider about a session. It does not change any
// state; provider errors surface as SessionFailed.
func (g *PaymentGateway) SessionStatus(ctx context.Context, sessionID string) (models.SessionStatus, error) {
	if strings.TrimSpace(sessionID) == "" {
		return models.SessionFailed{Error: ErrInvalidSession.Error()}, nil
	}
	cfg, err := g.requireConfig(ctx)
	if err != nil {
		return nil, err
	}

	sess, err := g.Provider.GetSession(ctx, cfg.SecretKey, sessionID)
	if err != nil {
		return models.SessionFailed{Error: err.Error()}, nil
	}
	if !sess.Complete {
		return models.SessionFailed{Error: fmt.Sprintf("%s: status=%s payment_status=%s", ErrPaymentNotCompleted, sess.Status, sess.PaymentStatus)}, nil
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	return models.SessionCompleted{Principal: sess.ClientReference, Response: string(raw)}, nil
}

// Unlock re-verifies sessionID and grants caller story mode. Repeating it
// for an unlocked player succeeds without changes.
func (g *PaymentGateway) Unlock(ctx context.Context, caller models.Principal, sessionID string) error {
	if caller.IsAnonymous() {
		return ErrUnauthorized
	}

	status, err := g.SessionStatus(ctx, sessionID)
	if err != nil {
		return err
	}

	switch st := status.(type) {
	case models.SessionFailed:
		if err := g.Sessions.MarkChecked(ctx, sessionID); err != nil {
			log.Printf("⚠️ [PAYMENTS] Failed to stamp session %s: %v", sessionID, err)
		}
		return fmt.Errorf("%w: %s", ErrPaymentNotCompleted, st.Error)
	case models.SessionCompleted:
		if st.Principal != "" && st.Principal != caller {
			log.Printf("🚫 [PAYMENTS] Session %s belongs to %s, not %s", sessionID, st.Principal, caller)
			return ErrInvalidSession
		}
	}

	if _, err := g.Entitlements.Grant(ctx, caller, sessionID); err != nil {
		return fmt.Errorf("failed to grant entitlement: %w", err)
	}
	if err := g.Sessions.MarkCompleted(ctx, sessionID); err != nil {
		log.Printf("⚠️ [PAYMENTS] Failed to mark session %s completed: %v", sessionID, err)
	}
	return nil
}

func (g *PaymentGateway) requireConfig(ctx context.Context) (*models.PaymentConfig, error) {
	cfg, err := g.Config.Get(ctx)
	if err != nil {
		return nil, err
	}
	if cfg == nil || cfg.SecretKey == "" {
		return nil, ErrNotConfigured
	}
	return cfg, nil
}

// DescriptorSuffix transliterates name to upper-case ASCII letters, digits
// and spaces, capped at the provider limit.
func DescriptorSuffix(name string) string {
	ascii := unidecode.Unidecode(name)
	var b strings.Builder
	for _, r := range strings.ToUpper(ascii) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' && b.Len() > 0:
			b.WriteRune(r)
		}
	}
	out := strings.Join(strings.Fields(b.String()), " ")
	if len(out) > maxDescriptorSuffix {
		out = strings.TrimSpace(out[:maxDescriptorSuffix])
	}
	return out
}
