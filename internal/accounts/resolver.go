package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rei-da-derivada/identity/internal/claims"
	"github.com/rei-da-derivada/identity/internal/email"
	"go.uber.org/zap"
)

// ErrIncompleteClaims is returned when a verified claim set is missing the
// email that resolution is keyed by. No store mutation occurs.
var ErrIncompleteClaims = errors.New("claim set missing email")

// ErrStoreUnavailable wraps persistence failures, including a failed
// recovery re-read after a creation race.
var ErrStoreUnavailable = errors.New("account store unavailable")

// accountStore is the persistence capability Resolver requires: an atomic
// conditional insert (Create reports ErrDuplicateEmail on a lost race), a
// point read by email, and a write of the mutable profile fields.
// Satisfied by *AccountRepository.
type accountStore interface {
	Create(ctx context.Context, a *Account) error
	GetByEmail(ctx context.Context, email string) (*Account, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, givenName, familyName, avatarURL string) error
}

// Resolver turns verified claim sets into local accounts: find-or-create
// keyed by email, then reconcile the mutable profile fields. It holds no
// state of its own — concurrent resolutions, including ones on other
// replicas, coordinate only through the store's unique constraint.
type Resolver struct {
	store  accountStore
	mailer email.Sender
	logger *zap.Logger

	onResolved func(created bool) // optional metrics hook
}

// NewResolver creates a Resolver. mailer may be a log-only sender; the
// welcome mail is best-effort either way.
func NewResolver(store accountStore, mailer email.Sender, logger *zap.Logger) *Resolver {
	return &Resolver{store: store, mailer: mailer, logger: logger}
}

// SetResolvedHook registers a callback invoked after each successful
// resolution, with created=true when a new account row was inserted.
func (r *Resolver) SetResolvedHook(fn func(created bool)) {
	r.onResolved = fn
}

// Resolve returns the account for a verified claim set, creating it on
// first sight. Returns the account and true if a new row was inserted.
//
// The creation path is check-then-insert: a concurrent resolution for the
// same new email may commit its insert between our read and ours, in which
// case Create reports ErrDuplicateEmail and we re-read the now-existing
// row. That race is expected and recovered, never surfaced to the caller.
//
// Profile fields are overwritten only where the claim set supplies a
// value; absent claims leave stored values untouched.
func (r *Resolver) Resolve(ctx context.Context, cs *claims.ClaimSet) (*Account, bool, error) {
	if cs == nil || cs.Email == "" {
		return nil, false, ErrIncompleteClaims
	}

	a, created, err := r.findOrCreate(ctx, cs.Email)
	if err != nil {
		return nil, false, err
	}

	if cs.GivenName != "" {
		a.GivenName = cs.GivenName
	}
	if cs.FamilyName != "" {
		a.FamilyName = cs.FamilyName
	}
	if cs.Picture != "" {
		a.AvatarURL = cs.Picture
	}

	if err := r.store.UpdateProfile(ctx, a.ID, a.GivenName, a.FamilyName, a.AvatarURL); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if created {
		r.sendWelcome(ctx, a)
	}
	if r.onResolved != nil {
		r.onResolved(created)
	}

	r.logger.Info("account resolved",
		zap.String("account_id", a.ID.String()),
		zap.Bool("created", created),
	)
	return a, created, nil
}

// findOrCreate fetches the account for email, inserting it when absent.
func (r *Resolver) findOrCreate(ctx context.Context, emailAddr string) (*Account, bool, error) {
	a, err := r.store.GetByEmail(ctx, emailAddr)
	if err == nil {
		return a, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("%w: lookup by email: %v", ErrStoreUnavailable, err)
	}

	a = &Account{Email: emailAddr, Username: emailAddr}
	err = r.store.Create(ctx, a)
	if err == nil {
		return a, true, nil
	}
	if !errors.Is(err, ErrDuplicateEmail) {
		return nil, false, fmt.Errorf("%w: create: %v", ErrStoreUnavailable, err)
	}

	// Lost the race: another resolution committed this email first.
	// Proceed with the row it created.
	a, err = r.store.GetByEmail(ctx, emailAddr)
	if err != nil {
		return nil, false, fmt.Errorf("%w: re-read after duplicate: %v", ErrStoreUnavailable, err)
	}
	return a, false, nil
}

// sendWelcome emails a first-time user. Non-fatal: the account is already
// committed, a failed mail only gets a warning.
func (r *Resolver) sendWelcome(ctx context.Context, a *Account) {
	if r.mailer == nil {
		return
	}
	name := a.GivenName
	if name == "" {
		name = a.Username
	}
	msg := email.Message{
		To:      a.Email,
		Subject: "Bem-vindo ao Rei da Derivada",
		Body: fmt.Sprintf(
			"Olá %s,\n\nSua conta no Rei da Derivada foi criada com o e-mail %s.\n\nBons estudos e boa sorte nos eventos!\n",
			name, a.Email,
		),
	}
	if err := r.mailer.Send(ctx, msg); err != nil {
		r.logger.Warn("send welcome email",
			zap.String("account_id", a.ID.String()),
			zap.Error(err),
		)
	}
}
