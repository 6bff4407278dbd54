package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"goalplanner/internal/model"
)

// signupCredits is the regeneration allowance granted to a new account.
const signupCredits = 10

// AccountService resolves caller identity and exposes the account side of the
// credit ledger.
type AccountService struct {
	userRepo IdentityStore
	credits  CreditAccount
	log      zerolog.Logger
}

func NewAccountService(userRepo IdentityStore, credits CreditAccount, log zerolog.Logger) *AccountService {
	return &AccountService{
		userRepo: userRepo,
		credits:  credits,
		log:      log.With().Str("component", "account").Logger(),
	}
}

// Identify upserts the user behind the verified external reference. First
// contact seeds the signup credit allowance.
func (s *AccountService) Identify(ctx context.Context, externalRef, displayName string) (*model.User, error) {
	externalRef = strings.TrimSpace(externalRef)
	if externalRef == "" {
		return nil, validationError("external reference must not be empty")
	}

	user, created, err := s.userRepo.UpsertByExternalRef(ctx, externalRef, strings.TrimSpace(displayName))
	if err != nil {
		return nil, internalError(CodeRegeneration, "resolve user identity", err)
	}
	if created {
		if err := s.credits.Grant(ctx, user.ID, signupCredits); err != nil {
			return nil, internalError(CodeRegeneration, "grant signup credits", err)
		}
		s.log.Info().Uint("user_id", user.ID).Int("credits", signupCredits).Msg("new account")
	}
	return user, nil
}

// Credits reports the user's remaining regeneration allowance.
func (s *AccountService) Credits(ctx context.Context, user *model.User) (int, error) {
	remaining, err := s.credits.Remaining(ctx, user.ID)
	if err != nil {
		return 0, internalError(CodeRegeneration, "read credit balance", err)
	}
	return remaining, nil
}
