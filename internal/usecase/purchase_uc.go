package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"content-token-platform/internal/domain"
	"content-token-platform/internal/domain/model"
	"content-token-platform/internal/domain/ports/adapter"
	"content-token-platform/internal/domain/ports/repository"
)

// Compile-time check
var _ PurchaseUseCase = (*purchaseUC)(nil)

type PurchaseUseCase interface {
	// Initiate creates a provider invoice for a token package and
	// persists the pending payment. Returns the payment and the URL the
	// client follows to pay.
	Initiate(ctx context.Context, userID, packageID string, provider model.PaymentProvider) (*model.Payment, string, error)
	ListPackages(ctx context.Context) ([]*model.TokenPackage, error)
}

type purchaseUC struct {
	payments    repository.PaymentRepository
	packages    repository.TokenPackageRepository
	providers   map[model.PaymentProvider]adapter.PaymentProvider
	callbackURL string
	log         *zerolog.Logger
}

func NewPurchaseUseCase(
	payments repository.PaymentRepository,
	packages repository.TokenPackageRepository,
	providers map[model.PaymentProvider]adapter.PaymentProvider,
	callbackURL string,
	logger *zerolog.Logger,
) *purchaseUC {
	return &purchaseUC{payments: payments, packages: packages, providers: providers, callbackURL: callbackURL, log: logger}
}

func (u *purchaseUC) Initiate(ctx context.Context, userID, packageID string, provider model.PaymentProvider) (*model.Payment, string, error) {
	if userID == "" || packageID == "" {
		return nil, "", domain.ErrInvalidArgument
	}
	prov, ok := u.providers[provider]
	if !ok {
		return nil, "", domain.ErrInvalidArgument
	}

	pkg, err := u.packages.FindByID(ctx, packageID)
	if err != nil {
		return nil, "", err
	}
	if !pkg.Active {
		return nil, "", domain.ErrNotFound
	}

	desc := fmt.Sprintf("%s (%d tokens)", pkg.Name, pkg.Tokens)
	inv, err := prov.CreateInvoice(ctx, pkg.PriceAmount, pkg.PriceCurrency, desc, u.callbackURL)
	if err != nil {
		return nil, "", fmt.Errorf("create invoice with %s: %w", prov.Name(), err)
	}

	p, err := model.NewPayment(uuid.NewString(), userID, pkg, prov.Name(), inv.ExternalRef)
	if err != nil {
		return nil, "", err
	}
	if err := u.payments.Save(ctx, p); err != nil {
		return nil, "", err
	}

	u.log.Info().Str("payment_id", p.ID).Str("user_id", userID).
		Str("package_id", packageID).Str("provider", string(prov.Name())).
		Str("external_ref", p.ExternalRef).Msg("purchase initiated")
	return p, inv.PayURL, nil
}

func (u *purchaseUC) ListPackages(ctx context.Context) ([]*model.TokenPackage, error) {
	return u.packages.ListActive(ctx)
}
