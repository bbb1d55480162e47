package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"vnpay-acquirer/internal/domains/acquirer/model"
	"vnpay-acquirer/internal/domains/acquirer/repository"
	"vnpay-acquirer/internal/domains/payment/gateway"
	tokenModel "vnpay-acquirer/internal/domains/token/model"
	tokenService "vnpay-acquirer/internal/domains/token/service"
	"vnpay-acquirer/pkg/logger"
)

type acquirerService struct {
	repo         repository.AcquirerRepository
	tokenService tokenService.TokenService
	gateway      gateway.Gateway
}

func NewAcquirerService(
	repo repository.AcquirerRepository,
	tokenService tokenService.TokenService,
	gw gateway.Gateway,
) AcquirerService {
	return &acquirerService{
		repo:         repo,
		tokenService: tokenService,
		gateway:      gw,
	}
}

// =====================================================
// ACQUIRER CONFIGURATION
// =====================================================

func (s *acquirerService) GetAcquirer(ctx context.Context, id uuid.UUID) (*model.Acquirer, error) {
	acquirer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrAcquirerNotFound) {
			return nil, model.NewAcquirerNotFoundError(id.String())
		}
		return nil, fmt.Errorf("failed to get acquirer: %w", err)
	}
	return acquirer, nil
}

func (s *acquirerService) GetActiveAcquirer(ctx context.Context) (*model.Acquirer, error) {
	acquirer, err := s.repo.GetByProvider(ctx, model.ProviderVnpay)
	if err != nil {
		if errors.Is(err, model.ErrAcquirerNotFound) {
			return nil, model.NewAcquirerNotFoundError(model.ProviderVnpay)
		}
		return nil, fmt.Errorf("failed to get acquirer: %w", err)
	}
	if !acquirer.IsActive {
		return nil, model.NewAcquirerInactiveError(acquirer.Name)
	}
	if !acquirer.HasCredentials() {
		return nil, model.NewMissingCredentialsError(acquirer.Name)
	}
	return acquirer, nil
}

func (s *acquirerService) GetAcquirerResponse(ctx context.Context, id uuid.UUID) (*model.AcquirerResponse, error) {
	acquirer, err := s.GetAcquirer(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(acquirer), nil
}

// UpdateCredentials sets the secret/publishable key pair of a vnpay acquirer
func (s *acquirerService) UpdateCredentials(
	ctx context.Context,
	id uuid.UUID,
	req model.UpdateCredentialsRequest,
) (*model.AcquirerResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewInvalidInputError(err)
	}

	acquirer, err := s.GetAcquirer(ctx, id)
	if err != nil {
		return nil, err
	}
	if !acquirer.IsVnpay() {
		return nil, model.NewUnsupportedProviderError(acquirer.Provider)
	}

	secretKey := strings.TrimSpace(req.SecretKey)
	publishableKey := strings.TrimSpace(req.PublishableKey)
	if err := s.repo.UpdateCredentials(ctx, id, secretKey, publishableKey, req.ImageURL); err != nil {
		return nil, fmt.Errorf("failed to update acquirer credentials: %w", err)
	}

	logger.Info("acquirer credentials updated", map[string]interface{}{
		"acquirer_id": id,
		"environment": acquirer.Environment,
	})

	acquirer.SecretKey = secretKey
	acquirer.PublishableKey = publishableKey
	acquirer.ImageURL = req.ImageURL
	return s.toResponse(acquirer), nil
}

// =====================================================
// CHECKOUT FORM
// =====================================================

// FormGenerateValues merges the transaction values with the company,
// partner address and checkout key fields
func (s *acquirerService) FormGenerateValues(
	ctx context.Context,
	acquirerID uuid.UUID,
	values model.TxValues,
) (*model.FormValues, error) {
	if err := values.Validate(); err != nil {
		return nil, model.NewInvalidInputError(err)
	}

	acquirer, err := s.acquirerOrActive(ctx, acquirerID)
	if err != nil {
		return nil, err
	}

	values.Currency = strings.ToUpper(values.Currency)

	form := &model.FormValues{
		TxValues:       values,
		AcquirerID:     acquirer.ID,
		Company:        acquirer.CompanyName,
		CurrencyID:     values.Currency,
		AddressLine1:   values.PartnerAddress,
		AddressCity:    values.PartnerCity,
		AddressCountry: values.PartnerCountry,
		Email:          values.PartnerEmail,
		AddressZip:     values.PartnerZip,
		Name:           values.PartnerName,
		Phone:          values.PartnerPhone,
		PublishableKey: acquirer.PublishableKey,
	}
	if acquirer.ImageURL != nil {
		form.ImageURL = *acquirer.ImageURL
	}

	return form, nil
}

// =====================================================
// SERVER TO SERVER
// =====================================================

// S2SFormValidate accepts a checkout token or the five card fields
func (s *acquirerService) S2SFormValidate(data model.S2SFormData) bool {
	if data.HasVnpayToken() {
		return true
	}
	return data.ValidateCardFields() == nil
}

func (s *acquirerService) S2SFormProcess(ctx context.Context, data model.S2SFormData) (*tokenModel.PaymentToken, error) {
	acquirer, err := s.acquirerOrActive(ctx, data.AcquirerID)
	if err != nil {
		return nil, err
	}

	return s.tokenService.Create(ctx, &tokenModel.CreateTokenRequest{
		AcquirerID:   acquirer.ID,
		PartnerID:    data.PartnerID,
		CCNumber:     data.CCNumber,
		CVC:          data.CVC,
		CCHolderName: data.CCHolderName,
		CCExpiry:     data.CCExpiry,
		CCBrand:      data.CCBrand,
		VnpayToken:   data.VnpayToken,
	})
}

// acquirerOrActive loads the given acquirer, or the active vnpay one when
// no id is given
func (s *acquirerService) acquirerOrActive(ctx context.Context, id uuid.UUID) (*model.Acquirer, error) {
	if id == uuid.Nil {
		return s.GetActiveAcquirer(ctx)
	}
	return s.GetAcquirer(ctx, id)
}

// =====================================================
// FEATURES
// =====================================================

func (s *acquirerService) FeatureSupport() map[string][]string {
	return map[string][]string{
		model.FeatureFees:      {},
		model.FeatureAuthorize: {},
		model.FeatureTokenize:  {model.ProviderVnpay},
	}
}

func (s *acquirerService) APIURL() string {
	return s.gateway.APIURL()
}

func (s *acquirerService) toResponse(a *model.Acquirer) *model.AcquirerResponse {
	return &model.AcquirerResponse{
		ID:             a.ID,
		Name:           a.Name,
		Provider:       a.Provider,
		CompanyName:    a.CompanyName,
		PublishableKey: a.PublishableKey,
		ImageURL:       a.ImageURL,
		Environment:    a.Environment,
		IsActive:       a.IsActive,
		HasSecretKey:   a.SecretKey != "",
		APIURL:         s.APIURL(),
		Features:       s.FeatureSupport(),
		UpdatedAt:      a.UpdatedAt,
	}
}
