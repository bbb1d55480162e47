package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	acquirerModel "vnpay-acquirer/internal/domains/acquirer/model"
	acquirerRepo "vnpay-acquirer/internal/domains/acquirer/repository"
	"vnpay-acquirer/internal/domains/payment/gateway"
	"vnpay-acquirer/internal/domains/token/model"
	"vnpay-acquirer/internal/domains/token/repository"
	"vnpay-acquirer/pkg/logger"
)

// =====================================================
// TOKEN SERVICE IMPLEMENTATION
// =====================================================
type tokenService struct {
	tokenRepo    repository.TokenRepository
	partnerRepo  repository.PartnerRepository
	acquirerRepo acquirerRepo.AcquirerRepository
	gateway      gateway.Gateway
}

func NewTokenService(
	tokenRepo repository.TokenRepository,
	partnerRepo repository.PartnerRepository,
	acquirerRepo acquirerRepo.AcquirerRepository,
	gw gateway.Gateway,
) TokenService {
	return &tokenService{
		tokenRepo:    tokenRepo,
		partnerRepo:  partnerRepo,
		acquirerRepo: acquirerRepo,
		gateway:      gw,
	}
}

// =====================================================
// CREATE TOKEN
// =====================================================

// Create saves a card for a partner
//
// Business Logic Flow:
// 1. Validate request, load acquirer and partner
// 2. Card data present -> tokenize it at the gateway, description = holder name
// 3. No card data -> use the checkout token, description = "Partner: <name> (id: <id>)"
// 4. Turn the token into a gateway customer
// 5. Store the payment token (acquirer_ref = customer id)
// 6. Drop every raw card field from the request
//
// Edge Cases:
// - No token at all -> TOK001
// - Gateway error on token or customer -> TOK002 with the gateway message
// - Token is not a card token -> TOK003
func (s *tokenService) Create(ctx context.Context, req *model.CreateTokenRequest) (*model.PaymentToken, error) {
	// Card data must not survive this call, whatever the outcome
	defer req.Scrub()

	// Step 1: Validate request, load acquirer and partner
	if err := req.Validate(); err != nil {
		return nil, model.NewInvalidCardInputError(err.Error())
	}

	acquirer, err := s.loadAcquirer(ctx, req.AcquirerID)
	if err != nil {
		return nil, err
	}

	partner, err := s.partnerRepo.GetByID(ctx, req.PartnerID)
	if err != nil {
		if errors.Is(err, model.ErrPartnerNotFound) {
			return nil, model.NewPartnerNotFoundError(req.PartnerID.String())
		}
		return nil, fmt.Errorf("failed to get partner: %w", err)
	}

	// Step 2-3: Obtain a gateway token
	var (
		token       *gateway.Object
		description string
	)
	if req.HasCardData() {
		token, err = s.gateway.CreateToken(ctx, acquirer.SecretKey, gateway.CardTokenRequest{
			Number:   req.CCNumber,
			ExpMonth: req.CCExpiry[:2],
			ExpYear:  req.CCExpiry[len(req.CCExpiry)-2:],
			CVC:      req.CVC,
			Name:     req.CCHolderName,
		})
		if err != nil {
			return nil, model.NewGatewayFailureError(err)
		}
		description = req.CCHolderName
	} else {
		token = req.VnpayToken
		description = fmt.Sprintf("Partner: %s (id: %s)", partner.Name, partner.ID)
	}

	if token == nil {
		logger.Warn("vnpay: no token provided", map[string]interface{}{
			"partner_id": req.PartnerID,
		})
		return nil, model.NewNoTokenError()
	}

	// Step 4: Create gateway customer
	customer, err := s.createCustomer(ctx, acquirer.SecretKey, token, description)
	if err != nil {
		return nil, err
	}

	// Step 5: Store payment token
	pt := &model.PaymentToken{
		ID:          uuid.New(),
		AcquirerID:  acquirer.ID,
		PartnerID:   partner.ID,
		AcquirerRef: customer.ID,
		Name:        fmt.Sprintf("%s%s - %s", model.MaskPrefix, token.Last4(), description),
		Active:      true,
	}
	if err := s.tokenRepo.Create(ctx, pt); err != nil {
		return nil, fmt.Errorf("failed to save payment token: %w", err)
	}

	logger.Info("vnpay: payment token created", map[string]interface{}{
		"token_id":     pt.ID,
		"partner_id":   pt.PartnerID,
		"acquirer_ref": pt.AcquirerRef,
	})

	return pt, nil
}

// createCustomer checks the token answer and registers it as customer source
func (s *tokenService) createCustomer(
	ctx context.Context,
	secretKey string,
	token *gateway.Object,
	description string,
) (*gateway.Object, error) {
	if token.HasError() {
		logger.Warn("vnpay: token rejected", map[string]interface{}{
			"error": token.ErrorMessage(),
		})
		return nil, model.NewGatewayRejectedError(token.ErrorMessage())
	}

	if token.Object != gateway.ObjectToken || token.Type != gateway.TokenTypeCard {
		logger.Warn("vnpay: unexpected token object", map[string]interface{}{
			"object": token.Object,
			"type":   token.Type,
		})
		return nil, model.NewUnprocessableCardError()
	}

	if description == "" && token.Card != nil {
		description = token.Card.Name
	}

	customer, err := s.gateway.CreateCustomer(ctx, secretKey, gateway.CustomerRequest{
		Source:      token.ID,
		Description: description,
	})
	if err != nil {
		return nil, model.NewGatewayFailureError(err)
	}

	if customer.HasError() {
		return nil, model.NewGatewayRejectedError(customer.ErrorMessage())
	}

	return customer, nil
}

func (s *tokenService) loadAcquirer(ctx context.Context, id uuid.UUID) (*acquirerModel.Acquirer, error) {
	acquirer, err := s.acquirerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, acquirerModel.ErrAcquirerNotFound) {
			return nil, acquirerModel.NewAcquirerNotFoundError(id.String())
		}
		return nil, fmt.Errorf("failed to get acquirer: %w", err)
	}
	if !acquirer.IsVnpay() {
		return nil, acquirerModel.NewUnsupportedProviderError(acquirer.Provider)
	}
	if acquirer.SecretKey == "" {
		return nil, acquirerModel.NewMissingCredentialsError(acquirer.Name)
	}
	return acquirer, nil
}

// =====================================================
// QUERIES
// =====================================================

func (s *tokenService) GetByID(ctx context.Context, id uuid.UUID) (*model.PaymentToken, error) {
	t, err := s.tokenRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrTokenNotFound) {
			return nil, model.NewTokenNotFoundError(id.String())
		}
		return nil, fmt.Errorf("failed to get payment token: %w", err)
	}
	return t, nil
}

func (s *tokenService) ListByPartner(ctx context.Context, partnerID uuid.UUID) ([]*model.PaymentToken, error) {
	tokens, err := s.tokenRepo.ListByPartner(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment tokens: %w", err)
	}
	return tokens, nil
}
