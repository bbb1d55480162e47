package model

const (
	ProviderVnpay = "vnpay"

	// DisplayName prefixes every user facing gateway message
	DisplayName = "Vnpay"

	EnvironmentTest = "test"
	EnvironmentProd = "prod"
)

// Advanced features an acquirer can declare
const (
	FeatureFees      = "fees"
	FeatureAuthorize = "authorize"
	FeatureTokenize  = "tokenize"
)

// Error codes
const (
	ErrCodeAcquirerNotFound    = "ACQ001"
	ErrCodeAcquirerInactive    = "ACQ002"
	ErrCodeMissingCredentials  = "ACQ003"
	ErrCodeUnsupportedProvider = "ACQ004"
	ErrCodeInvalidInput        = "ACQ005"
)
