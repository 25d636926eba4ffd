package apperror

// Code represents a unique error code for the application
type Code string

// String returns the code as a plain string.
func (c Code) String() string {
	return string(c)
}

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Trade execution error codes
const (
	CodeBotConfigNotFound       Code = "BOT_CONFIG_NOT_FOUND"
	CodeInvalidOpportunity      Code = "INVALID_OPPORTUNITY"
	CodeTradingDisabled         Code = "TRADING_DISABLED"
	CodeCredentialMissing       Code = "CREDENTIAL_MISSING"
	CodeInvalidCredential       Code = "INVALID_CREDENTIAL"
	CodeInsufficientGasReserve  Code = "INSUFFICIENT_GAS_RESERVE"
	CodeBalanceCheckUnavailable Code = "BALANCE_CHECK_UNAVAILABLE"
	CodeGasPriceTooHigh         Code = "GAS_PRICE_TOO_HIGH"
	CodeGasPriceUnavailable     Code = "GAS_PRICE_UNAVAILABLE"
	CodeReceiverContractMissing Code = "RECEIVER_CONTRACT_MISSING"
	CodeSyntheticQuoteRejected  Code = "SYNTHETIC_QUOTE_REJECTED"
	CodeExecutionFailed         Code = "EXECUTION_FAILED"
)

// Chain errors
const (
	CodeRPCConnectionFailed Code = "RPC_CONNECTION_FAILED"
	CodeRPCError            Code = "RPC_ERROR"
	CodeUnsupportedChain    Code = "UNSUPPORTED_CHAIN"
)

// Aggregator (quote source) errors
const (
	CodeAggregatorAPIError Code = "AGGREGATOR_API_ERROR"
	CodeQuoteFailed        Code = "QUOTE_FAILED"
	CodeInvalidQuote       Code = "INVALID_QUOTE"
)

// Persistence and notification errors
const (
	CodeStorageError      Code = "STORAGE_ERROR"
	CodeNotificationError Code = "NOTIFICATION_ERROR"
)

// Circuit breaker errors
const (
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
