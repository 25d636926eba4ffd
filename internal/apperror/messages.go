package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodeBotConfigNotFound:       "Bot configuration not found",
	CodeInvalidOpportunity:      "Opportunity is malformed",
	CodeTradingDisabled:         "Real trading is disabled. Enable it in bot settings or use simulation mode",
	CodeCredentialMissing:       "Private key not configured",
	CodeInvalidCredential:       "Private key is not a valid secp256k1 key",
	CodeInsufficientGasReserve:  "Insufficient native balance for gas",
	CodeBalanceCheckUnavailable: "Native balance could not be checked",
	CodeGasPriceTooHigh:         "Gas price exceeds configured maximum",
	CodeGasPriceUnavailable:     "Gas price could not be fetched",
	CodeReceiverContractMissing: "Flash loan receiver contract not configured",
	CodeSyntheticQuoteRejected:  "Live aggregator quote required for real execution",
	CodeExecutionFailed:         "Trade execution failed",

	CodeRPCConnectionFailed: "Failed to connect to RPC node",
	CodeRPCError:            "RPC call failed",
	CodeUnsupportedChain:    "Chain is not configured",

	CodeAggregatorAPIError: "Aggregator API error",
	CodeQuoteFailed:        "Failed to get swap quote",
	CodeInvalidQuote:       "Invalid quote data",

	CodeStorageError:      "Storage operation failed",
	CodeNotificationError: "Notification delivery failed",

	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
