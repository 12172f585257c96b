package utils

import (
	"errors"
	"fmt"
	"strings"
)

// AppError represents an application error with a stable code and a short
// user-facing message suitable for direct display.
type AppError struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	UserMessage string `json:"user_message,omitempty"`
	Details     string `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAppError creates a new application error
func NewAppError(code, message string, details ...string) *AppError {
	err := &AppError{
		Code:        code,
		Message:     message,
		UserMessage: userMessageFor(code, message),
	}

	if len(details) > 0 {
		err.Details = details[0]
	}

	return err
}

// Common error codes
const (
	ErrCodeNotConnected          = "NOT_CONNECTED"
	ErrCodeInvalidAmount         = "INVALID_AMOUNT"
	ErrCodeWalletDisconnected    = "WALLET_DISCONNECTED"
	ErrCodeTxHashUnavailable     = "TX_HASH_UNAVAILABLE"
	ErrCodeInsufficientAllowance = "INSUFFICIENT_ALLOWANCE"
	ErrCodeInsufficientBalance   = "INSUFFICIENT_BALANCE"
	ErrCodeGasError              = "GAS_ERROR"
	ErrCodeUserRejected          = "USER_REJECTED"
	ErrCodeNetworkError          = "NETWORK_ERROR"
	ErrCodeContractRevert        = "CONTRACT_REVERT"
	ErrCodeUnknown               = "UNKNOWN_ERROR"

	ErrCodeConnection    = "CONNECTION_ERROR"
	ErrCodeDatabase      = "DATABASE_ERROR"
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternal      = "INTERNAL_ERROR"
	ErrCodeConfiguration = "CONFIGURATION_ERROR"
)

// revertMessages maps known custom contract error names to friendly messages.
var revertMessages = map[string]string{
	"ERC20InsufficientBalance":   "Insufficient token balance",
	"ERC20InsufficientAllowance": "Please approve tokens before proceeding",
	"ERC20InvalidReceiver":       "Invalid recipient address",
	"ERC20InvalidSpender":        "Invalid spender address",
	"OwnableUnauthorizedAccount": "Unauthorized access",
	"EnforcedPause":              "Contract is currently paused",
	"InvalidMaturity":            "Invalid maturity date",
	"MaturityNotActive":          "This maturity is not active",
	"InsufficientLiquidity":      "Insufficient liquidity for this trade",
	"InvalidAmount":              "Invalid amount specified",
	"InvalidToken":               "Invalid token address",
	"SlippageExceeded":           "Price slippage exceeded maximum tolerance",
	"DeadlineExceeded":           "Transaction deadline exceeded",
	"MinimumAmountNotMet":        "Amount below minimum threshold",
	"MaximumAmountExceeded":      "Amount exceeds maximum limit",
}

// userMessageFor produces the short user-facing sentence for an error code.
func userMessageFor(code, message string) string {
	switch code {
	case ErrCodeNotConnected:
		return "Wallet is not connected. Please connect your wallet first."
	case ErrCodeInvalidAmount:
		return "Invalid amount specified. Amount must be greater than zero."
	case ErrCodeWalletDisconnected:
		return "Wallet connection lost. Please try again."
	case ErrCodeTxHashUnavailable:
		return "Could not obtain transaction hash. Please try again."
	case ErrCodeInsufficientAllowance:
		return "Token approval required. Please approve the contract to spend your tokens."
	case ErrCodeInsufficientBalance:
		return "Insufficient token balance for this operation."
	case ErrCodeGasError:
		return "Transaction failed due to gas issues. Please try again."
	case ErrCodeUserRejected:
		return "Transaction was cancelled by user."
	case ErrCodeNetworkError:
		return "Network error. Please check your connection and try again."
	case ErrCodeContractRevert:
		if msg, ok := revertMessages[message]; ok {
			return msg
		}
		return "Contract rejected the transaction: " + message
	default:
		return "Transaction failed. Please try again."
	}
}

// ClassifyWriteError maps an error raised by a wallet, provider, or contract
// call into an AppError with a stable code. Classification is deterministic:
// the same input always yields the same code and message.
func ClassifyWriteError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "disconnected port"),
		strings.Contains(lower, "connection lost"):
		return NewAppError(ErrCodeWalletDisconnected, "Wallet communication channel lost", msg)
	case strings.Contains(lower, "unable to get transaction hash"),
		strings.Contains(lower, "transaction hash unavailable"):
		return NewAppError(ErrCodeTxHashUnavailable, "Transaction hash could not be obtained", msg)
	case strings.Contains(lower, "insufficient allowance"):
		return NewAppError(ErrCodeInsufficientAllowance, "Allowance too low for requested amount", msg)
	case strings.Contains(lower, "insufficient balance"),
		strings.Contains(lower, "insufficient funds"):
		return NewAppError(ErrCodeInsufficientBalance, "Balance too low for requested amount", msg)
	case strings.Contains(lower, "user rejected"),
		strings.Contains(lower, "user denied"):
		return NewAppError(ErrCodeUserRejected, "User rejected the transaction", msg)
	case strings.Contains(lower, "execution reverted"):
		return NewAppError(ErrCodeContractRevert, revertReason(msg), msg)
	case strings.Contains(lower, "gas required exceeds"),
		strings.Contains(lower, "intrinsic gas"),
		strings.Contains(lower, "out of gas"),
		strings.Contains(lower, "gas"):
		return NewAppError(ErrCodeGasError, "Gas estimation or execution failed", msg)
	case strings.Contains(lower, "network"),
		strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "timeout"),
		strings.Contains(lower, "deadline exceeded"):
		return NewAppError(ErrCodeNetworkError, "Network or provider failure", msg)
	default:
		return NewAppError(ErrCodeUnknown, "Unclassified provider error", msg)
	}
}

// revertReason extracts the revert reason from a node error message, e.g.
// "execution reverted: InvalidMaturity" yields "InvalidMaturity".
func revertReason(msg string) string {
	const marker = "execution reverted"
	idx := strings.Index(strings.ToLower(msg), marker)
	if idx < 0 {
		return msg
	}
	reason := strings.TrimSpace(msg[idx+len(marker):])
	reason = strings.TrimPrefix(reason, ":")
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "Contract call failed"
	}
	return reason
}

// IsCode reports whether err carries the given application error code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
