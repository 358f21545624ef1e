package identity

import (
	"errors"
	"strings"
)

var (
	// ErrNoPrincipal is returned when a token is requested with nobody
	// signed in.
	ErrNoPrincipal = errors.New("no principal signed in")
	// ErrProviderUnavailable indicates a network failure reaching the
	// identity provider.
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)

// CredentialCode classifies identity-provider rejections.
type CredentialCode string

const (
	CodeInvalidCredential CredentialCode = "invalid-credential"
	CodeAccountNotFound   CredentialCode = "account-not-found"
	CodeAccountDisabled   CredentialCode = "account-disabled"
	CodeRateLimited       CredentialCode = "rate-limited"
	CodeEmailRegistered   CredentialCode = "email-already-registered"
	CodeWeakCredential    CredentialCode = "weak-credential"
	CodeOperationDisabled CredentialCode = "operation-not-allowed"
	CodePopupDismissed    CredentialCode = "popup-dismissed"
	CodePopupBlocked      CredentialCode = "popup-blocked"
	CodeUnknownRejection  CredentialCode = "unknown"
)

// CredentialError is a reason-coded identity-provider rejection. Detail
// carries the provider's raw reason when the code is unknown.
type CredentialError struct {
	Code   CredentialCode
	Detail string
}

func (e *CredentialError) Error() string {
	return "credential rejected: " + string(e.Code)
}

// Message returns the human-readable string shown for this rejection.
func (e *CredentialError) Message() string {
	switch e.Code {
	case CodeAccountNotFound:
		return "No account found with this email. Please sign up first."
	case CodeInvalidCredential:
		return "Incorrect email or password. Please try again."
	case CodeAccountDisabled:
		return "This account has been disabled."
	case CodeRateLimited:
		return "Too many failed attempts. Please try again later."
	case CodeEmailRegistered:
		return "This email is already registered. Please log in instead."
	case CodeWeakCredential:
		return "Password should be at least 6 characters."
	case CodeOperationDisabled:
		return "Email/password sign up is not enabled."
	case CodePopupDismissed:
		return "Sign-in popup was closed. Please try again."
	case CodePopupBlocked:
		return "Popup was blocked by your browser. Please allow popups."
	}
	if e.Detail != "" {
		return e.Detail
	}
	return "Sign in failed. Please try again."
}

// AsCredentialError unwraps err into a CredentialError.
func AsCredentialError(err error) (*CredentialError, bool) {
	var cerr *CredentialError
	if errors.As(err, &cerr) {
		return cerr, true
	}
	return nil, false
}

// mapProviderReason translates the provider's error reason strings into
// credential codes. Reasons sometimes carry a trailing qualifier, e.g.
// "TOO_MANY_ATTEMPTS_TRY_LATER : ...", so matching is prefix based.
func mapProviderReason(reason string) *CredentialError {
	normalized := strings.TrimSpace(reason)
	if idx := strings.IndexAny(normalized, " :"); idx > 0 {
		normalized = normalized[:idx]
	}

	switch normalized {
	case "EMAIL_NOT_FOUND", "USER_NOT_FOUND":
		return &CredentialError{Code: CodeAccountNotFound}
	case "INVALID_PASSWORD", "INVALID_EMAIL", "INVALID_LOGIN_CREDENTIALS":
		return &CredentialError{Code: CodeInvalidCredential}
	case "USER_DISABLED":
		return &CredentialError{Code: CodeAccountDisabled}
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return &CredentialError{Code: CodeRateLimited}
	case "EMAIL_EXISTS":
		return &CredentialError{Code: CodeEmailRegistered}
	case "WEAK_PASSWORD":
		return &CredentialError{Code: CodeWeakCredential}
	case "OPERATION_NOT_ALLOWED":
		return &CredentialError{Code: CodeOperationDisabled}
	case "POPUP_CLOSED_BY_USER":
		return &CredentialError{Code: CodePopupDismissed}
	case "POPUP_BLOCKED":
		return &CredentialError{Code: CodePopupBlocked}
	}
	return &CredentialError{Code: CodeUnknownRejection, Detail: reason}
}
