// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// フォームごとに1件の人間可読なメッセージと、原因カテゴリ・対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ（フォームにそのまま表示する）
	Category string // カテゴリ: auth, validation, backend, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeMissingFields    = "MISSING_FIELDS"
	ErrCodePasswordMismatch = "PASSWORD_MISMATCH"
	ErrCodeSignInFailed     = "SIGNIN_FAILED"
	ErrCodeSignUpFailed     = "SIGNUP_FAILED"
	ErrCodeOTPSendFailed    = "OTP_SEND_FAILED"
	ErrCodeOTPInvalid       = "OTP_INVALID"
	ErrCodeOTPFormat        = "OTP_FORMAT"
	ErrCodeSignupExpired    = "SIGNUP_EXPIRED"
	ErrCodeResendCooldown   = "RESEND_COOLDOWN"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeBackendFailed    = "BACKEND_FAILED"
	ErrCodeNotFound         = "NOT_FOUND"
)

// NewInvalidRequestError はリクエストボディを解析できない場合のエラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "Invalid request body.",
		Category: "validation",
		Action:   "Send the form as a JSON object.",
	}
}

// NewMissingFieldsError は必須項目が未入力の場合のエラーを生成する。
func NewMissingFieldsError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingFields,
		Message:  "Please fill in all fields",
		Category: "validation",
		Action:   "Fill in every required field and submit again.",
	}
}

// NewRequiredFieldError は特定の必須項目が未入力の場合のエラーを生成する。
func NewRequiredFieldError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeMissingFields,
		Message:  message,
		Category: "validation",
		Action:   "Fill in the required field and submit again.",
	}
}

// NewPasswordMismatchError はパスワードと確認用パスワードが一致しない場合のエラーを生成する。
func NewPasswordMismatchError() *APIError {
	return &APIError{
		Code:     ErrCodePasswordMismatch,
		Message:  "Passwords do not match",
		Category: "validation",
		Action:   "Type the same password in both fields.",
	}
}

// NewSignInFailedError はサインイン失敗エラーを生成する。
// messageにはバックエンドが返したメッセージ、なければ既定のメッセージを渡す。
func NewSignInFailedError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeSignInFailed,
		Message:  message,
		Category: "auth",
		Action:   "Check your email and password and try again.",
	}
}

// NewSignUpFailedError はアカウント作成失敗エラーを生成する。
func NewSignUpFailedError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeSignUpFailed,
		Message:  message,
		Category: "auth",
		Action:   "Check the entered information and try again.",
	}
}

// NewOTPSendFailedError はOTP送信失敗エラーを生成する。
func NewOTPSendFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeOTPSendFailed,
		Message:  "Failed to send OTP. Please try again.",
		Category: "backend",
		Action:   "Wait a moment and request a new code.",
	}
}

// NewOTPInvalidError はOTP検証失敗エラーを生成する。
func NewOTPInvalidError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeOTPInvalid,
		Message:  message,
		Category: "auth",
		Action:   "Enter the latest code sent to your email.",
	}
}

// NewOTPFormatError はOTPが6桁の数字でない場合のエラーを生成する。
func NewOTPFormatError() *APIError {
	return &APIError{
		Code:     ErrCodeOTPFormat,
		Message:  "Please enter a valid 6-digit OTP",
		Category: "validation",
		Action:   "Enter the 6 digits from the email.",
	}
}

// NewSignupExpiredError はサインアップ途中の情報が失われた場合のエラーを生成する。
func NewSignupExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeSignupExpired,
		Message:  "Missing signup information. Please sign up again.",
		Category: "validation",
		Action:   "Start the sign-up form again.",
	}
}

// NewResendCooldownError はOTP再送の待機時間中に再送を要求した場合のエラーを生成する。
func NewResendCooldownError(remainingSeconds int) *APIError {
	return &APIError{
		Code:     ErrCodeResendCooldown,
		Message:  fmt.Sprintf("Resend OTP in %ds", remainingSeconds),
		Category: "validation",
		Action:   "Wait until the countdown finishes.",
	}
}

// NewUnauthorizedError は認証が必要な操作でセッションがない場合のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Your session has ended. Please sign in again.",
		Category: "auth",
		Action:   "Sign in again.",
	}
}

// NewBackendError はバックエンドAPI呼び出しの失敗エラーを生成する。
func NewBackendError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeBackendFailed,
		Message:  message,
		Category: "backend",
		Action:   "Try again later.",
	}
}

// NewNotFoundError は指定したリソースが存在しない場合のエラーを生成する。
func NewNotFoundError(resource, id string) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("%s not found: %s", resource, id),
		Category: "backend",
		Action:   "Check the identifier.",
	}
}
