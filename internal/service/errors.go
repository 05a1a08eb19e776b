package service

import "fmt"

// Таксономия ошибок сервисного слоя. HTTP-слой отображает тип в статус:
// ValidationError → 400, AuthError → 401, ForbiddenError → 403,
// repository.ErrNotFound → 404, всё остальное → 500.
// Сообщения пользовательские, на испанском, как их отдаёт API.

type ValidationError struct{ msg string }

func (e *ValidationError) Error() string { return e.msg }

// Validationf конструирует ValidationError с форматированием
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

type AuthError struct{ msg string }

func (e *AuthError) Error() string { return e.msg }

type ForbiddenError struct{ msg string }

func (e *ForbiddenError) Error() string { return e.msg }

// NotFoundError намеренно не различает "нет сущности" и "нет видимости"
type NotFoundError struct{ msg string }

func (e *NotFoundError) Error() string { return e.msg }

var (
	ErrBadCredentials = &AuthError{msg: "Credenciales inválidas"}
	ErrTokenRequired  = &AuthError{msg: "Token requerido"}
	ErrTokenInvalid   = &AuthError{msg: "Token inválido o expirado"}
	ErrForbidden      = &ForbiddenError{msg: "Permisos insuficientes"}

	ErrProductNotFound = &NotFoundError{msg: "Producto no encontrado o sin permisos"}
	ErrOrderNotFound   = &NotFoundError{msg: "Pedido no encontrado o sin permisos"}
)
