package errors

import "errors"

// Сентинельные ошибки, общие для репозиториев, сервисов и обработчиков.
// Сервисы оборачивают их через fmt.Errorf("%w: ..."), обработчики сопоставляют со статусом HTTP.
var (
	// ErrNotFound - запись истории или пользователь не найдены (в том числе чужая запись)
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized - нет токена, токен невалиден или отозван
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden - действие запрещено для этого пользователя
	ErrForbidden = errors.New("forbidden")

	// ErrValidation - некорректные ответы квиза, дата, настройки или пароль
	ErrValidation = errors.New("validation failed")

	// ErrExpiredToken - срок действия токена истек
	ErrExpiredToken = errors.New("token is expired")

	// ErrConflict - email или username заняты
	ErrConflict = errors.New("resource state conflict")
)
