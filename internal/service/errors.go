package service

import "errors"

// Определяем кастомные ошибки для сервисов
var (
	// ErrInvalidCredentials - неверный email или пароль при входе
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrIncorrectPassword - подтверждающий пароль не совпал (смена пароля, удаление аккаунта)
	ErrIncorrectPassword = errors.New("password is incorrect")
)
