package models

const (
	BoardNameMinLength       = 3
	BoardNameMaxLength       = 100
	ListTitleMinLength       = 2
	ListTitleMaxLength       = 50
	CardTitleMinLength       = 3
	CardTitleMaxLength       = 200
	CardDescriptionMaxLength = 5000
	PasswordMinLength        = 8
	DisplayNameMaxLength     = 50

	MaxListsPerBoard = 10
)
