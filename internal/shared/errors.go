package shared

import "errors"

var (
	// ErrNotFound indicates an unknown company or closing record.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateCode occurs when a company code is already registered.
	ErrDuplicateCode = errors.New("company code already exists")
	// ErrValidation marks malformed user input.
	ErrValidation = errors.New("validation failed")
	// ErrPersistence signals the storage backend rejected a save.
	ErrPersistence = errors.New("persistence failure")
	// ErrDataConsistency flags an invariant violation found at runtime.
	ErrDataConsistency = errors.New("data consistency error")
)

// UserMessage converts an error into text safe to show to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDuplicateCode):
		return "Empresa com este código já existe!"
	case errors.Is(err, ErrNotFound):
		return "Empresa ou fechamento não encontrado."
	case errors.Is(err, ErrValidation):
		return "Dados inválidos: " + err.Error()
	case errors.Is(err, ErrPersistence):
		return "Erro ao salvar dados! Tente novamente."
	case errors.Is(err, ErrDataConsistency):
		return "Dados inconsistentes detectados; o registro foi ignorado."
	default:
		return "Erro inesperado."
	}
}
