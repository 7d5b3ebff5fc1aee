package core

// error_messages.go maps technical errors to user-friendly messages with a
// support code. Codes are grouped by category:
//
//	FILE001-FILE004  upload file problems (size, format, empty, unreadable)
//	VAL001-VAL002    batch validation (missing columns, bad request)
//	IMP001-IMP003    import run management (busy, not found, unknown kind)
//	DB001-DB004      document store failures
//	ERR000           anything else

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage represents a user-friendly error message with an action hint.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var defaultMessage = UserMessage{
	Message: "Une erreur inattendue est survenue",
	Action:  "Réessayez ou contactez le support",
	Code:    "ERR000",
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// storePatterns match error text coming from the database drivers, which
// do not expose stable sentinel values across backends.
var storePatterns = []errorPattern{
	{
		pattern: "permission denied",
		msg: UserMessage{
			Message: "Accès refusé par la base de données",
			Action:  "Vérifiez les droits de l'établissement",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Impossible de joindre la base de données",
			Action:  "Réessayez dans quelques instants",
			Code:    "DB002",
		},
	},
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "Un enregistrement identique existe déjà",
			Action:  "Téléchargez le rapport d'erreurs pour vérifier les doublons",
			Code:    "DB003",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "L'opération a expiré",
			Action:  "Réessayez avec un fichier plus petit",
			Code:    "DB004",
		},
	},
}

// MapError converts a technical error to a user-friendly message.
// Typed errors are matched first, then known driver error text.
// Returns an empty UserMessage for nil.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var missingErr *MissingColumnsError
	var validationErr *RequestError

	switch {
	case errors.Is(err, ErrFileTooLarge):
		return UserMessage{
			Message: "Le fichier dépasse la taille maximale autorisée",
			Action:  "Découpez le fichier en plusieurs imports",
			Code:    "FILE001",
		}
	case errors.Is(err, ErrUnsupportedFormat):
		return UserMessage{
			Message: "Format de fichier non pris en charge",
			Action:  "Enregistrez le fichier au format .xlsx ou .csv",
			Code:    "FILE002",
		}
	case errors.Is(err, ErrEmptyFile):
		return UserMessage{
			Message: "Le fichier est vide",
			Action:  "Ajoutez une ligne d'en-tête et des lignes de données",
			Code:    "FILE003",
		}
	case isDecodeError(err):
		return UserMessage{
			Message: "Le fichier est illisible ou corrompu",
			Action:  "Téléchargez le modèle et recopiez-y vos données",
			Code:    "FILE004",
		}
	case errors.As(err, &missingErr):
		return UserMessage{
			Message: fmt.Sprintf("Colonnes obligatoires manquantes : %s", strings.Join(missingErr.Missing, ", ")),
			Action:  "Utilisez les en-têtes du modèle téléchargeable",
			Code:    "VAL001",
		}
	case errors.As(err, &validationErr):
		return UserMessage{
			Message: validationErr.Error(),
			Action:  "Corrigez la requête et réessayez",
			Code:    "VAL002",
		}
	case errors.Is(err, ErrTooManyImports):
		return UserMessage{
			Message: "Le système traite déjà d'autres imports",
			Action:  "Patientez un instant puis réessayez",
			Code:    "IMP001",
		}
	case errors.Is(err, ErrRunNotFound):
		return UserMessage{
			Message: "Import introuvable",
			Action:  "L'import a peut-être expiré, relancez-le",
			Code:    "IMP002",
		}
	case errors.Is(err, ErrUnknownKind):
		return UserMessage{
			Message: "Type d'import inconnu",
			Action:  "Choisissez élèves, enseignants ou notes",
			Code:    "IMP003",
		}
	case errors.Is(err, ErrRunInProgress):
		return UserMessage{
			Message: "L'import est toujours en cours",
			Action:  "Attendez la fin de l'import",
			Code:    "IMP004",
		}
	}

	lower := strings.ToLower(err.Error())
	for _, ep := range storePatterns {
		if strings.Contains(lower, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

func isDecodeError(err error) bool {
	var decodeErr *DecodeError
	return errors.As(err, &decodeErr)
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
