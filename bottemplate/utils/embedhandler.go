// File: utils/embedhandler.go

package utils

import (
	"errors"
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/ellavondegurechaff/progression/bottemplate/config"
	"github.com/ellavondegurechaff/progression/bottemplate/services"
	"github.com/ellavondegurechaff/progression/internal/domain/account"
	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
)

// ResponseHandler provides standardized response methods for commands
type ResponseHandler struct{}

var EH = &ResponseHandler{}

// ErrorType represents different categories of errors for consistent handling
type ErrorType int

const (
	// UserError - User input issues, validation failures, parameter problems
	UserError ErrorType = iota
	// SystemError - Database failures, network issues, internal server errors
	SystemError
	// NotFoundError - Requested resources don't exist
	NotFoundError
	// PermissionError - Unauthorized actions, access denied
	PermissionError
	// BusinessLogicError - Cooldowns, insufficient resources, game rule violations
	BusinessLogicError
)

// getErrorPrefix returns the appropriate emoji prefix for error types
func getErrorPrefix(errorType ErrorType) string {
	switch errorType {
	case UserError:
		return "⚠️"
	case SystemError:
		return "🔧"
	case NotFoundError:
		return "🔍"
	case PermissionError:
		return "🚫"
	case BusinessLogicError:
		return "⏰"
	default:
		return "❌"
	}
}

// getErrorColor returns the appropriate color for error types
func getErrorColor(errorType ErrorType) int {
	switch errorType {
	case UserError, BusinessLogicError:
		return config.WarningColor
	case NotFoundError:
		return config.InfoColor
	default:
		return config.ErrorColor
	}
}

// ClassifyError maps an engine error to the category shown to the user.
func ClassifyError(err error) ErrorType {
	switch {
	case err == nil:
		return SystemError
	case apperrors.IsNotFound(err):
		return NotFoundError
	case apperrors.IsValidation(err):
		return UserError
	case errors.Is(err, account.ErrInsufficientFunds),
		errors.Is(err, services.ErrTradeCooldown),
		apperrors.IsBenign(err),
		errors.Is(err, apperrors.ErrNotCompleted):
		return BusinessLogicError
	}
	return SystemError
}

// CreateErrorEmbed creates a standard error embed for command events
func (h *ResponseHandler) CreateErrorEmbed(event *handler.CommandEvent, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: message,
			Color:       config.ErrorColor,
		}},
	})
}

// CreateSuccessEmbed creates a standard success embed for command events
func (h *ResponseHandler) CreateSuccessEmbed(event *handler.CommandEvent, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: message,
			Color:       config.SuccessColor,
		}},
	})
}

// CreateInfoEmbed creates a standard info embed for command events
func (h *ResponseHandler) CreateInfoEmbed(event *handler.CommandEvent, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: message,
			Color:       config.InfoColor,
		}},
	})
}

// CreateClassifiedError creates an ephemeral error response for errorType
func (h *ResponseHandler) CreateClassifiedError(event *handler.CommandEvent, errorType ErrorType, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: getErrorPrefix(errorType) + " " + message,
			Color:       getErrorColor(errorType),
		}},
		Flags: discord.MessageFlagEphemeral,
	})
}

// CreateEngineError answers with a message matching err's category. System
// errors never leak their text to the user.
func (h *ResponseHandler) CreateEngineError(event *handler.CommandEvent, action string, err error) error {
	errorType := ClassifyError(err)
	message := UserMessage(action, err)
	return h.CreateClassifiedError(event, errorType, message)
}

// UserMessage is the text shown for err while doing action.
func UserMessage(action string, err error) string {
	switch ClassifyError(err) {
	case NotFoundError:
		return fmt.Sprintf("Could not %s: nothing found.", action)
	case UserError:
		var v *apperrors.ValidationError
		if errors.As(err, &v) {
			return fmt.Sprintf("Could not %s: %s %s.", action, v.Field, v.Reason)
		}
		return fmt.Sprintf("Could not %s: invalid input.", action)
	case BusinessLogicError:
		switch {
		case errors.Is(err, account.ErrInsufficientFunds):
			return fmt.Sprintf("Could not %s: insufficient funds.", action)
		case errors.Is(err, services.ErrTradeCooldown):
			return fmt.Sprintf("Could not %s: you are on cooldown.", action)
		case errors.Is(err, apperrors.ErrAlreadyClaimed):
			return fmt.Sprintf("Could not %s: already claimed.", action)
		case errors.Is(err, apperrors.ErrNotCompleted):
			return fmt.Sprintf("Could not %s: not completed yet.", action)
		case errors.Is(err, apperrors.ErrAlreadyExists):
			return fmt.Sprintf("Could not %s: it already exists.", action)
		}
		return fmt.Sprintf("Could not %s right now.", action)
	}
	return fmt.Sprintf("Failed to %s. Please try again later.", action)
}
