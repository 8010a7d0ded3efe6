package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/taskdeck/taskdeck/internal/models"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Register custom validators for enums
	if err := validate.RegisterValidation("task_priority", validateTaskPriority); err != nil {
		panic(fmt.Sprintf("failed to register task_priority validator: %v", err))
	}
	if err := validate.RegisterValidation("task_status", validateTaskStatus); err != nil {
		panic(fmt.Sprintf("failed to register task_status validator: %v", err))
	}
}

// validateTaskPriority validates that a string is a valid Priority enum value
func validateTaskPriority(fl validator.FieldLevel) bool {
	switch models.Priority(fl.Field().String()) {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
		return true
	default:
		return false
	}
}

// validateTaskStatus validates that a string is a valid persisted TaskStatus.
// Derived buckets (overdue, dueToday) are rejected here so they can never be
// written back to the store.
func validateTaskStatus(fl validator.FieldLevel) bool {
	switch models.TaskStatus(fl.Field().String()) {
	case models.TaskStatusPending, models.TaskStatusCompleted:
		return true
	default:
		return false
	}
}

// ValidateTaskFields checks writable task fields before issuing a network
// call. Failures are reported as a ValidationError and are never retried.
func ValidateTaskFields(fields models.TaskFields) error {
	if err := validate.Struct(fields); err != nil {
		var verrs validator.ValidationErrors
		msgs := make([]string, 0, 1)
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
			}
		} else {
			msgs = append(msgs, err.Error())
		}
		return &ValidationError{Op: "validate task", Message: strings.Join(msgs, "; ")}
	}
	return nil
}
