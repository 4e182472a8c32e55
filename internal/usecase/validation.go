package usecase

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/xavierca1/mrk-crm/internal/entity"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var phoneSeparators = regexp.MustCompile(`[\s\-()+]`)

func ValidateCreateLeadInput(input CreateLeadInput) ValidationErrors {
	var errors ValidationErrors

	name := strings.TrimSpace(input.FullName)
	if name == "" {
		errors = append(errors, ValidationError{"full_name", "is required"})
	} else if len([]rune(name)) < 2 || len([]rune(name)) > 255 {
		errors = append(errors, ValidationError{"full_name", "must have between 2 and 255 characters"})
	}

	if msg := phoneProblem(input.Phone); msg != "" {
		errors = append(errors, ValidationError{"phone", msg})
	}

	if input.ProjectTypeID <= 0 {
		errors = append(errors, ValidationError{"project_type_id", "is required"})
	}
	if input.Source != "" && !input.Source.Valid() {
		errors = append(errors, ValidationError{"source", "must be meta_form, landing_page or manual"})
	}
	if input.Temperature != nil && !input.Temperature.Valid() {
		errors = append(errors, ValidationError{"temperature", "must be hot, warm or cold"})
	}

	return errors
}

func ValidateUpdateLeadInput(input UpdateLeadInput) ValidationErrors {
	var errors ValidationErrors

	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		if len([]rune(name)) < 2 || len([]rune(name)) > 255 {
			errors = append(errors, ValidationError{"full_name", "must have between 2 and 255 characters"})
		}
	}
	if input.Phone != nil {
		if msg := phoneProblem(*input.Phone); msg != "" {
			errors = append(errors, ValidationError{"phone", msg})
		}
	}
	if input.Temperature != nil && !input.Temperature.Valid() {
		errors = append(errors, ValidationError{"temperature", "must be hot, warm or cold"})
	}
	if input.QualifierID != nil && !isUUID(*input.QualifierID) {
		errors = append(errors, ValidationError{"qualifier_id", "must be a valid id"})
	}
	if input.CloserID != nil && !isUUID(*input.CloserID) {
		errors = append(errors, ValidationError{"closer_id", "must be a valid id"})
	}

	return errors
}

func ValidateCreateUserInput(input CreateUserInput) ValidationErrors {
	var errors ValidationErrors

	name := strings.TrimSpace(input.Name)
	if name == "" {
		errors = append(errors, ValidationError{"name", "is required"})
	} else if len([]rune(name)) < 2 || len([]rune(name)) > 255 {
		errors = append(errors, ValidationError{"name", "must have between 2 and 255 characters"})
	}
	if strings.TrimSpace(input.Email) == "" {
		errors = append(errors, ValidationError{"email", "is required"})
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		errors = append(errors, ValidationError{"email", "is invalid"})
	}
	if len(input.Password) < 6 || len(input.Password) > 128 {
		errors = append(errors, ValidationError{"password", "must have between 6 and 128 characters"})
	}
	if !input.Role.Valid() {
		errors = append(errors, ValidationError{"role", "must be admin, qualifier or closer"})
	}

	return errors
}

func ValidateUpdateUserInput(input UpdateUserInput) ValidationErrors {
	var errors ValidationErrors

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if len([]rune(name)) < 2 || len([]rune(name)) > 255 {
			errors = append(errors, ValidationError{"name", "must have between 2 and 255 characters"})
		}
	}
	if input.Email != nil {
		if _, err := mail.ParseAddress(*input.Email); err != nil {
			errors = append(errors, ValidationError{"email", "is invalid"})
		}
	}
	if input.Password != nil && (len(*input.Password) < 6 || len(*input.Password) > 128) {
		errors = append(errors, ValidationError{"password", "must have between 6 and 128 characters"})
	}
	if input.Role != nil && !input.Role.Valid() {
		errors = append(errors, ValidationError{"role", "must be admin, qualifier or closer"})
	}

	return errors
}

func ValidateCampaignMapping(containsText *string, projectTypeKey *string, priority *int) ValidationErrors {
	var errors ValidationErrors

	if containsText != nil {
		text := strings.TrimSpace(*containsText)
		if text == "" {
			errors = append(errors, ValidationError{"contains_text", "must not be empty"})
		} else if len([]rune(text)) > 500 {
			errors = append(errors, ValidationError{"contains_text", "must not exceed 500 characters"})
		}
	}
	if projectTypeKey != nil && !entity.ValidProjectTypeKey(*projectTypeKey) {
		errors = append(errors, ValidationError{"project_type_key", "must be mamad, private_home, renovation or architecture"})
	}
	if priority != nil && (*priority < 1 || *priority > 10000) {
		errors = append(errors, ValidationError{"priority", "must be between 1 and 10000"})
	}

	return errors
}

func phoneProblem(phone string) string {
	if len(phone) < 9 || len(phone) > 30 {
		return "must have between 9 and 30 characters"
	}
	cleaned := phoneSeparators.ReplaceAllString(phone, "")
	if !isDigits(cleaned) {
		return "must contain digits only"
	}
	if len(cleaned) < 9 {
		return "is too short"
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
