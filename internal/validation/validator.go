package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/student-forum-api/internal/models"
)

// MinPasswordLength is the shortest password accepted at registration
const MinPasswordLength = 6

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is a set of field errors returned as one error value
type Errors []ValidationError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Err returns nil when there are no errors
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Validator provides validation methods
type Validator struct {
	studentDomains []string
}

// NewValidator creates a validator accepting emails in the given domains
func NewValidator(studentDomains []string) *Validator {
	domains := make([]string, 0, len(studentDomains))
	for _, d := range studentDomains {
		d = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d), "@"))
		if d != "" {
			domains = append(domains, d)
		}
	}
	return &Validator{studentDomains: domains}
}

// IsStudentEmail reports whether the address ends with an allowed domain
func (v *Validator) IsStudentEmail(email string) bool {
	email = strings.ToLower(email)
	for _, d := range v.studentDomains {
		if strings.HasSuffix(email, "@"+d) {
			return true
		}
	}
	return false
}

// ValidateRegistration validates a sign-up request
func (v *Validator) ValidateRegistration(req *models.RegisterRequest) Errors {
	var errors Errors

	if strings.TrimSpace(req.FirstName) == "" {
		errors = append(errors, ValidationError{Field: "first_name", Message: "first_name is required"})
	}
	if strings.TrimSpace(req.LastName) == "" {
		errors = append(errors, ValidationError{Field: "last_name", Message: "last_name is required"})
	}

	switch {
	case req.Email == "":
		errors = append(errors, ValidationError{Field: "email", Message: "email is required"})
	case !emailRegex.MatchString(req.Email):
		errors = append(errors, ValidationError{Field: "email", Message: "invalid email format"})
	case !v.IsStudentEmail(req.Email):
		errors = append(errors, ValidationError{Field: "email", Message: "email must belong to a student domain"})
	}

	switch {
	case req.Password == "":
		errors = append(errors, ValidationError{Field: "password", Message: "password is required"})
	case len(req.Password) < MinPasswordLength:
		errors = append(errors, ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("password must be at least %d characters", MinPasswordLength),
		})
	}

	if req.PasswordConfirm == "" {
		errors = append(errors, ValidationError{Field: "password_confirm", Message: "password_confirm is required"})
	} else if req.Password != req.PasswordConfirm {
		errors = append(errors, ValidationError{Field: "password_confirm", Message: "passwords do not match"})
	}

	return errors
}

// ValidateArticle validates the editable fields of an article
func (v *Validator) ValidateArticle(input *models.ArticleInput) Errors {
	var errors Errors

	title := strings.TrimSpace(input.Title)
	if title == "" {
		errors = append(errors, ValidationError{Field: "title", Message: "title is required"})
	} else if utf8.RuneCountInString(title) > models.MaxTitleLength {
		errors = append(errors, ValidationError{
			Field:   "title",
			Message: fmt.Sprintf("title must be at most %d characters", models.MaxTitleLength),
		})
	}

	if strings.TrimSpace(input.Content) == "" {
		errors = append(errors, ValidationError{Field: "content", Message: "content is required"})
	}

	if input.ImageURL != "" {
		if u, err := url.Parse(input.ImageURL); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, ValidationError{Field: "image_url", Message: "image_url must be an absolute URL"})
		}
	}

	return errors
}

// ValidateComment validates a new comment
func (v *Validator) ValidateComment(input *models.CommentInput) Errors {
	var errors Errors
	if strings.TrimSpace(input.Message) == "" {
		errors = append(errors, ValidationError{Field: "message", Message: "message is required"})
	}
	return errors
}

// IsValidUUID checks if a string is a valid UUID
func IsValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
