package model

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	namePattern  = regexp.MustCompile(`^[A-Za-z]+$`)
)

type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

// Validate normalizes the payload and returns every field violation, not just
// the first one.
func (r *RegisterRequest) Validate() []string {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = NormalizeEmail(r.Email)
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
	if r.Role == "" {
		r.Role = RoleUser
	}

	var problems []string
	if err := validateName("first_name", r.FirstName); err != "" {
		problems = append(problems, err)
	}
	if err := validateName("last_name", r.LastName); err != "" {
		problems = append(problems, err)
	}
	if !emailPattern.MatchString(r.Email) {
		problems = append(problems, "email must be a valid email address")
	}
	problems = append(problems, validatePassword(r.Password)...)
	if r.Role != RoleUser && r.Role != RoleAdmin {
		problems = append(problems, "role must be either user or admin")
	}

	return problems
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() []string {
	r.Email = NormalizeEmail(r.Email)

	var problems []string
	if !emailPattern.MatchString(r.Email) {
		problems = append(problems, "email must be a valid email address")
	}
	if r.Password == "" {
		problems = append(problems, "password is required")
	}

	return problems
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (r *VerifyOTPRequest) Validate() []string {
	r.Email = NormalizeEmail(r.Email)
	r.OTP = strings.TrimSpace(r.OTP)

	var problems []string
	if !emailPattern.MatchString(r.Email) {
		problems = append(problems, "email must be a valid email address")
	}
	if len(r.OTP) != 6 {
		problems = append(problems, "otp must be a 6-digit code")
	} else {
		for _, c := range r.OTP {
			if c < '0' || c > '9' {
				problems = append(problems, "otp must be a 6-digit code")
				break
			}
		}
	}

	return problems
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (r *ChangePasswordRequest) Validate() []string {
	var problems []string
	if r.CurrentPassword == "" {
		problems = append(problems, "current_password is required")
	}
	problems = append(problems, validatePassword(r.NewPassword)...)

	return problems
}

type CreateChallengeRequest struct {
	Title              string   `json:"title"`
	Deadline           string   `json:"deadline"`
	Duration           string   `json:"duration"`
	MoneyPrize         string   `json:"money_prize"`
	ContactEmail       string   `json:"contact_email"`
	ProjectDescription string   `json:"project_description"`
	ProjectBrief       string   `json:"project_brief"`
	ProjectTasks       []string `json:"project_tasks"`
}

func (r *CreateChallengeRequest) Validate(now time.Time) ([]string, time.Time) {
	r.Title = strings.TrimSpace(r.Title)
	r.ContactEmail = NormalizeEmail(r.ContactEmail)
	r.ProjectDescription = strings.TrimSpace(r.ProjectDescription)
	r.ProjectBrief = strings.TrimSpace(r.ProjectBrief)

	var problems []string
	if r.Title == "" {
		problems = append(problems, "title is required")
	}

	deadline, err := time.Parse(time.RFC3339, strings.TrimSpace(r.Deadline))
	switch {
	case err != nil:
		problems = append(problems, "deadline must be an RFC3339 timestamp")
	case !deadline.After(now):
		problems = append(problems, "deadline must be in the future")
	}

	if strings.TrimSpace(r.Duration) == "" {
		problems = append(problems, "duration is required")
	}
	if strings.TrimSpace(r.MoneyPrize) == "" {
		problems = append(problems, "money_prize is required")
	}
	if !emailPattern.MatchString(r.ContactEmail) {
		problems = append(problems, "contact_email must be a valid email address")
	}
	if r.ProjectDescription == "" || len(r.ProjectDescription) > 260 {
		problems = append(problems, "project_description is required and limited to 260 characters")
	}
	if r.ProjectBrief == "" || len(r.ProjectBrief) > 60 {
		problems = append(problems, "project_brief is required and limited to 60 characters")
	}
	if len(r.ProjectTasks) == 0 {
		problems = append(problems, "project_tasks must not be empty")
	}

	return problems, deadline
}

type EditChallengeRequest struct {
	Title              *string   `json:"title"`
	Deadline           *string   `json:"deadline"`
	Duration           *string   `json:"duration"`
	MoneyPrize         *string   `json:"money_prize"`
	Status             *string   `json:"status"`
	ContactEmail       *string   `json:"contact_email"`
	ProjectDescription *string   `json:"project_description"`
	ProjectBrief       *string   `json:"project_brief"`
	ProjectTasks       *[]string `json:"project_tasks"`
}

func (r *EditChallengeRequest) Validate(now time.Time) ([]string, *time.Time) {
	var problems []string
	var deadline *time.Time

	if r.Deadline != nil {
		parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(*r.Deadline))
		switch {
		case err != nil:
			problems = append(problems, "deadline must be an RFC3339 timestamp")
		case !parsed.After(now):
			problems = append(problems, "deadline must be in the future")
		default:
			deadline = &parsed
		}
	}
	if r.Status != nil {
		s := strings.ToLower(strings.TrimSpace(*r.Status))
		*r.Status = s
		if s != ChallengeOpen && s != ChallengeOngoing && s != ChallengeCompleted {
			problems = append(problems, "status must be one of open, ongoing, completed")
		}
	}
	if r.ContactEmail != nil {
		normalized := NormalizeEmail(*r.ContactEmail)
		*r.ContactEmail = normalized
		if !emailPattern.MatchString(normalized) {
			problems = append(problems, "contact_email must be a valid email address")
		}
	}
	if r.ProjectDescription != nil && (len(*r.ProjectDescription) == 0 || len(*r.ProjectDescription) > 260) {
		problems = append(problems, "project_description is limited to 260 characters")
	}
	if r.ProjectBrief != nil && (len(*r.ProjectBrief) == 0 || len(*r.ProjectBrief) > 60) {
		problems = append(problems, "project_brief is limited to 60 characters")
	}

	return problems, deadline
}

// NormalizeEmail lower-cases and trims an address so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateName(field string, value string) string {
	if len(value) < 2 || len(value) > 255 || !namePattern.MatchString(value) {
		return field + " must be 2-255 letters"
	}
	return ""
}

func validatePassword(password string) []string {
	var problems []string
	if len(password) < 8 {
		problems = append(problems, "password must be at least 8 characters")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			hasUpper = true
		case unicode.IsLower(c):
			hasLower = true
		case unicode.IsDigit(c):
			hasDigit = true
		case unicode.IsPunct(c) || unicode.IsSymbol(c):
			hasSpecial = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		problems = append(problems, "password must contain upper and lower case letters, a digit and a special character")
	}

	return problems
}
