package model

import "time"

const (
	ChallengeOpen      = "open"
	ChallengeOngoing   = "ongoing"
	ChallengeCompleted = "completed"
)

type Challenge struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Deadline           time.Time `json:"deadline"`
	Duration           string    `json:"duration"`
	MoneyPrize         string    `json:"money_prize"`
	Status             string    `json:"status"`
	ContactEmail       string    `json:"contact_email"`
	ProjectDescription string    `json:"project_description"`
	ProjectBrief       string    `json:"project_brief"`
	ProjectTasks       []string  `json:"project_tasks"`
	Participants       []string  `json:"participants"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// validStatusTransitions encodes the one-way challenge lifecycle.
var validStatusTransitions = map[string][]string{
	ChallengeOpen:      {ChallengeOngoing},
	ChallengeOngoing:   {ChallengeCompleted},
	ChallengeCompleted: {},
}

func ValidStatusTransition(from string, to string) bool {
	for _, allowed := range validStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
