package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRegisterRequestValidate(t *testing.T) {
	valid := func() RegisterRequest {
		return RegisterRequest{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     "Ada@Example.COM",
			Password:  "Str0ng!pass",
		}
	}

	t.Run("valid payload normalizes email and defaults the role", func(t *testing.T) {
		req := valid()
		require.Empty(t, req.Validate())
		require.Equal(t, "ada@example.com", req.Email)
		require.Equal(t, RoleUser, req.Role)
	})

	t.Run("password must mix character classes", func(t *testing.T) {
		req := valid()
		req.Password = "password"
		problems := req.Validate()
		require.Len(t, problems, 1)
		require.Contains(t, problems[0], "special character")
	})

	t.Run("short password also counts length", func(t *testing.T) {
		req := valid()
		req.Password = "aB1!"
		require.Len(t, req.Validate(), 1)
	})

	t.Run("names must be letters only", func(t *testing.T) {
		req := valid()
		req.FirstName = "Ada2"
		req.LastName = "X"
		require.Len(t, req.Validate(), 2)
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		req := valid()
		req.Role = "superuser"
		require.Len(t, req.Validate(), 1)
	})

	t.Run("admin role accepted", func(t *testing.T) {
		req := valid()
		req.Role = "Admin"
		require.Empty(t, req.Validate())
		require.Equal(t, RoleAdmin, req.Role)
	})
}

func TestVerifyOTPRequestValidate(t *testing.T) {
	cases := []struct {
		name string
		otp  string
		ok   bool
	}{
		{"six digits", "042137", true},
		{"whitespace trimmed", " 042137 ", true},
		{"too short", "4213", false},
		{"letters", "04a137", false},
		{"empty", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := VerifyOTPRequest{Email: "a@b.com", OTP: tc.otp}
			problems := req.Validate()
			if tc.ok {
				require.Empty(t, problems)
			} else {
				require.NotEmpty(t, problems)
			}
		})
	}
}

func TestCreateChallengeRequestValidate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	valid := func() CreateChallengeRequest {
		return CreateChallengeRequest{
			Title:              "Mobile Wallet UI",
			Deadline:           "2026-03-15T00:00:00Z",
			Duration:           "2 weeks",
			MoneyPrize:         "$500",
			ContactEmail:       "talent@example.com",
			ProjectDescription: "Design a wallet onboarding flow.",
			ProjectBrief:       "Wallet onboarding",
			ProjectTasks:       []string{"Research"},
		}
	}

	t.Run("valid payload parses the deadline", func(t *testing.T) {
		req := valid()
		problems, deadline := req.Validate(now)
		require.Empty(t, problems)
		require.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), deadline)
	})

	t.Run("past deadline rejected", func(t *testing.T) {
		req := valid()
		req.Deadline = "2026-02-01T00:00:00Z"
		problems, _ := req.Validate(now)
		require.Len(t, problems, 1)
	})

	t.Run("malformed deadline rejected", func(t *testing.T) {
		req := valid()
		req.Deadline = "next friday"
		problems, _ := req.Validate(now)
		require.Len(t, problems, 1)
	})

	t.Run("empty payload reports every field", func(t *testing.T) {
		problems, _ := (&CreateChallengeRequest{}).Validate(now)
		require.Len(t, problems, 8)
	})
}

func TestEditChallengeRequestValidate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	str := func(s string) *string { return &s }

	t.Run("absent fields are fine", func(t *testing.T) {
		problems, deadline := (&EditChallengeRequest{}).Validate(now)
		require.Empty(t, problems)
		require.Nil(t, deadline)
	})

	t.Run("status is case-insensitive", func(t *testing.T) {
		req := EditChallengeRequest{Status: str("ONGOING")}
		problems, _ := req.Validate(now)
		require.Empty(t, problems)
		require.Equal(t, ChallengeOngoing, *req.Status)
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		req := EditChallengeRequest{Status: str("paused")}
		problems, _ := req.Validate(now)
		require.Len(t, problems, 1)
	})
}

func TestValidStatusTransition(t *testing.T) {
	require.True(t, ValidStatusTransition(ChallengeOpen, ChallengeOngoing))
	require.True(t, ValidStatusTransition(ChallengeOngoing, ChallengeCompleted))
	require.False(t, ValidStatusTransition(ChallengeCompleted, ChallengeOpen))
	require.False(t, ValidStatusTransition(ChallengeOngoing, ChallengeOpen))
	require.False(t, ValidStatusTransition(ChallengeOpen, ChallengeCompleted))
}
