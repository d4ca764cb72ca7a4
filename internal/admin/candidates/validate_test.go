package candidates

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/recruit-admin/internal/admin/optimistic"
)

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Go", SanitizeText("  <b>Go</b> "))
	require.Equal(t, "R&D", SanitizeText("R&D"))
	require.Equal(t, "", SanitizeText("<script>alert(1)</script>"))
}

func TestValidateSkills(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateSkills([]string{"Go", "Rust"}))
	require.NoError(t, ValidateSkills(nil))

	err := ValidateSkills([]string{"Go", "  "})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, 1, verr.Index)
	require.Equal(t, "2行目のスキルを入力してください。", optimistic.FailureMessage(err))
}

func TestValidateExperience(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateExperience([]Experience{{Company: "ACME", Role: "Dev"}}))
	err := ValidateExperience([]Experience{{Company: "ACME"}})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "role", verr.Field)
}

func TestValidateTasks(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateTasks([]Task{{Title: "Call", Due: "2025-07-01"}, {Title: "Email"}}))
	err := ValidateTasks([]Task{{Title: "Call", Due: "next week"}})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "due", verr.Field)
}

func TestValidateJobs(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateJobs([]JobAssignment{{JobID: 10}}))
	require.Error(t, ValidateJobs([]JobAssignment{{JobTitle: "no id"}}))
}
