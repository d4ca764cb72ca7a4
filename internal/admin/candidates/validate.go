package candidates

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const maxFieldLength = 200

var (
	plainText = bluemonday.StrictPolicy()
	dueDate   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ValidationError describes a draft that cannot be saved. Message is shown to staff.
type ValidationError struct {
	Attribute string
	Index     int
	Field     string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("candidates: invalid %s[%d].%s: %s", e.Attribute, e.Index, e.Field, e.Message)
}

// UserMessage returns the message safe for display.
func (e *ValidationError) UserMessage() string {
	return e.Message
}

// SanitizeText strips markup from form input and trims surrounding whitespace.
func SanitizeText(value string) string {
	return strings.TrimSpace(html.UnescapeString(plainText.Sanitize(value)))
}

// ValidateSkills requires every skill to be non-empty and within the length limit.
func ValidateSkills(skills []string) error {
	for i, skill := range skills {
		if err := requireText(AttributeSkills, i, "name", "スキル", skill); err != nil {
			return err
		}
	}
	return nil
}

// ValidateExperience requires a company and role on every entry.
func ValidateExperience(entries []Experience) error {
	for i, e := range entries {
		if err := requireText(AttributeExperience, i, "company", "会社名", e.Company); err != nil {
			return err
		}
		if err := requireText(AttributeExperience, i, "role", "役職", e.Role); err != nil {
			return err
		}
		if utf8.RuneCountInString(e.Duration) > maxFieldLength {
			return &ValidationError{Attribute: AttributeExperience, Index: i, Field: "duration", Message: fmt.Sprintf("%d行目の期間が長すぎます。", i+1)}
		}
	}
	return nil
}

// ValidateTasks requires a title and, when present, a YYYY-MM-DD due date.
func ValidateTasks(tasks []Task) error {
	for i, task := range tasks {
		if err := requireText(AttributeTasks, i, "title", "タスク名", task.Title); err != nil {
			return err
		}
		if due := strings.TrimSpace(task.Due); due != "" && !dueDate.MatchString(due) {
			return &ValidationError{Attribute: AttributeTasks, Index: i, Field: "due", Message: fmt.Sprintf("%d行目の期限は YYYY-MM-DD 形式で入力してください。", i+1)}
		}
	}
	return nil
}

// ValidateJobs requires every assignment to reference a job.
func ValidateJobs(jobs []JobAssignment) error {
	for i, job := range jobs {
		if job.JobID <= 0 {
			return &ValidationError{Attribute: AttributeJobs, Index: i, Field: "job_id", Message: fmt.Sprintf("%d行目の求人を選択してください。", i+1)}
		}
	}
	return nil
}

func requireText(attribute string, index int, field, label, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return &ValidationError{Attribute: attribute, Index: index, Field: field, Message: fmt.Sprintf("%d行目の%sを入力してください。", index+1, label)}
	}
	if utf8.RuneCountInString(value) > maxFieldLength {
		return &ValidationError{Attribute: attribute, Index: index, Field: field, Message: fmt.Sprintf("%d行目の%sは%d文字以内で入力してください。", index+1, label, maxFieldLength)}
	}
	return nil
}
