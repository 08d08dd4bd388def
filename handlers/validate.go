// campusvoice/handlers/validate.go
package handlers

import (
	"fmt"

	"campusvoice/config"
	"campusvoice/models"
	"campusvoice/utils"
)

var errProfanity = models.Invalid("", "Profanity is not allowed.")

func checkLen(field, value string, max int) error {
	if utils.RuneLen(value) > max {
		return models.Invalid(field, fmt.Sprintf("must be at most %d characters", max))
	}
	return nil
}

// cleanProblem sanitizes and validates a new problem submission.
func cleanProblem(title, description, category, deviceID string) (models.ProblemDraft, error) {
	d := models.ProblemDraft{
		Title:       utils.CleanText(title),
		Description: utils.CleanText(description),
		Category:    utils.CleanText(category),
		CreatorID:   deviceID,
	}
	if d.Category == "" {
		d.Category = config.DefaultCategory
	}
	switch {
	case d.Title == "":
		return d, models.Invalid("title", "is required")
	case d.Description == "":
		return d, models.Invalid("description", "is required")
	}
	if err := checkLen("title", d.Title, config.MaxTitleLen); err != nil {
		return d, err
	}
	if err := checkLen("description", d.Description, config.MaxDescriptionLen); err != nil {
		return d, err
	}
	if err := checkLen("category", d.Category, config.MaxCategoryLen); err != nil {
		return d, err
	}
	if utils.IsProfane(d.Title, d.Description, d.Category) {
		return d, errProfanity
	}
	return d, nil
}

// cleanReply sanitizes and validates a new reply. A zero parent means none.
func cleanReply(problemID int64, text, deviceID string, parent *int64) (models.ReplyDraft, error) {
	d := models.ReplyDraft{
		ProblemID: problemID,
		Text:      utils.CleanText(text),
		CreatorID: deviceID,
	}
	if parent != nil && *parent != 0 {
		p := *parent
		d.ParentReplyID = &p
	}
	if err := requireID("problem_id", problemID); err != nil {
		return d, err
	}
	if d.ParentReplyID != nil && *d.ParentReplyID < 0 {
		return d, models.Invalid("parent_reply_id", "must be a reply id")
	}
	if d.Text == "" {
		return d, models.Invalid("text", "is required")
	}
	if err := checkLen("text", d.Text, config.MaxReplyLen); err != nil {
		return d, err
	}
	if utils.IsProfane(d.Text) {
		return d, models.Invalid("", "Profanity is not allowed in replies.")
	}
	return d, nil
}
