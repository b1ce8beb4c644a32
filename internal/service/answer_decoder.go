package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/noah-isme/siapptn-tryout-api/internal/models"
)

var errNotAnArray = errors.New("answer payload is not a JSON array")

// decodeBatch expands one stored batch into per-question entries. It fails only when the
// payload as a whole is unusable; malformed elements surface later through validation.
// Entries always take the batch's tryout id, since the batch was selected by it.
func decodeBatch(batch models.AnswerBatch) ([]models.AnswerEntry, error) {
	if !gjson.Valid(batch.Answers) {
		return nil, fmt.Errorf("batch %d: invalid JSON", batch.ID)
	}
	parsed := gjson.Parse(batch.Answers)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("batch %d: %w", batch.ID, errNotAnArray)
	}

	batchTrack := ""
	if batch.Track != nil {
		batchTrack = *batch.Track
	}

	elements := parsed.Array()
	entries := make([]models.AnswerEntry, 0, len(elements))
	for _, el := range elements {
		if !el.IsObject() {
			entries = append(entries, models.AnswerEntry{TryoutID: batch.TryoutID})
			continue
		}
		entries = append(entries, models.AnswerEntry{
			UserID:     stringOr(el.Get("id_user"), batch.UserID),
			TryoutID:   batch.TryoutID,
			SubjectID:  stringOr(el.Get("id_mapel"), batch.SubjectID),
			QuestionNo: int(el.Get("no_soal").Int()),
			Status:     models.AnswerStatus(stripQuotes(el.Get("status").String())),
			Answer:     stripQuotes(el.Get("jawaban").String()),
			Track:      stripQuotes(stringOr(el.Get("peminatan"), batchTrack)),
		})
	}
	return entries, nil
}

// stringOr reads a string or number field, falling back when it is absent or null.
func stringOr(field gjson.Result, fallback string) string {
	if !field.Exists() || field.Type == gjson.Null {
		return fallback
	}
	value := strings.TrimSpace(field.String())
	if value == "" {
		return fallback
	}
	return value
}

func stripQuotes(value string) string {
	return strings.ReplaceAll(value, `"`, "")
}
