package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/edupulse/emis-api/internal/models"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// validateEntries checks a submission against its category template before
// submit: every required column must carry a non-blank value, and values of
// columns with a JSON Schema must satisfy it. Runs entirely in memory.
func validateEntries(category *models.Category, entries []models.SubmissionEntry) error {
	byColumn := make(map[uint]string, len(entries))
	for _, entry := range entries {
		byColumn[entry.ColumnID] = entry.Value
	}

	var missing []string
	for _, col := range category.Columns {
		value, ok := byColumn[col.ID]
		if col.Required && (!ok || strings.TrimSpace(value) == "") {
			missing = append(missing, col.Name)
			continue
		}
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		if len(col.Schema) > 0 {
			if err := validateAgainstSchema(col, value); err != nil {
				missing = append(missing, fmt.Sprintf("%s (%v)", col.Name, err))
			}
		}
	}

	if len(missing) > 0 {
		return NewValidationError(missing...)
	}
	return nil
}

// validateAgainstSchema compiles the column's JSON Schema and validates the
// entry value. Values that are not valid JSON are validated as plain strings.
func validateAgainstSchema(col models.CategoryColumn, value string) error {
	schema, err := jsonschema.CompileString(fmt.Sprintf("column-%d.json", col.ID), string(col.Schema))
	if err != nil {
		return fmt.Errorf("invalid column schema: %w", err)
	}

	var instance any
	if err := json.Unmarshal([]byte(value), &instance); err != nil {
		instance = value
	}

	return schema.Validate(instance)
}
