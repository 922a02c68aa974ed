package services

import (
	"testing"

	"github.com/edupulse/emis-api/internal/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestValidateEntries(t *testing.T) {
	category := &models.Category{
		Columns: []models.CategoryColumn{
			{ID: 1, Name: "total_students", Required: true, Schema: datatypes.JSON(`{"type": "integer", "minimum": 0}`)},
			{ID: 2, Name: "school_type", Schema: datatypes.JSON(`{"type": "string", "enum": ["primary", "secondary"]}`)},
			{ID: 3, Name: "remarks"},
		},
	}

	tests := []struct {
		name    string
		entries []models.SubmissionEntry
		fields  []string
	}{
		{
			name: "valid entries",
			entries: []models.SubmissionEntry{
				{ColumnID: 1, Value: "420"},
				{ColumnID: 2, Value: `"primary"`},
			},
		},
		{
			name:    "required column missing",
			entries: nil,
			fields:  []string{"total_students"},
		},
		{
			name: "required column blank",
			entries: []models.SubmissionEntry{
				{ColumnID: 1, Value: "   "},
			},
			fields: []string{"total_students"},
		},
		{
			name: "schema violation",
			entries: []models.SubmissionEntry{
				{ColumnID: 1, Value: "-5"},
			},
			fields: []string{"total_students"},
		},
		{
			name: "optional column left empty is fine",
			entries: []models.SubmissionEntry{
				{ColumnID: 1, Value: "420"},
				{ColumnID: 3, Value: ""},
			},
		},
		{
			name: "non-JSON value validated as plain string",
			entries: []models.SubmissionEntry{
				{ColumnID: 1, Value: "420"},
				{ColumnID: 2, Value: "primary"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateEntries(category, tt.entries)

			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}
			var validationErr *ValidationError
			assert.ErrorAs(t, err, &validationErr)
			for _, field := range tt.fields {
				found := false
				for _, got := range validationErr.Fields {
					if got == field || len(got) > len(field) && got[:len(field)] == field {
						found = true
					}
				}
				assert.True(t, found, "expected field %s in %v", field, validationErr.Fields)
			}
		})
	}
}

func TestPermittedActions(t *testing.T) {
	tests := []struct {
		role      string
		ownerType string
		actions   []string
	}{
		{models.RoleSchool, models.OwnerTypeSchool, []string{"submit"}},
		{models.RoleSchool, models.OwnerTypeSector, nil},
		{models.RoleSectorAdmin, models.OwnerTypeSchool, []string{"approve", "reject", "return"}},
		{models.RoleSectorAdmin, models.OwnerTypeSector, []string{"submit"}},
		{models.RoleRegionAdmin, models.OwnerTypeSector, []string{"approve", "reject", "return"}},
		{models.RoleRegionAdmin, models.OwnerTypeSchool, nil},
		{models.RoleSystem, models.OwnerTypeSchool, []string{"approve"}},
		{models.RoleSystem, models.OwnerTypeSector, []string{"approve"}},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.ownerType, func(t *testing.T) {
			assert.Equal(t, tt.actions, PermittedActions(tt.role, tt.ownerType))
		})
	}
}
