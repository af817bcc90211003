package domain

// DropdownOption is one persisted vocabulary entry (dropdown_options table).
type DropdownOption struct {
	ID          string `json:"id,omitempty"`
	FieldName   string `json:"field_name"`
	OptionValue string `json:"option_value"`
}

// VocabularyResolution is the outcome of committing free text to a field.
type VocabularyResolution struct {
	Field string `json:"field"`
	Value string `json:"value"`
	IsNew bool   `json:"isNew"`
	Added bool   `json:"added"`
}

// VocabularyRequest is the body for POST /v1/vocabularies/{field}.
type VocabularyRequest struct {
	Value string `json:"value"`
}
