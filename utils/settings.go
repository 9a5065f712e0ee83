package utils

import (
	"encoding/json"
	"errors"
)

// NullableInt distinguishes "field absent" from "field explicitly null".
type NullableInt struct {
	Set   bool
	Value *int
}

func (n *NullableInt) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

func (n NullableInt) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

// SurveySettings is the free-form settings object stored alongside the
// question list in survey_data.
type SurveySettings struct {
	MaxResponses NullableInt `json:"max_responses,omitempty"` // nil = unlimited
	ShowProgress *bool       `json:"show_progress,omitempty"`
	StartAt      *int64      `json:"start_at,omitempty"`   // unix seconds
	ExpireAt     *int64      `json:"expire_at,omitempty"`  // unix seconds
	RedirectURL  *string     `json:"redirect_url,omitempty"`
}

// ValidateSurveySettings clamps MaxResponses to at least 1 and checks the
// time window ordering.
func ValidateSurveySettings(s *SurveySettings) error {
	if s == nil {
		return errors.New("empty settings")
	}
	if s.MaxResponses.Set && s.MaxResponses.Value != nil {
		if *s.MaxResponses.Value < 1 {
			v := 1
			s.MaxResponses.Value = &v
		}
	}
	if s.StartAt != nil && s.ExpireAt != nil && *s.ExpireAt <= *s.StartAt {
		return errors.New("expire_at must be after start_at")
	}
	return nil
}

func ParseSurveySettings(raw []byte) (*SurveySettings, error) {
	if len(raw) == 0 {
		return &SurveySettings{}, nil
	}
	var s SurveySettings
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.New("settings is not valid JSON")
	}
	if err := ValidateSurveySettings(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// MergeSurveySettings overlays patch onto base, field by field.
func MergeSurveySettings(base, patch *SurveySettings) *SurveySettings {
	if base == nil {
		base = &SurveySettings{}
	}
	if patch == nil {
		patch = &SurveySettings{}
	}
	out := *base
	if patch.MaxResponses.Set {
		out.MaxResponses = patch.MaxResponses
	}
	if patch.ShowProgress != nil {
		out.ShowProgress = patch.ShowProgress
	}
	if patch.StartAt != nil {
		out.StartAt = patch.StartAt
	}
	if patch.ExpireAt != nil {
		out.ExpireAt = patch.ExpireAt
	}
	if patch.RedirectURL != nil {
		out.RedirectURL = patch.RedirectURL
	}
	return &out
}
