package model

import "time"

// Setting keys read by the application.
const (
	SettingTaxRate = "tax_rate"
)

// SettingType tells clients how to interpret a setting's string value.
type SettingType string

const (
	SettingString  SettingType = "string"
	SettingNumber  SettingType = "number"
	SettingBoolean SettingType = "boolean"
	SettingJSON    SettingType = "json"
)

// Valid reports whether t is a known data type.
func (t SettingType) Valid() bool {
	switch t {
	case SettingString, SettingNumber, SettingBoolean, SettingJSON:
		return true
	}
	return false
}

// Setting mirrors a row of the `system_settings` table.
type Setting struct {
	Key         string      `json:"key"`
	Category    string      `json:"category"`
	Value       string      `json:"value"`
	DataType    SettingType `json:"data_type"`
	Description string      `json:"description,omitempty"`
	IsActive    bool        `json:"is_active"`
	UpdatedBy   *uint64     `json:"updated_by,omitempty"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
