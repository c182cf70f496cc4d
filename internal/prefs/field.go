package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const fieldFile = "field.json"

// Field is the field shape the user picked last time.
type Field struct {
	NumberOfFields int `json:"number_of_fields"`
}

func fieldPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, "otpfield")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, fieldFile), nil
}

func SaveField(f Field) error {
	path, err := fieldPath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadField reports false when nothing has been saved yet.
func LoadField() (Field, bool, error) {
	path, err := fieldPath()
	if err != nil {
		return Field{}, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Field{}, false, nil
		}
		return Field{}, false, err
	}
	var f Field
	if err := json.Unmarshal(data, &f); err != nil {
		return Field{}, false, err
	}
	return f, true, nil
}
