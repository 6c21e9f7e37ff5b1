package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// StringArray stores a []string as a JSON text column so the same model
// works on postgres, mysql and sqlite. Postgres "{a,b}" literals written by
// older rows are still readable.
type StringArray []string

// Scan implements sql.Scanner.
func (a *StringArray) Scan(value interface{}) error {
	var raw string
	switch v := value.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("StringArray: unsupported scan type %T", value)
	}

	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "["):
		return json.Unmarshal([]byte(raw), a)
	case strings.HasPrefix(raw, "{") && strings.HasSuffix(raw, "}"):
		inner := strings.TrimSuffix(strings.TrimPrefix(raw, "{"), "}")
		if inner == "" {
			*a = StringArray{}
			return nil
		}
		parts := strings.Split(inner, ",")
		for i, p := range parts {
			parts[i] = strings.Trim(p, `"`)
		}
		*a = parts
		return nil
	case raw == "":
		*a = StringArray{}
		return nil
	default:
		*a = StringArray{raw}
		return nil
	}
}

// Value implements driver.Valuer.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	data, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// GormDataType returns the GORM data type hint.
func (StringArray) GormDataType() string {
	return "text"
}

// Contains reports whether s is present.
func (a StringArray) Contains(s string) bool {
	for _, v := range a {
		if v == s {
			return true
		}
	}
	return false
}
