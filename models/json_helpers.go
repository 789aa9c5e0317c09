package models

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

func ConvertToJSON(data interface{}) (datatypes.JSON, error) {
	bytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(bytes), nil
}

// scanJSON implements the common sql.Scanner body shared by every jsonb-backed
// custom type in this package, generalized from the teacher's per-type
// Scan(value interface{}) implementations (models/agent.go) into one helper.
func scanJSON(value interface{}, out interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, out)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), out)
	default:
		return fmt.Errorf("unsupported scan type %T for jsonb column", value)
	}
}
