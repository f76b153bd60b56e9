package sqlxrepos

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/pkg/errors"
)

// jsonText stores any JSON-serializable value in a TEXT column.
type jsonText struct {
	v interface{}
}

func asJSON(v interface{}) jsonText { return jsonText{v: v} }

func (j jsonText) Value() (driver.Value, error) {
	b, err := json.Marshal(j.v)
	if err != nil {
		return nil, errors.Wrap(err, "encoding json column")
	}
	return string(b), nil
}

// fromJSON decodes a TEXT column; empty columns leave v untouched.
func fromJSON(s string, v interface{}) error {
	if s == "" {
		return nil
	}
	return errors.Wrap(json.Unmarshal([]byte(s), v), "decoding json column")
}
