package warehouse

import (
	"encoding/json"
	"fmt"
	"strings"

	bq "google.golang.org/api/bigquery/v2"

	apperrors "github.com/ayyoubmarroun/pykemen/internal/errors"
)

// ParseSchema parses a "name:TYPE,name:TYPE" field list
func ParseSchema(schema string) ([]*bq.TableFieldSchema, error) {
	var fields []*bq.TableFieldSchema
	for _, part := range strings.Split(schema, ",") {
		name, typ, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok || name == "" || typ == "" {
			return nil, apperrors.InvalidField("schema", fmt.Sprintf("malformed field %q", part))
		}
		fields = append(fields, &bq.TableFieldSchema{Name: name, Type: strings.ToUpper(typ)})
	}
	return fields, nil
}

// ParseSchemaJSON parses a JSON array of table field resources
func ParseSchemaJSON(data []byte) ([]*bq.TableFieldSchema, error) {
	var fields []*bq.TableFieldSchema
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, apperrors.NewParsingError("invalid schema json", err)
	}
	for i, f := range fields {
		if f == nil || f.Name == "" || f.Type == "" {
			return nil, apperrors.InvalidField("schema", fmt.Sprintf("field %d needs a name and a type", i))
		}
	}
	return fields, nil
}
