package sqlgen

import (
	"fmt"
	"regexp"
	"strings"

	"bq-bridge/internal/domain"
)

// identifierRe allows alphanumeric + underscores, starting with a letter or underscore.
var identifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// projectIDRe matches GCP project IDs, optionally domain-scoped ("example.com:proj").
var projectIDRe = regexp.MustCompile(`^(?:[a-z0-9.-]+:)?[a-z][a-z0-9-]{4,28}[a-z0-9]$`)

// maxColumnNameLen is BigQuery's column name limit.
const maxColumnNameLen = 300

// maxTableNameLen bounds dataset and table names.
const maxTableNameLen = 1024

// ValidateIdentifier checks that name is a safe column name:
//   - Non-empty
//   - At most 300 characters
//   - Matches [a-zA-Z_][a-zA-Z0-9_]*
func ValidateIdentifier(name string) error {
	return validateName(name, maxColumnNameLen)
}

// ValidateTableName checks a dataset or table name. Same alphabet as columns,
// longer limit.
func ValidateTableName(name string) error {
	return validateName(name, maxTableNameLen)
}

func validateName(name string, max int) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if len(name) > max {
		return fmt.Errorf("name must be at most %d characters", max)
	}
	if !identifierRe.MatchString(name) {
		return fmt.Errorf("name must match [a-zA-Z_][a-zA-Z0-9_]*")
	}
	return nil
}

// ValidateProjectID checks a GCP project identifier. Local backends ignore the
// project, so an empty ID is accepted by callers that allow it.
func ValidateProjectID(id string) error {
	if id == "" {
		return fmt.Errorf("project id is required")
	}
	if !projectIDRe.MatchString(id) {
		return fmt.Errorf("project id %q is not a valid GCP project id", id)
	}
	return nil
}

// ValidateColumnType checks a schema field type against the supported
// BigQuery type names (legacy aliases such as INTEGER and BOOLEAN included).
func ValidateColumnType(typeName string) error {
	if typeName == "" {
		return fmt.Errorf("column type is required")
	}
	if strings.ContainsAny(typeName, ";-'\"\\`") {
		return fmt.Errorf("column type contains invalid characters")
	}
	f := domain.FieldSchema{Type: typeName}
	if !domain.SupportedTypes[f.NormalizedType()] {
		return fmt.Errorf("column type %q is not supported", typeName)
	}
	return nil
}

// ValidateSchema checks every field of a table schema, recursing into RECORD
// fields. Errors are *domain.ValidationError.
func ValidateSchema(schema domain.TableSchema) error {
	if len(schema) == 0 {
		return domain.ErrValidation("at least one field is required")
	}
	seen := make(map[string]bool, len(schema))
	for _, f := range schema {
		if err := ValidateIdentifier(f.Name); err != nil {
			return domain.ErrValidation("invalid field name %q: %v", f.Name, err)
		}
		key := strings.ToLower(f.Name)
		if seen[key] {
			return domain.ErrValidation("duplicate field name %q", f.Name)
		}
		seen[key] = true
		if err := ValidateColumnType(f.Type); err != nil {
			return domain.ErrValidation("invalid type for %q: %v", f.Name, err)
		}
		switch f.NormalizedMode() {
		case domain.ModeNullable, domain.ModeRequired, domain.ModeRepeated:
		default:
			return domain.ErrValidation("invalid mode %q for %q", f.Mode, f.Name)
		}
		if f.NormalizedType() == "RECORD" {
			if err := ValidateSchema(f.Fields); err != nil {
				return domain.ErrValidation("record %q: %v", f.Name, err)
			}
		} else if len(f.Fields) > 0 {
			return domain.ErrValidation("field %q has nested fields but type %s", f.Name, f.NormalizedType())
		}
	}
	return nil
}
