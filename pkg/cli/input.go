package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"bq-bridge/internal/domain"
	"bq-bridge/internal/source"
)

// readLocation reads the whole of location through opener.
func readLocation(ctx context.Context, opener *source.Opener, location string) ([]byte, error) {
	rc, err := opener.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	return data, nil
}

// parseSchema accepts YAML or JSON, either a list of fields or a document
// with a top-level "fields" key.
func parseSchema(data []byte) (domain.TableSchema, error) {
	var doc struct {
		Fields domain.TableSchema `yaml:"fields"`
	}
	if err := yaml.Unmarshal(data, &doc); err == nil && len(doc.Fields) > 0 {
		return doc.Fields, nil
	}
	var list domain.TableSchema
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("parse schema: no fields")
	}
	return list, nil
}

// parseRecords decodes a JSON array of objects or a stream of JSON objects
// (JSON Lines). Numbers keep integer precision.
func parseRecords(data []byte) ([]*domain.Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var objects []map[string]any
	if trimmed[0] == '[' {
		if err := dec.Decode(&objects); err != nil {
			return nil, fmt.Errorf("parse rows: %w", err)
		}
	} else {
		for {
			var obj map[string]any
			err := dec.Decode(&obj)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("parse rows: row %d: %w", len(objects), err)
			}
			objects = append(objects, obj)
		}
	}

	records := make([]*domain.Record, 0, len(objects))
	for i, obj := range objects {
		rec, err := domain.RecordFromMap(obj)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// parseAssignments turns "column=value" pairs into a Record, keeping flag
// order. See parseValue for how values are typed.
func parseAssignments(pairs []string) (*domain.Record, error) {
	rec := domain.NewRecord()
	for _, p := range pairs {
		col, raw, ok := strings.Cut(p, "=")
		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return nil, fmt.Errorf("invalid assignment %q: expected column=value", p)
		}
		rec.Set(col, parseValue(raw))
	}
	return rec, nil
}

// parseValue types a command-line value: null, true/false, integers and
// finite floats are recognised; a quoted value is always text.
func parseValue(raw string) domain.Value {
	if len(raw) >= 2 {
		if (raw[0] == '"' && raw[len(raw)-1] == '"') || (raw[0] == '\'' && raw[len(raw)-1] == '\'') {
			return domain.Text(raw[1 : len(raw)-1])
		}
	}
	switch strings.ToLower(raw) {
	case "null":
		return domain.Null()
	case "true":
		return domain.Bool(true)
	case "false":
		return domain.Bool(false)
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return domain.Int(i)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return domain.Float(f)
	}
	return domain.Text(raw)
}
