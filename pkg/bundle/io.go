package bundle

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gowebpki/jcs"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON string

// compiledSchema is the JSON Schema every bundle document must satisfy
// before any field is trusted.
var compiledSchema = jsonschema.MustCompileString("bundle.schema.json", schemaJSON)

// WriteFile serializes the bundle to disk as indented JSON. The parent
// directory is created if missing.
func WriteFile(b *Bundle, path string) error {
	if err := b.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode bundle: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create bundle directory %q: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write bundle %q: %w", path, err)
	}
	return nil
}

// ReadFile loads a bundle from disk. The document is checked against the
// embedded JSON Schema, its schema_version is verified, and referential
// integrity is validated before the bundle is returned. Any failure is a
// ValidationError: the runtime never trusts a bundle it did not itself
// validate.
func ReadFile(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ValidationError{Path: path, Cause: err}
	}
	b, err := Decode(data)
	if err != nil {
		return nil, &ValidationError{Path: path, Cause: err}
	}
	return b, nil
}

// Decode parses and validates a bundle document.
func Decode(data []byte) (*Bundle, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("malformed bundle document: %w", err)
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("bundle document rejected by schema: %w", err)
	}

	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("malformed bundle document: %w", err)
	}
	if !strings.HasPrefix(b.SchemaVersion, majorVersion(SchemaVersion)+".") && b.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrSchemaVersion, b.SchemaVersion, SchemaVersion)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Fingerprint returns the hex SHA-256 of the bundle's RFC 8785 canonical
// JSON form. Two byte-different encodings of the same bundle fingerprint
// identically.
func Fingerprint(b *Bundle) (string, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("failed to encode bundle: %w", err)
	}
	canonical, err := jcs.Transform(data)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize bundle: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

func majorVersion(v string) string {
	if i := strings.IndexByte(v, '.'); i > 0 {
		return v[:i]
	}
	return v
}
