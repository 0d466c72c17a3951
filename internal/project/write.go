package project

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pierrec/lz4/v4"
	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidDocument is returned when a document does not match the project schema.
var ErrInvalidDocument = errors.New("invalid project document")

// lz4Suffix selects LZ4 frame compression in WriteFile.
const lz4Suffix = ".lz4"

//go:embed schema.json
var schemaJSON []byte

var schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)

// Validate checks doc against the embedded project schema.
func Validate(doc *Document) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validate project: %w", err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, resultErr := range result.Errors() {
		problems = append(problems, resultErr.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(problems, "; "))
}

// Write validates doc and encodes it to w, LZ4-framed when compress is set.
func Write(w io.Writer, doc *Document, compress bool) error {
	err := Validate(doc)
	if err != nil {
		return err
	}

	return write(w, doc, compress)
}

// WriteFile validates doc and writes it to path. The document is compressed when
// compress is set or path ends in .lz4. Nothing is created for an invalid document.
func WriteFile(path string, doc *Document, compress bool) error {
	err := Validate(doc)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create project file: %w", err)
	}

	err = write(file, doc, compress || strings.HasSuffix(path, lz4Suffix))
	if err != nil {
		_ = file.Close()

		return err
	}

	err = file.Close()
	if err != nil {
		return fmt.Errorf("close project file: %w", err)
	}

	return nil
}

func write(w io.Writer, doc *Document, compress bool) error {
	if !compress {
		return encode(w, doc)
	}

	zw := lz4.NewWriter(w)

	err := encode(zw, doc)
	if err != nil {
		return err
	}

	err = zw.Close()
	if err != nil {
		return fmt.Errorf("close lz4 frame: %w", err)
	}

	return nil
}

func encode(w io.Writer, doc *Document) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(doc)
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}

	return nil
}
