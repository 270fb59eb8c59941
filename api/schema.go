package api

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed command.schema.json
var commandSchema []byte

// ErrInvalidCommand is returned when a command fails the schema check.
var ErrInvalidCommand = errors.New("command does not match the schema")

// ValidateCommand checks a JSON command against the shape the device can
// review. A command that passes may still be shown with warnings; one that
// fails would be rejected by the device.
func ValidateCommand(command []byte) error {
	schemaLoader := gojsonschema.NewBytesLoader(commandSchema)
	documentLoader := gojsonschema.NewBytesLoader(command)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate command: %w", err)
	}
	if !result.Valid() {
		var errorDetails []string
		for _, desc := range result.Errors() {
			errorDetails = append(errorDetails, fmt.Sprintf("  - %s", desc))
		}
		return fmt.Errorf("%w:\n%s", ErrInvalidCommand, strings.Join(errorDetails, "\n"))
	}
	return nil
}
