package gen

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocation(t *testing.T) {
	assert.Equal(t, "", Location{}.String())
	assert.Equal(t, "table users", Location{Table: "users"}.String())
	assert.Equal(t, "table users column email", Location{"users", "email"}.String())
}

func TestSchemaError(t *testing.T) {
	cause := errors.New("root cause")
	err := NewSchemaError("users", "email", "already declared", cause)

	assert.Equal(t, "schemaflow: schema conflict in table users column email: already declared: root cause", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrSchemaConflict)
	assert.True(t, IsSchemaError(fmt.Errorf("add: %w", err)))
	assert.False(t, IsSchemaError(errors.New("other")))
	assert.Equal(t, "schemaflow: schema conflict in table users", (&SchemaError{Location: Location{Table: "users"}}).Error())
}

func TestConfigError(t *testing.T) {
	t.Run("with a value", func(t *testing.T) {
		err := NewConfigError("Indent", "x", "indent must be spaces or tabs")
		assert.Equal(t, "schemaflow: Indent=x: indent must be spaces or tabs", err.Error())
	})

	t.Run("without a value", func(t *testing.T) {
		err := NewConfigError("Package", nil, "cannot be empty")
		assert.Equal(t, "schemaflow: Package: cannot be empty", err.Error())
	})

	t.Run("helpers", func(t *testing.T) {
		err := NewConfigError("Logger", nil, "missing")
		assert.ErrorIs(t, err, ErrConfig)
		assert.True(t, IsConfigError(errors.Join(errors.New("first"), err)))
		assert.False(t, IsConfigError(errors.New("other")))
	})
}

func TestGenerationError(t *testing.T) {
	t.Run("with a location and a cause", func(t *testing.T) {
		cause := errors.New("unexpected token")
		err := NewGenerationError("posts", "title", "build column", cause)

		assert.Equal(t, "schemaflow: generation failed in table posts column title: build column: unexpected token", err.Error())
		assert.ErrorIs(t, err, cause)
	})

	t.Run("for the whole file", func(t *testing.T) {
		err := NewGenerationError("", "", "apply edits", nil)
		assert.Equal(t, "schemaflow: generation failed: apply edits", err.Error())
		assert.ErrorIs(t, err, ErrGenerate)
		assert.True(t, IsGenerationError(err))
		assert.False(t, IsGenerationError(NewSchemaError("posts", "", "", nil)))
	})
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("name", "9lives", "invalid character")
	assert.Equal(t, `schemaflow: invalid name "9lives": invalid character`, err.Error())
	assert.Equal(t, "schemaflow: invalid name", NewValidationError("name", nil, "").Error())

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.True(t, IsValidationError(err))
	assert.False(t, IsValidationError(NewConfigError("x", nil, "")))
}
