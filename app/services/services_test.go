package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/pkg/testkit"
)

func TestConflictTranslatesUniqueViolation(t *testing.T) {
	db := testkit.DB(t)
	require.NoError(t, db.Create(&models.Supplier{Type: models.Factory, Name: "Acme", Phone: "1"}).Error)

	dupErr := db.Create(&models.Supplier{Type: models.Factory, Name: "Acme", Phone: "2"}).Error
	require.Error(t, dupErr)

	err := conflict(dupErr, "Supplier", map[string]string{"name": "Acme"}, "name")
	ce, ok := AsConflict(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, "name", ce.Field)
	assert.Equal(t, "Acme", ce.Value)
	assert.Equal(t, "Failed to save Supplier. The name 'Acme' is likely already taken.", ce.Error())
	assert.ErrorIs(t, err, dupErr)
}

func TestConflictPassesOtherErrorsThrough(t *testing.T) {
	boom := errors.New("disk full")
	assert.Same(t, boom, conflict(boom, "Supplier", nil, "name"))
	assert.NoError(t, conflict(nil, "Supplier", nil, "name"))
}

func TestFieldErrorsAreFound(t *testing.T) {
	var err error = FieldErrors{"name": "The name field is required."}
	fe, ok := AsFieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, "The name field is required.", fe["name"])
	assert.Contains(t, err.Error(), "name: The name field is required.")

	_, ok = AsFieldErrors(ErrNotFound)
	assert.False(t, ok)
}

// photoOf wraps content as an uploaded file.
func photoOf(filename string, content []byte) Photo {
	return Photo{
		Filename: filename,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(content)), nil
		},
	}
}

var ctx = context.Background()
