package domain

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCheckType(t *testing.T) {
	ct, err := ParseCheckType("area")
	require.NoError(t, err)
	assert.Equal(t, CheckTypeArea, ct)

	_, err = ParseCheckType("kitchen")
	assert.ErrorIs(t, err, ErrInvalidCheckType)
}

func TestParseAparCondition(t *testing.T) {
	c, err := ParseAparCondition("Perlu Perawatan")
	require.NoError(t, err)
	assert.Equal(t, AparConditionMaintenance, c)

	_, err = ParseAparCondition("baik")
	assert.ErrorIs(t, err, ErrInvalidCondition)
}

func TestStorageError_KeepsBothChains(t *testing.T) {
	err := StorageError("find events", io.ErrUnexpectedEOF)
	assert.True(t, errors.Is(err, ErrStorageUnavailable))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.Contains(t, err.Error(), "find events")
}

func TestGuardProfile_DisplayName(t *testing.T) {
	assert.Equal(t, "Budi Santoso", GuardProfile{FirstName: "Budi", LastName: "Santoso"}.DisplayName())
	assert.Equal(t, "Budi", GuardProfile{FirstName: "Budi"}.DisplayName())
	assert.Equal(t, "Santoso", GuardProfile{LastName: "Santoso"}.DisplayName())
}
