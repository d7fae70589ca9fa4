package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-cropadvisor/models"
)

func TestParseFeatureVector_Valid(t *testing.T) {
	fv, err := ParseFeatureVector([]byte(`{"nitrogen":90,"phosphorus":42.5,"potassium":43,"temperature":20.8,"humidity":82,"rainfall":202.9,"ph":6.5,"extra":"ignored"}`))
	require.NoError(t, err)
	assert.Equal(t, models.FeatureVector{
		Nitrogen: 90, Phosphorus: 42.5, Potassium: 43,
		Temperature: 20.8, Humidity: 82, Rainfall: 202.9, Ph: 6.5,
	}, fv)
}

func TestParseFeatureVector_Errors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"empty body", ``, "Invalid JSON"},
		{"truncated", `{"nitrogen":`, "Invalid JSON"},
		{"string body", `"hello"`, "Invalid JSON"},
		{"empty object", `{}`, "Missing field: nitrogen"},
		{"missing ph", `{"nitrogen":1,"phosphorus":1,"potassium":1,"temperature":1,"humidity":1,"rainfall":1}`, "Missing field: ph"},
		{"numeric string", `{"nitrogen":"90"}`, "nitrogen must be a number"},
		{"null", `{"nitrogen":null}`, "nitrogen must be a number"},
		{"boolean", `{"nitrogen":false}`, "nitrogen must be a number"},
		{"nested", `{"nitrogen":{"v":1}}`, "nitrogen must be a number"},
		{"overflowing number", `{"nitrogen":1e400}`, "nitrogen must be a number"},
		{"overflowing negative", `{"nitrogen":1,"phosphorus":-1e999}`, "phosphorus must be a number"},
		{"order", `{"nitrogen":1,"phosphorus":"x"}`, "phosphorus must be a number"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseFeatureVector([]byte(tc.body))
			require.Error(t, err)
			assert.Equal(t, tc.want, err.Error())
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestIsValidationError(t *testing.T) {
	assert.False(t, IsValidationError(errors.New("boom")))
	assert.False(t, IsValidationError(&StorageError{Op: "x", Err: errors.New("boom")}))
	assert.True(t, IsValidationError(&FieldError{Field: "ph", Kind: FieldMissing}))
}
