package validator

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// registerForm mirrors the shape of a registration request body.
type registerForm struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8,max=72"`
}

func validForm() registerForm {
	return registerForm{Name: "Alice", Email: "alice@example.com", Password: "correct-horse"}
}

func TestValidate_Success(t *testing.T) {
	err := Validate(validForm())
	assert.NoError(t, err)
}

func TestValidate_MissingRequired(t *testing.T) {
	f := validForm()
	f.Name = ""
	err := Validate(f)
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Contains(t, fields, "Name")
	assert.Equal(t, "is required", fields["Name"])
}

func TestValidate_InvalidEmail(t *testing.T) {
	f := validForm()
	f.Email = "not-an-email"
	err := Validate(f)
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Contains(t, fields, "Email")
	assert.Equal(t, "must be a valid email address", fields["Email"])
}

func TestValidate_MinMax(t *testing.T) {
	short := validForm()
	short.Password = "short"
	err := Validate(short)
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields()["Password"], "at least 8")

	long := validForm()
	long.Password = strings.Repeat("x", 80)
	err = Validate(long)
	require.Error(t, err)

	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields()["Password"], "at most 72")
}

func TestValidate_MultipleErrors(t *testing.T) {
	err := Validate(registerForm{})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Contains(t, fields, "Name")
	assert.Contains(t, fields, "Email")
	assert.Contains(t, fields, "Password")
}

func TestValidationError_ErrorString(t *testing.T) {
	err := Validate(registerForm{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'Name'")
	assert.Contains(t, err.Error(), "is required")
}

type addressRef struct {
	AddressID string `validate:"uuid"`
}

func TestValidate_UUID(t *testing.T) {
	err := Validate(addressRef{AddressID: "not-a-uuid"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be a valid UUID", valErr.Fields()["AddressID"])
}

func TestValidate_UUID_Valid(t *testing.T) {
	err := Validate(addressRef{AddressID: "0b6f0c0e-9a51-4a9f-8f30-0e5b3a9a4f77"})
	assert.NoError(t, err)
}

type addressTypeField struct {
	Type string `validate:"oneof=BILLING SHIPPING"`
}

func TestValidate_OneOf(t *testing.T) {
	err := Validate(addressTypeField{Type: "WAREHOUSE"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields()["Type"], "one of")
}

func TestDecodeAndValidate_Success(t *testing.T) {
	body := `{"Name":"Alice","Email":"alice@example.com","Password":"correct-horse"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", bytes.NewBufferString(body))

	var f registerForm
	err := DecodeAndValidate(req, &f)

	require.NoError(t, err)
	assert.Equal(t, "Alice", f.Name)
	assert.Equal(t, "alice@example.com", f.Email)
}

func TestDecodeAndValidate_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", strings.NewReader("{invalid"))

	var f registerForm
	err := DecodeAndValidate(req, &f)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}

func TestDecodeAndValidate_ValidationFails(t *testing.T) {
	body := `{"Name":"","Email":"bad","Password":"short"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", bytes.NewBufferString(body))

	var f registerForm
	err := DecodeAndValidate(req, &f)

	require.Error(t, err)
	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)
}
