package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type form struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
	Title    string `validate:"max=5"`
}

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(form{Email: "ada@example.com", Password: "pw"}))

	err := Struct(form{Email: "not-an-email", Title: "too long"})
	assert.EqualError(t, err, "email must be a valid email address; password is required; title must be at most 5 characters")
}
