package core

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testForm struct {
	Phone string `json:"phone" validate:"required,phone"`
	Date  string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Skip  string `json:"-"`
}

func TestInitValidators(t *testing.T) {
	validate := validator.New()
	translator := NewTranslator()
	InitValidators(validate, translator)

	translated := func(err error) map[string]string {
		errs, ok := err.(validator.ValidationErrors)
		require.True(t, ok, "ValidationErrors expected, got %v", err)
		fields := make(map[string]string, len(errs))
		for _, fe := range errs {
			fields[fe.Field()] = fe.Translate(translator)
		}
		return fields
	}

	tests := []struct {
		name string
		form testForm
		want map[string]string
	}{
		{name: "required", form: testForm{}, want: map[string]string{"phone": "this field is required"}},
		{name: "bad phone", form: testForm{Phone: "call me"}, want: map[string]string{"phone": "phone must be a valid phone number"}},
		{
			name: "bad date", form: testForm{Phone: "+7 (999) 000-00-01", Date: "01/12/2026"},
			want: map[string]string{"date": "date must be a date in the YYYY-MM-DD format"},
		},
		{name: "valid", form: testForm{Phone: "89990000001", Date: "2026-01-12"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.form)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.want, translated(err))
		})
	}
}

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Ivan", CleanString("  Ivan\n"))
	assert.Equal(t, "ivan@test.ru", CleanString(" Ivan@Test.ru ", true))
	assert.True(t, ContainsFold([]string{"Monday", " Среда "}, "среда"))
	assert.False(t, ContainsFold([]string{"Monday"}, "Tuesday"))
}

func TestErrors(t *testing.T) {
	nf := NewNotFoundError("nope")
	assert.True(t, IsNotFound(nf))
	assert.False(t, IsNotFound(NewValidationError(nil)))

	verr := NewValidationError(nil, FieldError{Field: "amount", Error: "too small"})
	assert.Equal(t, "amount: too small", verr.Error())

	assert.True(t, IsShutdown(NewShutdownError("bye")))
	assert.False(t, IsShutdown(nf))
}
