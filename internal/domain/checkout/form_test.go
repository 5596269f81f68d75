package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() Form {
	return Form{
		Name:    "Jane Doe",
		Email:   "jane@example.com",
		Address: "1 Main St",
		City:    "Springfield",
		ZipCode: "12345",
	}
}

func TestField_Label(t *testing.T) {
	tests := []struct {
		field Field
		want  string
	}{
		{FieldName, "name"},
		{FieldEmail, "email"},
		{FieldAddress, "address"},
		{FieldCity, "city"},
		{FieldZipCode, "zip code"},
	}
	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.field.Label())
		})
	}
}

func TestForm_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Form)
		want   Field
	}{
		{"missing name", func(f *Form) { f.Name = "" }, FieldName},
		{"missing email", func(f *Form) { f.Email = "" }, FieldEmail},
		{"missing address", func(f *Form) { f.Address = "" }, FieldAddress},
		{"missing city", func(f *Form) { f.City = "" }, FieldCity},
		{"missing zip code", func(f *Form) { f.ZipCode = "" }, FieldZipCode},
		{"first missing wins", func(f *Form) { f.City = ""; f.Email = "" }, FieldEmail},
		{"all missing", func(f *Form) { *f = Form{} }, FieldName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.modify(&f)

			err := f.Validate()
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.want, verr.Field)
		})
	}
}

func TestForm_ValidateOK(t *testing.T) {
	require.NoError(t, validForm().Validate())

	f := validForm()
	f.ZipCode = " "
	assert.NoError(t, f.Validate(), "whitespace counts as filled in")
}

func TestValidationError_Message(t *testing.T) {
	f := validForm()
	f.ZipCode = ""

	err := f.Validate()
	require.Error(t, err)
	assert.Equal(t, "please fill in your zip code", err.Error())
}
