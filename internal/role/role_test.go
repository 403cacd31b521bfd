package role

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"admin", Admin, false},
		{"  Doctor ", Doctor, false},
		{"PATIENT", Patient, false},
		{"staff", Staff, false},
		{"nurse", Nurse, false},
		{"", None, true},
		{"janitor", None, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownRole)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsAdministrative(t *testing.T) {
	want := map[Role]bool{
		Admin:   true,
		Staff:   true,
		Doctor:  false,
		Nurse:   false,
		Patient: false,
		None:    false,
	}
	for r, expected := range want {
		assert.Equal(t, expected, r.IsAdministrative(), "role %s", r)
	}
}

func TestNoneMatchesNothing(t *testing.T) {
	assert.False(t, None.In(All...))
	assert.False(t, None.Valid())
	assert.Equal(t, "unregistered", None.String())
}
