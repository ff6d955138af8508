package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAuthResponse(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		email    string
		fullName string
		want     Profile
		wantErr  error
	}{
		{
			name:  "nested user",
			body:  `{"token":"t","user":{"id":4,"email":"n@example.com","fullName":"Nested"}}`,
			email: "typed@example.com",
			want:  Profile{ID: 4, Email: "n@example.com", FullName: "Nested"},
		},
		{
			name:  "flat fields",
			body:  `{"token":"t","userId":9,"email":"f@example.com","fullName":"Flat"}`,
			email: "typed@example.com",
			want:  Profile{ID: 9, Email: "f@example.com", FullName: "Flat"},
		},
		{
			name:     "synthesized on register",
			body:     `{"token":"t"}`,
			email:    "typed@example.com",
			fullName: "Typed Name",
			want:     Profile{Email: "typed@example.com", FullName: "Typed Name"},
		},
		{
			name:  "synthesized on login",
			body:  `{"token":"t","user":null}`,
			email: "typed@example.com",
			want:  Profile{Email: "typed@example.com"},
		},
		{
			name:    "missing token",
			body:    `{"user":{"email":"n@example.com"}}`,
			wantErr: ErrNoToken,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAuthResponse([]byte(tt.body), tt.email, tt.fullName)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "t", got.Token.Value())
			assert.Equal(t, tt.want, got.Profile)
		})
	}

	_, err := ParseAuthResponse([]byte(`not json`), "", "")
	assert.Error(t, err)
}
