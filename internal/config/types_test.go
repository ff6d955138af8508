package config

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"15s", 15 * time.Second, false},
		{"1m30s", 90 * time.Second, false},
		{"0s", 0, false},
		{"-1s", 0, true},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration())
		})
	}
}

func TestSecret_NeverPrinted(t *testing.T) {
	s := Secret("eyJhbGciOiJIUzI1NiJ9.payload.sig")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.NotContains(t, fmt.Sprintf("%#v", s), "payload")

	out, err := json.Marshal(struct{ Token Secret }{s})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Token":"[REDACTED]"}`, string(out))

	assert.Equal(t, "eyJhbGciOiJIUzI1NiJ9.payload.sig", s.Value())
	assert.True(t, s.IsSet())
	assert.False(t, Secret("").IsSet())
	assert.Equal(t, "", Secret("").String())
}
