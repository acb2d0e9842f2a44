package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSweep(t *testing.T) {
	want := []ParameterSet{
		{15, 8}, {7, 5}, {5, 2}, {1, 2}, {1, 1}, {0, 0},
	}
	assert.Equal(t, want, DefaultSweep())

	s := DefaultSweep()
	s[0] = ParameterSet{3, 3}
	assert.Equal(t, want, DefaultSweep(), "callers get a copy")

	for _, p := range DefaultSweep() {
		assert.NoError(t, p.Validate(), p.String())
	}
}

func TestParameterSet_Validate(t *testing.T) {
	tests := []struct {
		params  ParameterSet
		wantErr bool
	}{
		{ParameterSet{0, 0}, false},
		{ParameterSet{1, 0}, false},
		{ParameterSet{15, 8}, false},
		{ParameterSet{2, 0}, true},
		{ParameterSet{-1, 0}, true},
		{ParameterSet{3, -2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.params.Tag(), func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParameterSet_Format(t *testing.T) {
	p := ParameterSet{BlurRadius: 15, MorphIterations: 8}
	assert.Equal(t, "(15, 8)", p.String())
	assert.Equal(t, "b15-m8", p.Tag())
}
