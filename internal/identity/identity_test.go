package identity

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/dorkbox/internal/git"
	"github.com/penwyp/dorkbox/internal/git/gittest"
)

func fixedGenerator(host string) Generator {
	return Generator{
		Hostname: func() (string, error) { return host, nil },
		Token:    func() string { return "tok123" },
	}
}

func TestGenerator_Generate(t *testing.T) {
	b := new(gittest.MockBackend)
	b.On("SetLocalConfig", mock.Anything, ConfigKey, "dorkbox-laptop-tok123").Return(nil).Once()

	id, err := fixedGenerator("laptop").Generate(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, "dorkbox-laptop-tok123", id)
	b.AssertExpectations(t)
}

func TestGenerator_GenerateStoreFails(t *testing.T) {
	b := new(gittest.MockBackend)
	b.On("SetLocalConfig", mock.Anything, ConfigKey, mock.Anything).Return(assert.AnError)

	_, err := fixedGenerator("laptop").Generate(context.Background(), b)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestGenerator_HostnameError(t *testing.T) {
	g := Generator{Hostname: func() (string, error) { return "", assert.AnError }}

	_, err := g.NewID()
	assert.ErrorIs(t, err, assert.AnError)
}

func TestGenerator_DefaultsAreUnique(t *testing.T) {
	var g Generator
	first, err := g.NewID()
	require.NoError(t, err)
	second, err := g.NewID()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Regexp(t, regexp.MustCompile(`^dorkbox-[A-Za-z0-9_-]+-[0-9a-f]{8}$`), first)
}

func TestSanitizeHost(t *testing.T) {
	tests := []struct {
		host     string
		expected string
	}{
		{"laptop", "laptop"},
		{"my.host.example.com", "my-host-example-com"},
		{"box..lock", "box--lock"},
		{"weird host:name~1^", "weird-host-name-1"},
		{"ümlaut", "mlaut"},
		{"...", "unknown"},
		{"", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeHost(tt.host))
		})
	}
}

func TestRead(t *testing.T) {
	b := new(gittest.MockBackend)
	b.On("GetLocalConfig", mock.Anything, ConfigKey).Return("dorkbox-laptop-tok123", nil).Once()

	id, err := Read(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, "dorkbox-laptop-tok123", id)
}

func TestRead_Missing(t *testing.T) {
	b := new(gittest.MockBackend)
	b.On("GetLocalConfig", mock.Anything, ConfigKey).Return("", &git.CommandError{ExitCode: 1})

	_, err := Read(context.Background(), b)
	assert.Error(t, err)
}

func TestRead_Empty(t *testing.T) {
	b := new(gittest.MockBackend)
	b.On("GetLocalConfig", mock.Anything, ConfigKey).Return("", nil)

	_, err := Read(context.Background(), b)
	assert.Error(t, err)
}

func TestAlignBranch(t *testing.T) {
	b := new(gittest.MockBackend)
	b.On("UpdateRef", mock.Anything, "refs/heads/dorkbox-laptop-tok123", "master").Return(nil).Once()

	require.NoError(t, AlignBranch(context.Background(), b, "dorkbox-laptop-tok123"))
	b.AssertExpectations(t)
}
