// Package identity manages the per-clone client id and its branch.
package identity

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/penwyp/dorkbox/internal/git"
)

const (
	// ConfigKey is the local git config key holding the client id.
	ConfigKey = "dorkbox.client-id"
	// Prefix starts every client id.
	Prefix = "dorkbox"

	tokenLength = 8
)

// Generator builds client ids. The zero value uses the OS hostname and a
// random token.
type Generator struct {
	Hostname func() (string, error)
	Token    func() string
}

// Generate produces a new id, stores it in the backend's local config and
// returns it.
func (g Generator) Generate(ctx context.Context, b git.Backend) (string, error) {
	id, err := g.NewID()
	if err != nil {
		return "", err
	}
	if err := b.SetLocalConfig(ctx, ConfigKey, id); err != nil {
		return "", fmt.Errorf("store client id: %w", err)
	}
	return id, nil
}

// NewID returns dorkbox-<hostname>-<token> without persisting it.
func (g Generator) NewID() (string, error) {
	hostname := g.Hostname
	if hostname == nil {
		hostname = os.Hostname
	}
	token := g.Token
	if token == nil {
		token = randomToken
	}

	host, err := hostname()
	if err != nil {
		return "", fmt.Errorf("get hostname: %w", err)
	}
	return fmt.Sprintf("%s-%s-%s", Prefix, SanitizeHost(host), token()), nil
}

// Generate uses the default Generator.
func Generate(ctx context.Context, b git.Backend) (string, error) {
	return Generator{}.Generate(ctx, b)
}

// Read returns the persisted client id.
func Read(ctx context.Context, b git.Backend) (string, error) {
	id, err := b.GetLocalConfig(ctx, ConfigKey)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("%s is empty", ConfigKey)
	}
	return id, nil
}

// AlignBranch points refs/heads/<id> at the local master tip.
func AlignBranch(ctx context.Context, b git.Backend, id string) error {
	return b.UpdateRef(ctx, BranchRef(id), git.MainBranch)
}

// BranchRef returns the full ref name of a client branch.
func BranchRef(id string) string {
	return "refs/heads/" + id
}

// SanitizeHost replaces every character that is not safe in a git ref
// component with '-'. An empty result becomes "unknown".
func SanitizeHost(host string) string {
	var b strings.Builder
	for _, r := range host {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			// '.' is legal but ".." and a trailing ".lock" are not; drop it too.
			b.WriteByte('-')
		}
	}
	s := strings.Trim(b.String(), "-")
	if s == "" {
		return "unknown"
	}
	return s
}

func randomToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:tokenLength]
}
