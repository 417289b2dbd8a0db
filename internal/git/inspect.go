package git

import (
	stderrors "errors"
	"fmt"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ErrNoMetadata is returned by Inspect when root holds no git repository.
var ErrNoMetadata = stderrors.New("no git metadata found")

// Snapshot is a read-only view of a repository's refs.
type Snapshot struct {
	// HeadBranch is the short name of the checked-out branch; empty when
	// HEAD is detached.
	HeadBranch string
	// Branches maps local branch short names to commit hashes.
	Branches map[string]string
	// RemoteBranches maps remote branch short names (dorkbox/master) to hashes.
	RemoteBranches map[string]string
}

// Validate checks that root holds repository metadata go-git can open.
// It reads no refs, so it succeeds while another process holds ref locks.
func Validate(root string) error {
	_, err := open(root)
	return err
}

func open(root string) (*gitlib.Repository, error) {
	repo, err := gitlib.PlainOpenWithOptions(root, &gitlib.PlainOpenOptions{DetectDotGit: false})
	if err != nil {
		if stderrors.Is(err, gitlib.ErrRepositoryNotExists) {
			return nil, ErrNoMetadata
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return repo, nil
}

// Inspect opens root in-process and reads its refs without invoking git.
// It never walks up to a parent directory. A ref being rewritten by a
// concurrent git process can make it fail; callers treat it as advisory.
func Inspect(root string) (*Snapshot, error) {
	repo, err := open(root)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Branches:       map[string]string{},
		RemoteBranches: map[string]string{},
	}

	head, err := repo.Reference(plumbing.HEAD, false)
	if err == nil && head.Type() == plumbing.SymbolicReference && head.Target().IsBranch() {
		snap.HeadBranch = head.Target().Short()
	}

	refs, err := repo.References()
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	defer refs.Close()
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		name := ref.Name()
		switch {
		case name.IsBranch():
			snap.Branches[name.Short()] = ref.Hash().String()
		case name.IsRemote():
			snap.RemoteBranches[name.Short()] = ref.Hash().String()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read references: %w", err)
	}
	return snap, nil
}

// InSync reports whether branch points at the same commit as MainBranch.
func (s *Snapshot) InSync(branch string) bool {
	master, ok := s.Branches[MainBranch]
	if !ok {
		return false
	}
	return s.Branches[branch] == master
}
