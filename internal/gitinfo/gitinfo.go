// Package gitinfo reads the revision of the repository a course project lives in.
package gitinfo

import (
	"errors"
	"fmt"

	ggit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ShortHashLen is the number of hex characters kept in a short revision.
const ShortHashLen = 7

// Revision identifies the commit a build was produced from.
type Revision struct {
	Hash   string
	Branch string
}

// Short returns the abbreviated commit hash.
func (r Revision) Short() string {
	if len(r.Hash) <= ShortHashLen {
		return r.Hash
	}
	return r.Hash[:ShortHashLen]
}

// String renders the revision for page footers, e.g. "main@1a2b3c4".
func (r Revision) String() string {
	if r.Hash == "" {
		return ""
	}
	if r.Branch == "" {
		return r.Short()
	}
	return r.Branch + "@" + r.Short()
}

// ErrNotRepository is returned when dir is not inside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// Lookup opens the repository containing dir (searching parent directories)
// and returns the commit HEAD points at. Detached heads have no branch.
func Lookup(dir string) (Revision, error) {
	repo, err := ggit.PlainOpenWithOptions(dir, &ggit.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, ggit.ErrRepositoryNotExists) {
		return Revision{}, ErrNotRepository
	}
	if err != nil {
		return Revision{}, fmt.Errorf("open repository: %w", err)
	}

	ref, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		// Repository without commits.
		return Revision{}, nil
	}
	if err != nil {
		return Revision{}, fmt.Errorf("resolve HEAD: %w", err)
	}

	rev := Revision{Hash: ref.Hash().String()}
	if ref.Name().IsBranch() {
		rev.Branch = ref.Name().Short()
	}
	return rev, nil
}
