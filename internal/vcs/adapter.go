// Package vcs clones a single ref of a VCS-sourced package into a
// destination directory. It is the thin slice of jmgilman/go/git's
// Clone/Checkout idiom the orchestrator needs for a "source" (as opposed
// to "dist") install: a one-shot clone-and-check-out, not branch/worktree
// management.
package vcs

import (
	"context"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	phalanxerrors "github.com/phalanx-pm/phalanx/errors"
)

// Adapter clones git refs. The zero value is ready to use.
type Adapter struct{}

// New constructs an Adapter.
func New() *Adapter { return &Adapter{} }

// Clone clones url into destDir and checks out ref (a branch, tag, or
// commit SHA). destDir must not already exist.
//
// A branch reference is tried first with a single-branch, depth-1 clone
// since that covers the common case cheaply; anything else (a tag or a
// raw commit SHA) falls back to a full clone followed by an explicit
// revision checkout.
func (a *Adapter) Clone(ctx context.Context, url, ref, destDir string) error {
	if ref != "" {
		_, err := gogit.PlainCloneContext(ctx, destDir, false, &gogit.CloneOptions{
			URL:           url,
			SingleBranch:  true,
			Depth:         1,
			ReferenceName: plumbing.NewBranchReferenceName(ref),
		})
		if err == nil {
			return nil
		}
	}

	repo, err := gogit.PlainCloneContext(ctx, destDir, false, &gogit.CloneOptions{URL: url})
	if err != nil {
		return phalanxerrors.Wrap(phalanxerrors.CodeIO, "clone "+url, err)
	}
	if ref == "" {
		return nil
	}
	return a.checkout(repo, ref)
}

func (a *Adapter) checkout(repo *gogit.Repository, ref string) error {
	wt, err := repo.Worktree()
	if err != nil {
		return phalanxerrors.Wrap(phalanxerrors.CodeIO, "open worktree for "+ref, err)
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return phalanxerrors.Wrap(phalanxerrors.CodeIO, "resolve ref "+ref, err)
	}
	if err := wt.Checkout(&gogit.CheckoutOptions{Hash: *hash}); err != nil {
		return phalanxerrors.Wrap(phalanxerrors.CodeIO, "checkout "+ref, err)
	}
	return nil
}
