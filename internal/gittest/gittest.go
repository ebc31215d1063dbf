// Package gittest builds bare repositories with hand-crafted commit graphs,
// including dangling commits no ref points at, so the pipeline can be
// exercised against a real git binary over the file:// transport.
package gittest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// RepoBuilder assembles a bare repository commit by commit. Every commit
// shares one empty tree; history shape is what matters here, not content.
type RepoBuilder struct {
	t    *testing.T
	repo *git.Repository
	path string
	tree plumbing.Hash
	seq  int
}

// NewRepo initializes a bare repository under a temp directory and enables
// the upload-pack options a blob-less clone of unreferenced commits needs.
func NewRepo(t *testing.T) *RepoBuilder {
	t.Helper()

	path := filepath.Join(t.TempDir(), "remote.git")
	repo, err := git.PlainInit(path, true)
	if err != nil {
		t.Fatalf("init bare repo: %v", err)
	}

	b := &RepoBuilder{t: t, repo: repo, path: path}
	b.tree = b.storeEmptyTree()
	b.allowPartialClone()
	return b
}

// Path returns the repository directory on disk.
func (b *RepoBuilder) Path() string { return b.path }

// URL returns a clone URL using the file transport. The plain path would
// take git's local fast path, which skips upload-pack and with it the
// partial-clone filter.
func (b *RepoBuilder) URL() string { return "file://" + b.path }

// Commit stores a commit with the given parents and returns its hash.
// Timestamps increase monotonically so rev-list order is deterministic.
func (b *RepoBuilder) Commit(msg string, parents ...plumbing.Hash) plumbing.Hash {
	b.t.Helper()
	return b.storeCommit(msg, b.tree, parents)
}

// CommitFile stores a commit whose tree holds a single file, for tests that
// need actual content behind the history shape.
func (b *RepoBuilder) CommitFile(msg, name, content string, parents ...plumbing.Hash) plumbing.Hash {
	b.t.Helper()

	blob := b.repo.Storer.NewEncodedObject()
	blob.SetType(plumbing.BlobObject)
	w, err := blob.Writer()
	if err != nil {
		b.t.Fatalf("blob writer: %v", err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		b.t.Fatalf("write blob: %v", err)
	}
	if err := w.Close(); err != nil {
		b.t.Fatalf("close blob: %v", err)
	}
	blobHash, err := b.repo.Storer.SetEncodedObject(blob)
	if err != nil {
		b.t.Fatalf("store blob: %v", err)
	}

	tree := object.Tree{Entries: []object.TreeEntry{{
		Name: name,
		Mode: filemode.Regular,
		Hash: blobHash,
	}}}
	tobj := b.repo.Storer.NewEncodedObject()
	if err := tree.Encode(tobj); err != nil {
		b.t.Fatalf("encode tree: %v", err)
	}
	treeHash, err := b.repo.Storer.SetEncodedObject(tobj)
	if err != nil {
		b.t.Fatalf("store tree: %v", err)
	}

	return b.storeCommit(msg, treeHash, parents)
}

func (b *RepoBuilder) storeCommit(msg string, tree plumbing.Hash, parents []plumbing.Hash) plumbing.Hash {
	b.t.Helper()

	b.seq++
	sig := object.Signature{
		Name:  "dev",
		Email: "dev@acme.test",
		When:  time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(b.seq) * time.Minute),
	}
	c := object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      msg,
		TreeHash:     tree,
		ParentHashes: parents,
	}

	obj := b.repo.Storer.NewEncodedObject()
	if err := c.Encode(obj); err != nil {
		b.t.Fatalf("encode commit: %v", err)
	}
	h, err := b.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		b.t.Fatalf("store commit: %v", err)
	}
	return h
}

// Branch points refs/heads/<name> at h.
func (b *RepoBuilder) Branch(name string, h plumbing.Hash) {
	b.t.Helper()
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), h)
	if err := b.repo.Storer.SetReference(ref); err != nil {
		b.t.Fatalf("set branch %s: %v", name, err)
	}
}

// Tag points refs/tags/<name> at h as a lightweight tag.
func (b *RepoBuilder) Tag(name string, h plumbing.Hash) {
	b.t.Helper()
	ref := plumbing.NewHashReference(plumbing.NewTagReferenceName(name), h)
	if err := b.repo.Storer.SetReference(ref); err != nil {
		b.t.Fatalf("set tag %s: %v", name, err)
	}
}

// SetHead makes HEAD track refs/heads/<name> so clones pick it as the
// default branch.
func (b *RepoBuilder) SetHead(name string) {
	b.t.Helper()
	ref := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(name))
	if err := b.repo.Storer.SetReference(ref); err != nil {
		b.t.Fatalf("set HEAD to %s: %v", name, err)
	}
}

func (b *RepoBuilder) storeEmptyTree() plumbing.Hash {
	b.t.Helper()
	obj := b.repo.Storer.NewEncodedObject()
	tree := object.Tree{}
	if err := tree.Encode(obj); err != nil {
		b.t.Fatalf("encode empty tree: %v", err)
	}
	h, err := b.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		b.t.Fatalf("store empty tree: %v", err)
	}
	return h
}

func (b *RepoBuilder) allowPartialClone() {
	b.t.Helper()
	cfg, err := b.repo.Config()
	if err != nil {
		b.t.Fatalf("read repo config: %v", err)
	}
	up := cfg.Raw.Section("uploadpack")
	up.SetOption("allowfilter", "true")
	up.SetOption("allowanysha1inwant", "true")
	if err := b.repo.SetConfig(cfg); err != nil {
		b.t.Fatalf("write repo config: %v", err)
	}
}
