package githubapp

import (
	"context"
	"errors"
	"fmt"
	"sort"

	gh "github.com/google/go-github/v68/github"

	"github.com/rsamf/gamma/internal/platform/apierr"
)

// CommitDiff returns the unified diff of a single commit.
func (c *Client) CommitDiff(ctx context.Context, installationID int64, owner, repo, sha string) (string, error) {
	client, err := c.installationClient(ctx, installationID)
	if err != nil {
		return "", err
	}
	diff, resp, err := client.Repositories.GetCommitRaw(ctx, owner, repo, sha, gh.RawOptions{Type: gh.Diff})
	if err != nil {
		return "", wrapErr("get commit diff", resp, err)
	}
	return diff, nil
}

// FileContent returns the decoded content of a file at ref (default branch when empty).
func (c *Client) FileContent(ctx context.Context, installationID int64, owner, repo, path, ref string) (string, error) {
	client, err := c.installationClient(ctx, installationID)
	if err != nil {
		return "", err
	}
	var opts *gh.RepositoryContentGetOptions
	if ref != "" {
		opts = &gh.RepositoryContentGetOptions{Ref: ref}
	}
	file, _, resp, err := client.Repositories.GetContents(ctx, owner, repo, path, opts)
	if err != nil {
		return "", wrapErr("get contents", resp, err)
	}
	if file == nil {
		return "", apierr.Invalid("not_a_file", fmt.Errorf("%s is a directory", path))
	}
	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}
	return content, nil
}

// CreateCommit writes files on top of branch's head and fast-forwards the
// branch to the new commit. It returns the new commit SHA.
func (c *Client) CreateCommit(ctx context.Context, installationID int64, owner, repo, branch, message string, files map[string]string) (string, error) {
	if len(files) == 0 {
		return "", apierr.Invalid("no_files", errors.New("at least one file is required"))
	}
	client, err := c.installationClient(ctx, installationID)
	if err != nil {
		return "", err
	}

	ref, resp, err := client.Git.GetRef(ctx, owner, repo, "heads/"+branch)
	if err != nil {
		return "", wrapErr("get ref", resp, err)
	}
	headSHA := ref.GetObject().GetSHA()
	head, resp, err := client.Git.GetCommit(ctx, owner, repo, headSHA)
	if err != nil {
		return "", wrapErr("get commit", resp, err)
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	entries := make([]*gh.TreeEntry, 0, len(paths))
	for _, p := range paths {
		blob, resp, err := client.Git.CreateBlob(ctx, owner, repo, &gh.Blob{
			Content:  gh.Ptr(files[p]),
			Encoding: gh.Ptr("utf-8"),
		})
		if err != nil {
			return "", wrapErr("create blob", resp, err)
		}
		entries = append(entries, &gh.TreeEntry{
			Path: gh.Ptr(p),
			Mode: gh.Ptr("100644"),
			Type: gh.Ptr("blob"),
			SHA:  blob.SHA,
		})
	}

	tree, resp, err := client.Git.CreateTree(ctx, owner, repo, head.GetTree().GetSHA(), entries)
	if err != nil {
		return "", wrapErr("create tree", resp, err)
	}
	commit, resp, err := client.Git.CreateCommit(ctx, owner, repo, &gh.Commit{
		Message: gh.Ptr(message),
		Tree:    tree,
		Parents: []*gh.Commit{{SHA: gh.Ptr(headSHA)}},
	}, nil)
	if err != nil {
		return "", wrapErr("create commit", resp, err)
	}
	_, resp, err = client.Git.UpdateRef(ctx, owner, repo, &gh.Reference{
		Ref:    gh.Ptr("refs/heads/" + branch),
		Object: &gh.GitObject{SHA: commit.SHA},
	}, false)
	if err != nil {
		return "", wrapErr("update ref", resp, err)
	}
	c.log.Info("created commit", "repo", owner+"/"+repo, "branch", branch, "commit_sha", commit.GetSHA())
	return commit.GetSHA(), nil
}
