package githubapp

import (
	"context"
	"strings"

	gh "github.com/google/go-github/v68/github"
)

type Repo struct {
	FullName       string `json:"full_name"`
	Name           string `json:"name"`
	Private        bool   `json:"private"`
	InstallationID int64  `json:"installation_id"`
}

// ListReposForLogin returns every repository visible through app installations
// on the given account.
func (c *Client) ListReposForLogin(ctx context.Context, login string) ([]Repo, error) {
	app, err := c.appClient()
	if err != nil {
		return nil, err
	}

	var installations []*gh.Installation
	opts := &gh.ListOptions{PerPage: 100}
	for {
		page, resp, err := app.Apps.ListInstallations(ctx, opts)
		if err != nil {
			return nil, wrapErr("list installations", resp, err)
		}
		for _, inst := range page {
			if strings.EqualFold(inst.GetAccount().GetLogin(), login) {
				installations = append(installations, inst)
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	out := []Repo{}
	for _, inst := range installations {
		client, err := c.installationClient(ctx, inst.GetID())
		if err != nil {
			return nil, err
		}
		opts := &gh.ListOptions{PerPage: 100, Page: 1}
		for {
			list, resp, err := client.Apps.ListRepos(ctx, opts)
			if err != nil {
				return nil, wrapErr("list installation repos", resp, err)
			}
			for _, r := range list.Repositories {
				out = append(out, Repo{
					FullName:       r.GetFullName(),
					Name:           r.GetName(),
					Private:        r.GetPrivate(),
					InstallationID: inst.GetID(),
				})
			}
			if resp.NextPage == 0 {
				break
			}
			opts.Page = resp.NextPage
		}
	}
	return out, nil
}
