package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-redis/redis/v9"
	"github.com/pkg/errors"

	"devwish/internal/misc"
)

const defaultGitHubAPIURL = "https://api.github.com"

const githubCacheTTL = 10 * time.Minute

var ErrGitHub = errors.New("GitHub error")
var ErrGitHubUserNotFound = errors.New("GitHub user not found")
var ErrGitHubRepoNotFound = errors.New("GitHub repo not found")
var ErrGitHubReadmeNotFound = errors.New("GitHub repo has no README")

type GitHubProfile struct {
	Username    string `json:"login"`
	Name        string `json:"name"`
	AvatarURL   string `json:"avatar_url"`
	Bio         string `json:"bio"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
	HTMLURL     string `json:"html_url"`
	CreatedAt   string `json:"created_at"`
}

type GitHubRepo struct {
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	HTMLURL     string `json:"html_url"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	Stars       int    `json:"stargazers_count"`
	Language    string `json:"language"`
}

type GitHubContributor struct {
	Login         string `json:"login"`
	AvatarURL     string `json:"avatar_url"`
	Contributions int    `json:"contributions"`
	HTMLURL       string `json:"html_url"`
}

type GitHubRepoDetails struct {
	Name            string              `json:"name"`
	Description     string              `json:"description"`
	UpdatedAt       string              `json:"updated_at"`
	Language        string              `json:"language"`
	ForksCount      int                 `json:"forks_count"`
	OpenIssuesCount int                 `json:"open_issues_count"`
	Contributors    []GitHubContributor `json:"contributors"`
	// RecentCommits4Weeks is -1 when the activity fetch failed and 0 while
	// GitHub is still computing the statistics (ActivityPending).
	RecentCommits4Weeks int  `json:"recent_commit_count_4weeks"`
	ActivityPending     bool `json:"activity_pending"`
}

func (c Client) githubAPIURL() string {
	if c.GitHubAPIURL != "" {
		return c.GitHubAPIURL
	}
	return defaultGitHubAPIURL
}

func (c Client) githubRequest(url string) (*http.Request, error) {
	req, err := newRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	// Without a token GitHub allows 60 requests per hour; with one, 5000.
	if c.GitHubToken != "" {
		req.Header.Set("Authorization", "token "+c.GitHubToken)
	}
	return req, nil
}

func (c Client) githubGet(url string, out any) (statusCode int, err error) {
	req, err := c.githubRequest(url)
	if err != nil {
		return 0, errors.Wrapf(err, "error creating request from apiURL: %s", url)
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return 0, errors.Wrapf(ErrGitHub, "error doing request to apiURL: %s, err: %v", url, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.Logger.Errorf("githubGet: Error closing response body, apiURL: %s, err: %v", url, err)
		}
	}()

	body, err := io.ReadAll(http.MaxBytesReader(nil, resp.Body, 3*1024*1024))
	if err != nil {
		return resp.StatusCode, errors.Wrapf(err, "error reading GitHubAPI response body, apiURL: %s", url)
	}
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusAccepted {
		return resp.StatusCode, nil
	}
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, errors.Wrapf(ErrGitHub, "error getting data from GitHubAPI, apiURL: %s, status: %s, body:\n%s",
			url, resp.Status, misc.BytesLimit(body, 2000))
	}
	if err = json.Unmarshal(body, out); err != nil {
		return resp.StatusCode, errors.Wrapf(err, "error unmarshalling GitHubAPI response body, apiURL: %s, body:\n%s",
			url, misc.BytesLimit(body, 2000))
	}
	return resp.StatusCode, nil
}

func (c Client) GitHubUserProfile(ctx context.Context, username string, useCache bool) (GitHubProfile, error) {
	var p GitHubProfile
	cacheKey := "GHP-" + username
	if useCache && c.cacheGet(ctx, cacheKey, &p) {
		return p, nil
	}

	apiURL := fmt.Sprintf("%s/users/%s", c.githubAPIURL(), username)
	status, err := c.githubGet(apiURL, &p)
	if err != nil {
		return p, err
	}
	if status == http.StatusNotFound {
		return p, errors.Wrapf(ErrGitHubUserNotFound, "username: %s", username)
	}

	c.cacheSet(ctx, cacheKey, p)
	return p, nil
}

func (c Client) GitHubUserRepos(ctx context.Context, username string, useCache bool) ([]GitHubRepo, error) {
	var rs []GitHubRepo
	cacheKey := "GHR-" + username
	if useCache && c.cacheGet(ctx, cacheKey, &rs) {
		return rs, nil
	}

	apiURL := fmt.Sprintf("%s/users/%s/repos?type=owner&sort=updated&direction=desc&per_page=100", c.githubAPIURL(), username)
	status, err := c.githubGet(apiURL, &rs)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, errors.Wrapf(ErrGitHubUserNotFound, "username: %s", username)
	}

	c.cacheSet(ctx, cacheKey, rs)
	return rs, nil
}

func (c Client) GitHubRepoDetails(owner string, repoName string) (GitHubRepoDetails, error) {
	var d GitHubRepoDetails
	repoURL := fmt.Sprintf("%s/repos/%s/%s", c.githubAPIURL(), owner, repoName)

	status, err := c.githubGet(repoURL, &d)
	if err != nil {
		return d, err
	}
	if status == http.StatusNotFound {
		return d, errors.Wrapf(ErrGitHubRepoNotFound, "repo: %s/%s", owner, repoName)
	}

	// Contributors come ordered by contribution count; keep the top 5.
	var contributors []GitHubContributor
	if _, err := c.githubGet(repoURL+"/contributors", &contributors); err != nil {
		c.Logger.Warnf("GitHubRepoDetails: Error getting contributors for repo: %s/%s, err: %v", owner, repoName, err)
	}
	if len(contributors) > 5 {
		contributors = contributors[:5]
	}
	d.Contributors = contributors

	// stats/commit_activity returns one entry per week over the past year.
	// 202 means GitHub is still computing the stats.
	var weeks []struct {
		Total int `json:"total"`
	}
	status, err = c.githubGet(repoURL+"/stats/commit_activity", &weeks)
	switch {
	case err != nil:
		c.Logger.Warnf("GitHubRepoDetails: Error getting commit activity for repo: %s/%s, err: %v", owner, repoName, err)
		d.RecentCommits4Weeks = -1
	case status == http.StatusAccepted:
		d.ActivityPending = true
	default:
		recent := 0
		start := misc.Max(0, len(weeks)-4)
		for _, w := range weeks[start:] {
			recent += w.Total
		}
		d.RecentCommits4Weeks = recent
	}
	return d, nil
}

func (c Client) GitHubRepoReadme(owner string, repoName string) (string, error) {
	var readme struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	apiURL := fmt.Sprintf("%s/repos/%s/%s/readme", c.githubAPIURL(), owner, repoName)
	status, err := c.githubGet(apiURL, &readme)
	if err != nil {
		return "", err
	}
	if status == http.StatusNotFound {
		return "", errors.Wrapf(ErrGitHubReadmeNotFound, "repo: %s/%s", owner, repoName)
	}

	if readme.Encoding != "base64" {
		return readme.Content, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(readme.Content)
	if err != nil {
		return "", errors.Wrapf(err, "error decoding README content for repo: %s/%s", owner, repoName)
	}
	return string(decoded), nil
}

func (c Client) GitHubRepoLanguages(owner string, repoName string) (map[string]int, error) {
	langs := map[string]int{}
	apiURL := fmt.Sprintf("%s/repos/%s/%s/languages", c.githubAPIURL(), owner, repoName)
	status, err := c.githubGet(apiURL, &langs)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, errors.Wrapf(ErrGitHubRepoNotFound, "repo: %s/%s", owner, repoName)
	}
	return langs, nil
}

// GitHubWeeklyCommitCount counts the user's pushed commits over the last 7
// days from the public events feed.
func (c Client) GitHubWeeklyCommitCount(username string) (int, error) {
	var events []struct {
		Type      string    `json:"type"`
		CreatedAt time.Time `json:"created_at"`
		Payload   struct {
			Size int `json:"size"`
		} `json:"payload"`
	}
	apiURL := fmt.Sprintf("%s/users/%s/events?per_page=100", c.githubAPIURL(), username)
	status, err := c.githubGet(apiURL, &events)
	if err != nil {
		return 0, err
	}
	if status == http.StatusNotFound {
		return 0, errors.Wrapf(ErrGitHubUserNotFound, "username: %s", username)
	}

	cutoff := time.Now().AddDate(0, 0, -7)
	count := 0
	for _, e := range events {
		if e.Type == "PushEvent" && e.CreatedAt.After(cutoff) {
			count += e.Payload.Size
		}
	}
	return count, nil
}

func (c Client) GitHubTotalStars(ctx context.Context, username string) (int, error) {
	repos, err := c.GitHubUserRepos(ctx, username, true)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, r := range repos {
		total += r.Stars
	}
	return total, nil
}

func (c Client) cacheGet(ctx context.Context, key string, out any) bool {
	if c.Redis == nil {
		return false
	}
	cached, err := c.Redis.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.Logger.Errorf("cacheGet: Error getting Redis cache with key: %s, err: %v", key, err)
		}
		return false
	}
	c.Logger.Debugf("cacheGet: Cache found, key: %s", key)
	if err = json.Unmarshal([]byte(cached), out); err != nil {
		c.Logger.Errorf("cacheGet: Error unmarshalling cache, key: %s, err: %v", key, err)
		return false
	}
	return true
}

func (c Client) cacheSet(ctx context.Context, key string, v any) {
	if c.Redis == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		c.Logger.Errorf("cacheSet: Error marshalling cache, key: %s, err: %v", key, err)
		return
	}
	if err = c.Redis.Set(ctx, key, data, githubCacheTTL).Err(); err != nil {
		c.Logger.Errorf("cacheSet: Error setting Redis cache with key: %s, err: %v", key, err)
	}
}
