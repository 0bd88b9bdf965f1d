package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"

	"devwish/internal/client"
	"devwish/internal/database"
	"devwish/internal/misc"
)

const (
	analysisCacheTTL    = 24 * time.Hour
	analysisDeepRepos   = 5
	analysisListRepos   = 30
	analysisReadmeLimit = 2000
)

const analysisSystemPrompt = `You are a senior engineering manager reviewing a developer's public GitHub work. ` +
	`Respond with a single JSON object, no prose around it, with exactly these keys: ` +
	`"radar_scores" (object with integer scores 0-100 for "activity", "breadth", "impact", "code_quality", "community"), ` +
	`"overall_score" (integer 0-100), ` +
	`"tech_stack" (array of strings), ` +
	`"summary" (2-3 sentence assessment), ` +
	`"resume_summary" (one sentence, at most 150 characters, suitable for a resume), ` +
	`"repositories" (array of objects with "name", "status" and "ai_summary" keys, one per analyzed repository). ` +
	`Ground every claim in the data provided, do not invent repositories or numbers.`

type analysisReportRepo struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	AISummary string `json:"ai_summary"`
}

type analysisReport struct {
	RadarScores   map[string]int       `json:"radar_scores"`
	OverallScore  int                  `json:"overall_score"`
	TechStack     []string             `json:"tech_stack"`
	Summary       string               `json:"summary"`
	ResumeSummary string               `json:"resume_summary"`
	Repositories  []analysisReportRepo `json:"repositories"`
}

func (s Server) analysisHandler() http.HandlerFunc {
	type response struct {
		Username    string          `json:"username"`
		AvatarURL   string          `json:"avatar_url"`
		Report      json.RawMessage `json:"report"`
		Cached      bool            `json:"cached"`
		GeneratedAt time.Time       `json:"generated_at"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		username := mux.Vars(r)["username"]

		cached, err := s.DB.AnalysisFindLatest(r.Context(), username)
		if err == nil && time.Since(cached.Ts.Time()) < analysisCacheTTL {
			s.Logger.Debugf("%s: analysis: serving cached report for %s", tc, username)
			s.writeJsonResponse(w, r, response{
				Username:    username,
				AvatarURL:   cached.AvatarURL,
				Report:      json.RawMessage(cached.Report),
				Cached:      true,
				GeneratedAt: cached.Ts.Time(),
			}, http.StatusOK)
			return
		}
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			s.Logger.Errorf("%s: analysis: error reading cache, err: %+v", tc, err)
		}

		profile, err := s.Client.GitHubUserProfile(r.Context(), username, true)
		if err != nil {
			if errors.Is(err, client.ErrGitHubUserNotFound) {
				s.writeError(w, r, "GitHub user not found", http.StatusNotFound)
				return
			}
			s.Logger.Errorf("%s: analysis: error fetching profile, err: %+v", tc, err)
			s.writeError(w, r, "Error reaching GitHub", http.StatusBadGateway)
			return
		}
		repos, err := s.Client.GitHubUserRepos(r.Context(), username, true)
		if err != nil {
			s.Logger.Errorf("%s: analysis: error fetching repos, err: %+v", tc, err)
			s.writeError(w, r, "Error reaching GitHub", http.StatusBadGateway)
			return
		}
		if len(repos) == 0 {
			s.writeError(w, r, "User has no public repositories to analyze", http.StatusUnprocessableEntity)
			return
		}

		report, err := s.generateReport(r, username, profile, repos)
		if err != nil {
			if errors.Is(err, client.ErrLLMNotConfigured) {
				s.writeError(w, r, "Analysis service is not configured", http.StatusServiceUnavailable)
				return
			}
			s.Logger.Errorf("%s: analysis: error generating report, err: %+v", tc, err)
			s.writeError(w, r, "Error generating analysis report", http.StatusBadGateway)
			return
		}

		now := time.Now()
		if err := s.DB.AnalysisInsert(r.Context(), database.Analysis{
			GitHubUsername: username,
			AvatarURL:      profile.AvatarURL,
			Report:         string(report),
		}); err != nil {
			s.Logger.Errorf("%s: analysis: error storing report, err: %+v", tc, err)
		}
		s.Logger.Infof("%s: analysis: generated report for %s", tc, username)
		s.writeJsonResponse(w, r, response{
			Username:    username,
			AvatarURL:   profile.AvatarURL,
			Report:      report,
			Cached:      false,
			GeneratedAt: now,
		}, http.StatusOK)
	}
}

// generateReport gathers repository data, asks the LLM for a structured
// report, and normalizes the result so the response shape is stable even
// when the model omits fields.
func (s Server) generateReport(
	r *http.Request, username string, profile client.GitHubProfile, repos []client.GitHubRepo,
) (json.RawMessage, error) {
	tc := getTraceContext(r.Context())
	sort.Slice(repos, func(i, j int) bool {
		if repos[i].Stars != repos[j].Stars {
			return repos[i].Stars > repos[j].Stars
		}
		return repos[i].UpdatedAt > repos[j].UpdatedAt
	})

	type repoSummary struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Language    string `json:"language"`
		Stars       int    `json:"stars"`
		UpdatedAt   string `json:"updated_at"`
	}
	type repoDeep struct {
		repoSummary
		Languages map[string]int `json:"languages,omitempty"`
		Readme    string         `json:"readme,omitempty"`
	}

	listed := repos
	if len(listed) > analysisListRepos {
		listed = listed[:analysisListRepos]
	}
	summaries := make([]repoSummary, 0, len(listed))
	for _, repo := range listed {
		summaries = append(summaries, repoSummary{
			Name:        repo.Name,
			Description: repo.Description,
			Language:    repo.Language,
			Stars:       repo.Stars,
			UpdatedAt:   repo.UpdatedAt,
		})
	}

	deepCount := misc.Min(analysisDeepRepos, len(repos))
	deep := make([]repoDeep, 0, deepCount)
	for _, repo := range repos[:deepCount] {
		d := repoDeep{repoSummary: repoSummary{
			Name:        repo.Name,
			Description: repo.Description,
			Language:    repo.Language,
			Stars:       repo.Stars,
			UpdatedAt:   repo.UpdatedAt,
		}}
		if languages, err := s.Client.GitHubRepoLanguages(username, repo.Name); err == nil {
			d.Languages = languages
		} else {
			s.Logger.Warnf("%s: analysis: error fetching languages for %s: %v", tc, repo.Name, err)
		}
		if readme, err := s.Client.GitHubRepoReadme(username, repo.Name); err == nil {
			d.Readme = misc.StringLimit(readme, analysisReadmeLimit)
		} else if !errors.Is(err, client.ErrGitHubReadmeNotFound) {
			s.Logger.Warnf("%s: analysis: error fetching readme for %s: %v", tc, repo.Name, err)
		}
		deep = append(deep, d)
	}

	payload, err := json.Marshal(map[string]any{
		"profile": map[string]any{
			"username":     profile.Username,
			"name":         profile.Name,
			"bio":          profile.Bio,
			"public_repos": profile.PublicRepos,
			"followers":    profile.Followers,
			"created_at":   profile.CreatedAt,
		},
		"repositories":          summaries,
		"detailed_repositories": deep,
	})
	if err != nil {
		return nil, errors.Wrap(err, "error marshalling analysis payload")
	}

	content, err := s.Client.LLMChatCompletion(client.ChatCompletionRequest{
		Model: s.Client.LLMModel,
		Messages: []client.ChatMessage{
			{Role: "system", Content: analysisSystemPrompt},
			{Role: "user", Content: fmt.Sprintf(
				"Analyze the GitHub developer %q as of %s using this data:\n%s",
				username, time.Now().Format("2006-01-02"), payload)},
		},
		Temperature:    0.4,
		MaxTokens:      16000,
		ResponseFormat: &client.ChatResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, err
	}

	var report analysisReport
	if err := json.Unmarshal([]byte(client.CleanLLMJSON(content)), &report); err != nil {
		return nil, errors.Wrapf(err, "error parsing LLM report, content: %s", misc.StringLimit(content, 500))
	}
	normalizeReport(&report, repos[:deepCount])
	out, err := json.Marshal(report)
	if err != nil {
		return nil, errors.Wrap(err, "error marshalling normalized report")
	}
	return out, nil
}

func normalizeReport(report *analysisReport, analyzed []client.GitHubRepo) {
	if report.RadarScores == nil {
		report.RadarScores = map[string]int{}
	}
	for _, axis := range []string{"activity", "breadth", "impact", "code_quality", "community"} {
		if _, ok := report.RadarScores[axis]; !ok {
			report.RadarScores[axis] = 60
		}
	}
	if report.OverallScore <= 0 {
		sum := 0
		for _, v := range report.RadarScores {
			sum += v
		}
		report.OverallScore = sum / len(report.RadarScores)
	}
	if report.TechStack == nil {
		report.TechStack = []string{}
	}
	report.ResumeSummary = misc.StringLimit(strings.TrimSpace(report.ResumeSummary), 150)
	if len(report.Repositories) == 0 {
		for _, repo := range analyzed {
			report.Repositories = append(report.Repositories, analysisReportRepo{
				Name:   repo.Name,
				Status: "analyzed",
			})
		}
	}
}
