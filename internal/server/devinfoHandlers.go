package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"devwish/internal/client"
)

func (s Server) devinfoProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		username := mux.Vars(r)["username"]
		profile, err := s.Client.GitHubUserProfile(r.Context(), username, true)
		if err != nil {
			if errors.Is(err, client.ErrGitHubUserNotFound) {
				s.writeError(w, r, "GitHub user not found", http.StatusNotFound)
				return
			}
			s.Logger.Errorf("%s: devinfo profile: err: %+v", tc, err)
			s.writeError(w, r, "Error reaching GitHub", http.StatusBadGateway)
			return
		}
		s.writeJsonResponse(w, r, profile, http.StatusOK)
	}
}

func (s Server) devinfoReposHandler() http.HandlerFunc {
	type response struct {
		Username string              `json:"username"`
		Repos    []client.GitHubRepo `json:"repos"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		username := mux.Vars(r)["username"]
		repos, err := s.Client.GitHubUserRepos(r.Context(), username, true)
		if err != nil {
			if errors.Is(err, client.ErrGitHubUserNotFound) {
				s.writeError(w, r, "GitHub user not found", http.StatusNotFound)
				return
			}
			s.Logger.Errorf("%s: devinfo repos: err: %+v", tc, err)
			s.writeError(w, r, "Error reaching GitHub", http.StatusBadGateway)
			return
		}
		if repos == nil {
			repos = []client.GitHubRepo{}
		}
		s.writeJsonResponse(w, r, response{Username: username, Repos: repos}, http.StatusOK)
	}
}

func (s Server) devinfoDetailsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		vars := mux.Vars(r)
		details, err := s.Client.GitHubRepoDetails(vars["owner"], vars["repo"])
		if err != nil {
			if errors.Is(err, client.ErrGitHubRepoNotFound) {
				s.writeError(w, r, "GitHub repository not found", http.StatusNotFound)
				return
			}
			s.Logger.Errorf("%s: devinfo details: err: %+v", tc, err)
			s.writeError(w, r, "Error reaching GitHub", http.StatusBadGateway)
			return
		}
		s.writeJsonResponse(w, r, details, http.StatusOK)
	}
}

func (s Server) devinfoReadmeHandler() http.HandlerFunc {
	type response struct {
		Readme string `json:"readme"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		vars := mux.Vars(r)
		readme, err := s.Client.GitHubRepoReadme(vars["owner"], vars["repo"])
		if err != nil {
			if errors.Is(err, client.ErrGitHubReadmeNotFound) {
				s.writeError(w, r, "Repository has no README", http.StatusNotFound)
				return
			}
			s.Logger.Errorf("%s: devinfo readme: err: %+v", tc, err)
			s.writeError(w, r, "Error reaching GitHub", http.StatusBadGateway)
			return
		}
		s.writeJsonResponse(w, r, response{Readme: readme}, http.StatusOK)
	}
}

func (s Server) devinfoLanguagesHandler() http.HandlerFunc {
	type response struct {
		Languages map[string]int `json:"languages"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		vars := mux.Vars(r)
		languages, err := s.Client.GitHubRepoLanguages(vars["owner"], vars["repo"])
		if err != nil {
			if errors.Is(err, client.ErrGitHubRepoNotFound) {
				s.writeError(w, r, "GitHub repository not found", http.StatusNotFound)
				return
			}
			s.Logger.Errorf("%s: devinfo languages: err: %+v", tc, err)
			s.writeError(w, r, "Error reaching GitHub", http.StatusBadGateway)
			return
		}
		if languages == nil {
			languages = map[string]int{}
		}
		s.writeJsonResponse(w, r, response{Languages: languages}, http.StatusOK)
	}
}
