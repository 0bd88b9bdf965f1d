package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"

	"devwish/internal/client"
)

// battlePlayerHandler builds one side of a head-to-head developer card:
// public GitHub stats plus, when the GitHub account belongs to a registered
// user, their wishlist progress.
func (s Server) battlePlayerHandler() http.HandlerFunc {
	type githubStats struct {
		PublicRepos   int `json:"public_repos"`
		Followers     int `json:"followers"`
		TotalStars    int `json:"total_stars"`
		WeeklyCommits int `json:"weekly_commits"`
	}
	type wishlistStats struct {
		Registered     bool  `json:"registered"`
		WishesTotal    int64 `json:"wishes_total"`
		WishesUnlocked int64 `json:"wishes_unlocked"`
	}
	type response struct {
		Username  string        `json:"username"`
		Name      string        `json:"name"`
		AvatarURL string        `json:"avatar_url"`
		Bio       string        `json:"bio"`
		GitHub    githubStats   `json:"github"`
		Wishlist  wishlistStats `json:"wishlist"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		username := mux.Vars(r)["username"]
		profile, err := s.Client.GitHubUserProfile(r.Context(), username, true)
		if err != nil {
			if errors.Is(err, client.ErrGitHubUserNotFound) {
				s.writeError(w, r, "GitHub user not found", http.StatusNotFound)
				return
			}
			s.Logger.Errorf("%s: battle: error fetching profile, err: %+v", tc, err)
			s.writeError(w, r, "Error reaching GitHub", http.StatusBadGateway)
			return
		}

		resp := response{
			Username:  profile.Username,
			Name:      profile.Name,
			AvatarURL: profile.AvatarURL,
			Bio:       profile.Bio,
			GitHub: githubStats{
				PublicRepos: profile.PublicRepos,
				Followers:   profile.Followers,
			},
		}
		if stars, err := s.Client.GitHubTotalStars(r.Context(), username); err == nil {
			resp.GitHub.TotalStars = stars
		} else {
			s.Logger.Warnf("%s: battle: error counting stars for %s: %v", tc, username, err)
		}
		if commits, err := s.Client.GitHubWeeklyCommitCount(username); err == nil {
			resp.GitHub.WeeklyCommits = commits
		} else {
			s.Logger.Warnf("%s: battle: error counting weekly commits for %s: %v", tc, username, err)
		}

		user, err := s.DB.UserFindByGitHubUsername(r.Context(), username)
		if err == nil {
			total, unlocked, err := s.DB.WishCountsByUser(r.Context(), user.ID)
			if err != nil {
				s.Logger.Errorf("%s: battle: error counting wishes, err: %+v", tc, err)
			} else {
				resp.Wishlist = wishlistStats{Registered: true, WishesTotal: total, WishesUnlocked: unlocked}
			}
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			s.Logger.Errorf("%s: battle: error finding user, err: %+v", tc, err)
		}

		s.writeJsonResponse(w, r, resp, http.StatusOK)
	}
}
