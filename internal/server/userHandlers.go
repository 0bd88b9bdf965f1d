package server

import (
	"crypto/sha256"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"devwish/internal/database"
)

const loginTokenDuration = 90 * 24 * time.Hour

func (s Server) createLoginToken(userID string) (string, database.LoginToken, error) {
	now := time.Now()
	exp := now.Add(loginTokenDuration)
	token, err := jwt.NewBuilder().
		JwtID(uuid.NewString()).
		Subject(userID).
		IssuedAt(now).
		Expiration(exp).
		Build()
	if err != nil {
		return "", database.LoginToken{}, errors.Wrap(err, "building login token")
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, s.AuthSecretKey))
	if err != nil {
		return "", database.LoginToken{}, errors.Wrap(err, "signing login token")
	}
	tokenHash := sha256.Sum256(signed)
	bcryptHash, err := bcrypt.GenerateFromPassword(tokenHash[:], bcrypt.DefaultCost)
	if err != nil {
		return "", database.LoginToken{}, errors.Wrap(err, "hashing login token")
	}
	lt := database.LoginToken{
		TokenID:    token.JwtID(),
		Token:      bcryptHash,
		Expiration: primitive.NewDateTimeFromTime(exp),
		CreatedAt:  primitive.NewDateTimeFromTime(now),
	}
	return string(signed), lt, nil
}

func (s Server) userRegisterHandler() http.HandlerFunc {
	type request struct {
		Username       string `json:"username"`
		Email          string `json:"email"`
		Password       string `json:"password"`
		GitHubUsername string `json:"github_username"`
	}
	type response struct {
		UserID   string `json:"user_id"`
		Username string `json:"username"`
		Token    string `json:"token"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		var req request
		if err := decodeJsonBody(w, r, &req, 2000); err != nil {
			s.writeError(w, r, "Invalid request body", http.StatusBadRequest)
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		req.Email = strings.TrimSpace(req.Email)
		if req.Username == "" || req.Email == "" || len(req.Password) < 8 {
			s.writeError(w, r, "Username, email, and a password of at least 8 characters are required", http.StatusUnprocessableEntity)
			return
		}
		if _, err := mail.ParseAddress(req.Email); err != nil {
			s.writeError(w, r, "Invalid email address", http.StatusUnprocessableEntity)
			return
		}
		passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			s.Logger.Errorf("%s: register: error hashing password, err: %+v", tc, errors.WithStack(err))
			s.writeError(w, r, "Internal server error", http.StatusInternalServerError)
			return
		}
		userID, err := s.DB.UserInsert(r.Context(), database.User{
			Username:       req.Username,
			Email:          req.Email,
			Password:       passwordHash,
			GitHubUsername: strings.TrimSpace(req.GitHubUsername),
		})
		if err != nil {
			if mongo.IsDuplicateKeyError(errors.Cause(err)) {
				s.writeError(w, r, "Username or email already taken", http.StatusUnprocessableEntity)
				return
			}
			s.Logger.Errorf("%s: register: error inserting user, err: %+v", tc, err)
			s.writeError(w, r, "Internal server error", http.StatusInternalServerError)
			return
		}
		signed, lt, err := s.createLoginToken(userID)
		if err != nil {
			s.Logger.Errorf("%s: register: error creating login token, err: %+v", tc, err)
			s.writeError(w, r, "Internal server error", http.StatusInternalServerError)
			return
		}
		if err := s.DB.UserAddLoginToken(r.Context(), userID, lt); err != nil {
			s.Logger.Errorf("%s: register: error storing login token, err: %+v", tc, err)
			s.writeError(w, r, "Internal server error", http.StatusInternalServerError)
			return
		}
		s.Logger.Infof("%s: registered user: %s, id: %s", tc, req.Username, userID)
		s.writeJsonResponse(w, r, response{UserID: userID, Username: req.Username, Token: signed}, http.StatusCreated)
	}
}

func (s Server) userLoginHandler() http.HandlerFunc {
	type request struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	type response struct {
		UserID   string `json:"user_id"`
		Username string `json:"username"`
		Token    string `json:"token"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		var req request
		if err := decodeJsonBody(w, r, &req, 2000); err != nil {
			s.writeError(w, r, "Invalid request body", http.StatusBadRequest)
			return
		}
		user, err := s.DB.UserFindByUsername(r.Context(), req.Username)
		if err != nil {
			if !errors.Is(err, mongo.ErrNoDocuments) {
				s.Logger.Errorf("%s: login: error finding user, err: %+v", tc, err)
			}
			s.writeError(w, r, "Invalid username or password", http.StatusUnauthorized)
			return
		}
		if bcrypt.CompareHashAndPassword(user.Password, []byte(req.Password)) != nil {
			s.Logger.Debugf("%s: login: wrong password for user: %s", tc, user.ID.Hex())
			s.writeError(w, r, "Invalid username or password", http.StatusUnauthorized)
			return
		}
		signed, lt, err := s.createLoginToken(user.ID.Hex())
		if err != nil {
			s.Logger.Errorf("%s: login: error creating login token, err: %+v", tc, err)
			s.writeError(w, r, "Internal server error", http.StatusInternalServerError)
			return
		}
		if err := s.DB.UserAddLoginToken(r.Context(), user.ID.Hex(), lt); err != nil {
			s.Logger.Errorf("%s: login: error storing login token, err: %+v", tc, err)
			s.writeError(w, r, "Internal server error", http.StatusInternalServerError)
			return
		}
		s.Logger.Infof("%s: user logged in: %s", tc, user.ID.Hex())
		s.writeJsonResponse(w, r, response{UserID: user.ID.Hex(), Username: user.Username, Token: signed}, http.StatusOK)
	}
}

func (s Server) userLogoutHandler() http.HandlerFunc {
	type response struct {
		Message string `json:"message"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("%s: logout: %+v", tc, err)
			s.writeError(w, r, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if err := s.DB.UserRemoveLoginToken(r.Context(), uc.user.ID.Hex(), uc.loginTokenID); err != nil {
			s.Logger.Errorf("%s: logout: error removing login token, err: %+v", tc, err)
			s.writeError(w, r, "Internal server error", http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, r, response{Message: "Logged out"}, http.StatusOK)
	}
}

func (s Server) userInfoHandler() http.HandlerFunc {
	type response struct {
		UserID         string `json:"user_id"`
		Username       string `json:"username"`
		Email          string `json:"email"`
		GitHubUsername string `json:"github_username"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.writeError(w, r, "Unauthorized", http.StatusUnauthorized)
			return
		}
		s.writeJsonResponse(w, r, response{
			UserID:         uc.user.ID.Hex(),
			Username:       uc.user.Username,
			Email:          uc.user.Email,
			GitHubUsername: uc.user.GitHubUsername,
		}, http.StatusOK)
	}
}

func (s Server) userGitHubUsernameHandler() http.HandlerFunc {
	type request struct {
		GitHubUsername string `json:"github_username"`
	}
	type response struct {
		GitHubUsername string `json:"github_username"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.writeError(w, r, "Unauthorized", http.StatusUnauthorized)
			return
		}
		var req request
		if err := decodeJsonBody(w, r, &req, 500); err != nil {
			s.writeError(w, r, "Invalid request body", http.StatusBadRequest)
			return
		}
		username := strings.TrimSpace(req.GitHubUsername)
		if err := s.DB.UserGitHubUsernameUpdate(r.Context(), uc.user.ID.Hex(), username); err != nil {
			s.Logger.Errorf("%s: error updating github username, err: %+v", tc, err)
			s.writeError(w, r, "Internal server error", http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, r, response{GitHubUsername: username}, http.StatusOK)
	}
}
