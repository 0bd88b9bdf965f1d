package server

import (
	"context"
	"crypto/sha256"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"devwish/internal/database"
)

type contextKey int

const (
	traceContextKey contextKey = iota
	userContextKey
)

type traceContext struct {
	traceID    string
	remoteAddr string
}

func (tc traceContext) String() string {
	return "[" + tc.traceID + " " + tc.remoteAddr + "]"
}

type userContext struct {
	user         database.User
	loginTokenID string
}

func getTraceContext(ctx context.Context) traceContext {
	tc, _ := ctx.Value(traceContextKey).(traceContext)
	return tc
}

func getUserContext(ctx context.Context) (userContext, error) {
	uc, ok := ctx.Value(userContextKey).(userContext)
	if !ok {
		return userContext{}, errors.New("user context not found")
	}
	return uc, nil
}

func (s Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc := traceContext{traceID: uuid.NewString(), remoteAddr: r.RemoteAddr}
		defer func() {
			if rec := recover(); rec != nil {
				s.Logger.Errorf("%s: panic serving %s %s: %+v", tc, r.Method, r.URL.Path, rec)
				w.WriteHeader(http.StatusInternalServerError)
			}
		}()
		start := time.Now()
		s.Logger.Debugf("%s: request: %s %s", tc, r.Method, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), traceContextKey, tc)))
		s.Logger.Tracef("%s: request served in %s", tc, time.Since(start))
	})
}

func (s Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		authHeader := r.Header.Get("Authorization")
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader || tokenStr == "" {
			s.writeError(w, r, "Unauthorized", http.StatusUnauthorized)
			return
		}
		token, err := jwt.ParseString(tokenStr,
			jwt.WithKey(jwa.HS256, s.AuthSecretKey), jwt.WithValidate(true))
		if err != nil {
			s.Logger.Debugf("%s: auth: invalid token, err: %v", tc, err)
			s.writeError(w, r, "Unauthorized", http.StatusUnauthorized)
			return
		}
		user, err := s.DB.UserFindByID(r.Context(), token.Subject())
		if err != nil {
			if !errors.Is(err, mongo.ErrNoDocuments) {
				s.Logger.Errorf("%s: auth: error finding user, err: %+v", tc, err)
			}
			s.writeError(w, r, "Unauthorized", http.StatusUnauthorized)
			return
		}
		tokenHash := sha256.Sum256([]byte(tokenStr))
		var matched *database.LoginToken
		for i, lt := range user.LoginTokens {
			if lt.TokenID == token.JwtID() {
				matched = &user.LoginTokens[i]
				break
			}
		}
		if matched == nil ||
			bcrypt.CompareHashAndPassword(matched.Token, tokenHash[:]) != nil ||
			time.Now().After(matched.Expiration.Time()) {
			s.Logger.Debugf("%s: auth: stale or revoked token for user: %s", tc, user.ID.Hex())
			s.writeError(w, r, "Unauthorized", http.StatusUnauthorized)
			return
		}
		uc := userContext{user: user, loginTokenID: matched.TokenID}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey, uc)))
	})
}
