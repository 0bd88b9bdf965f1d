package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s Server) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.loggingMiddleware)

	api.HandleFunc("/user/register", s.userRegisterHandler()).Methods(http.MethodPost)
	api.HandleFunc("/user/login", s.userLoginHandler()).Methods(http.MethodPost)

	userAPI := api.PathPrefix("/user").Subrouter()
	userAPI.Use(s.authMiddleware)
	userAPI.HandleFunc("/logout", s.userLogoutHandler()).Methods(http.MethodPost)
	userAPI.HandleFunc("/info", s.userInfoHandler()).Methods(http.MethodGet)
	userAPI.HandleFunc("/github", s.userGitHubUsernameHandler()).Methods(http.MethodPut)

	wishAPI := api.PathPrefix("/wish").Subrouter()
	wishAPI.Use(s.authMiddleware)
	wishAPI.HandleFunc("/add", s.wishAddHandler()).Methods(http.MethodPost)
	wishAPI.HandleFunc("/list", s.wishListHandler()).Methods(http.MethodGet)
	wishAPI.HandleFunc("/check-status", s.wishCheckStatusHandler()).Methods(http.MethodPost)
	wishAPI.HandleFunc("/{wishID}", s.wishDeleteHandler()).Methods(http.MethodDelete)
	wishAPI.HandleFunc("/{wishID}/history", s.wishHistoryHandler()).Methods(http.MethodGet)

	devinfoAPI := api.PathPrefix("/devinfo").Subrouter()
	devinfoAPI.HandleFunc("/profile/{username}", s.devinfoProfileHandler()).Methods(http.MethodGet)
	devinfoAPI.HandleFunc("/repos/{username}", s.devinfoReposHandler()).Methods(http.MethodGet)
	devinfoAPI.HandleFunc("/details/{owner}/{repo}", s.devinfoDetailsHandler()).Methods(http.MethodGet)
	devinfoAPI.HandleFunc("/readme/{owner}/{repo}", s.devinfoReadmeHandler()).Methods(http.MethodGet)
	devinfoAPI.HandleFunc("/languages/{owner}/{repo}", s.devinfoLanguagesHandler()).Methods(http.MethodGet)

	api.HandleFunc("/analysis/{username}", s.analysisHandler()).Methods(http.MethodGet, http.MethodPost)
	api.HandleFunc("/chat/send", s.chatSendHandler()).Methods(http.MethodPost)
	api.HandleFunc("/battle/player/{username}", s.battlePlayerHandler()).Methods(http.MethodGet)

	return r
}
