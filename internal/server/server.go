package server

import (
	"github.com/lestrrat-go/jwx/v2/jwk"

	"devwish/internal/achievement"
	"devwish/internal/client"
	"devwish/internal/database"
	"devwish/internal/notify"
	"devwish/internal/platform"
)

type Server struct {
	DB            database.Database
	Client        client.Client
	Platforms     *platform.Registry
	Dispatcher    notify.Dispatcher
	Checker       achievement.Checker
	Logger        logger
	AuthSecretKey jwk.Key
}

type logger interface {
	Debug(v ...any)
	Info(v ...any)
	Error(v ...any)
	Tracef(format string, v ...any)
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}
