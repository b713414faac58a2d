package wamp

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gammazero/nexus/v3/wamp"
	"github.com/peake100/rockyRaccoon-go/internal"
	"github.com/rs/zerolog"
)

// Config is used in Dial and ConnectLocal to specify the desired session
// behavior: which router and realm to join, how long to wait on router
// replies, and the middleware to run around session methods.
type Config struct {
	// RouterURL is the websocket address of the WAMP router. Only used by the
	// Dial family; ConnectLocal ignores it.
	RouterURL string `env:"ROCKY_ROUTER_URL" envDefault:"ws://localhost:8080/ws"`

	// Realm is the router realm the session joins.
	Realm string `env:"ROCKY_REALM" envDefault:"realm1"`

	// ResponseTimeout bounds how long session requests (register, subscribe,
	// publish with acknowledgement) wait for a router reply.
	ResponseTimeout time.Duration `env:"ROCKY_RESPONSE_TIMEOUT" envDefault:"1m"`

	// HelloDetails is a table of extra details the session advertises to the
	// router during the join handshake. This is an optional setting - if the
	// application does not set this, the underlying library will use a generic
	// set of client details.
	HelloDetails wamp.Dict

	// If set to true, the default middleware will not be registered on sessions
	// created through this config.
	NoDefaultMiddleware bool

	// Middleware holds middleware to add to session method and delivery
	// handlers.
	Middleware SessionMiddlewares

	// The logger to use for internal logging. DefaultConfig and ConfigFromEnv
	// set a console logger writing through a lockless diode buffer at info
	// level.
	Logger zerolog.Logger
}

// DefaultConfig returns the default config for Dial() and ConnectLocal().
func DefaultConfig() Config {
	return Config{
		RouterURL:       defaultRouterURL,
		Realm:           defaultRealm,
		ResponseTimeout: defaultResponseTimeout,
		Logger:          internal.CreateDefaultLogger(zerolog.InfoLevel),
	}
}

// ConfigFromEnv builds a config from ROCKY_-prefixed environment variables,
// falling back to the same defaults as DefaultConfig for unset ones.
func ConfigFromEnv() (Config, error) {
	config := Config{Logger: internal.CreateDefaultLogger(zerolog.InfoLevel)}
	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return config, nil
}

const (
	defaultRouterURL       = "ws://localhost:8080/ws"
	defaultRealm           = "realm1"
	defaultResponseTimeout = time.Minute
)
