//revive:disable
package wamp_test

import (
	"testing"
	"time"

	"github.com/peake100/rockyRaccoon-go/wamp"
	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	assert := assert.New(t)

	config := wamp.DefaultConfig()
	assert.Equal("ws://localhost:8080/ws", config.RouterURL)
	assert.Equal("realm1", config.Realm)
	assert.Equal(time.Minute, config.ResponseTimeout)
	assert.False(config.NoDefaultMiddleware)
}

func TestConfigFromEnvDefaults(t *testing.T) {
	assert := assert.New(t)

	config, err := wamp.ConfigFromEnv()
	assert.NoError(err)
	assert.Equal("ws://localhost:8080/ws", config.RouterURL)
	assert.Equal("realm1", config.Realm)
	assert.Equal(time.Minute, config.ResponseTimeout)
}

func TestConfigFromEnv(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("ROCKY_ROUTER_URL", "ws://wamp.internal:9999/ws")
	t.Setenv("ROCKY_REALM", "rocky.production")
	t.Setenv("ROCKY_RESPONSE_TIMEOUT", "15s")

	config, err := wamp.ConfigFromEnv()
	assert.NoError(err)
	assert.Equal("ws://wamp.internal:9999/ws", config.RouterURL)
	assert.Equal("rocky.production", config.Realm)
	assert.Equal(15*time.Second, config.ResponseTimeout)
}

func TestConfigFromEnvInvalid(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("ROCKY_RESPONSE_TIMEOUT", "not-a-duration")

	_, err := wamp.ConfigFromEnv()
	assert.Error(err)
}
