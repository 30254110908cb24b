package cli

import (
	"strconv"

	"github.com/alexcrawford/actual-monzo-sub000/internal/adapters/driving/oauth"
	"github.com/alexcrawford/actual-monzo-sub000/internal/logger"
)

// EnvCallbackPort overrides the OAuth callback port. The redirect URI
// registered with the Monzo client must use the same port.
const EnvCallbackPort = "ACTUAL_MONZO_OAUTH_PORT"

// CallbackPort resolves the callback port from the environment at the
// process boundary; the listener itself takes the port as a plain
// constructor argument. Invalid values fall back to the default with a
// warning rather than failing the whole flow.
func CallbackPort(getenv func(string) string) int {
	raw := getenv(EnvCallbackPort)
	if raw == "" {
		return oauth.DefaultPort
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port < 1 || port > 65535 {
		logger.Warn("ignoring invalid %s=%q, using port %d", EnvCallbackPort, raw, oauth.DefaultPort)
		return oauth.DefaultPort
	}
	return port
}
