package nodetest

import "github.com/peake100/rockyRaccoon-go/wamp"

// SessionTesting exposes some internals of the Session type for testing.
type SessionTesting = wamp.SessionTesting
