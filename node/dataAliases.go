package node

import (
	"github.com/gammazero/nexus/v3/wamp"
)

// List is an alias to wamp.List: positional payload arguments.
type List = wamp.List

// Dict is an alias to wamp.Dict: keyword payload arguments, options and
// details maps.
type Dict = wamp.Dict
