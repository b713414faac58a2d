/*
package node implements base objects for publishing WAMP resources.

A Resource is any type embedding Node. Resources are mounted in a tree
addressed by dotted Paths; binding a resource registers its exported points
with the session: procedures (Exports.Call), topics (Exports.Signal) and
subscriptions (Exports.Handler).

	type Calculator struct {
	    node.Node
	    OnResult node.Signal
	}

	func (c *Calculator) ExportedPoints(e *node.Exports) {
	    e.Call("add", c.add).
	        Signal("result", &c.OnResult)
	}

A bound resource reaches the rest of the mesh through CallPath, NotifyPath,
ConnectPath and Remote, which resolve path expressions against its own
mount point. Traffic addressed to points living on the same session never
touches the router.

The tree types are transport-agnostic: everything session-related hides
behind the Dispatcher interface, implemented by the wamp package.
*/
package node
