/*
package serialize implements the structured-value codec used when node payloads
cross a WAMP session boundary.

Values with a registered definition travel as a two-key envelope map:

	{"__node_id__": <definition id>, "__node_value__": <codec output>}

The receiving side looks the id up in its own registry and rebuilds a native
value. Payloads dispatched locally never pass through this package, so
in-process calls can exchange live values.

Definitions are matched by exact type, or by the IdentifiesSerialization
interface for types meant to cover their embedders as well.
*/
package serialize
