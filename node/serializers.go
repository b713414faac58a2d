package node

import (
	"fmt"
	"reflect"

	"github.com/gammazero/nexus/v3/wamp"
	"github.com/peake100/rockyRaccoon-go/serialize"
)

// Stable envelope ids for the node types. The names are wire contract:
// every session peer must map them to its own equivalents.
const (
	// SerializationIDPath identifies a Path payload.
	SerializationIDPath = "raccoon.node.Path"
	// SerializationIDNode identifies a resource sent by reference; the
	// payload is its path and the receiver materializes a proxy.
	SerializationIDNode = "raccoon.node.WAMPNode"
	// SerializationIDProxy identifies proxies. Proxies encode under
	// SerializationIDNode and never decode: a proxy is already a stub, the
	// remote side builds its own.
	SerializationIDProxy = "raccoon.node.NodeProxy"
)

func init() {
	serialize.MustRegister(&serialize.Definition{
		ID:    SerializationIDPath,
		Type:  reflect.TypeOf(Path{}),
		Codec: serialize.CodecFuncs{Enc: encodePath, Dec: decodePath},
	})
	// no Type: resources match through NodeSerializationID, covering every
	// embedder of Node
	serialize.MustRegister(&serialize.Definition{
		ID:    SerializationIDNode,
		Codec: serialize.CodecFuncs{Enc: encodeNode, Dec: decodeNode},
	})
	serialize.MustRegister(&serialize.Definition{
		ID:    SerializationIDProxy,
		Type:  reflect.TypeOf(&Proxy{}),
		Codec: serialize.CodecFuncs{Enc: encodeProxy, Dec: decodeProxy},
	})
}

func encodePath(value interface{}, _ interface{}) (interface{}, error) {
	p, ok := value.(Path)
	if !ok {
		return nil, &serialize.SerializationError{
			ID: SerializationIDPath, Op: "encode",
			Reason: fmt.Sprintf("value %T is not a path", value),
		}
	}
	var base interface{}
	if b, ok := p.Base(); ok {
		base = b.Fragments()
	}
	return map[string]interface{}{
		"path": p.Relative(),
		"base": base,
	}, nil
}

func decodePath(value interface{}, _ interface{}) (interface{}, error) {
	var m map[string]interface{}
	switch typed := value.(type) {
	case map[string]interface{}:
		m = typed
	case wamp.Dict:
		m = typed
	default:
		return nil, &serialize.SerializationError{
			ID: SerializationIDPath, Op: "decode",
			Reason: fmt.Sprintf("payload %T is not a map", value),
		}
	}

	frags, err := toFragments(m["path"])
	if err != nil {
		return nil, err
	}
	p := Path{fragments: frags}
	if rawBase, ok := m["base"]; ok && rawBase != nil {
		baseFrags, err := toFragments(rawBase)
		if err != nil {
			return nil, err
		}
		p.base = baseFrags
	}
	return p, nil
}

func encodeNode(value interface{}, _ interface{}) (interface{}, error) {
	res, ok := value.(Resource)
	if !ok {
		return nil, &serialize.SerializationError{
			ID: SerializationIDNode, Op: "encode",
			Reason: fmt.Sprintf("value %T is not a resource", value),
		}
	}
	n := res.NodeRef()
	if !n.Bound() {
		return nil, &serialize.SerializationError{
			ID: SerializationIDNode, Op: "encode",
			Reason: "an unbound resource cannot be serialized",
		}
	}
	return n.Path().String(), nil
}

// decodeNode turns a path reference into a proxy dispatching through the
// receiving point's owner.
func decodeNode(value interface{}, dst interface{}) (interface{}, error) {
	expr, ok := value.(string)
	if !ok {
		return nil, &serialize.SerializationError{
			ID: SerializationIDNode, Op: "decode",
			Reason: fmt.Sprintf("payload %T is not a path string", value),
		}
	}
	res, ok := dst.(Resource)
	if !ok {
		return nil, &serialize.SerializationError{
			ID: SerializationIDNode, Op: "decode",
			Reason: "no destination resource to build a proxy from",
		}
	}
	proxy, err := res.NodeRef().Remote(expr)
	if err != nil {
		return nil, &serialize.SerializationError{
			ID: SerializationIDNode, Op: "decode",
			Reason: "building proxy failed", Err: err,
		}
	}
	return proxy, nil
}

// encodeProxy hands back a ready-made envelope under the node id: the
// remote side has no use for a "proxy of a proxy", it gets the path.
func encodeProxy(value interface{}, _ interface{}) (interface{}, error) {
	p, ok := value.(*Proxy)
	if !ok {
		return nil, &serialize.SerializationError{
			ID: SerializationIDProxy, Op: "encode",
			Reason: fmt.Sprintf("value %T is not a proxy", value),
		}
	}
	if p.path.IsZero() {
		return nil, &serialize.SerializationError{
			ID: SerializationIDProxy, Op: "encode",
			Reason: "this instance cannot be serialized",
		}
	}
	return map[string]interface{}{
		serialize.EnvelopeIDKey:    SerializationIDNode,
		serialize.EnvelopeValueKey: p.path.String(),
	}, nil
}

func decodeProxy(_ interface{}, _ interface{}) (interface{}, error) {
	return nil, &serialize.SerializationError{
		ID: SerializationIDProxy, Op: "decode",
		Reason: "it's an error to deserialize a node proxy",
	}
}

func toFragments(value interface{}) ([]string, error) {
	switch typed := value.(type) {
	case []string:
		out := make([]string, len(typed))
		copy(out, typed)
		return out, nil
	case []interface{}:
		out := make([]string, len(typed))
		for i, v := range typed {
			s, ok := v.(string)
			if !ok {
				return nil, &serialize.SerializationError{
					ID: SerializationIDPath, Op: "decode",
					Reason: fmt.Sprintf("fragment %v is %T, not a string", i, v),
				}
			}
			out[i] = s
		}
		return out, nil
	case string:
		p, err := ParsePath(typed)
		if err != nil {
			return nil, &serialize.SerializationError{
				ID: SerializationIDPath, Op: "decode",
				Reason: "invalid path string", Err: err,
			}
		}
		return p.Fragments(), nil
	default:
		return nil, &serialize.SerializationError{
			ID: SerializationIDPath, Op: "decode",
			Reason: fmt.Sprintf("payload %T is not a fragment list", value),
		}
	}
}
