package serialize

import (
	"github.com/gammazero/nexus/v3/wamp"
)

// EncodeValue wraps value in its envelope when a definition covers it. The
// second return reports whether an envelope was produced; values without a
// definition pass through untouched.
func EncodeValue(
	reg *Registry, value interface{}, src interface{},
) (interface{}, bool, error) {
	def, ok := reg.DefinitionFor(value)
	if !ok {
		return value, false, nil
	}

	wire, err := def.Codec.Encode(value, src)
	if err != nil {
		return nil, false, err
	}
	// A codec may hand back a ready-made envelope to publish under another
	// definition's id (the proxy codec does); those pass through as-is.
	if _, _, ok := envelopeOf(wire); ok {
		return wire, true, nil
	}
	return map[string]interface{}{
		EnvelopeIDKey:    def.ID,
		EnvelopeValueKey: wire,
	}, true, nil
}

// DecodeValue rebuilds a native value from an envelope map. Non-envelope
// values pass through untouched; envelopes with an unknown id are an error.
func DecodeValue(
	reg *Registry, value interface{}, dst interface{},
) (interface{}, bool, error) {
	id, wire, ok := envelopeOf(value)
	if !ok {
		return value, false, nil
	}

	def, ok := reg.DefinitionByID(id)
	if !ok {
		return nil, false, &SerializationError{
			ID: id, Op: "decode", Reason: "no definition registered for id",
		}
	}
	native, err := def.Codec.Decode(wire, dst)
	if err != nil {
		return nil, false, err
	}
	return native, true, nil
}

// EncodeArgs walks positional and keyword payloads one level deep, enveloping
// every covered value. nil inputs stay nil.
func EncodeArgs(
	reg *Registry, args wamp.List, kwargs wamp.Dict, src interface{},
) (wamp.List, wamp.Dict, error) {
	var outArgs wamp.List
	if args != nil {
		outArgs = make(wamp.List, len(args))
		for i, v := range args {
			enc, _, err := EncodeValue(reg, v, src)
			if err != nil {
				return nil, nil, err
			}
			outArgs[i] = enc
		}
	}

	var outKwargs wamp.Dict
	if kwargs != nil {
		outKwargs = make(wamp.Dict, len(kwargs))
		for k, v := range kwargs {
			enc, _, err := EncodeValue(reg, v, src)
			if err != nil {
				return nil, nil, err
			}
			outKwargs[k] = enc
		}
	}
	return outArgs, outKwargs, nil
}

// DecodeArgs is the inbound counterpart of EncodeArgs.
func DecodeArgs(
	reg *Registry, args wamp.List, kwargs wamp.Dict, dst interface{},
) (wamp.List, wamp.Dict, error) {
	var outArgs wamp.List
	if args != nil {
		outArgs = make(wamp.List, len(args))
		for i, v := range args {
			dec, _, err := DecodeValue(reg, v, dst)
			if err != nil {
				return nil, nil, err
			}
			outArgs[i] = dec
		}
	}

	var outKwargs wamp.Dict
	if kwargs != nil {
		outKwargs = make(wamp.Dict, len(kwargs))
		for k, v := range kwargs {
			dec, _, err := DecodeValue(reg, v, dst)
			if err != nil {
				return nil, nil, err
			}
			outKwargs[k] = dec
		}
	}
	return outArgs, outKwargs, nil
}

// envelopeOf detects the two-key envelope shape. Transports hand maps back as
// wamp.Dict or plain map[string]interface{} depending on the direction, so
// both are accepted.
func envelopeOf(value interface{}) (id string, wire interface{}, ok bool) {
	var m map[string]interface{}
	switch typed := value.(type) {
	case map[string]interface{}:
		m = typed
	case wamp.Dict:
		m = typed
	default:
		return "", nil, false
	}
	if len(m) != 2 {
		return "", nil, false
	}

	rawID, ok := m[EnvelopeIDKey]
	if !ok {
		return "", nil, false
	}
	wire, ok = m[EnvelopeValueKey]
	if !ok {
		return "", nil, false
	}
	id, ok = rawID.(string)
	if !ok {
		return "", nil, false
	}
	return id, wire, true
}
