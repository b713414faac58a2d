//revive:disable
package serialize_test

import (
	"reflect"
	"testing"

	"github.com/gammazero/nexus/v3/wamp"
	"github.com/peake100/rockyRaccoon-go/serialize"
	"github.com/stretchr/testify/suite"
)

// simplePayload is matched by exact type.
type simplePayload struct {
	A int
	B string
}

var simpleDef = &serialize.Definition{
	ID:   "test.simple",
	Type: reflect.TypeOf(simplePayload{}),
	Codec: serialize.CodecFuncs{
		Enc: func(value interface{}, src interface{}) (interface{}, error) {
			payload := value.(simplePayload)
			return map[string]interface{}{"a": payload.A, "b": payload.B}, nil
		},
		Dec: func(value interface{}, dst interface{}) (interface{}, error) {
			wire := value.(map[string]interface{})
			return simplePayload{A: wire["a"].(int), B: wire["b"].(string)}, nil
		},
	},
}

// identified advertises its definition id itself, so embedders share its
// definition.
type identified struct {
	Name string
}

func (identified) NodeSerializationID() string {
	return "test.identified"
}

func (ident identified) identityName() string {
	return ident.Name
}

// identifiedSub inherits the advertised id through embedding.
type identifiedSub struct {
	identified
	Extra int
}

var identifiedDef = &serialize.Definition{
	ID: "test.identified",
	Codec: serialize.CodecFuncs{
		Enc: func(value interface{}, src interface{}) (interface{}, error) {
			type named interface{ identityName() string }
			return value.(named).identityName(), nil
		},
		Dec: func(value interface{}, dst interface{}) (interface{}, error) {
			return identified{Name: value.(string)}, nil
		},
	},
}

type SerializeSuite struct {
	suite.Suite
}

func (suite *SerializeSuite) newRegistry() *serialize.Registry {
	reg := serialize.NewRegistry()
	suite.NoError(reg.Register(simpleDef))
	suite.NoError(reg.Register(identifiedDef))
	return reg
}

func (suite *SerializeSuite) TestEncodeDecodeByType() {
	reg := suite.newRegistry()
	value := simplePayload{A: 1, B: "two"}

	wire, enveloped, err := serialize.EncodeValue(reg, value, nil)
	suite.NoError(err)
	suite.True(enveloped)

	envelope, ok := wire.(map[string]interface{})
	suite.True(ok, "envelope is a map")
	suite.Len(envelope, 2)
	suite.Equal("test.simple", envelope[serialize.EnvelopeIDKey])
	suite.Equal(
		map[string]interface{}{"a": 1, "b": "two"},
		envelope[serialize.EnvelopeValueKey],
	)

	back, decoded, err := serialize.DecodeValue(reg, wire, nil)
	suite.NoError(err)
	suite.True(decoded)
	suite.Equal(value, back)
}

func (suite *SerializeSuite) TestEncodeByAdvertisedID() {
	reg := suite.newRegistry()

	wire, enveloped, err := serialize.EncodeValue(reg, identified{Name: "x"}, nil)
	suite.NoError(err)
	suite.True(enveloped)
	suite.Equal("test.identified", wire.(map[string]interface{})[serialize.EnvelopeIDKey])

	// Embedders share the embedded type's definition and decode to the base
	// type.
	wire, enveloped, err = serialize.EncodeValue(
		reg, identifiedSub{identified: identified{Name: "y"}, Extra: 3}, nil,
	)
	suite.NoError(err)
	suite.True(enveloped)
	suite.Equal("test.identified", wire.(map[string]interface{})[serialize.EnvelopeIDKey])

	back, decoded, err := serialize.DecodeValue(reg, wire, nil)
	suite.NoError(err)
	suite.True(decoded)
	suite.IsType(identified{}, back)
	suite.Equal(identified{Name: "y"}, back)
}

func (suite *SerializeSuite) TestPassthrough() {
	reg := suite.newRegistry()

	wire, enveloped, err := serialize.EncodeValue(reg, 42, nil)
	suite.NoError(err)
	suite.False(enveloped, "uncovered values pass through")
	suite.Equal(42, wire)

	plain := map[string]interface{}{"a": 1}
	back, decoded, err := serialize.DecodeValue(reg, plain, nil)
	suite.NoError(err)
	suite.False(decoded, "plain maps pass through")
	suite.Equal(plain, back)

	// The envelope shape is exactly the two keys; anything else is payload.
	threeKeys := map[string]interface{}{
		serialize.EnvelopeIDKey:    "test.simple",
		serialize.EnvelopeValueKey: 1,
		"extra":                    true,
	}
	back, decoded, err = serialize.DecodeValue(reg, threeKeys, nil)
	suite.NoError(err)
	suite.False(decoded)
	suite.Equal(threeKeys, back)
}

func (suite *SerializeSuite) TestDecodeUnknownID() {
	reg := suite.newRegistry()

	envelope := wamp.Dict{
		serialize.EnvelopeIDKey:    "not.really.a.serial",
		serialize.EnvelopeValueKey: nil,
	}
	_, _, err := serialize.DecodeValue(reg, envelope, nil)
	suite.Error(err)

	var serErr *serialize.SerializationError
	suite.ErrorAs(err, &serErr)
	suite.Equal("not.really.a.serial", serErr.ID)
}

func (suite *SerializeSuite) TestEncodeOnlyDefinition() {
	type oneWay struct{ V int }

	reg := serialize.NewRegistry()
	suite.NoError(reg.Register(&serialize.Definition{
		ID:   "test.oneway",
		Type: reflect.TypeOf(oneWay{}),
		Codec: serialize.CodecFuncs{
			Enc: func(value interface{}, src interface{}) (interface{}, error) {
				return value.(oneWay).V, nil
			},
		},
	}))

	wire, enveloped, err := serialize.EncodeValue(reg, oneWay{V: 7}, nil)
	suite.NoError(err)
	suite.True(enveloped)

	_, _, err = serialize.DecodeValue(reg, wire, nil)
	suite.Error(err, "decode direction is closed")
}

func (suite *SerializeSuite) TestDecodeUnderAlias() {
	type renamed struct{ V int }

	reg := serialize.NewRegistry()
	suite.NoError(reg.Register(&serialize.Definition{
		ID:      "test.renamed",
		Aliases: []string{"test.oldname"},
		Type:    reflect.TypeOf(renamed{}),
		Codec: serialize.CodecFuncs{
			Enc: func(value interface{}, src interface{}) (interface{}, error) {
				return value.(renamed).V, nil
			},
			Dec: func(value interface{}, dst interface{}) (interface{}, error) {
				return renamed{V: value.(int)}, nil
			},
		},
	}))

	wire, enveloped, err := serialize.EncodeValue(reg, renamed{V: 7}, nil)
	suite.NoError(err)
	suite.True(enveloped)
	suite.Equal(
		"test.renamed", wire.(map[string]interface{})[serialize.EnvelopeIDKey],
		"the primary id goes on the wire",
	)

	oldEnvelope := map[string]interface{}{
		serialize.EnvelopeIDKey:    "test.oldname",
		serialize.EnvelopeValueKey: 7,
	}
	back, decoded, err := serialize.DecodeValue(reg, oldEnvelope, nil)
	suite.NoError(err)
	suite.True(decoded)
	suite.Equal(renamed{V: 7}, back)
}

func (suite *SerializeSuite) TestCodecBuiltEnvelopeNotRewrapped() {
	type reference struct{}

	reg := serialize.NewRegistry()
	suite.NoError(reg.Register(&serialize.Definition{
		ID:   "test.reference",
		Type: reflect.TypeOf(reference{}),
		Codec: serialize.CodecFuncs{
			Enc: func(value interface{}, src interface{}) (interface{}, error) {
				return map[string]interface{}{
					serialize.EnvelopeIDKey:    "test.other",
					serialize.EnvelopeValueKey: "ref",
				}, nil
			},
		},
	}))

	wire, enveloped, err := serialize.EncodeValue(reg, reference{}, nil)
	suite.NoError(err)
	suite.True(enveloped)

	envelope := wire.(map[string]interface{})
	suite.Equal("test.other", envelope[serialize.EnvelopeIDKey])
	suite.Equal("ref", envelope[serialize.EnvelopeValueKey])
}

func (suite *SerializeSuite) TestRegisterRejections() {
	reg := suite.newRegistry()

	err := reg.Register(&serialize.Definition{Codec: serialize.CodecFuncs{}})
	suite.Error(err, "definition without id")

	err = reg.Register(&serialize.Definition{ID: "test.nocodec"})
	suite.Error(err, "definition without codec")

	err = reg.Register(&serialize.Definition{
		ID: "test.simple", Codec: serialize.CodecFuncs{},
	})
	suite.Error(err, "id already registered")

	err = reg.Register(&serialize.Definition{
		ID:      "test.fresh",
		Aliases: []string{"test.identified"},
		Codec:   serialize.CodecFuncs{},
	})
	suite.Error(err, "alias collides with registered id")

	err = reg.Register(&serialize.Definition{
		ID:    "test.simpletwin",
		Type:  reflect.TypeOf(simplePayload{}),
		Codec: serialize.CodecFuncs{},
	})
	suite.Error(err, "type already registered")

	suite.Panics(func() {
		reg.MustRegister(&serialize.Definition{})
	})
}

func (suite *SerializeSuite) TestEncodeDecodeArgs() {
	reg := suite.newRegistry()

	args, kwargs, err := serialize.EncodeArgs(
		reg,
		wamp.List{simplePayload{A: 1, B: "x"}, "plain"},
		wamp.Dict{"payload": simplePayload{A: 2, B: "y"}, "n": 3},
		nil,
	)
	suite.NoError(err)

	suite.Len(args, 2)
	suite.IsType(map[string]interface{}{}, args[0])
	suite.Equal("plain", args[1])
	suite.IsType(map[string]interface{}{}, kwargs["payload"])
	suite.Equal(3, kwargs["n"])

	backArgs, backKwargs, err := serialize.DecodeArgs(reg, args, kwargs, nil)
	suite.NoError(err)
	suite.Equal(simplePayload{A: 1, B: "x"}, backArgs[0])
	suite.Equal("plain", backArgs[1])
	suite.Equal(simplePayload{A: 2, B: "y"}, backKwargs["payload"])
	suite.Equal(3, backKwargs["n"])
}

func (suite *SerializeSuite) TestNilArgsStayNil() {
	reg := suite.newRegistry()

	args, kwargs, err := serialize.EncodeArgs(reg, nil, nil, nil)
	suite.NoError(err)
	suite.Nil(args)
	suite.Nil(kwargs)

	args, kwargs, err = serialize.DecodeArgs(reg, nil, nil, nil)
	suite.NoError(err)
	suite.Nil(args)
	suite.Nil(kwargs)
}

func TestSerialize(t *testing.T) {
	suite.Run(t, new(SerializeSuite))
}
