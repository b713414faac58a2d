package serialize

import (
	"fmt"
	"reflect"
	"sync"
)

// Envelope keys. These are stable wire names: both ends of a session, whatever
// their implementation, must agree on them.
const (
	// EnvelopeIDKey holds the definition id of an encoded value.
	EnvelopeIDKey = "__node_id__"
	// EnvelopeValueKey holds the codec output of an encoded value.
	EnvelopeValueKey = "__node_value__"
)

// Codec converts one value type to and from its envelope payload.
type Codec interface {
	// Encode turns a native value into a plainly serializable payload. src is
	// the resource on whose session the payload will travel.
	Encode(value interface{}, src interface{}) (interface{}, error)
	// Decode turns an envelope payload back into a native value. dst is the
	// resource whose session delivered the payload.
	Decode(value interface{}, dst interface{}) (interface{}, error)
}

// CodecFuncs adapts a pair of functions into a Codec. Either func may be nil,
// making the corresponding direction an error (used for encode-only ids).
type CodecFuncs struct {
	Enc func(value interface{}, src interface{}) (interface{}, error)
	Dec func(value interface{}, dst interface{}) (interface{}, error)
}

// Encode implements Codec.
func (c CodecFuncs) Encode(value interface{}, src interface{}) (interface{}, error) {
	if c.Enc == nil {
		return nil, &SerializationError{Op: "encode", Reason: "type cannot be encoded"}
	}
	return c.Enc(value, src)
}

// Decode implements Codec.
func (c CodecFuncs) Decode(value interface{}, dst interface{}) (interface{}, error) {
	if c.Dec == nil {
		return nil, &SerializationError{Op: "decode", Reason: "id cannot be decoded"}
	}
	return c.Dec(value, dst)
}

// IdentifiesSerialization is implemented by values that carry their own
// definition id. Matching through this interface covers embedders too, so a
// single definition can serve a whole family of user types.
type IdentifiesSerialization interface {
	NodeSerializationID() string
}

// Definition ties an envelope id to the codec that handles it.
type Definition struct {
	// ID is the primary envelope id written on encode.
	ID string
	// Aliases are additional ids accepted on decode.
	Aliases []string
	// Type, when non-nil, matches values of exactly this type on encode.
	// Types matched through IdentifiesSerialization leave it nil.
	Type reflect.Type
	// Codec encodes and decodes values for this definition.
	Codec Codec
}

// Registry holds the known definitions for one process side.
type Registry struct {
	lock   sync.RWMutex
	byID   map[string]*Definition
	byType map[reflect.Type]*Definition
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[string]*Definition),
		byType: make(map[reflect.Type]*Definition),
	}
}

// Register adds a definition. Registering an id (or alias) twice, or a second
// definition for the same type, is an error.
func (reg *Registry) Register(def *Definition) error {
	if def.ID == "" {
		return &SerializationError{Op: "register", Reason: "definition has no id"}
	}
	if def.Codec == nil {
		return &SerializationError{
			ID: def.ID, Op: "register", Reason: "definition has no codec",
		}
	}

	reg.lock.Lock()
	defer reg.lock.Unlock()

	ids := append([]string{def.ID}, def.Aliases...)
	for _, id := range ids {
		if _, ok := reg.byID[id]; ok {
			return &SerializationError{
				ID: id, Op: "register", Reason: "id already registered",
			}
		}
	}
	if def.Type != nil {
		if _, ok := reg.byType[def.Type]; ok {
			return &SerializationError{
				ID:     def.ID,
				Op:     "register",
				Reason: fmt.Sprintf("type %v already registered", def.Type),
			}
		}
	}

	for _, id := range ids {
		reg.byID[id] = def
	}
	if def.Type != nil {
		reg.byType[def.Type] = def
	}
	return nil
}

// MustRegister is Register, panicking on error. Meant for package init blocks.
func (reg *Registry) MustRegister(def *Definition) {
	if err := reg.Register(def); err != nil {
		panic(err)
	}
}

// DefinitionFor returns the definition that encodes value: an exact type match
// first, then the id advertised through IdentifiesSerialization.
func (reg *Registry) DefinitionFor(value interface{}) (*Definition, bool) {
	if value == nil {
		return nil, false
	}

	reg.lock.RLock()
	defer reg.lock.RUnlock()

	if def, ok := reg.byType[reflect.TypeOf(value)]; ok {
		return def, true
	}
	if ident, ok := value.(IdentifiesSerialization); ok {
		def, ok := reg.byID[ident.NodeSerializationID()]
		return def, ok
	}
	return nil, false
}

// DefinitionByID returns the definition registered under id or one of its
// aliases.
func (reg *Registry) DefinitionByID(id string) (*Definition, bool) {
	reg.lock.RLock()
	defer reg.lock.RUnlock()
	def, ok := reg.byID[id]
	return def, ok
}

// DefaultRegistry is the registry used when none is configured explicitly.
// Definitions for the node package's own types land here from its init.
var DefaultRegistry = NewRegistry()

// Register adds a definition to DefaultRegistry.
func Register(def *Definition) error {
	return DefaultRegistry.Register(def)
}

// MustRegister adds a definition to DefaultRegistry, panicking on error.
func MustRegister(def *Definition) {
	DefaultRegistry.MustRegister(def)
}
