package binding

import (
	"github.com/kchobantonov/dagger/internal/model"
)

// KeyFactory derives keys from keys: unwrapping Optional and framework
// wrapped map value types, and computing the request kind implied by an
// optional value type.
type KeyFactory struct{}

// UnwrapOptional strips an Optional wrapper from the key's type. Returns
// false when the key is not optional. Any request wrapper inside the
// optional (Provider, Lazy, ...) is stripped as well, since optional
// declarations are keyed by the bare value type.
func (f *KeyFactory) UnwrapOptional(key model.Key) (model.Key, bool) {
	if !key.Type.IsOptional() {
		return model.Key{}, false
	}
	value := key.Type.Args[0]
	if value.IsFrameworkWrapper() {
		value = value.Args[0]
	}
	key.Type = value
	return key, true
}

// UnwrapMapValueType strips the framework wrapper from the value type of a
// Map<K, Wrapper<V>> key. Keys of any other shape are returned unchanged.
func (f *KeyFactory) UnwrapMapValueType(key model.Key) model.Key {
	if !key.Type.IsMap() {
		return key
	}
	value := key.Type.Args[1]
	if !value.IsFrameworkWrapper() {
		return key
	}
	key.Type = model.MapOf(key.Type.Args[0], value.Args[0])
	return key
}

// RequestKindForOptionalValue returns the request kind implied by the value
// type of an Optional key: Optional<Provider<T>> is a provider request,
// Optional<T> an instance request, and so on.
func (f *KeyFactory) RequestKindForOptionalValue(value model.TypeName) model.RequestKind {
	switch {
	case len(value.Args) != 1:
		return model.RequestInstance
	case value.Name == model.ProviderType:
		return model.RequestProvider
	case value.Name == model.LazyType:
		return model.RequestLazy
	case value.Name == model.ProducerType:
		return model.RequestProducer
	case value.Name == model.ProducedType:
		return model.RequestProduced
	case value.Name == model.FutureType:
		return model.RequestFuture
	}
	return model.RequestInstance
}
