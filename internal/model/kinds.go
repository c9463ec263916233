package model

// RequestKind describes how a dependency is requested.
type RequestKind int

const (
	RequestInstance RequestKind = iota
	RequestProvider
	RequestLazy
	RequestProducer
	RequestProduced
	RequestFuture
	RequestMembersInjection
)

var requestKindNames = map[RequestKind]string{
	RequestInstance:         "instance",
	RequestProvider:         "provider",
	RequestLazy:             "lazy",
	RequestProducer:         "producer",
	RequestProduced:         "produced",
	RequestFuture:           "future",
	RequestMembersInjection: "members-injection",
}

func (k RequestKind) String() string { return requestKindNames[k] }

// BindingKind describes how a binding satisfies its key.
type BindingKind int

const (
	BindingInjection BindingKind = iota
	BindingAssistedInjection
	BindingAssistedFactory
	BindingProvision
	BindingProduction
	BindingDelegate
	BindingMultiboundSet
	BindingMultiboundMap
	BindingOptional
	BindingSubcomponentCreator
	BindingMembersInjector
	BindingComponent
	BindingComponentProvision
	BindingComponentDependency
	BindingBoundInstance
	BindingUnresolvedDelegate
	BindingMembersInjection
)

var bindingKindNames = map[BindingKind]string{
	BindingInjection:           "injection",
	BindingAssistedInjection:   "assisted-injection",
	BindingAssistedFactory:     "assisted-factory",
	BindingProvision:           "provision",
	BindingProduction:          "production",
	BindingDelegate:            "delegate",
	BindingMultiboundSet:       "multibound-set",
	BindingMultiboundMap:       "multibound-map",
	BindingOptional:            "optional",
	BindingSubcomponentCreator: "subcomponent-creator",
	BindingMembersInjector:     "members-injector",
	BindingComponent:           "component",
	BindingComponentProvision:  "component-provision",
	BindingComponentDependency: "component-dependency",
	BindingBoundInstance:       "bound-instance",
	BindingUnresolvedDelegate:  "unresolved-delegate",
	BindingMembersInjection:    "members-injection",
}

func (k BindingKind) String() string { return bindingKindNames[k] }
