package model

// DependencyRequest is a single dependency edge: a key and the kind of
// access requested for it.
type DependencyRequest struct {
	Key  Key
	Kind RequestKind
}

// Request constructs an instance request for a key.
func Request(key Key) DependencyRequest {
	return DependencyRequest{Key: key, Kind: RequestInstance}
}

func (d DependencyRequest) String() string {
	if d.Kind == RequestInstance {
		return d.Key.String()
	}
	return d.Kind.String() + " " + d.Key.String()
}
