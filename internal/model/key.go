package model

import "strings"

// Key identifies the target of a dependency request: a type, an optional
// qualifier and an optional multibinding contribution identifier. Two keys
// are interchangeable iff their IDs are equal.
type Key struct {
	Qualifier string
	Type      TypeName
	// MultibindingContributionIdentifier distinguishes individual set/map
	// contributions that share the same contributed collection type. Empty
	// for ordinary keys.
	MultibindingContributionIdentifier string
}

// KeyOf returns an unqualified key for a type.
func KeyOf(t TypeName) Key { return Key{Type: t} }

// QualifiedKey returns a key with a qualifier annotation.
func QualifiedKey(qualifier string, t TypeName) Key {
	return Key{Qualifier: qualifier, Type: t}
}

// ID returns the canonical identity of the key, usable as a map key.
func (k Key) ID() string {
	var w strings.Builder
	if k.Qualifier != "" {
		w.WriteString("@")
		w.WriteString(k.Qualifier)
		w.WriteString(" ")
	}
	w.WriteString(k.Type.String())
	if k.MultibindingContributionIdentifier != "" {
		w.WriteString("#")
		w.WriteString(k.MultibindingContributionIdentifier)
	}
	return w.String()
}

func (k Key) String() string { return k.ID() }

func (k Key) Equal(o Key) bool { return k.ID() == o.ID() }

// WithoutMultibindingContributionIdentifier strips the contribution
// identifier, yielding the key of the collection the contribution belongs to.
func (k Key) WithoutMultibindingContributionIdentifier() Key {
	k.MultibindingContributionIdentifier = ""
	return k
}
