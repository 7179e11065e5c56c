// Package scope describes which documents a request targets and resolves
// those descriptions into store paths and queries.
package scope

import "fmt"

// Kind is an entity kind of the hierarchy.
type Kind int

// Entity kinds.
const (
	KindOwner Kind = iota
	KindDog
	KindSchedule
	KindCertificate
)

func (k Kind) String() string {
	switch k {
	case KindOwner:
		return "owner"
	case KindDog:
		return "dog"
	case KindSchedule:
		return "schedule"
	case KindCertificate:
		return "certificate"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Variant selects how many documents a Scope addresses.
type Variant int

const (
	// All addresses every instance of the kind owned by the owner.
	All Variant = iota
	// PerDog addresses every instance under one dog.
	PerDog
	// One addresses exactly one instance.
	One
)

func (v Variant) String() string {
	switch v {
	case All:
		return "all"
	case PerDog:
		return "perDog"
	case One:
		return "one"
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

// Scope is a tagged description of the documents a request targets. Build
// it with the constructors below.
type Scope struct {
	Kind     Kind
	Variant  Variant
	OwnerID  string
	DogID    string
	EntityID string
}

// DogAll addresses every dog of an owner.
func DogAll(ownerID string) Scope {
	return Scope{Kind: KindDog, Variant: All, OwnerID: ownerID}
}

// DogOne addresses one dog.
func DogOne(ownerID, dogID string) Scope {
	return Scope{Kind: KindDog, Variant: One, OwnerID: ownerID, DogID: dogID, EntityID: dogID}
}

// ScheduleAll addresses the schedules of every dog of an owner.
func ScheduleAll(ownerID string) Scope {
	return Scope{Kind: KindSchedule, Variant: All, OwnerID: ownerID}
}

// SchedulePerDog addresses the schedules of one dog.
func SchedulePerDog(ownerID, dogID string) Scope {
	return Scope{Kind: KindSchedule, Variant: PerDog, OwnerID: ownerID, DogID: dogID}
}

// ScheduleOne addresses one schedule.
func ScheduleOne(ownerID, dogID, scheduleID string) Scope {
	return Scope{Kind: KindSchedule, Variant: One, OwnerID: ownerID, DogID: dogID, EntityID: scheduleID}
}

// CertificateAll addresses the certificates of every dog of an owner.
func CertificateAll(ownerID string) Scope {
	return Scope{Kind: KindCertificate, Variant: All, OwnerID: ownerID}
}

// CertificatePerDog addresses the certificates of one dog.
func CertificatePerDog(ownerID, dogID string) Scope {
	return Scope{Kind: KindCertificate, Variant: PerDog, OwnerID: ownerID, DogID: dogID}
}

// CertificateOne addresses one certificate.
func CertificateOne(ownerID, dogID, certificateID string) Scope {
	return Scope{Kind: KindCertificate, Variant: One, OwnerID: ownerID, DogID: dogID, EntityID: certificateID}
}

// IsSingle reports whether s addresses exactly one document.
func (s Scope) IsSingle() bool { return s.Variant == One }

func (s Scope) String() string {
	switch s.Variant {
	case All:
		return fmt.Sprintf("%s.%s(owner=%s)", s.Kind, s.Variant, s.OwnerID)
	case PerDog:
		return fmt.Sprintf("%s.%s(owner=%s, dog=%s)", s.Kind, s.Variant, s.OwnerID, s.DogID)
	}
	return fmt.Sprintf("%s.%s(owner=%s, dog=%s, id=%s)", s.Kind, s.Variant, s.OwnerID, s.DogID, s.EntityID)
}
