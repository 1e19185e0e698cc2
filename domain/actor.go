package domain

// Actor is the identity a query runs as. It is always passed explicitly;
// there are no ambient user singletons.
type Actor struct {
	ID            int64
	Authenticated bool
	Groups        []int64
}

// Permissions is the access projection a PermissionCalculator computes for a
// content row before it becomes a document.
type Permissions struct {
	Owner     int64
	OwnerType OwnerType
	Access    AccessLevel
}

// Guest returns the unauthenticated actor.
func Guest() Actor {
	return Actor{}
}

// CanSee reports whether the actor may see a document, mirroring the filter
// the query layer injects into the engine.
func (a Actor) CanSee(doc SearchDocument) bool {
	switch doc.AccessLevel {
	case AccessPublic:
		return true
	case AccessRegistered:
		return a.Authenticated
	case AccessPrivate:
		if !a.Authenticated {
			return false
		}
		switch doc.OwnerType {
		case OwnerUser:
			return doc.Owner == a.ID
		case OwnerGroup:
			for _, g := range a.Groups {
				if g == doc.Owner {
					return true
				}
			}
		}
	}
	return false
}
