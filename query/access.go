package query

import "hubsearch/domain"

// AccessClause builds the visibility filter for an actor:
//
//	guest         -> public only
//	authenticated -> public, registered, or private owned by the actor
//	                 directly or through one of the actor's groups
func AccessClause(actor domain.Actor) string {
	if !actor.Authenticated {
		return Eq("access_level", string(domain.AccessPublic))
	}

	clauses := []string{
		Eq("access_level", string(domain.AccessPublic)),
		Eq("access_level", string(domain.AccessRegistered)),
		and(
			Eq("access_level", string(domain.AccessPrivate)),
			Eq("owner_type", string(domain.OwnerUser)),
			EqInt("owner", actor.ID),
		),
	}
	if len(actor.Groups) > 0 {
		clauses = append(clauses, and(
			Eq("access_level", string(domain.AccessPrivate)),
			Eq("owner_type", string(domain.OwnerGroup)),
			In("owner", actor.Groups),
		))
	}
	return or(clauses...)
}
