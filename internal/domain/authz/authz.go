// Package authz holds the single ownership predicate that gates every mutating operation.
package authz

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/localpro-market/service-booking/internal/platform/auth"
	"github.com/localpro-market/service-booking/internal/platform/domain"
)

// Actor is an already-authenticated principal.
type Actor struct {
	UserID uuid.UUID
	Role   auth.Role
}

// Client builds a client actor.
func Client(id uuid.UUID) Actor { return Actor{UserID: id, Role: auth.RoleClient} }

// Provider builds a provider actor.
func Provider(id uuid.UUID) Actor { return Actor{UserID: id, Role: auth.RoleProvider} }

// Admin builds an admin actor.
func Admin(id uuid.UUID) Actor { return Actor{UserID: id, Role: auth.RoleAdmin} }

// IsAdmin reports whether the actor is a platform administrator.
func (a Actor) IsAdmin() bool { return a.Role == auth.RoleAdmin }

// Relation names the party reference on a resource that an operation is gated on.
type Relation string

const (
	RelationClient   Relation = "client"
	RelationProvider Relation = "provider"
)

// Role returns the actor role that can stand in this relation.
func (r Relation) Role() auth.Role {
	if r == RelationProvider {
		return auth.RoleProvider
	}
	return auth.RoleClient
}

// Resource is an entity carrying client and/or provider references.
type Resource interface {
	ID() uuid.UUID
	PartyID(rel Relation) (uuid.UUID, bool)
}

// Require checks that actor is the party referenced by rel on res.
//
// An actor whose role cannot stand in the relation at all gets NotFound so the
// resource's existence is not disclosed; an actor of the right role who is not
// the referenced party gets Forbidden.
func Require(actor Actor, entity string, res Resource, rel Relation) error {
	partyID, ok := res.PartyID(rel)
	if !ok || actor.Role != rel.Role() {
		return domain.NewNotFoundError(entity, res.ID().String())
	}
	if partyID != actor.UserID {
		return domain.NewForbiddenError(fmt.Sprintf("%s does not belong to this %s", strings.ToLower(entity), rel))
	}
	return nil
}

// RequireParty passes when actor stands in any of the given relations. Admins always pass.
func RequireParty(actor Actor, entity string, res Resource, rels ...Relation) error {
	if actor.IsAdmin() {
		return nil
	}
	var firstErr error
	for _, rel := range rels {
		err := Require(actor, entity, res, rel)
		if err == nil {
			return nil
		}
		// Forbidden is more specific than NotFound: the actor had the right role.
		if firstErr == nil || domain.IsCode(err, domain.CodeForbidden) {
			firstErr = err
		}
	}
	if firstErr == nil {
		return domain.NewNotFoundError(entity, res.ID().String())
	}
	return firstErr
}
