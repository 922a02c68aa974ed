package services

import (
	"github.com/edupulse/emis-api/internal/models"
	"github.com/edupulse/emis-api/internal/statemachine"
)

// Actor identifies who requests a transition. The deadline scheduler uses
// SystemActor; everything else carries a user id and role from the JWT.
type Actor struct {
	ID        uint
	Role      string
	OwnerType string // set for owner accounts only
	OwnerID   *uint
}

// SystemActor is the literal actor for deadline auto-approval
var SystemActor = Actor{ID: 0, Role: models.RoleSystem}

// IsSystem returns true for the auto-approval actor
func (a Actor) IsSystem() bool {
	return a.Role == models.RoleSystem
}

type permissionKey struct {
	role      string
	ownerType string
}

// permissionTable is the single place where (role, owner type) maps to the
// allowed actions. Schools submit their own data; sector admins submit
// sector data and review school submissions; region admins review sector
// submissions; admins and the system actor review everything.
var permissionTable = map[permissionKey][]string{
	{models.RoleSchool, models.OwnerTypeSchool}: {statemachine.ActionSubmit},

	{models.RoleSectorAdmin, models.OwnerTypeSector}: {statemachine.ActionSubmit},
	{models.RoleSectorAdmin, models.OwnerTypeSchool}: {statemachine.ActionApprove, statemachine.ActionReject, statemachine.ActionReturn},

	{models.RoleRegionAdmin, models.OwnerTypeSector}: {statemachine.ActionApprove, statemachine.ActionReject, statemachine.ActionReturn},

	{models.RoleAdmin, models.OwnerTypeSchool}: {statemachine.ActionSubmit, statemachine.ActionApprove, statemachine.ActionReject, statemachine.ActionReturn},
	{models.RoleAdmin, models.OwnerTypeSector}: {statemachine.ActionSubmit, statemachine.ActionApprove, statemachine.ActionReject, statemachine.ActionReturn},

	{models.RoleSystem, models.OwnerTypeSchool}: {statemachine.ActionApprove},
	{models.RoleSystem, models.OwnerTypeSector}: {statemachine.ActionApprove},
}

// PermittedActions returns the actions a role may perform on submissions of
// the given owner type.
func PermittedActions(role, ownerType string) []string {
	return permissionTable[permissionKey{role, ownerType}]
}

// checkPermission verifies the actor may perform the action; it is called
// once per operation inside the approval service.
func checkPermission(actor Actor, ownerType, action string) error {
	for _, allowed := range PermittedActions(actor.Role, ownerType) {
		if allowed == action {
			return nil
		}
	}
	return &PermissionError{Role: actor.Role, OwnerType: ownerType, Action: action}
}
