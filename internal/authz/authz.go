// Package authz implements the role authorization gate: a pure decision
// function from (role, action, ownership) to allow or deny. Roles form a
// closed enumeration so the gate stays exhaustive.
package authz

import "fmt"

// Role enumerates the authority levels recognized by the reservation system.
type Role string

const (
	RoleOrganizer     Role = "organizer"
	RoleApprover      Role = "approver"
	RoleAdministrator Role = "administrator"
	RoleReception     Role = "reception"
)

// ParseRole converts a stored role string into a Role.
func ParseRole(value string) (Role, error) {
	role := Role(value)
	if !role.Valid() {
		return "", fmt.Errorf("authz: unknown role %q", value)
	}
	return role, nil
}

// Valid reports whether the role is one of the recognized authority levels.
func (r Role) Valid() bool {
	switch r {
	case RoleOrganizer, RoleApprover, RoleAdministrator, RoleReception:
		return true
	}
	return false
}

// Action enumerates the operations the gate arbitrates.
type Action string

const (
	ActionCreate            Action = "create"
	ActionUpdate            Action = "update"
	ActionApprove           Action = "approve"
	ActionReject            Action = "reject"
	ActionCancel            Action = "cancel"
	ActionCheckIn           Action = "check_in"
	ActionMarkNoShow        Action = "mark_no_show"
	ActionConfirmCompletion Action = "confirm_completion"
	// ActionManageRooms covers room catalog administration: create, update,
	// and deactivate.
	ActionManageRooms Action = "manage_rooms"
)

// Authorize decides whether a caller with the given role may perform the
// action. isOwner reports whether the caller organizes the reservation being
// acted on; it is ignored for roles whose authority does not depend on
// ownership.
func Authorize(role Role, action Action, isOwner bool) bool {
	switch role {
	case RoleAdministrator:
		return true

	case RoleApprover:
		// Approvers hold override authority over reservations but never
		// perform reception duties or catalog administration.
		switch action {
		case ActionCheckIn, ActionMarkNoShow, ActionConfirmCompletion, ActionManageRooms:
			return false
		}
		return true

	case RoleOrganizer:
		switch action {
		case ActionCreate:
			return true
		case ActionUpdate, ActionCancel:
			return isOwner
		}
		return false

	case RoleReception:
		switch action {
		case ActionCheckIn, ActionMarkNoShow, ActionConfirmCompletion:
			return true
		}
		return false
	}

	return false
}
