package model

import "strings"

// Role is the access level carried in a session.  It is resolved once at
// sign-in from the member's free-text membership column.
type Role uint8

const (
    RoleMember Role = iota // ordinary club member
    RoleAdmin              // administrator with access to /admin
)

// AdminMembership is the membership value that grants RoleAdmin.  The
// comparison is case-insensitive so legacy rows such as "admin" keep working.
const AdminMembership = "Admin"

// DefaultMembership is stored when a registration leaves the tier empty.
const DefaultMembership = "Member"

// RoleFromMembership maps a membership column value to a Role.
func RoleFromMembership(membership string) Role {
    if strings.EqualFold(strings.TrimSpace(membership), AdminMembership) {
        return RoleAdmin
    }
    return RoleMember
}

// String returns the lowercase role name used in logs and events.
func (r Role) String() string {
    if r == RoleAdmin {
        return "admin"
    }
    return "member"
}

// Member represents a row in the `members` table.
//
// Fields:
//  ID           – primary key identifier.
//  FirstName    – given name; required.
//  LastName     – family name; may be empty for admin-created rows.
//  Email        – unique email address.
//  PasswordHash – bcrypt hash; empty for legacy rows that cannot sign in.
//  Address      – optional postal address.
//  Membership   – free-text tier ("Member", "Student", "Admin", ...).
//  RegisteredOn – registration date formatted YYYY-MM-DD.
type Member struct {
    ID           uint64 // members.id
    FirstName    string // members.first_name
    LastName     string // members.last_name
    Email        string // members.email
    PasswordHash string // members.password_hash (nullable)
    Address      string // members.address
    Membership   string // members.membership
    RegisteredOn string // members.registered_on
}

// DisplayName joins first and last name the way pages and exports show it.
func (m Member) DisplayName() string {
    return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// Role derives the access level from the membership column.
func (m Member) Role() Role { return RoleFromMembership(m.Membership) }
