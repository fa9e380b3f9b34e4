package enum

import (
	"encoding/json"
)

// Permission is a screen-level capability granted to a user by the pharmacy API.
// The numeric values are the permission ids used by the API.
type Permission int

const (
	PermissionConfiguration Permission = 1
	PermissionUsers         Permission = 2
	PermissionClients       Permission = 3
	PermissionProducts      Permission = 4
	PermissionSales         Permission = 5
	PermissionSalesHistory  Permission = 6
	PermissionTypes         Permission = 7
	PermissionPresentations Permission = 8
	PermissionLaboratories  Permission = 9
)

var permissionNames = map[Permission]string{
	PermissionConfiguration: "configuration",
	PermissionUsers:         "users",
	PermissionClients:       "clients",
	PermissionProducts:      "products",
	PermissionSales:         "sales",
	PermissionSalesHistory:  "sales-history",
	PermissionTypes:         "types",
	PermissionPresentations: "presentations",
	PermissionLaboratories:  "laboratories",
}

// AllPermissions lists every known permission in id order
func AllPermissions() []Permission {
	return []Permission{
		PermissionConfiguration,
		PermissionUsers,
		PermissionClients,
		PermissionProducts,
		PermissionSales,
		PermissionSalesHistory,
		PermissionTypes,
		PermissionPresentations,
		PermissionLaboratories,
	}
}

// ParsePermissionID maps an API permission id to a Permission.
func ParsePermissionID(id int) (Permission, bool) {
	p := Permission(id)
	_, ok := permissionNames[p]
	return p, ok
}

func (p Permission) String() string {
	if name, ok := permissionNames[p]; ok {
		return name
	}
	return "unknown"
}

func (p Permission) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}
