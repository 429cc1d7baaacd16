// Package perm defines the closed catalogue of fine-grained permissions.
// The legal set is fixed at compile time; an unrecognized value is never
// persisted as valid.
package perm

import "sort"

// Permission is one capability from the closed catalogue. Values are grouped
// in reserved numeric bands per resource family.
type Permission int

// Equipment family (1xx).
const (
	EquipmentList      Permission = 100
	EquipmentCreate    Permission = 101
	EquipmentUpdate    Permission = 102
	EquipmentDelete    Permission = 103
	EquipmentAuthorize Permission = 110
)

// Card family (2xx).
const (
	CardList    Permission = 200
	CardListOwn Permission = 201
	CardCreate  Permission = 202
	CardRead    Permission = 203
	CardDelete  Permission = 204
)

// User family (3xx).
const (
	UserList   Permission = 300
	UserRead   Permission = 301
	UserCreate Permission = 302
	UserUpdate Permission = 303
	UserDelete Permission = 304
)

// Role family (4xx).
const (
	RoleList   Permission = 400
	RoleCreate Permission = 401
	RoleUpdate Permission = 402
	RoleDelete Permission = 403
)

// API key family (5xx).
const (
	APIKeyList   Permission = 500
	APIKeyCreate Permission = 501
	APIKeyUpdate Permission = 502
	APIKeyDelete Permission = 503
)

// Charge family (6xx).
const (
	ChargeList    Permission = 600
	ChargeListOwn Permission = 601
	ChargeCreate  Permission = 602
	ChargeUpdate  Permission = 603
	ChargeDelete  Permission = 604
)

// Payment family (7xx).
const (
	PaymentList    Permission = 700
	PaymentListOwn Permission = 701
	PaymentCreate  Permission = 702
	PaymentDelete  Permission = 703
)

// Location family (8xx).
const (
	LocationList   Permission = 800
	LocationCreate Permission = 801
	LocationUpdate Permission = 802
	LocationDelete Permission = 803
)

// Log family (9xx).
const (
	LogList   Permission = 900
	LogCreate Permission = 901
)

var catalogue = []Permission{
	EquipmentList, EquipmentCreate, EquipmentUpdate, EquipmentDelete, EquipmentAuthorize,
	CardList, CardListOwn, CardCreate, CardRead, CardDelete,
	UserList, UserRead, UserCreate, UserUpdate, UserDelete,
	RoleList, RoleCreate, RoleUpdate, RoleDelete,
	APIKeyList, APIKeyCreate, APIKeyUpdate, APIKeyDelete,
	ChargeList, ChargeListOwn, ChargeCreate, ChargeUpdate, ChargeDelete,
	PaymentList, PaymentListOwn, PaymentCreate, PaymentDelete,
	LocationList, LocationCreate, LocationUpdate, LocationDelete,
	LogList, LogCreate,
}

var valid = func() map[Permission]struct{} {
	m := make(map[Permission]struct{}, len(catalogue))
	for _, p := range catalogue {
		m[p] = struct{}{}
	}
	return m
}()

// All returns every member of the catalogue in ascending order.
func All() []Permission {
	out := make([]Permission, len(catalogue))
	copy(out, catalogue)
	return out
}

// Valid reports whether p is a member of the catalogue.
func Valid(p Permission) bool {
	_, ok := valid[p]
	return ok
}

// Set is an unordered collection of permissions.
type Set map[Permission]struct{}

// NewSet builds a Set from the given members.
func NewSet(perms ...Permission) Set {
	s := make(Set, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Set) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Values returns the members in ascending order.
func (s Set) Values() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns a copy of the set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}
