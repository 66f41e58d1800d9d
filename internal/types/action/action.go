// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package action

// Type defines a type for the Actions of Resources
type Type uint

const (
	Unknown      Type = 0
	List         Type = 1
	Create       Type = 2
	Update       Type = 3
	Read         Type = 4
	Delete       Type = 5
	Authenticate Type = 6
	All          Type = 7
	ReadModel    Type = 8
)

var Map = map[string]Type{
	Unknown.String():      Unknown,
	List.String():         List,
	Create.String():       Create,
	Update.String():       Update,
	Read.String():         Read,
	Delete.String():       Delete,
	Authenticate.String(): Authenticate,
	All.String():          All,
	ReadModel.String():    ReadModel,
}

func (a Type) String() string {
	return [...]string{
		"unknown",
		"list",
		"create",
		"update",
		"read",
		"delete",
		"authenticate",
		"*",
		"read-model",
	}[a]
}

// IsWrite reports whether the action mutates state.
func (a Type) IsWrite() bool {
	switch a {
	case Create, Update, Delete:
		return true
	}
	return false
}
