// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package errors

// Kind specifies the kind of error (unknown, parameter, integrity, etc).
type Kind uint32

const (
	Other Kind = iota
	Parameter
	Integrity
	Search
	Transaction
	Configuration
	Directory
	State
)

func (e Kind) String() string {
	return map[Kind]string{
		Other:         "unknown",
		Parameter:     "parameter violation",
		Integrity:     "integrity violation",
		Search:        "search issue",
		Transaction:   "db transaction issue",
		Configuration: "configuration issue",
		Directory:     "directory issue",
		State:         "state violation",
	}[e]
}

// Info contains details of the specific error code
type Info struct {
	// Kind specifies the kind of error (unknown, parameter, integrity, etc).
	Kind Kind

	// Message provides a default message for the error code
	Message string
}

// errorCodeInfo provides a map of unique Codes (IDs) to their
// corresponding Kind and a default Message.
var errorCodeInfo = map[Code]Info{
	Unknown: {
		Message: "unknown",
		Kind:    Other,
	},
	InvalidParameter: {
		Message: "invalid parameter",
		Kind:    Parameter,
	},
	InvalidFieldMask: {
		Message: "invalid field mask",
		Kind:    Parameter,
	},
	EmptyFieldMask: {
		Message: "empty field mask",
		Kind:    Parameter,
	},
	InvalidConfigValue: {
		Message: "invalid configuration value",
		Kind:    Configuration,
	},
	UnknownOption: {
		Message: "unknown configuration option",
		Kind:    Configuration,
	},
	DuplicateOption: {
		Message: "duplicate configuration option",
		Kind:    Configuration,
	},
	InvalidFilter: {
		Message: "invalid filter",
		Kind:    Parameter,
	},
	Unauthorized: {
		Message: "unauthorized",
		Kind:    State,
	},
	Forbidden: {
		Message: "forbidden",
		Kind:    State,
	},
	Conflict: {
		Message: "conflict",
		Kind:    State,
	},
	TooManyRequests: {
		Message: "too many requests",
		Kind:    State,
	},
	Internal: {
		Message: "internal error",
		Kind:    Other,
	},
	CheckConstraint: {
		Message: "constraint check failed",
		Kind:    Integrity,
	},
	NotNull: {
		Message: "must not be empty (null) violation",
		Kind:    Integrity,
	},
	NotUnique: {
		Message: "must be unique violation",
		Kind:    Integrity,
	},
	NotSpecificIntegrity: {
		Message: "Integrity violation without specific details",
		Kind:    Integrity,
	},
	MissingTable: {
		Message: "missing table",
		Kind:    Integrity,
	},
	ForeignKey: {
		Message: "foreign key violation",
		Kind:    Integrity,
	},
	StillReferenced: {
		Message: "record is still referenced",
		Kind:    Integrity,
	},
	RecordNotFound: {
		Message: "record not found",
		Kind:    Search,
	},
	MultipleRecords: {
		Message: "multiple records",
		Kind:    Search,
	},
	MigrationIntegrity: {
		Message: "db migration integrity fault",
		Kind:    Integrity,
	},
	MaxRetries: {
		Message: "too many retries",
		Kind:    Transaction,
	},
	DirectoryUnavailable: {
		Message: "directory unavailable",
		Kind:    Directory,
	},
	AuthAttemptFailed: {
		Message: "authentication attempt failed",
		Kind:    Directory,
	},
	PoolExhausted: {
		Message: "connection pool exhausted",
		Kind:    Directory,
	},
}
