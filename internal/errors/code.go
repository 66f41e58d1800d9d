// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package errors

// Code specifies a code for the error.
type Code uint32

// String will return the Code's Info.Message
func (c Code) String() string {
	return c.Info().Message
}

// Info will look up the Code's Info.  If the Info is not found, it will return
// Info for an Unknown Code.
func (c Code) Info() Info {
	if info, ok := errorCodeInfo[c]; ok {
		return info
	}
	return errorCodeInfo[Unknown]
}

const (
	Unknown Code = 0 // Unknown will be equal to a zero value for Codes

	// General function errors are reserved Codes 100-999
	InvalidParameter   Code = 100 // InvalidParameter represents an invalid parameter for an operation.
	InvalidFieldMask   Code = 103 // InvalidFieldMask represents an invalid field mask for an operation
	EmptyFieldMask     Code = 104 // EmptyFieldMask represents an empty field mask for an operation
	InvalidConfigValue Code = 105 // InvalidConfigValue represents a configuration value that failed its constraints
	UnknownOption      Code = 106 // UnknownOption represents a configuration option that was never registered
	DuplicateOption    Code = 107 // DuplicateOption represents an attempt to register an option twice
	InvalidFilter      Code = 108 // InvalidFilter represents a filter expression that could not be compiled

	// Codes 400-599 mirror http client and server errors
	Unauthorized    Code = 401 // Unauthorized represents a request that could not be authenticated
	Forbidden       Code = 403 // Forbidden represents a request that is not permitted for the caller
	Conflict        Code = 409 // Conflict represents a write that conflicts with existing state
	TooManyRequests Code = 429 // TooManyRequests represents a request rejected by a rate limit
	Internal        Code = 500 // Internal represents an internal error

	// DB errors are reserved Codes from 1000-1999
	CheckConstraint      Code = 1000 // CheckConstraint represents a check constraint error
	NotNull              Code = 1001 // NotNull represents a value must not be null error
	NotUnique            Code = 1002 // NotUnique represents a value must be unique error
	NotSpecificIntegrity Code = 1003 // NotSpecificIntegrity represents an integrity error that has no specific domain error code
	MissingTable         Code = 1004 // Missing table represents an undefined table error
	ForeignKey           Code = 1005 // ForeignKey represents a referential integrity error
	StillReferenced      Code = 1006 // StillReferenced represents a change blocked by rows that reference the record
	RecordNotFound       Code = 1100 // RecordNotFound represents that a record/row was not found matching the criteria
	MultipleRecords      Code = 1101 // MultipleRecords represents that multiple records/rows were found matching the criteria
	MigrationIntegrity   Code = 1102 // MigrationIntegrity represents an error with the db schema migration state
	MaxRetries           Code = 1103 // MaxRetries represents that a db Tx hit max retries allowed

	// Directory errors are reserved Codes from 2000-2999
	DirectoryUnavailable Code = 2000 // DirectoryUnavailable represents a failure to connect to the directory
	AuthAttemptFailed    Code = 2001 // AuthAttemptFailed represents a failed bind for the supplied credentials
	PoolExhausted        Code = 2002 // PoolExhausted represents a connection pool that could not supply a connection in time
)
