// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package errors

// IsUniqueError returns a boolean indicating whether the error is known to
// report a unique constraint violation.
func IsUniqueError(err error) bool {
	return hasCode(err, NotUnique)
}

// IsCheckConstraintError returns a boolean indicating whether the error is
// known to report a check constraint violation.
func IsCheckConstraintError(err error) bool {
	return hasCode(err, CheckConstraint)
}

// IsNotNullError returns a boolean indicating whether the error is known
// to report a not-null constraint violation.
func IsNotNullError(err error) bool {
	return hasCode(err, NotNull)
}

// IsForeignKeyError returns a boolean indicating whether the error is known
// to report a foreign key violation.
func IsForeignKeyError(err error) bool {
	return hasCode(err, ForeignKey)
}

// IsMissingTableError returns a boolean indicating whether the error is known
// to report a undefined/missing table violation.
func IsMissingTableError(err error) bool {
	return hasCode(err, MissingTable)
}

// IsNotFoundError returns a boolean indicating whether the error is known to
// report a not found violation.
func IsNotFoundError(err error) bool {
	return hasCode(err, RecordNotFound)
}

// IsConflictError returns a boolean indicating whether the error is known to
// report a pre-conditional check violation or an aborted transaction.
func IsConflictError(err error) bool {
	return hasCode(err, Conflict)
}

// hasCode checks the domain error first and then falls back to converting
// driver errors.
func hasCode(err error, c Code) bool {
	if err == nil {
		return false
	}
	var domainErr *Err
	if As(err, &domainErr) && domainErr.Code == c {
		return true
	}
	if converted := Convert(err); converted != nil && converted.Code == c {
		return true
	}
	return false
}
