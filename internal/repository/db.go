package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// VerificationCodeConstraint names the global uniqueness constraint on issued_documents.verification_code.
const VerificationCodeConstraint = "uq_issued_documents_verification_code"

// IsUniqueViolation reports whether err is a Postgres unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// IsConstraintViolation reports whether err is a unique failure on the named constraint.
func IsConstraintViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation && pqErr.Constraint == constraint
}

// whereBuilder accumulates positional conditions for dynamic filters.
type whereBuilder struct {
	conditions []string
	args       []interface{}
}

func newWhere(first string, args ...interface{}) *whereBuilder {
	return &whereBuilder{conditions: []string{first}, args: args}
}

// add appends a condition where every "?" becomes the next $n placeholder for one argument.
func (w *whereBuilder) add(condition string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conditions = append(w.conditions, strings.Replace(condition, "?", fmt.Sprintf("$%d", len(w.args)), 1))
}

func (w *whereBuilder) String() string {
	return "WHERE " + strings.Join(w.conditions, " AND ")
}

// scope matches rows of the same course or class scope; a nil ref matches only NULL.
func (w *whereBuilder) scope(column string, value *string) {
	if value == nil {
		w.conditions = append(w.conditions, column+" IS NULL")
		return
	}
	w.add(column+" = ?", *value)
}

func pageOffset(page, size int) int {
	return (page - 1) * size
}
