// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

// Package errors provides coded, structured errors for the triple store.
// Codes are dotted paths ("store.triple.not_found") whose last segment
// classifies the failure; callers use the Is* helpers rather than matching
// codes directly.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeStoreTripleNotFound      Code = "store.triple.not_found"
	CodeStoreTripleConflict      Code = "store.triple.conflict"
	CodeStoreGraphNotFound       Code = "store.graph.not_found"
	CodeStoreGraphConflict       Code = "store.graph.conflict"
	CodeStoreTenantInvalid       Code = "store.tenant.invalid_input"
	CodeStoreTripleInvalid       Code = "store.triple.invalid_input"
	CodeStoreRelationInvalid     Code = "store.relation.invalid_input"
	CodeStoreEntityInvalid       Code = "store.entity.invalid_input"
	CodeStoreQueryInvalid        Code = "store.query.invalid_input"
	CodeStoreBackendUnsupported  Code = "store.backend.unsupported"
	CodeStoreDatabaseFailure     Code = "store.database.failure"
	CodeStoreClosed              Code = "store.closed"
	CodeStoreSparqlUnsupported   Code = "store.sparql.unsupported"
	CodeStoreSparqlTimeout       Code = "store.sparql.timeout"
	CodeStoreSparqlFailure       Code = "store.sparql.failure"
	CodeStorePersistenceFailure  Code = "store.persistence.failure"
	CodeVersionNotFound          Code = "store.version.not_found"
	CodeVersionInvalid           Code = "store.version.invalid_input"
	CodeVersionRecordFailure     Code = "store.version.record.failure"
	CodeSnapshotNotFound         Code = "store.snapshot.not_found"
	CodeSnapshotInvalid          Code = "store.snapshot.invalid_input"
	CodeProvenanceTrackerFailure Code = "provenance.tracker.failure"

	CodeConfigReadFailure   Code = "config.load.read.failure"
	CodeConfigInvalidValue  Code = "config.validate.invalid_value"
	CodeConfigInvalidFormat Code = "config.parse.invalid_format"

	CodeInternalFailure Code = "internal.failure"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldTenantID(value string) Attr {
	return Field("tenant_id", value)
}

func FieldTripleID(value string) Attr {
	return Field("triple_id", value)
}

func FieldGraphURI(value string) Attr {
	return Field("graph_uri", value)
}

func FieldVersion(value int) Attr {
	return Field("version", value)
}

func FieldSnapshot(value string) Attr {
	return Field("snapshot", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

// With adds structured fields to an existing error chain.
func With(err error, fields ...Attr) error {
	if err == nil {
		return nil
	}

	code := CodeOf(err)
	if code == "" {
		code = CodeInternalFailure
	}

	return oops.Code(code).With(flatten(fields)...).Wrap(err)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsConflict(err error) bool {
	return reason(CodeOf(err)) == "conflict"
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" || r == "invalid_format"
}

func IsUnsupported(err error) bool {
	return reason(CodeOf(err)) == "unsupported"
}

func IsTimeout(err error) bool {
	return reason(CodeOf(err)) == "timeout"
}

func Join(errs ...error) error {
	return oops.Code(CodeInternalFailure).Wrap(stderrors.Join(errs...))
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
