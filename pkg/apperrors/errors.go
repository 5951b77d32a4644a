package apperrors

import "errors"

var (
	ErrSchemaUnavailable  = errors.New("schema unavailable")
	ErrEmptySchema        = errors.New("datasource has no tables")
	ErrEmptyResponse      = errors.New("model returned no SQL")
	ErrMultipleStatements = errors.New("multiple SQL statements not allowed")
	ErrUnparseable        = errors.New("statement is not a recognizable SELECT")
	ErrUnsupportedType    = errors.New("unsupported datasource type")
)
