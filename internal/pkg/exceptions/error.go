package exceptions

import (
	"errors"
	"fmt"
	"runtime"

	"konsulin-wallet-service/internal/pkg/constvars"
)

type CustomError struct {
	StatusCode    int       `json:"status_code"`
	Success       bool      `json:"success"`
	ClientMessage string    `json:"message"`
	DevMessage    string    `json:"dev_message,omitempty"`
	Location      *Location `json:"location,omitempty"`
	Kind          error     `json:"-"`
	Cause         error     `json:"-"`
}

type Location struct {
	File         string `json:"file"`
	Line         int    `json:"line"`
	FunctionName string `json:"function_name"`
}

func (e *CustomError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.DevMessage, e.Cause.Error())
	}
	return e.DevMessage
}

// Unwrap exposes both the taxonomy kind and the underlying cause to errors.Is / errors.As.
func (e *CustomError) Unwrap() []error {
	unwrapped := make([]error, 0, 2)
	if e.Kind != nil {
		unwrapped = append(unwrapped, e.Kind)
	}
	if e.Cause != nil {
		unwrapped = append(unwrapped, e.Cause)
	}
	return unwrapped
}

func BuildNewCustomError(err error, statusCode int, clientMessage, devMessage string) *CustomError {
	return build(nil, err, statusCode, clientMessage, devMessage, 3)
}

func WrapWithoutError(statusCode int, clientMessage, devMessage string) *CustomError {
	return build(nil, nil, statusCode, clientMessage, devMessage, 3)
}

func newKindError(kind, err error, statusCode int, clientMessage, devMessage string) *CustomError {
	return build(kind, err, statusCode, clientMessage, devMessage, 4)
}

func build(kind, err error, statusCode int, clientMessage, devMessage string, skip int) *CustomError {
	if kind == nil {
		var inner *CustomError
		if errors.As(err, &inner) {
			kind = inner.Kind
		}
	}

	location := getLocation(skip)
	return &CustomError{
		StatusCode:    statusCode,
		ClientMessage: clientMessage,
		DevMessage:    devMessage,
		Location:      &location,
		Kind:          kind,
		Cause:         err,
	}
}

func getLocation(skip int) Location {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return Location{
			File:         constvars.ErrFileLocationUnknown,
			Line:         0,
			FunctionName: constvars.ErrFunctionNameUnknown,
		}
	}
	function := runtime.FuncForPC(pc).Name()
	return Location{
		File:         file,
		Line:         line,
		FunctionName: function,
	}
}
