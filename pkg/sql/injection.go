package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult describes an injection pattern detected in a
// parameter value.
type InjectionCheckResult struct {
	IsSQLi      bool   // True if SQL injection pattern detected
	Fingerprint string // libinjection fingerprint of the detected pattern
	Index       int    // Position of the parameter in the params slice
	Value       any    // The value that was checked
}

// CheckParameterForInjection runs libinjection against one positional
// parameter value. Only strings are checked; numbers and booleans cannot
// carry injection payloads and return nil.
func CheckParameterForInjection(index int, value any) *InjectionCheckResult {
	strValue, ok := value.(string)
	if !ok {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(strValue)
	if !isSQLi {
		return nil
	}

	return &InjectionCheckResult{
		IsSQLi:      true,
		Fingerprint: string(fingerprint),
		Index:       index,
		Value:       value,
	}
}

// CheckAllParameters screens every positional parameter, returning one
// result per value that tripped the detector. Parameters arrive from
// outside the engine (MCP tool calls), so they are screened before binding.
func CheckAllParameters(params []any) []*InjectionCheckResult {
	var results []*InjectionCheckResult
	for i, value := range params {
		if result := CheckParameterForInjection(i, value); result != nil {
			results = append(results, result)
		}
	}
	return results
}
