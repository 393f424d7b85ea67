package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
)

// Short aliases for the common codes.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
)

// Residue Module Error Codes
const (
	ErrCodeUnknownResidue ErrorCode = "RES_001"
)

// Conformation Library Error Codes
const (
	ErrCodeLibraryEmpty       ErrorCode = "LIB_001"
	ErrCodeLatticeTooLarge    ErrorCode = "LIB_002"
	ErrCodeEnumerationAborted ErrorCode = "LIB_003"
	ErrCodeStructureNotFound  ErrorCode = "LIB_004"
)

// Decoy Contact Map Error Codes
const (
	ErrCodeDecoyMalformed      ErrorCode = "DECOY_001"
	ErrCodeDecoyUnreadable     ErrorCode = "DECOY_002"
	ErrCodeDecoyLengthMismatch ErrorCode = "DECOY_003"
	ErrCodeDecoyLetterMismatch ErrorCode = "DECOY_004"
)

// Energy and Thermodynamics Error Codes
const (
	ErrCodeInvalidMatrix ErrorCode = "ENERGY_001"
	ErrCodeNoEnergies    ErrorCode = "THERMO_001"
)

// Folding Error Codes
const (
	ErrCodeSequenceLength  ErrorCode = "FOLD_001"
	ErrCodeFolderNotReady  ErrorCode = "FOLD_002"
	ErrCodeDesignExhausted ErrorCode = "FOLD_003"
)

// Configuration Error Codes
const (
	ErrCodeConfigInvalid ErrorCode = "CFG_001"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeSerialization:      http.StatusBadRequest,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,

	ErrCodeUnknownResidue: http.StatusBadRequest,

	ErrCodeLibraryEmpty:       http.StatusInternalServerError,
	ErrCodeLatticeTooLarge:    http.StatusBadRequest,
	ErrCodeEnumerationAborted: http.StatusServiceUnavailable,
	ErrCodeStructureNotFound:  http.StatusNotFound,

	ErrCodeDecoyMalformed:      http.StatusUnprocessableEntity,
	ErrCodeDecoyUnreadable:     http.StatusInternalServerError,
	ErrCodeDecoyLengthMismatch: http.StatusUnprocessableEntity,
	ErrCodeDecoyLetterMismatch: http.StatusUnprocessableEntity,

	ErrCodeInvalidMatrix: http.StatusUnprocessableEntity,
	ErrCodeNoEnergies:    http.StatusInternalServerError,

	ErrCodeSequenceLength:  http.StatusBadRequest,
	ErrCodeFolderNotReady:  http.StatusServiceUnavailable,
	ErrCodeDesignExhausted: http.StatusUnprocessableEntity,

	ErrCodeConfigInvalid: http.StatusInternalServerError,
}

// ErrorCodeMessage maps error codes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",

	ErrCodeUnknownResidue: "unknown residue letter",

	ErrCodeLibraryEmpty:       "conformation library is empty",
	ErrCodeLatticeTooLarge:    "lattice side out of range",
	ErrCodeEnumerationAborted: "lattice enumeration aborted",
	ErrCodeStructureNotFound:  "structure not found",

	ErrCodeDecoyMalformed:      "malformed contact map",
	ErrCodeDecoyUnreadable:     "contact map unreadable",
	ErrCodeDecoyLengthMismatch: "contact map length mismatch",
	ErrCodeDecoyLetterMismatch: "contact map residue mismatch",

	ErrCodeInvalidMatrix: "invalid contact energy matrix",
	ErrCodeNoEnergies:    "no structure energies to evaluate",

	ErrCodeSequenceLength:  "sequence length does not match library",
	ErrCodeFolderNotReady:  "folder not ready",
	ErrCodeDesignExhausted: "no sequence found within the attempt budget",

	ErrCodeConfigInvalid: "invalid configuration",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 1 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
