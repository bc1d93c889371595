package errors

// Error codes for the tsevm compiler.
// These codes are used in error messages and documentation
// to provide consistent error identification across the toolchain.
//
// Error code ranges:
// E0100-E0199: Parser and unsupported-construct errors
// E0200-E0299: Reference resolution errors
// E0400-E0499: Contract structure errors
// E0900-E0999: External tool errors
// W0001-W0099: Warning codes

// Kind is the broad failure class of a CompilerError.
type Kind string

const (
	KindSyntax               Kind = "SyntaxError"
	KindUnsupportedConstruct Kind = "UnsupportedConstruct"
	KindUnresolvedReference  Kind = "UnresolvedReference"
	KindStructural           Kind = "StructuralError"
	KindExternalTool         Kind = "ExternalToolError"
)

const (
	// E0100: Source could not be parsed
	ErrorSyntax = "E0100"

	// E0101: Syntax node with no lowering rule
	ErrorUnsupportedConstruct = "E0101"

	// E0102: Type annotation with no IR type
	ErrorUnsupportedType = "E0102"

	// E0201: Unknown interface, call target, dialect member or extension
	ErrorUnresolvedReference = "E0201"

	// E0202: Unknown event in emit()
	ErrorUnknownEvent = "E0202"

	// E0401: Generic structural error
	ErrorStructural = "E0401"

	// E0402: throw with the wrong number of arguments
	ErrorThrowArity = "E0402"

	// E0403: Immutable property with zero or several value sources
	ErrorImmutableSource = "E0403"

	// E0404: Mapping indexed with the wrong number of keys
	ErrorMappingArity = "E0404"

	// E0405: Duplicate member or contract name
	ErrorDuplicateDeclaration = "E0405"

	// E0406: Extension cycle or call cycle
	ErrorCycle = "E0406"

	// E0407: Missing field in an event or interface literal
	ErrorMissingField = "E0407"

	// E0408: Numeric literal outside uint256
	ErrorNumericOverflow = "E0408"

	// E0901: The assembler reported an error diagnostic
	ErrorExternalTool = "E0901"

	// W0001: The assembler reported a warning diagnostic
	WarningExternalTool = "W0001"

	// W0002: Statement can never execute
	WarningUnreachableCode = "W0002"

	// W0003: Non-void method can finish without returning
	WarningMissingReturn = "W0003"

	// W0004: Local variable is never read
	WarningUnusedVariable = "W0004"
)

// GetErrorDescription returns a human-readable description of the error code
func GetErrorDescription(code string) string {
	switch code {
	case ErrorSyntax:
		return "Source text could not be parsed"
	case ErrorUnsupportedConstruct:
		return "Construct has no lowering rule in the supported subset"
	case ErrorUnsupportedType:
		return "Type annotation cannot be mapped to a contract type"
	case ErrorUnresolvedReference:
		return "Name does not resolve to a known declaration"
	case ErrorUnknownEvent:
		return "Emitted event is not declared on the contract"
	case ErrorStructural:
		return "Contract structure is invalid"
	case ErrorThrowArity:
		return "throw requires exactly one error argument"
	case ErrorImmutableSource:
		return "Immutable property needs exactly one value source"
	case ErrorMappingArity:
		return "Mapping accessed with the wrong number of keys"
	case ErrorDuplicateDeclaration:
		return "Duplicate declaration found"
	case ErrorCycle:
		return "Declarations form a cycle"
	case ErrorMissingField:
		return "Required field missing in object literal"
	case ErrorNumericOverflow:
		return "Numeric literal does not fit in 256 bits"
	case ErrorExternalTool:
		return "External assembler reported an error"
	case WarningExternalTool:
		return "External assembler reported a warning"
	case WarningUnreachableCode:
		return "Statement can never execute"
	case WarningMissingReturn:
		return "Method can finish without returning a value"
	case WarningUnusedVariable:
		return "Local variable is declared but never read"
	default:
		return "Unknown error code"
	}
}

// IsWarning returns true if the error code represents a warning rather than an error
func IsWarning(code string) bool {
	return code != "" && code[0] == 'W'
}

// GetErrorCategory returns the category of the error based on its code
func GetErrorCategory(code string) string {
	switch {
	case code == "":
		return "Unknown"
	case code[0] == 'W':
		return "Warning"
	case code >= "E0100" && code < "E0200":
		return "Parser"
	case code >= "E0200" && code < "E0300":
		return "Reference"
	case code >= "E0400" && code < "E0500":
		return "Contract"
	case code >= "E0900" && code < "E1000":
		return "External Tool"
	default:
		return "Unknown"
	}
}
