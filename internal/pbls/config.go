package pbls

// Config holds the small set of knobs the server runs with, in the style
// of buflsp's ConfigBreakingStrategy keys. It is fixed when Serve is
// called (cmd/pbls builds it from command-line flags); the server does not
// read the initialize request's rootUri or InitializationOptions, and does
// not handle workspace/didChangeConfiguration.
type Config struct {
	// Roots is the ordered list of search-root directories imports are
	// resolved against. The first one doubles as the external compiler's
	// working directory.
	Roots []string

	// CompilerPath is the protoc-compatible binary invoked by the
	// Diagnostics Bridge. Empty defaults to "protoc" on PATH.
	CompilerPath string

	// WatchRoots enables the fsnotify-based freshness optimization
	// described in SPEC_FULL.md's Workspace supplement. Off by default:
	// it is purely an optimization, never required for correctness.
	WatchRoots bool
}

// wellKnownOptionNames is the closed set of option names offered by Option
// completion, per spec.md §6.
var wellKnownOptionNames = []string{
	"cc_enable_arenas", "cc_generic_services", "csharp_namespace", "deprecated",
	"features", "go_package", "java_generate_equals_and_hash",
	"java_generic_services", "java_multiple_files", "java_outer_classname",
	"java_package", "java_string_check_utf8", "objc_class_prefix",
	"optimize_for", "php_class_prefix", "php_metadata_namespace",
	"php_namespace", "py_generic_services", "ruby_package", "swift_prefix",
}

// protoPrimitiveTypes is the Proto primitive set offered in type
// completion, per spec.md §6.
var protoPrimitiveTypes = []string{
	"bool", "bytes", "double", "fixed32", "fixed64", "float", "int32",
	"int64", "sfixed32", "sfixed64", "sint32", "sint64", "string",
	"uint32", "uint64",
}

// protoKeywordSet is the Proto keyword set offered in type completion
// (appended after symbols for a Message completion context), per
// spec.md §6. It is distinct from — and larger than — the four-word
// keyword set offered for a bare top-level CompletionKeyword context.
var protoKeywordSet = []string{
	"enum", "extend", "import", "message", "oneof", "option", "optional",
	"package", "repeated", "reserved", "returns", "rpc", "service",
	"stream", "map",
}
