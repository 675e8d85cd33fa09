package config

const CaseFileExt = ".yaml"

// CaseFileExtensions are all recognized case file extensions
var CaseFileExtensions = []string{".yaml", ".yml"}

// IsTestMode is set from TYPELATTICE_TEST_MODE; command output is kept
// free of colour so it can be compared verbatim.
var IsTestMode = false

// Built-in class names
const (
	ObjectClassName   = "builtins.object"
	TypeClassName     = "builtins.type"
	TupleClassName    = "builtins.tuple"
	FunctionClassName = "builtins.function"
)

// Keywords recognised in type specs
const (
	AnyKeyword   = "Any"
	VoidKeyword  = "void"
	NoneKeyword  = "None"
	ErrorKeyword = "<ERROR>"
)

// Service defaults
const (
	DefaultListenAddr  = "127.0.0.1:7457"
	DefaultServiceName = "typelattice.v1.Lattice"
	DefaultJournalPath = "typelattice.db"
)
