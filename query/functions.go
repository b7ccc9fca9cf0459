package query

// FunctionMetadata describes one entry of the intrinsic function catalog
// (spec.md §4.3): which families it may belong to (a name like "Contains"
// or "Min"/"Max" is overloaded across String/Math/Sequence families,
// disambiguated at evaluation time by whether a receiver is present and
// by the receiver's runtime kind — see eval.dispatchFunction).
//
// The registry's job is narrower than full arity checking: it lets the
// parser fail fast ("NotSupported") on a name nothing in the catalog
// recognizes, mirroring the teacher's datalog/query/function_registry.go
// FunctionRegistry/FunctionMetadata/DefaultRegistry shape and its stated
// intent: "fail at query planning time rather than runtime."
type FunctionMetadata struct {
	Name        string
	Families    []string // "string", "math", "sequence", "datetime"
	Description string
}

// FunctionRegistry is the name -> metadata catalog.
type FunctionRegistry struct {
	functions map[string]FunctionMetadata
}

// NewFunctionRegistry builds the §4.3 catalog.
func NewFunctionRegistry() *FunctionRegistry {
	r := &FunctionRegistry{functions: make(map[string]FunctionMetadata)}

	reg := func(name string, families ...string) {
		r.Register(FunctionMetadata{Name: name, Families: families})
	}

	reg("Contains", "string", "sequence")
	reg("StartsWith", "string")
	reg("EndsWith", "string")
	reg("ToLower", "string")
	reg("ToUpper", "string")
	reg("Trim", "string")
	reg("Substring", "string")
	reg("Replace", "string")

	reg("Abs", "math")
	reg("Ceiling", "math")
	reg("Floor", "math")
	reg("Sqrt", "math")
	reg("Round", "math")
	reg("Min", "math", "sequence")
	reg("Max", "math", "sequence")
	reg("Pow", "math")

	reg("Count", "sequence")
	reg("Sum", "sequence")
	reg("Average", "sequence")

	reg("AddDays", "datetime")
	reg("AddHours", "datetime")
	reg("AddMinutes", "datetime")
	reg("AddSeconds", "datetime")
	reg("AddMonths", "datetime")
	reg("AddYears", "datetime")
	reg("ToString", "datetime")

	return r
}

// DefaultRegistry is the package-level catalog singleton, following the
// teacher's DefaultRegistry-at-package-load pattern.
var DefaultRegistry = NewFunctionRegistry()

// Register adds or replaces a catalog entry.
func (r *FunctionRegistry) Register(m FunctionMetadata) {
	r.functions[m.Name] = m
}

// Lookup returns a function's metadata, or false if the name is not in
// the catalog (spec.md §4.2 "any unknown name raises NotSupported").
func (r *FunctionRegistry) Lookup(name string) (FunctionMetadata, bool) {
	m, ok := r.functions[name]
	return m, ok
}

// DateTimeMembers is the allowlist of Member names valid on a date-time
// value (spec.md §4.3 "DateTime (member)"); any other member name on a
// date-time evaluates to null rather than erroring.
var DateTimeMembers = map[string]bool{
	"Year": true, "Month": true, "Day": true, "Hour": true,
	"Minute": true, "Second": true, "Date": true, "DayOfWeek": true,
}
