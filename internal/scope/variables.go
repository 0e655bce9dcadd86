package scope

// VarType classifies a schema path by what it may be used for.
type VarType string

const (
	// VarIdentifier is a non-boolean key/subkey pair usable in interpolations.
	VarIdentifier VarType = "identifier"
	// VarBoolean is a boolean key/subkey pair usable in interpolations and conditions.
	VarBoolean VarType = "boolean"
	// VarArray is a top-level key usable in repeats.
	VarArray VarType = "array"
)

// Variable is one path a schema makes available at some nesting level.
type Variable struct {
	Key    string  `json:"key" yaml:"key"`
	Subkey string  `json:"subkey,omitempty" yaml:"subkey,omitempty"`
	Type   VarType `json:"type" yaml:"type"`
}

// Identifier returns the "key subkey" form used inside brackets.
func (v Variable) Identifier() string {
	if v.Type == VarArray {
		return v.Key
	}
	return v.Key + " " + v.Subkey
}

// Variables lists the paths described by schema, keys and subkeys sorted.
// Top-level values that are neither arrays nor objects describe nothing.
func Variables(schema Scope) []Variable {
	var vars []Variable
	for _, key := range schema.Keys() {
		val := schema[key]
		if _, ok := AsArray(val); ok {
			vars = append(vars, Variable{Key: key, Type: VarArray})
			continue
		}
		obj, ok := AsObject(val)
		if !ok {
			continue
		}
		for _, subkey := range SortedKeys(obj) {
			if _, isBool := obj[subkey].(bool); isBool {
				vars = append(vars, Variable{Key: key, Subkey: subkey, Type: VarBoolean})
			} else {
				vars = append(vars, Variable{Key: key, Subkey: subkey, Type: VarIdentifier})
			}
		}
	}
	return vars
}

// Identifiers lists every non-array "key subkey" pair of schema. Booleans are
// valid identifiers too.
func Identifiers(schema Scope) []string {
	var ids []string
	for _, v := range Variables(schema) {
		if v.Type == VarArray {
			continue
		}
		ids = append(ids, v.Identifier())
	}
	return ids
}

// IsValidIdentifier reports whether id is one of identifiers.
func IsValidIdentifier(identifiers []string, id string) bool {
	for _, candidate := range identifiers {
		if candidate == id {
			return true
		}
	}
	return false
}
