package typing

// Kind is the store-level shape of a column. It is used to validate and compare values, never to coerce them.
type Kind string

const (
	Invalid   Kind = "invalid"
	String    Kind = "string"
	Integer   Kind = "int"
	Float     Kind = "float"
	Boolean   Kind = "bool"
	Date      Kind = "date"
	Timestamp Kind = "timestamp"
)

var validKinds = []Kind{String, Integer, Float, Boolean, Date, Timestamp}

func (k Kind) IsValid() bool {
	for _, validKind := range validKinds {
		if k == validKind {
			return true
		}
	}

	return false
}
