package plan

type Kind uint8

const (
	KindLeaf Kind = iota
	KindArray
	KindSlice
	KindLinked
)

var kindNames = [...]string{
	KindLeaf:   "leaf",
	KindArray:  "array",
	KindSlice:  "slice",
	KindLinked: "linked",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

func (k Kind) IsContainer() bool {
	return k != KindLeaf
}

// Resizable reports whether the element count is a runtime property.
func (k Kind) Resizable() bool {
	return k == KindSlice || k == KindLinked
}
