package prim

import "fmt"

// ICmpPred is an integer comparison predicate. The spelling stored in
// the predicate attribute is the canonical one returned by String.
type ICmpPred uint8

const (
	IPredInvalid ICmpPred = iota
	IPredEq
	IPredNe
	IPredSlt
	IPredSle
	IPredSgt
	IPredSge
	IPredUlt
	IPredUle
	IPredUgt
	IPredUge
)

var icmpNames = map[ICmpPred]string{
	IPredEq:  "eq",
	IPredNe:  "ne",
	IPredSlt: "slt",
	IPredSle: "sle",
	IPredSgt: "sgt",
	IPredSge: "sge",
	IPredUlt: "ult",
	IPredUle: "ule",
	IPredUgt: "ugt",
	IPredUge: "uge",
}

func (p ICmpPred) String() string {
	if s, ok := icmpNames[p]; ok {
		return s
	}
	return "invalid"
}

// ParseICmpPred resolves a canonical predicate spelling.
func ParseICmpPred(s string) (ICmpPred, error) {
	for p, name := range icmpNames {
		if name == s {
			return p, nil
		}
	}
	return IPredInvalid, fmt.Errorf("unknown icmp predicate %q", s)
}

// FCmpPred is a float comparison predicate. Ordered predicates ("o"
// prefix) are false when either side is NaN; unordered ("u" prefix) are
// true.
type FCmpPred uint8

const (
	FPredInvalid FCmpPred = iota
	FPredOeq
	FPredOgt
	FPredOge
	FPredOlt
	FPredOle
	FPredOne
	FPredUeq
	FPredUgt
	FPredUge
	FPredUlt
	FPredUle
	FPredUne
)

var fcmpNames = map[FCmpPred]string{
	FPredOeq: "oeq",
	FPredOgt: "ogt",
	FPredOge: "oge",
	FPredOlt: "olt",
	FPredOle: "ole",
	FPredOne: "one",
	FPredUeq: "ueq",
	FPredUgt: "ugt",
	FPredUge: "uge",
	FPredUlt: "ult",
	FPredUle: "ule",
	FPredUne: "une",
}

func (p FCmpPred) String() string {
	if s, ok := fcmpNames[p]; ok {
		return s
	}
	return "invalid"
}

// ParseFCmpPred resolves a canonical predicate spelling.
func ParseFCmpPred(s string) (FCmpPred, error) {
	for p, name := range fcmpNames {
		if name == s {
			return p, nil
		}
	}
	return FPredInvalid, fmt.Errorf("unknown fcmp predicate %q", s)
}
