package models

import (
	"slices"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NoAuth is the registry privilege granted to every caller, authenticated or not
const NoAuth = "NoAuth"

// PrivilegeSet is one AND-set of privileges. An operation is allowed when the
// caller holds every privilege of any one set.
type PrivilegeSet struct {
	Privilege []string `bson:"Privilege" json:"Privilege"`
}

// OperationMap maps an HTTP operation to the privilege sets that allow it
type OperationMap map[string][]PrivilegeSet

// Clone returns a deep copy sharing no slices with m
func (m OperationMap) Clone() OperationMap {
	if m == nil {
		return nil
	}
	out := make(OperationMap, len(m))
	for op, sets := range m {
		copied := make([]PrivilegeSet, len(sets))
		for i, set := range sets {
			copied[i] = PrivilegeSet{Privilege: append([]string(nil), set.Privilege...)}
		}
		out[op] = copied
	}
	return out
}

// Merge adds the privilege sets of other that m does not hold yet and returns
// how many were added. Sets compare equal regardless of privilege order.
func (m OperationMap) Merge(other OperationMap) int {
	added := 0
	for _, op := range other.Operations() {
		for _, set := range other[op] {
			if m.holds(op, set) {
				continue
			}
			m[op] = append(m[op], PrivilegeSet{Privilege: append([]string(nil), set.Privilege...)})
			added++
		}
	}
	return added
}

func (m OperationMap) holds(op string, set PrivilegeSet) bool {
	want := sortedCopy(set.Privilege)
	for _, existing := range m[op] {
		if slices.Equal(sortedCopy(existing.Privilege), want) {
			return true
		}
	}
	return false
}

func sortedCopy(values []string) []string {
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}

// Operations returns the operation names in sorted order
func (m OperationMap) Operations() []string {
	ops := make([]string, 0, len(m))
	for op := range m {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// PrivilegeMapping is one entry of the PrivilegeRegistry Mappings array
type PrivilegeMapping struct {
	Entity       string       `bson:"Entity" json:"Entity"`
	OperationMap OperationMap `bson:"OperationMap" json:"OperationMap"`
}

// PrivilegeRegistry is the subset of the registry document the compiler reads
type PrivilegeRegistry struct {
	ID       string             `bson:"Id" json:"Id"`
	Name     string             `bson:"Name" json:"Name"`
	Mappings []PrivilegeMapping `bson:"Mappings" json:"Mappings"`
}

// SecurityRule is one row of the compiled privileges table. URI is an
// unanchored pattern in which every template placeholder matches exactly one
// path segment.
type SecurityRule struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	URI          string             `bson:"uri" json:"uri"`
	Entity       string             `bson:"Entity" json:"Entity"`
	OperationMap OperationMap       `bson:"OperationMap" json:"OperationMap"`
	RunID        string             `bson:"run_id" json:"run_id"`
	CompiledAt   time.Time          `bson:"compiled_at" json:"compiled_at"`
}

// SchemaDocument is one entry of the schema cache
type SchemaDocument struct {
	Source string `bson:"source" json:"source"`
	Schema string `bson:"schema" json:"schema"`
}

// CompileReport summarizes one compiler run
type CompileReport struct {
	RunID      string    `json:"run_id"`
	CompiledAt time.Time `json:"compiled_at"`
	Documents  int       `json:"documents"`
	Rules      int       `json:"rules"`
	Duplicates int       `json:"duplicates"`
	Merged     int       `json:"merged"` // rules that took privilege sets from a later mapping
	Unmapped   []string  `json:"unmapped,omitempty"`
	Policies   int       `json:"policies"`
}
