package services

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"redfish-modelgen/internal/security/models"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	mongodbadapter "github.com/casbin/mongodb-adapter/v3"
	"go.mongodb.org/mongo-driver/mongo"
)

// privilegeSeparator joins the members of one privilege AND-set into a
// single policy field
const privilegeSeparator = "+"

const authorizerModel = `
[request_definition]
r = privs, uri, op

[policy_definition]
p = set, uri, op

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = regexMatch(r.uri, p.uri) && r.op == p.op && hasPrivileges(r.privs, p.set)
`

// Authorizer answers whether a holder of a set of privileges may perform an
// operation on a URI under the compiled rules
type Authorizer struct {
	enforcer *casbin.Enforcer
}

// NewAuthorizer builds an in-memory enforcer holding one policy per rule,
// operation and privilege set
func NewAuthorizer(rules []models.SecurityRule) (*Authorizer, error) {
	m, err := model.NewModelFromString(authorizerModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse authorizer model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create Casbin enforcer: %w", err)
	}
	enforcer.AddFunction("hasPrivileges", hasPrivilegesFunc)

	if policies := Policies(rules); len(policies) > 0 {
		if _, err := enforcer.AddPolicies(policies); err != nil {
			return nil, fmt.Errorf("failed to add policies: %w", err)
		}
	}
	return &Authorizer{enforcer: enforcer}, nil
}

// Policies flattens rules into policy rows (set, anchored uri, operation).
// Rows are deduplicated, since casbin rejects a batch holding the same row
// twice.
func Policies(rules []models.SecurityRule) [][]string {
	seen := make(map[string]struct{})
	var policies [][]string
	for _, rule := range rules {
		uri := Anchor(rule.URI)
		for _, op := range rule.OperationMap.Operations() {
			for _, set := range rule.OperationMap[op] {
				row := []string{joinPrivileges(set.Privilege), uri, op}
				key := strings.Join(row, "\x00")
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				policies = append(policies, row)
			}
		}
	}
	return policies
}

// Allowed reports whether privileges satisfy the rules for operation on uri
func (a *Authorizer) Allowed(privileges []string, uri, operation string) (bool, error) {
	allowed, err := a.enforcer.Enforce(joinPrivileges(privileges), uri, operation)
	if err != nil {
		return false, fmt.Errorf("failed to check %s %s: %w", operation, uri, err)
	}
	return allowed, nil
}

// PolicyCount is the number of policy rows held by the enforcer
func (a *Authorizer) PolicyCount() (int, error) {
	policies, err := a.enforcer.GetPolicy()
	if err != nil {
		return 0, err
	}
	return len(policies), nil
}

// Persist replaces the policies stored in the given collection with the
// enforcer's current policies
func (a *Authorizer) Persist(client *mongo.Client, database, collection string) error {
	adapter, err := mongodbadapter.NewAdapterByDB(client, &mongodbadapter.AdapterConfig{
		DatabaseName:   database,
		CollectionName: collection,
	})
	if err != nil {
		return fmt.Errorf("failed to create Casbin MongoDB adapter: %w", err)
	}
	if err := adapter.SavePolicy(a.enforcer.GetModel()); err != nil {
		return fmt.Errorf("failed to save policies: %w", err)
	}

	slog.Info("Security policies persisted",
		"adapter", "mongodb",
		"collection", collection)
	return nil
}

func joinPrivileges(privileges []string) string {
	sorted := append([]string(nil), privileges...)
	sort.Strings(sorted)
	return strings.Join(sorted, privilegeSeparator)
}

func splitPrivileges(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, privilegeSeparator)
}

// hasPrivilegesFunc is the matcher function: the held set (first argument)
// must contain every privilege of the required set (second argument). A set
// naming NoAuth is satisfied by anyone.
func hasPrivilegesFunc(args ...interface{}) (interface{}, error) {
	if len(args) != 2 {
		return false, fmt.Errorf("hasPrivileges: expected 2 arguments, got %d", len(args))
	}
	held, ok1 := args[0].(string)
	required, ok2 := args[1].(string)
	if !ok1 || !ok2 {
		return false, fmt.Errorf("hasPrivileges: arguments must be strings")
	}
	return HasPrivileges(splitPrivileges(held), splitPrivileges(required)), nil
}

// HasPrivileges reports whether held covers every privilege of required
func HasPrivileges(held, required []string) bool {
	have := make(map[string]struct{}, len(held))
	for _, p := range held {
		have[p] = struct{}{}
	}
	for _, p := range required {
		if p == models.NoAuth {
			return true
		}
	}
	for _, p := range required {
		if _, ok := have[p]; !ok {
			return false
		}
	}
	return true
}
