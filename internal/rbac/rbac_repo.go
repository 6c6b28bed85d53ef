package rbac

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type Repository interface {
	GetRoleInheritance() ([]RoleInheritanceRow, error)
	GetRolePermissions() ([]RolePermissionRow, error)
}

type RoleInheritanceRow struct {
	RoleID   string
	ParentID string
}

type RolePermissionRow struct {
	RoleID   string
	Resource string
	Action   string
}

// Policy is the YAML policy document:
//
//	version: 1
//	roles:
//	  hr:
//	    permissions: ["payslip:read", "payslip:send"]
//	  admin:
//	    inherits: ["hr"]
//	    permissions: ["payslip:delete"]
type Policy struct {
	Version int                   `yaml:"version"`
	Roles   map[string]RolePolicy `yaml:"roles"`
}

type RolePolicy struct {
	Inherits    []string `yaml:"inherits"`
	Permissions []string `yaml:"permissions"`
}

// DefaultPolicy is used when no policy file is present.
func DefaultPolicy() Policy {
	return Policy{
		Version: 1,
		Roles: map[string]RolePolicy{
			"viewer": {
				Permissions: []string{"payslip:read"},
			},
			"hr": {
				Inherits:    []string{"viewer"},
				Permissions: []string{"payslip:create", "payslip:update", "payslip:send", "payslip:download"},
			},
			"admin": {
				Inherits:    []string{"hr"},
				Permissions: []string{"payslip:delete", "payslip:send_all", "rbac:read"},
			},
		},
	}
}

func ParsePolicyYAML(b []byte) (Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Policy{}, err
	}
	if p.Version != 1 {
		return Policy{}, errors.New("rbac policy: unsupported version")
	}
	if len(p.Roles) == 0 {
		return Policy{}, errors.New("rbac policy: missing roles")
	}
	for role, rp := range p.Roles {
		for _, perm := range rp.Permissions {
			if _, _, err := splitPermission(perm); err != nil {
				return Policy{}, fmt.Errorf("rbac policy: role %s: %w", role, err)
			}
		}
		for _, parent := range rp.Inherits {
			if _, ok := p.Roles[parent]; !ok {
				return Policy{}, fmt.Errorf("rbac policy: role %s inherits unknown role %s", role, parent)
			}
		}
	}
	return p, nil
}

// LoadPolicy reads the policy file at path. A missing file yields DefaultPolicy
// and found=false.
func LoadPolicy(path string) (policy Policy, found bool, err error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultPolicy(), false, nil
	}
	if err != nil {
		return Policy{}, false, err
	}
	p, err := ParsePolicyYAML(b)
	if err != nil {
		return Policy{}, true, err
	}
	return p, true, nil
}

type repository struct {
	policy Policy
}

func NewRepository(policy Policy) Repository {
	return &repository{policy: policy}
}

func (r *repository) GetRoleInheritance() ([]RoleInheritanceRow, error) {
	var result []RoleInheritanceRow
	for _, role := range sortedRoles(r.policy) {
		for _, parent := range r.policy.Roles[role].Inherits {
			result = append(result, RoleInheritanceRow{RoleID: role, ParentID: parent})
		}
	}
	return result, nil
}

func (r *repository) GetRolePermissions() ([]RolePermissionRow, error) {
	var result []RolePermissionRow
	for _, role := range sortedRoles(r.policy) {
		for _, perm := range r.policy.Roles[role].Permissions {
			resource, action, err := splitPermission(perm)
			if err != nil {
				return nil, err
			}
			result = append(result, RolePermissionRow{RoleID: role, Resource: resource, Action: action})
		}
	}
	return result, nil
}

func sortedRoles(p Policy) []string {
	roles := make([]string, 0, len(p.Roles))
	for role := range p.Roles {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

func splitPermission(perm string) (string, string, error) {
	resource, action, ok := strings.Cut(perm, ":")
	if !ok || resource == "" || action == "" {
		return "", "", fmt.Errorf("invalid permission %q, want resource:action", perm)
	}
	return resource, action, nil
}
