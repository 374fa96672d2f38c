package workflow

import (
	"strings"

	"github.com/samber/lo"
)

// Filter keeps the items where any field contains query, ignoring case.
// A blank query keeps everything.
func Filter[T any](items []T, query string, fields ...func(T) string) []T {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return items
	}
	return lo.Filter(items, func(item T, _ int) bool {
		return lo.SomeBy(fields, func(field func(T) string) bool {
			return strings.Contains(strings.ToLower(field(item)), query)
		})
	})
}

// Search fields per resource.
var (
	CustomerFields = []func(Customer) string{
		func(c Customer) string { return c.Name },
		func(c Customer) string { return c.Email },
		func(c Customer) string { return c.Phone },
	}
	VendorFields = []func(Vendor) string{
		func(v Vendor) string { return v.Name },
		func(v Vendor) string { return v.Email },
		func(v Vendor) string { return v.TaxID },
	}
	WorkgroupFields = []func(Workgroup) string{
		func(w Workgroup) string { return w.Code },
		func(w Workgroup) string { return w.Name },
	}
	RoleFields = []func(Role) string{
		func(r Role) string { return r.Code },
		func(r Role) string { return r.Name },
	}
	UserFields = []func(User) string{
		func(u User) string { return u.Username },
		func(u User) string { return u.Email },
		func(u User) string { return u.FullName },
	}
	TaskFields = []func(Task) string{
		func(t Task) string { return t.Name },
		func(t Task) string { return t.Assignee },
		func(t Task) string { return t.ProcessInstanceID },
	}
)
