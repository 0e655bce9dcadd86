package testutils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/rockplate/internal/scope"
)

// OrderTemplate is an order confirmation letter exercising every directive.
const OrderTemplate = `
Dear [customer name],

Thank you for your order. Your items will be shipped soon:

[--
this is a comment
that should be removed
--]

[repeat items]

  [item name]: [item price]

  [if discount is available] [-- this is a comment too --]
      (Discount: [discount value])
  [else]
      (No Discount)
  [end if]

[end repeat]

Total: [order total]

Thanks
[brand name]
`

// OrderRendered is OrderTemplate rendered against OrderSchema.
const OrderRendered = "\nDear Customer Name,\n\nThank you for your order. Your items will be shipped soon:\n\n\n\n" +
	"\n\n  Item 1: $100\n\n   \n      (Discount: 5%)\n  \n\n" +
	"\n\n  Item 2: $85\n\n  \n      (No Discount)\n  \n\n" +
	"\n\nTotal: $185\n\nThanks\nMy Brand\n"

// OrderSchema returns a fresh schema matching OrderTemplate. It doubles as
// sample data.
func OrderSchema() scope.Scope {
	return scope.Scope{
		"brand":    map[string]any{"name": "My Brand"},
		"customer": map[string]any{"name": "Customer Name"},
		"items": []any{
			map[string]any{
				"item":     map[string]any{"name": "Item 1", "price": "$100"},
				"discount": map[string]any{"available": true, "value": "5%"},
			},
			map[string]any{
				"item":     map[string]any{"name": "Item 2", "price": "$85"},
				"discount": map[string]any{"available": false, "amount": float64(0)},
			},
		},
		"order": map[string]any{"paid": true, "total": "$185"},
	}
}

// AuditTemplate holds directives that do not agree with OrderSchema.
const AuditTemplate = `Dear [customer name],

Thank you for your order. Your items will be shipped soon:

[repeat customer]
[end repeat]
[repeat options]
[end repeat]

[repeat items]

  [item name]: [item price]

  [if discount is available]
      (Discount: [discount amount])
      [if customer is vip]
        VIP Customer [vip customer]
      [else]
        Not a VIP customer [if something is unavailable]unavailable[end if]
      [end if]
  [else]
    No Discount
    hum
  [end if]

[end repeat]

Total: [order total] [if coupon is applied]Coupon applied[end if]
[if order is paid]Paid[end if]

Thanks
[business name]`

// AuditData returns runtime data for AuditTemplate: OrderSchema with brand
// renamed to business, an empty options array, an applied coupon and an
// order whose paid flag is null.
func AuditData() scope.Scope {
	data := OrderSchema()
	data["business"] = data["brand"]
	delete(data, "brand")
	data["options"] = []any{}
	data["coupon"] = map[string]any{"applied": true}
	data["order"] = map[string]any{"paid": nil, "total": "$185"}
	return data
}

// CreateTempProject creates a temporary project with templates, schemas
// and data directories.
func CreateTempProject(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()

	for _, dir := range []string{"templates", "schemas", "data"} {
		err := os.MkdirAll(filepath.Join(tempDir, dir), 0o755)
		require.NoError(t, err)
	}

	return tempDir
}

// CreateTestTemplate writes a template file and returns its path.
func CreateTestTemplate(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if filepath.Ext(name) == "" {
		path += ".rp"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// WriteJSON encodes v as JSON into dir/name and returns the path.
func WriteJSON(t *testing.T, dir, name string, v any) string {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// WriteYAML encodes v as YAML into dir/name and returns the path.
func WriteYAML(t *testing.T, dir, name string, v any) string {
	t.Helper()
	data, err := yaml.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// PathTraversal lists references that try to escape a base directory.
var PathTraversal = []string{
	"../../../etc/passwd",
	"..\\..\\..\\windows\\system32\\config\\sam",
	"....//....//....//etc/passwd",
	"/./../../etc/passwd",
	"../../../../../etc/passwd",
	"/etc/passwd",
}
