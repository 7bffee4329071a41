package auth

import (
	"fmt"

	"go-blog-app/internal/config"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	sqlxadapter "github.com/memwey/casbin-sqlx-adapter"
)

// modelText is the RBAC model. Objects are chi route patterns such as
// /pages/{page}/edit, so they compare literally; keyMatch allows a trailing *.
const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && r.act == p.act
`

// NewAdapter returns a casbin adapter persisting policies in the casbin_rule table.
func NewAdapter(cfg config.DBConfig) persist.Adapter {
	return sqlxadapter.NewAdapterFromOptions(&sqlxadapter.AdapterOptions{
		DriverName:     cfg.Driver,
		DataSourceName: cfg.DSN,
		TableName:      "casbin_rule",
	})
}

// NewEnforcer creates an enforcer for the built-in model. Policies are loaded
// from adapter; with a nil adapter they live in memory only.
func NewEnforcer(adapter persist.Adapter) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casbin model: %w", err)
	}
	var e *casbin.Enforcer
	if adapter == nil {
		e, err = casbin.NewEnforcer(m)
	} else {
		e, err = casbin.NewEnforcer(m, adapter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create enforcer: %w", err)
	}
	return e, nil
}
