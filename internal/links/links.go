// Package links contributes the module's menu entries.
package links

import (
	"context"

	"github.com/formicula/backend/internal/i18n"
	"github.com/formicula/backend/internal/permission"
)

// Category selects a link set.
type Category string

const (
	CategoryAdmin   Category = "admin"
	CategoryUser    Category = "user"
	CategoryAccount Category = "account"
)

// BundleName identifies the module in the host navigation.
const BundleName = "Formicula"

// Link is a menu entry. Method is "POST" for entries that change state.
type Link struct {
	URL    string `json:"url"`
	Text   string `json:"text"`
	Icon   string `json:"icon"`
	Method string `json:"method,omitempty"`
	Links  []Link `json:"links,omitempty"`
}

type producer func(ctx context.Context) []Link

// Container resolves link categories through a lookup table.
type Container struct {
	perms     permission.Checker
	tr        i18n.Translator
	producers map[Category]producer
}

// NewContainer creates a Container.
func NewContainer(perms permission.Checker, tr i18n.Translator) *Container {
	c := &Container{perms: perms, tr: tr}
	c.producers = map[Category]producer{
		CategoryAdmin: c.admin,
	}
	return c
}

// BundleName returns the module name used by the host navigation.
func (c *Container) BundleName() string { return BundleName }

// Links returns the links of category. Unknown categories yield nil.
func (c *Container) Links(ctx context.Context, category Category) []Link {
	p, ok := c.producers[category]
	if !ok {
		return nil
	}
	return p(ctx)
}

func (c *Container) admin(ctx context.Context) []Link {
	if !c.perms.HasPermission(ctx, permission.Component, "::", permission.Admin) {
		return nil
	}
	return []Link{
		{URL: "/contact/view", Text: c.tr.T("View contacts"), Icon: "group"},
		{URL: "/contact/edit", Text: c.tr.T("Add contact"), Icon: "user-plus"},
		{URL: "/submission/view", Text: c.tr.T("View submissions"), Icon: "envelope"},
		{
			URL:  "/config/config",
			Text: c.tr.T("Settings"),
			Icon: "wrench",
			Links: []Link{
				{URL: "/config/config", Text: c.tr.T("Settings"), Icon: "wrench"},
				{URL: "/config/clearcache", Text: c.tr.T("Clear captcha image cache"), Icon: "eraser", Method: "POST"},
			},
		},
	}
}
