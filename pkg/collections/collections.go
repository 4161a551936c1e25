// Package collections binds the marketplace's collection names to the
// batch fetcher.
package collections

import (
	"context"
	"slices"

	"github.com/Sternrassler/docbatch/pkg/document"
	"github.com/Sternrassler/docbatch/pkg/fetch"
)

// Collection names in the document store.
const (
	Products      = "products"
	Users         = "users"
	Orders        = "orders"
	Reviews       = "reviews"
	Stores        = "stores"
	Categories    = "categories"
	Carts         = "carts"
	Wishlists     = "wishlists"
	Coupons       = "coupons"
	Messages      = "messages"
	Notifications = "notifications"
	Addresses     = "addresses"
)

var known = []string{
	Products, Users, Orders, Reviews, Stores, Categories,
	Carts, Wishlists, Coupons, Messages, Notifications, Addresses,
}

// Known returns every collection name, in declaration order.
func Known() []string {
	return slices.Clone(known)
}

// IsKnown reports whether name is one of the known collections.
func IsKnown(name string) bool {
	return slices.Contains(known, name)
}

// Getter fetches batches from the known collections.
type Getter struct {
	fetcher *fetch.Fetcher
}

// NewGetter creates a Getter on top of f.
func NewGetter(f *fetch.Fetcher) *Getter {
	if f == nil {
		panic("fetcher cannot be nil")
	}
	return &Getter{fetcher: f}
}

// Get fetches ids from an arbitrary collection.
func (g *Getter) Get(ctx context.Context, collection string, ids []string) document.Result {
	return g.fetcher.Fetch(ctx, collection, ids)
}

func (g *Getter) Products(ctx context.Context, ids []string) document.Result {
	return g.Get(ctx, Products, ids)
}

func (g *Getter) Users(ctx context.Context, ids []string) document.Result {
	return g.Get(ctx, Users, ids)
}

func (g *Getter) Orders(ctx context.Context, ids []string) document.Result {
	return g.Get(ctx, Orders, ids)
}

func (g *Getter) Reviews(ctx context.Context, ids []string) document.Result {
	return g.Get(ctx, Reviews, ids)
}

func (g *Getter) Stores(ctx context.Context, ids []string) document.Result {
	return g.Get(ctx, Stores, ids)
}

func (g *Getter) Categories(ctx context.Context, ids []string) document.Result {
	return g.Get(ctx, Categories, ids)
}

func (g *Getter) Carts(ctx context.Context, ids []string) document.Result {
	return g.Get(ctx, Carts, ids)
}

func (g *Getter) Wishlists(ctx context.Context, ids []string) document.Result {
	return g.Get(ctx, Wishlists, ids)
}

func (g *Getter) Coupons(ctx context.Context, ids []string) document.Result {
	return g.Get(ctx, Coupons, ids)
}

func (g *Getter) Messages(ctx context.Context, ids []string) document.Result {
	return g.Get(ctx, Messages, ids)
}

func (g *Getter) Notifications(ctx context.Context, ids []string) document.Result {
	return g.Get(ctx, Notifications, ids)
}

func (g *Getter) Addresses(ctx context.Context, ids []string) document.Result {
	return g.Get(ctx, Addresses, ids)
}
