/*
Package dsl provides a Go DSL for programmatically constructing action catalogs.

It allows developers to define catalogs using a type-safe, fluent builder pattern
instead of YAML files. This is particularly useful for unit testing and for
experimenting with action tables.

Example usage:

	b := dsl.New("scenario")

	b.Add("synthesis").
		Label("Basic Synthesis").
		Progress(120).
		Durability(10).
		Time(3)

	b.Add("touch").
		Label("Basic Touch").
		Quality(100).
		CP(18).
		Durability(10).
		SetsCombo(domain.ComboBasicTouch)

	c, err := b.Build()
	// ... pass c to artisan.WithCatalog(c)
*/
package dsl
