package localize

// Category selects the key namespace a label lives under.
type Category string

const (
	CategoryTree          Category = "tree"
	CategoryDataValueName Category = "data-value-name"
	CategoryLayoutName    Category = "layout-name"
	CategoryMenuItemName  Category = "menu-item-name"
)

var categoryPrefixes = map[Category]string{
	CategoryTree:          "formulate-trees",
	CategoryDataValueName: "formulate-data-value-names",
	CategoryLayoutName:    "formulate-layout-names",
	CategoryMenuItemName:  "formulate-menu-item-names",
}

// Prefix reports the key prefix for the category. Unknown categories use the
// category value itself.
func (c Category) Prefix() string {
	if prefix, ok := categoryPrefixes[c]; ok {
		return prefix
	}
	return string(c)
}

// Categories lists the known categories in a stable order.
func Categories() []Category {
	return []Category{CategoryTree, CategoryDataValueName, CategoryLayoutName, CategoryMenuItemName}
}

// Key formats the lookup key for name within the category.
func Key(category Category, name string) string {
	return category.Prefix() + "/" + name
}

// Resolver is the host text service contract.
type Resolver interface {
	Localize(key string) string
}

// ResolverFunc adapts a plain function into a Resolver.
type ResolverFunc func(key string) string

// Localize calls f(key).
func (f ResolverFunc) Localize(key string) string {
	return f(key)
}

// Accessor formats category keys and forwards them to a Resolver.
type Accessor struct {
	resolver Resolver
}

// New returns an Accessor backed by resolver. A nil resolver echoes keys.
func New(resolver Resolver) *Accessor {
	return &Accessor{resolver: resolver}
}

// Name resolves name within category in the resolver's current language.
func (a *Accessor) Name(category Category, name string) string {
	key := Key(category, name)
	if a == nil || a.resolver == nil {
		return key
	}
	return a.resolver.Localize(key)
}

// TreeName resolves a tree name.
func (a *Accessor) TreeName(tree string) string {
	return a.Name(CategoryTree, tree)
}

// DataValueName resolves a data value name.
func (a *Accessor) DataValueName(name string) string {
	return a.Name(CategoryDataValueName, name)
}

// LayoutName resolves a layout name.
func (a *Accessor) LayoutName(name string) string {
	return a.Name(CategoryLayoutName, name)
}

// MenuItemName resolves a menu item name.
func (a *Accessor) MenuItemName(name string) string {
	return a.Name(CategoryMenuItemName, name)
}
