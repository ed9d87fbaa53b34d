// Package localize resolves UI labels through a host text service. Keys are
// namespaced per category as "<prefix>/<name>" (for example
// "formulate-trees/forms") and handed to a Resolver unchanged; what happens
// for a missing key is the resolver's business.
package localize
