// Package controller implements the per-sample accept/transform/reject chain
// and the per-entity prefilter predicate.
//
// A Chain is an ordered list of stages. Each stage is either a single
// controller or a group of alternatives, one of which is picked at random per
// sample. A rejection short-circuits the chain; the sample is discarded and
// no further stage runs.
//
//	chain := controller.Chain{
//	    controller.Single(normalize),
//	    controller.OneOf(flipX, flipY, identity),
//	    controller.Single(dropSilent),
//	}
package controller
