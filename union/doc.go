// Package union combines multiple data sources into one batch stream.
//
// A Union draws each batch slot from one of its member sources, picked at
// random with probability proportional to the member's entity count. Member
// stores stay independent; the union only composes their sample streams.
package union
