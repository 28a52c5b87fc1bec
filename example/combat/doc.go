// Package combat is a sample aggregate for one entity taking hits.
//
// Its event set covers the three payload shapes an event can have:
// positional fields (EntityAttacked), named fields (RandomEvent), and no fields (UnitEvent).
package combat
