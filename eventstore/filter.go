package eventstore

import (
	"slices"
	"time"
)

type FilterEventTypeString = string
type FilterKeyString = string
type FilterValString = string

/***** Filter *****/

// Filter describes which CloudEvent(s) a query returns.
//
// A CloudEvent matches when it lies inside the (inclusive) occurred-at window and matches ANY of the FilterItem(s).
// A Filter without FilterItem(s) matches every event type.
type Filter struct {
	items            []FilterItem
	occurredFrom     time.Time
	occurredUntil    time.Time
	hasOccurredFrom  bool
	hasOccurredUntil bool
}

func (f Filter) Items() []FilterItem {
	return f.items
}

// OccurredFrom is the inclusive lower bound of the time window, only meaningful if HasOccurredFrom.
func (f Filter) OccurredFrom() time.Time {
	return f.occurredFrom
}

// OccurredUntil is the inclusive upper bound of the time window, only meaningful if HasOccurredUntil.
func (f Filter) OccurredUntil() time.Time {
	return f.occurredUntil
}

// HasOccurredFrom reports whether the window has a lower bound. The zero time is a valid bound.
func (f Filter) HasOccurredFrom() bool {
	return f.hasOccurredFrom
}

// HasOccurredUntil reports whether the window has an upper bound. The zero time is a valid bound.
func (f Filter) HasOccurredUntil() bool {
	return f.hasOccurredUntil
}

// Matches evaluates the Filter against a single CloudEvent in memory.
//
// Predicates compare top-level string fields of the event data.
func (f Filter) Matches(event CloudEvent) bool {
	if f.hasOccurredFrom && event.Time.Before(f.occurredFrom) {
		return false
	}

	if f.hasOccurredUntil && event.Time.After(f.occurredUntil) {
		return false
	}

	if len(f.items) == 0 {
		return true
	}

	var fields map[string]any
	fieldsDecoded := false

	for _, item := range f.items {
		if len(item.eventTypes) > 0 && !slices.Contains(item.eventTypes, event.Type) {
			continue
		}

		if len(item.predicates) == 0 {
			return true
		}

		if !fieldsDecoded {
			fields = decodeDataFields(event.Data)
			fieldsDecoded = true
		}

		if item.matchesPredicates(fields) {
			return true
		}
	}

	return false
}

func decodeDataFields(data []byte) map[string]any {
	fields := make(map[string]any)
	if err := jsonAPI.Unmarshal(data, &fields); err != nil {
		return nil
	}

	return fields
}

/***** FilterItem *****/

type FilterItem struct {
	eventTypes             []FilterEventTypeString
	predicates             []FilterPredicate
	allPredicatesMustMatch bool
}

func (fi FilterItem) EventTypes() []FilterEventTypeString {
	return fi.eventTypes
}

func (fi FilterItem) Predicates() []FilterPredicate {
	return fi.predicates
}

func (fi FilterItem) AllPredicatesMustMatch() bool {
	return fi.allPredicatesMustMatch
}

func (fi FilterItem) isEmpty() bool {
	return len(fi.eventTypes) == 0 && len(fi.predicates) == 0
}

func (fi FilterItem) matchesPredicates(fields map[string]any) bool {
	for _, predicate := range fi.predicates {
		val, ok := fields[predicate.key].(string)
		matched := ok && val == predicate.val

		if fi.allPredicatesMustMatch && !matched {
			return false
		}

		if !fi.allPredicatesMustMatch && matched {
			return true
		}
	}

	return fi.allPredicatesMustMatch
}

/***** FilterPredicate *****/

type FilterPredicate struct {
	key FilterKeyString
	val FilterValString
}

func P(key FilterKeyString, val FilterValString) FilterPredicate {
	return FilterPredicate{key: key, val: val}
}

func (fp FilterPredicate) Key() FilterKeyString {
	return fp.key
}

func (fp FilterPredicate) Val() FilterValString {
	return fp.val
}

/***** Convenience filters *****/

// FilterForEventType matches every CloudEvent of exactly this type.
func FilterForEventType(eventType FilterEventTypeString) Filter {
	return BuildEventFilter().
		Matching().
		AnyEventTypeOf(eventType).
		Finalize()
}

// FilterForEventTypeFrom matches every CloudEvent of this type with Time >= start.
func FilterForEventTypeFrom(eventType FilterEventTypeString, start time.Time) Filter {
	return BuildEventFilter().
		Matching().
		AnyEventTypeOf(eventType).
		OccurredFrom(start).
		Finalize()
}

// FilterForEventTypeBetween matches every CloudEvent of this type with start <= Time <= end.
func FilterForEventTypeBetween(eventType FilterEventTypeString, start time.Time, end time.Time) Filter {
	return BuildEventFilter().
		Matching().
		AnyEventTypeOf(eventType).
		OccurredFrom(start).
		AndOccurredUntil(end).
		Finalize()
}

/***** FilterBuilder *****/

// FilterBuilder builds a generic event filter to be evaluated in memory or translated by DB type-specific
// engines into their query language.
// It is designed with the idea to only allow "useful" filter combinations for event-sourced workflows:
//
//   - empty filter
//   - (eventType)
//   - (eventType OR eventType...)
//   - (predicate)
//   - (predicate OR predicate...)
//   - (predicate AND predicate...)
//   - (eventType AND predicate)
//   - ((eventType OR eventType...) AND (predicate OR predicate...))
//   - ((eventType OR eventType...) AND (predicate AND predicate...))
//   - ((eventType AND predicate) OR (eventType AND predicate)...) -> multiple FilterItem(s)
//
// Each of the above can be restricted to an occurred-at window with OccurredFrom / OccurredUntil.
type FilterBuilder interface {
	// Matching starts a new FilterItem.
	Matching() EmptyFilterItemBuilder

	// MatchingAnyEvent directly creates an empty Filter.
	MatchingAnyEvent() Filter

	// OccurredFrom sets the inclusive lower bound of the time window.
	OccurredFrom(occurredFrom time.Time) FilterBuilderLackingOccurredUntil

	// OccurredUntil sets the inclusive upper bound of the time window.
	OccurredUntil(occurredUntil time.Time) FinalFilterBuilder
}

type EmptyFilterItemBuilder interface {
	// AnyEventTypeOf adds one or multiple EventTypes to the current FilterItem.
	//
	// It sanitizes the input:
	//	- removing empty EventTypes ("")
	//	- sorting the EventTypes
	//	- removing duplicate EventTypes
	AnyEventTypeOf(eventType FilterEventTypeString, eventTypes ...FilterEventTypeString) FilterItemBuilderLackingPredicates

	// AnyPredicateOf adds one or multiple FilterPredicate(s) to the current FilterItem.
	//
	// It sanitizes the input:
	//	- removing empty/partial FilterPredicate(s) (key or val is "")
	//	- sorting the FilterPredicate(s)
	//	- removing duplicate FilterPredicate(s)
	AnyPredicateOf(predicate FilterPredicate, predicates ...FilterPredicate) FilterItemBuilderLackingEventTypes

	AllPredicatesOf(predicate FilterPredicate, predicates ...FilterPredicate) FilterItemBuilderLackingEventTypes
}

type FilterItemBuilderLackingPredicates interface {
	AndAnyPredicateOf(predicate FilterPredicate, predicates ...FilterPredicate) CompletedFilterItemBuilder

	AndAllPredicatesOf(predicate FilterPredicate, predicates ...FilterPredicate) CompletedFilterItemBuilder

	CompletedFilterItemBuilder
}

type FilterItemBuilderLackingEventTypes interface {
	// AndAnyEventTypeOf adds one or multiple EventTypes to the current FilterItem.
	AndAnyEventTypeOf(eventType FilterEventTypeString, eventTypes ...FilterEventTypeString) CompletedFilterItemBuilder

	CompletedFilterItemBuilder
}

type CompletedFilterItemBuilder interface {
	// OrMatching finalizes the current FilterItem and starts a new one.
	OrMatching() EmptyFilterItemBuilder

	OccurredFrom(occurredFrom time.Time) FilterBuilderLackingOccurredUntil

	OccurredUntil(occurredUntil time.Time) FinalFilterBuilder

	FinalFilterBuilder
}

type FilterBuilderLackingOccurredUntil interface {
	AndOccurredUntil(occurredUntil time.Time) FinalFilterBuilder

	FinalFilterBuilder
}

type FinalFilterBuilder interface {
	// Finalize returns the Filter, FilterItem(s) without any EventType and Predicate are dropped.
	Finalize() Filter
}

// filterBuilder implements all the interfaces of FilterBuilder
type filterBuilder struct {
	filter            Filter
	currentFilterItem FilterItem
}

// BuildEventFilter creates a FilterBuilder which must eventually be finalized with Finalize() or MatchingAnyEvent().
func BuildEventFilter() FilterBuilder {
	return filterBuilder{}
}

// Matching starts a new FilterItem.
func (fb filterBuilder) Matching() EmptyFilterItemBuilder {
	fb.currentFilterItem = FilterItem{}

	return fb
}

// AnyEventTypeOf adds one or multiple EventTypes to the current FilterItem expecting ANY EventType to match.
func (fb filterBuilder) AnyEventTypeOf(
	eventType FilterEventTypeString,
	eventTypes ...FilterEventTypeString,
) FilterItemBuilderLackingPredicates {

	fb.currentFilterItem.eventTypes = append(
		slices.Clone(fb.currentFilterItem.eventTypes),
		fb.sanitizeEventTypes(eventType, eventTypes...)...,
	)

	return fb
}

// AndAnyEventTypeOf adds one or multiple EventTypes to the current FilterItem expecting ANY EventType to match.
func (fb filterBuilder) AndAnyEventTypeOf(
	eventType FilterEventTypeString,
	eventTypes ...FilterEventTypeString,
) CompletedFilterItemBuilder {

	return fb.AnyEventTypeOf(eventType, eventTypes...)
}

func (fb filterBuilder) sanitizeEventTypes(
	eventType FilterEventTypeString,
	eventTypes ...FilterEventTypeString,
) []FilterEventTypeString {

	allEventTypes := append([]FilterEventTypeString{eventType}, eventTypes...)
	allEventTypes = slices.DeleteFunc(
		allEventTypes,
		func(e FilterEventTypeString) bool {
			return e == ""
		})
	slices.Sort(allEventTypes)
	allEventTypes = slices.Compact(allEventTypes)
	allEventTypes = slices.Clip(allEventTypes)

	return allEventTypes
}

// AnyPredicateOf adds one or multiple FilterPredicate(s) to the current FilterItem expecting ANY predicate to match.
func (fb filterBuilder) AnyPredicateOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) FilterItemBuilderLackingEventTypes {

	fb.currentFilterItem.predicates = append(
		slices.Clone(fb.currentFilterItem.predicates),
		fb.sanitizePredicates(predicate, predicates...)...,
	)

	return fb
}

// AndAnyPredicateOf adds one or multiple FilterPredicate(s) to the current FilterItem expecting ANY predicate to match.
func (fb filterBuilder) AndAnyPredicateOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) CompletedFilterItemBuilder {

	return fb.AnyPredicateOf(predicate, predicates...)
}

// AllPredicatesOf adds one or multiple FilterPredicate(s) to the current FilterItem expecting ALL predicates to match.
func (fb filterBuilder) AllPredicatesOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) FilterItemBuilderLackingEventTypes {

	fb.currentFilterItem.allPredicatesMustMatch = true

	return fb.AnyPredicateOf(predicate, predicates...)
}

// AndAllPredicatesOf adds one or multiple FilterPredicate(s) to the current FilterItem expecting ALL predicates to match.
func (fb filterBuilder) AndAllPredicatesOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) CompletedFilterItemBuilder {

	return fb.AllPredicatesOf(predicate, predicates...)
}

func (fb filterBuilder) sanitizePredicates(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) []FilterPredicate {

	allPredicates := append([]FilterPredicate{predicate}, predicates...)
	allPredicates = slices.DeleteFunc(allPredicates, func(e FilterPredicate) bool { return len(e.key) == 0 || len(e.val) == 0 })
	slices.SortFunc(
		allPredicates,
		func(a, b FilterPredicate) int {
			if a.key != b.key {
				if a.key > b.key {
					return 1
				}

				return -1
			}

			if a.val > b.val {
				return 1
			}

			if a.val < b.val {
				return -1
			}

			return 0
		})

	allPredicates = slices.Compact(allPredicates)
	allPredicates = slices.Clip(allPredicates)

	return allPredicates
}

// OrMatching finalizes the current FilterItem and starts a new one.
func (fb filterBuilder) OrMatching() EmptyFilterItemBuilder {
	fb = fb.closeCurrentItem()

	return fb
}

// OccurredFrom sets the inclusive lower bound of the time window.
func (fb filterBuilder) OccurredFrom(occurredFrom time.Time) FilterBuilderLackingOccurredUntil {
	fb.filter.occurredFrom = occurredFrom
	fb.filter.hasOccurredFrom = true

	return fb
}

// OccurredUntil sets the inclusive upper bound of the time window.
func (fb filterBuilder) OccurredUntil(occurredUntil time.Time) FinalFilterBuilder {
	fb.filter.occurredUntil = occurredUntil
	fb.filter.hasOccurredUntil = true

	return fb
}

// AndOccurredUntil sets the inclusive upper bound of the time window.
func (fb filterBuilder) AndOccurredUntil(occurredUntil time.Time) FinalFilterBuilder {
	return fb.OccurredUntil(occurredUntil)
}

// MatchingAnyEvent directly creates an empty filter.
func (fb filterBuilder) MatchingAnyEvent() Filter {
	return fb.filter
}

// Finalize returns the Filter.
func (fb filterBuilder) Finalize() Filter {
	fb = fb.closeCurrentItem()

	return fb.filter
}

func (fb filterBuilder) closeCurrentItem() filterBuilder {
	if !fb.currentFilterItem.isEmpty() {
		fb.filter.items = append(slices.Clone(fb.filter.items), fb.currentFilterItem)
	}

	fb.currentFilterItem = FilterItem{}

	return fb
}
