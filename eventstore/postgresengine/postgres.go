package postgresengine

import (
	"context"
	"database/sql"
	_ "embed" // schema.sql
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore"
	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore/internal/observing"
	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore/postgresengine/internal/adapters"
)

// Schema creates the default cloud_events table, it is idempotent.
//
//go:embed schema.sql
var Schema string

// DefaultEventsTableName is the table Schema creates and the EventStore uses unless WithTableName is given.
const DefaultEventsTableName = "cloud_events"

const (
	engineName                   = "postgres"
	logMsgBuildSelectQueryFailed = "failed to build select query"
	logMsgBuildInsertQueryFailed = "failed to build insert query"
	logMsgDBQueryFailed          = "database query execution failed"
	logMsgDBExecFailed           = "database execution failed during event append"
	logMsgRowsAffectedFailed     = "failed to get rows affected count"
	logMsgCloseRowsFailed        = "failed to close database rows"
	logMsgScanRowFailed          = "failed to scan database row"
	logMsgBuildCloudEventFailed  = "failed to build cloud event"
	logMsgQueryCompleted         = "query completed"
	logMsgEventsAppended         = "events appended"
	logMsgSQLExecuted            = "executed sql for: "
	logAttrQuery                 = "query"
	logAttrEventType             = "event_type"
	logAttrEventID               = "event_id"
	logAttrStream                = "stream"
	logAttrEventCount            = "event_count"
	logAttrDurationMS            = "duration_ms"
	logAttrRowsAffected          = "rows_affected"
	logActionQuery               = "query"
	logActionAppend              = "append"
	colSequenceNumber            = "sequence_number"
	colEventID                   = "event_id"
	colStreamName                = "stream_name"
	colEventType                 = "event_type"
	colTypeVersion               = "type_version"
	colSource                    = "source"
	colOccurredAt                = "occurred_at"
	colContentType               = "content_type"
	colData                      = "data"
	dialectPostgres              = "postgres"
	castJsonb                    = "?::jsonb"
	castUUID                     = "?::uuid"
	selectEventIDAsText          = "event_id::text"
	predicateContains            = `data @> ?::jsonb`
	errTypeBuildQuery            = "build_query"
	errTypeDatabase              = "database"
	errTypeScan                  = "scan"
	errTypeMarshal               = "marshal"
	errTypeRowsAffected          = "rows_affected"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

type sqlQueryString = string

// EventStore is a durable, append-only PostgreSQL log of CloudEvent(s).
// It is safe for concurrent use as long as the underlying connection pool is.
type EventStore struct {
	db             adapters.DBAdapter
	eventTableName string
	clock          eventstore.Clock
	newID          eventstore.IDGenerator
	observer       *observing.Observer
}

type queryResultRow struct {
	eventID     string
	eventType   string
	typeVersion string
	source      string
	occurredAt  time.Time
	contentType string
	data        []byte
}

// NewEventStoreFromPGXPool creates a new EventStore using a pgx Pool with optional configuration.
func NewEventStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewPGXAdapter(db), options...)
}

// NewEventStoreFromPGXPoolAndReplica creates a new EventStore that appends to the primary and queries the replica.
func NewEventStoreFromPGXPoolAndReplica(primary *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (EventStore, error) {
	if primary == nil || replica == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewPGXAdapterWithReplica(primary, replica), options...)
}

// NewEventStoreFromSQLDB creates a new EventStore using a sql.DB with optional configuration.
func NewEventStoreFromSQLDB(db *sql.DB, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLAdapter(db), options...)
}

// NewEventStoreFromSQLDBAndReplica creates a new EventStore that appends to the primary and queries the replica.
func NewEventStoreFromSQLDBAndReplica(primary *sql.DB, replica *sql.DB, options ...Option) (EventStore, error) {
	if primary == nil || replica == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLAdapterWithReplica(primary, replica), options...)
}

// NewEventStoreFromSQLX creates a new EventStore using a sqlx.DB with optional configuration.
func NewEventStoreFromSQLX(db *sqlx.DB, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLXAdapter(db), options...)
}

// NewEventStoreFromSQLXAndReplica creates a new EventStore that appends to the primary and queries the replica.
func NewEventStoreFromSQLXAndReplica(primary *sqlx.DB, replica *sqlx.DB, options ...Option) (EventStore, error) {
	if primary == nil || replica == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLXAdapterWithReplica(primary, replica), options...)
}

func newEventStore(db adapters.DBAdapter, options ...Option) (EventStore, error) {
	es := EventStore{
		db:             db,
		eventTableName: DefaultEventsTableName,
		clock:          eventstore.UTCClock,
		newID:          eventstore.NewEventID,
		observer:       &observing.Observer{Engine: engineName},
	}

	for _, option := range options {
		if err := option(&es); err != nil {
			return EventStore{}, err
		}
	}

	return es, nil
}

// Append wraps the event into a CloudEvent and inserts it as a single row, there are no partial writes.
//
// Time is truncated to microseconds, the precision of timestamptz, so the returned CloudEvent carries the same
// instant a later query returns.
func (es EventStore) Append(ctx context.Context, event eventstore.Event, stream string) (eventstore.CloudEvent, error) {
	ctx, observation := es.observer.StartAppend(ctx, event.EventType(), stream)

	if stream == "" {
		observation.Fail(errTypeBuildQuery)
		return eventstore.CloudEvent{}, eventstore.StoreFailure("cannot append event", eventstore.ErrEmptyStreamName)
	}

	ce, err := eventstore.BuildCloudEvent(event, es.newID(), es.clock().Truncate(time.Microsecond))
	if err != nil {
		observation.Fail(errTypeMarshal)
		es.observer.Error(ctx, logMsgBuildCloudEventFailed, err, logAttrEventType, event.EventType())

		return eventstore.CloudEvent{}, eventstore.StoreFailure("cannot wrap event", err)
	}

	sqlQuery, err := es.buildInsertQuery(ce, stream)
	if err != nil {
		observation.Fail(errTypeBuildQuery)
		es.observer.Error(ctx, logMsgBuildInsertQueryFailed, err, logAttrEventType, ce.Type)

		return eventstore.CloudEvent{}, eventstore.StoreFailure("cannot append event", err)
	}

	start := time.Now()
	result, err := es.db.Exec(ctx, sqlQuery)
	es.logQueryWithDuration(ctx, sqlQuery, logActionAppend, time.Since(start))

	if err != nil {
		observation.Fail(errTypeDatabase)
		es.observer.Error(ctx, logMsgDBExecFailed, err, logAttrQuery, sqlQuery)

		return eventstore.CloudEvent{}, eventstore.StoreFailure("cannot append event", errors.Join(eventstore.ErrAppendingEventFailed, err))
	}

	rowsAffected, err := result.RowsAffected()
	if err == nil && rowsAffected != 1 {
		err = eventstore.ErrAppendingEventFailed
	}

	if err != nil {
		observation.Fail(errTypeRowsAffected)
		es.observer.Error(ctx, logMsgRowsAffectedFailed, err, logAttrRowsAffected, rowsAffected)

		return eventstore.CloudEvent{}, eventstore.StoreFailure("cannot append event", errors.Join(eventstore.ErrAppendingEventFailed, err))
	}

	duration := observation.Succeed(1)
	es.observer.Operation(
		ctx,
		logMsgEventsAppended,
		logAttrEventType, ce.Type,
		logAttrEventID, ce.ID,
		logAttrStream, stream,
		logAttrDurationMS, observing.ToMilliseconds(duration),
	)

	return ce, nil
}

// GetAll returns all CloudEvent(s) of exactly this type, ordered by sequence number.
func (es EventStore) GetAll(ctx context.Context, eventType string) (eventstore.CloudEvents, error) {
	if eventType == "" {
		return eventstore.CloudEvents{}, nil
	}

	return es.Query(ctx, eventstore.FilterForEventType(eventType))
}

// GetFrom returns all CloudEvent(s) of exactly this type with Time >= start, ordered by sequence number.
func (es EventStore) GetFrom(ctx context.Context, eventType string, start time.Time) (eventstore.CloudEvents, error) {
	if eventType == "" {
		return eventstore.CloudEvents{}, nil
	}

	return es.Query(ctx, eventstore.FilterForEventTypeFrom(eventType, start))
}

// GetRange returns all CloudEvent(s) of exactly this type with start <= Time <= end, ordered by sequence number.
func (es EventStore) GetRange(
	ctx context.Context,
	eventType string,
	start time.Time,
	end time.Time,
) (eventstore.CloudEvents, error) {

	if eventType == "" || end.Before(start) {
		return eventstore.CloudEvents{}, nil
	}

	return es.Query(ctx, eventstore.FilterForEventTypeBetween(eventType, start, end))
}

// Query retrieves all CloudEvent(s) matching the eventstore.Filter, ordered by sequence number.
func (es EventStore) Query(ctx context.Context, filter eventstore.Filter) (eventstore.CloudEvents, error) {
	ctx, observation := es.observer.StartQuery(ctx)

	sqlQuery, err := es.buildSelectQuery(filter)
	if err != nil {
		observation.Fail(errTypeBuildQuery)
		es.observer.Error(ctx, logMsgBuildSelectQueryFailed, err)

		return nil, eventstore.StoreFailure("cannot query events", err)
	}

	start := time.Now()
	rows, err := es.db.Query(ctx, sqlQuery)
	es.logQueryWithDuration(ctx, sqlQuery, logActionQuery, time.Since(start))

	if err != nil {
		observation.Fail(errTypeDatabase)
		es.observer.Error(ctx, logMsgDBQueryFailed, err, logAttrQuery, sqlQuery)

		return nil, eventstore.StoreFailure("cannot query events", errors.Join(eventstore.ErrQueryingEventsFailed, err))
	}
	defer es.closeRows(ctx, rows)

	result, err := es.processQueryResults(ctx, rows)
	if err != nil {
		observation.Fail(errTypeScan)
		return nil, eventstore.StoreFailure("cannot query events", err)
	}

	duration := observation.Succeed(len(result))
	es.observer.Operation(
		ctx,
		logMsgQueryCompleted,
		logAttrEventCount, len(result),
		logAttrDurationMS, observing.ToMilliseconds(duration),
	)

	return result, nil
}

func (es EventStore) processQueryResults(ctx context.Context, rows adapters.DBRows) (eventstore.CloudEvents, error) {
	result := make(eventstore.CloudEvents, 0)
	row := queryResultRow{}

	for rows.Next() {
		err := rows.Scan(&row.eventID, &row.eventType, &row.typeVersion, &row.source, &row.occurredAt, &row.contentType, &row.data)
		if err != nil {
			es.observer.Error(ctx, logMsgScanRowFailed, err)
			return nil, errors.Join(eventstore.ErrScanningDBRowFailed, err)
		}

		ce, err := eventstore.BuildCloudEventFromJSON(
			row.eventType,
			row.typeVersion,
			row.source,
			row.eventID,
			row.occurredAt.UTC(),
			row.data,
		)
		if err != nil {
			es.observer.Error(ctx, logMsgBuildCloudEventFailed, err, logAttrEventID, row.eventID)
			return nil, errors.Join(eventstore.ErrScanningDBRowFailed, err)
		}

		ce.DataContentType = row.contentType
		result = append(result, ce)
	}

	if err := rows.Err(); err != nil {
		es.observer.Error(ctx, logMsgScanRowFailed, err)
		return nil, errors.Join(eventstore.ErrQueryingEventsFailed, err)
	}

	return result, nil
}

func (es EventStore) closeRows(ctx context.Context, rows adapters.DBRows) {
	if err := rows.Close(); err != nil {
		es.observer.Warn(ctx, logMsgCloseRowsFailed, err)
	}
}

func (es EventStore) buildInsertQuery(ce eventstore.CloudEvent, stream string) (sqlQueryString, error) {
	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(es.eventTableName).
		Rows(goqu.Record{
			colEventID:     goqu.L(castUUID, ce.ID),
			colStreamName:  stream,
			colEventType:   ce.Type,
			colTypeVersion: ce.TypeVersion,
			colSource:      ce.Source,
			colOccurredAt:  ce.Time,
			colContentType: ce.DataContentType,
			colData:        goqu.L(castJsonb, string(ce.Data)),
		})

	sqlQuery, _, err := insertStmt.ToSQL()
	if err != nil {
		return "", errors.Join(eventstore.ErrBuildingQueryFailed, err)
	}

	return sqlQuery, nil
}

func (es EventStore) buildSelectQuery(filter eventstore.Filter) (sqlQueryString, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(es.eventTableName).
		Select(
			goqu.L(selectEventIDAsText),
			colEventType,
			colTypeVersion,
			colSource,
			colOccurredAt,
			colContentType,
			colData,
		).
		Order(goqu.I(colSequenceNumber).Asc())

	whereClause, err := es.buildWhereClause(filter)
	if err != nil {
		return "", err
	}

	sqlQuery, _, err := selectStmt.Where(whereClause).ToSQL()
	if err != nil {
		return "", errors.Join(eventstore.ErrBuildingQueryFailed, err)
	}

	return sqlQuery, nil
}

func (es EventStore) buildWhereClause(filter eventstore.Filter) (exp.ExpressionList, error) {
	itemsExpressions := make([]goqu.Expression, 0)

	for _, item := range filter.Items() {
		eventTypeExpressions := make([]goqu.Expression, 0)
		predicateExpressions := make([]goqu.Expression, 0)

		for _, eventType := range item.EventTypes() {
			eventTypeExpressions = append(eventTypeExpressions, goqu.Ex{colEventType: eventType})
		}

		for _, predicate := range item.Predicates() {
			containment, err := jsonAPI.Marshal(map[string]string{predicate.Key(): predicate.Val()})
			if err != nil {
				return nil, errors.Join(eventstore.ErrBuildingQueryFailed, err)
			}

			predicateExpressions = append(predicateExpressions, goqu.L(predicateContains, string(containment)))
		}

		var predicatesExpressionList exp.ExpressionList

		if item.AllPredicatesMustMatch() {
			predicatesExpressionList = goqu.And(predicateExpressions...)
		} else {
			predicatesExpressionList = goqu.Or(predicateExpressions...)
		}

		// eventTypes must always be filtered with OR
		itemsExpressions = append(itemsExpressions, goqu.And(goqu.Or(eventTypeExpressions...), predicatesExpressionList))
	}

	occurredAtExpressions := make([]goqu.Expression, 0)

	if filter.HasOccurredFrom() {
		occurredAtExpressions = append(occurredAtExpressions, goqu.C(colOccurredAt).Gte(filter.OccurredFrom()))
	}

	if filter.HasOccurredUntil() {
		occurredAtExpressions = append(occurredAtExpressions, goqu.C(colOccurredAt).Lte(filter.OccurredUntil()))
	}

	return goqu.And(goqu.Or(itemsExpressions...), goqu.And(occurredAtExpressions...)), nil
}

// logQueryWithDuration logs SQL statements with execution time at debug level.
func (es EventStore) logQueryWithDuration(ctx context.Context, sqlQuery string, action string, duration time.Duration) {
	es.observer.Debug(ctx, logMsgSQLExecuted+action, logAttrDurationMS, observing.ToMilliseconds(duration), logAttrQuery, sqlQuery)
}
