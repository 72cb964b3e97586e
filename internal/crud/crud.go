// Package crud provides a generic service over a bound data table,
// assembled from independent operation mixins. A concrete service may
// expose any subset of list, create, update, delete, and retrieve,
// and may override any of them by re-registering the action.
package crud

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/pionia-project/pionia/internal/database"
	apierrors "github.com/pionia-project/pionia/internal/errors"
	"github.com/pionia-project/pionia/internal/services"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// EventSink receives record-change notifications after successful
// create, update, and delete operations.
type EventSink interface {
	RecordChanged(event Event)
}

// Event describes one record change.
type Event struct {
	Type    string          `json:"type"` // "created", "updated", "deleted"
	Service string          `json:"service"`
	Table   string          `json:"table"`
	Record  database.Record `json:"record,omitempty"`
	Key     any             `json:"key,omitempty"`
}

// Mixin registers one operation onto a Service.
type Mixin func(*Service)

// Service is a generic CRUD service bound to a table. It embeds the
// dispatch base, so policy configuration (auth, permissions,
// deactivation) works like on any other service.
type Service struct {
	services.BaseService

	store  database.Store
	table  database.Table
	logger *slog.Logger
	events EventSink
}

// Option configures optional collaborators.
type Option func(*Service)

// WithEventSink attaches a record-change sink.
func WithEventSink(sink EventSink) Option {
	return func(s *Service) {
		s.events = sink
	}
}

// NewService builds a CRUD service exposing the given mixins. With no
// mixins, all five operations are exposed.
func NewService(name string, store database.Store, table database.Table, logger *slog.Logger, mixins []Mixin, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		BaseService: services.NewBaseService(name),
		store:       store,
		table:       table.WithDefaults(),
		logger:      logger.With(slog.String("component", "crud"), slog.String("table", table.Name)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(mixins) == 0 {
		mixins = []Mixin{WithList(), WithCreate(), WithUpdate(), WithDelete(), WithRetrieve()}
	}
	for _, m := range mixins {
		m(s)
	}
	return s
}

// Table returns the service's table binding.
func (s *Service) Table() database.Table {
	return s.table
}

// Store returns the service's persistence provider.
func (s *Service) Store() database.Store {
	return s.store
}

// WithList exposes the list operation.
func WithList() Mixin {
	return func(s *Service) {
		s.RegisterAction("list", s.List)
	}
}

// WithCreate exposes the create operation.
func WithCreate() Mixin {
	return func(s *Service) {
		s.RegisterAction("create", s.Create)
	}
}

// WithUpdate exposes the update operation.
func WithUpdate() Mixin {
	return func(s *Service) {
		s.RegisterAction("update", s.Update)
	}
}

// WithDelete exposes the delete operation.
func WithDelete() Mixin {
	return func(s *Service) {
		s.RegisterAction("delete", s.Delete)
	}
}

// WithRetrieve exposes the retrieve operation.
func WithRetrieve() Mixin {
	return func(s *Service) {
		s.RegisterAction("retrieve", s.Retrieve)
	}
}

// ListResult is the payload returned by the list operation.
type ListResult struct {
	Items  []database.Record `json:"items"`
	Total  int64             `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// List returns a page of records. The caller may override limit and
// offset within bounds, and narrow the projection with a "columns"
// list filtered through the table's allowlist.
func (s *Service) List(req services.Request) (services.Response, error) {
	limit := req.GetInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := req.GetInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	columns, err := s.requestedColumns(req)
	if err != nil {
		return services.Response{}, err
	}

	records, err := s.store.List(req.Context(), s.table, columns, limit, offset)
	if err != nil {
		return services.Response{}, apierrors.Internal(fmt.Sprintf("Failed to list %s records", s.table.Name), err)
	}

	total, err := s.store.Count(req.Context(), s.table)
	if err != nil {
		return services.Response{}, apierrors.Internal(fmt.Sprintf("Failed to count %s records", s.table.Name), err)
	}

	return services.OK(
		fmt.Sprintf("%s records retrieved successfully", s.entity()),
		ListResult{Items: records, Total: total, Limit: limit, Offset: offset},
	), nil
}

// Create validates the payload against the allowed-column set,
// persists a new record, and returns it.
func (s *Service) Create(req services.Request) (services.Response, error) {
	rec, err := s.writableRecord(req, false)
	if err != nil {
		return services.Response{}, err
	}

	stored, err := s.store.Insert(req.Context(), s.table, rec)
	if err != nil {
		return services.Response{}, apierrors.Internal(fmt.Sprintf("Failed to create %s record", s.table.Name), err)
	}

	s.emit(Event{Type: "created", Service: s.Name(), Table: s.table.Name, Record: stored})
	return services.OK(fmt.Sprintf("%s created successfully", s.entity()), stored), nil
}

// Update applies the payload to the record named by the primary key.
func (s *Service) Update(req services.Request) (services.Response, error) {
	pk, err := s.primaryKey(req)
	if err != nil {
		return services.Response{}, err
	}
	rec, err := s.writableRecord(req, true)
	if err != nil {
		return services.Response{}, err
	}

	stored, err := s.store.Update(req.Context(), s.table, pk, rec)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return services.Response{}, s.notFound(pk)
		}
		return services.Response{}, apierrors.Internal(fmt.Sprintf("Failed to update %s record", s.table.Name), err)
	}

	s.emit(Event{Type: "updated", Service: s.Name(), Table: s.table.Name, Record: stored})
	return services.OK(fmt.Sprintf("%s updated successfully", s.entity()), stored), nil
}

// Delete removes the record named by the primary key.
func (s *Service) Delete(req services.Request) (services.Response, error) {
	pk, err := s.primaryKey(req)
	if err != nil {
		return services.Response{}, err
	}

	if err := s.store.Delete(req.Context(), s.table, pk); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return services.Response{}, s.notFound(pk)
		}
		return services.Response{}, apierrors.Internal(fmt.Sprintf("Failed to delete %s record", s.table.Name), err)
	}

	s.emit(Event{Type: "deleted", Service: s.Name(), Table: s.table.Name, Key: pk})
	return services.OK(fmt.Sprintf("%s deleted successfully", s.entity()), nil), nil
}

// Retrieve fetches a single record by primary key.
func (s *Service) Retrieve(req services.Request) (services.Response, error) {
	pk, err := s.primaryKey(req)
	if err != nil {
		return services.Response{}, err
	}

	rec, err := s.store.Get(req.Context(), s.table, pk)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return services.Response{}, s.notFound(pk)
		}
		return services.Response{}, apierrors.Internal(fmt.Sprintf("Failed to retrieve %s record", s.table.Name), err)
	}

	return services.OK(fmt.Sprintf("%s retrieved successfully", s.entity()), rec), nil
}

// primaryKey extracts the required primary-key value from the payload.
func (s *Service) primaryKey(req services.Request) (any, error) {
	pk, ok := req.Data[s.table.PrimaryKey]
	if !ok || pk == nil {
		return nil, apierrors.InvalidData("Field %q is required", s.table.PrimaryKey)
	}
	if str, isStr := pk.(string); isStr && str == "" {
		return nil, apierrors.InvalidData("Field %q is required", s.table.PrimaryKey)
	}
	return pk, nil
}

// writableRecord filters the payload down to the allowed columns.
// Unknown columns fail rather than being silently dropped.
func (s *Service) writableRecord(req services.Request, excludePK bool) (database.Record, error) {
	rec := database.Record{}
	var rejected []string
	for k, v := range req.Data {
		if k == s.table.PrimaryKey {
			if !excludePK {
				rec[k] = v
			}
			continue
		}
		if !s.table.Allows(k) {
			rejected = append(rejected, k)
			continue
		}
		rec[k] = v
	}
	if len(rejected) > 0 {
		return nil, apierrors.InvalidData("Unknown columns for %s: %s", s.table.Name, strings.Join(rejected, ", "))
	}
	if len(rec) == 0 {
		return nil, apierrors.InvalidData("Payload contains no writable columns for %s", s.table.Name)
	}
	return rec, nil
}

// requestedColumns reads an optional "columns" projection from the
// payload, restricted to the table's allowlist.
func (s *Service) requestedColumns(req services.Request) ([]string, error) {
	raw, ok := req.Data["columns"]
	if !ok {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, apierrors.InvalidData("Field \"columns\" must be a list of column names")
	}
	columns := make([]string, 0, len(list))
	for _, item := range list {
		name, ok := item.(string)
		if !ok || !s.table.Allows(name) {
			return nil, apierrors.InvalidData("Column %v is not selectable on %s", item, s.table.Name)
		}
		columns = append(columns, name)
	}
	return columns, nil
}

func (s *Service) notFound(pk any) error {
	return apierrors.NotFound("%s with %s %v not found", s.entity(), s.table.PrimaryKey, pk)
}

func (s *Service) emit(event Event) {
	if s.events != nil {
		s.events.RecordChanged(event)
	}
}

// entity returns the capitalized entity label for messages.
func (s *Service) entity() string {
	label := s.table.Entity
	if label == "" {
		label = s.table.Name
	}
	if label == "" {
		return "Record"
	}
	runes := []rune(label)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
