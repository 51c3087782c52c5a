package app

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/hromada/backoffice/pkg/domain/charge"
	"github.com/hromada/backoffice/pkg/domain/cnap"
	"github.com/hromada/backoffice/pkg/domain/debtor"
	"github.com/hromada/backoffice/pkg/domain/receipt"
	"github.com/hromada/backoffice/pkg/domain/registry"
	"github.com/hromada/backoffice/pkg/domain/searchlog"
	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/logger"
	"github.com/hromada/backoffice/pkg/pagination"
	"github.com/hromada/backoffice/pkg/validator"
)

const testIBAN = "UA213223130000026007233566001"

func testDeps() (*validator.Validator, *logger.Logger) {
	return validator.New(), logger.NewNop()
}

// mockDebtorRepository implements debtor.Repository for testing.
type mockDebtorRepository struct {
	debtors map[shared.ID]*debtor.Debtor
	nextID  shared.ID
	lastQ   shared.ListQuery
}

func newMockDebtorRepository() *mockDebtorRepository {
	return &mockDebtorRepository{debtors: make(map[shared.ID]*debtor.Debtor)}
}

func (m *mockDebtorRepository) Create(_ context.Context, d *debtor.Debtor) error {
	for _, existing := range m.debtors {
		if existing.TaxNumber == d.TaxNumber {
			return shared.Conflict("debtor with tax_number '"+d.TaxNumber+"' already exists", nil)
		}
	}
	m.nextID++
	d.ID = m.nextID
	m.debtors[d.ID] = d
	return nil
}

func (m *mockDebtorRepository) GetByID(_ context.Context, id shared.ID) (*debtor.Debtor, error) {
	d, ok := m.debtors[id]
	if !ok {
		return nil, shared.NotFound("debtor")
	}
	return d, nil
}

func (m *mockDebtorRepository) Update(_ context.Context, d *debtor.Debtor) error {
	if _, ok := m.debtors[d.ID]; !ok {
		return shared.NotFound("debtor")
	}
	m.debtors[d.ID] = d
	return nil
}

func (m *mockDebtorRepository) Delete(_ context.Context, id shared.ID) error {
	if _, ok := m.debtors[id]; !ok {
		return shared.NotFound("debtor")
	}
	delete(m.debtors, id)
	return nil
}

func (m *mockDebtorRepository) List(_ context.Context, q shared.ListQuery) (pagination.Result[*debtor.Debtor], error) {
	m.lastQ = q
	items := make([]*debtor.Debtor, 0, len(m.debtors))
	for _, d := range m.debtors {
		items = append(items, d)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return pagination.NewResult(items, int64(len(items)), q.Page), nil
}

// mockChargeRepository implements charge.Repository for testing.
type mockChargeRepository struct {
	charges map[shared.ID]*charge.Charge
	nextID  shared.ID
}

func newMockChargeRepository() *mockChargeRepository {
	return &mockChargeRepository{charges: make(map[shared.ID]*charge.Charge)}
}

func (m *mockChargeRepository) Create(_ context.Context, c *charge.Charge) error {
	m.nextID++
	c.ID = m.nextID
	m.charges[c.ID] = c
	return nil
}

func (m *mockChargeRepository) GetByID(_ context.Context, id shared.ID) (*charge.Charge, error) {
	c, ok := m.charges[id]
	if !ok {
		return nil, shared.NotFound("charge")
	}
	return c, nil
}

func (m *mockChargeRepository) UpdateStatus(_ context.Context, c *charge.Charge) error {
	m.charges[c.ID] = c
	return nil
}

func (m *mockChargeRepository) Delete(_ context.Context, id shared.ID) error {
	delete(m.charges, id)
	return nil
}

func (m *mockChargeRepository) List(_ context.Context, q shared.ListQuery) (pagination.Result[*charge.Charge], error) {
	items := make([]*charge.Charge, 0, len(m.charges))
	for _, c := range m.charges {
		items = append(items, c)
	}
	return pagination.NewResult(items, int64(len(items)), q.Page), nil
}

func (m *mockChargeRepository) Scroll(_ context.Context, q shared.ListQuery) (pagination.CursorResult[*charge.Charge], error) {
	items := make([]*charge.Charge, 0, len(m.charges))
	for _, c := range m.charges {
		items = append(items, c)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	c := pagination.NewCursor(0, "", q.Page.Limit)
	if q.Cursor != nil {
		c = *q.Cursor
	}
	return pagination.NewCursorResult(items, c, func(ch *charge.Charge) int64 { return ch.ID }), nil
}

// mockReceiptRepository implements receipt.Repository for testing.
type mockReceiptRepository struct {
	receipts map[shared.ID]*receipt.Receipt
	nextID   shared.ID
}

func newMockReceiptRepository() *mockReceiptRepository {
	return &mockReceiptRepository{receipts: make(map[shared.ID]*receipt.Receipt)}
}

func (m *mockReceiptRepository) Create(_ context.Context, r *receipt.Receipt) error {
	for _, existing := range m.receipts {
		if existing.Identifier == r.Identifier {
			return shared.Conflict("receipt with identifier '"+r.Identifier+"' already exists", nil)
		}
	}
	m.nextID++
	r.ID = m.nextID
	m.receipts[r.ID] = r
	return nil
}

func (m *mockReceiptRepository) GetByID(_ context.Context, id shared.ID) (*receipt.Receipt, error) {
	r, ok := m.receipts[id]
	if !ok {
		return nil, shared.NotFound("receipt")
	}
	return r, nil
}

func (m *mockReceiptRepository) Delete(_ context.Context, id shared.ID) error {
	if _, ok := m.receipts[id]; !ok {
		return shared.NotFound("receipt")
	}
	delete(m.receipts, id)
	return nil
}

func (m *mockReceiptRepository) sorted() []*receipt.Receipt {
	items := make([]*receipt.Receipt, 0, len(m.receipts))
	for _, r := range m.receipts {
		items = append(items, r)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	return items
}

func (m *mockReceiptRepository) List(_ context.Context, q shared.ListQuery) (pagination.Result[*receipt.Receipt], error) {
	items := m.sorted()
	return pagination.NewResult(items, int64(len(items)), q.Page), nil
}

func (m *mockReceiptRepository) Scroll(_ context.Context, q shared.ListQuery) (pagination.CursorResult[*receipt.Receipt], error) {
	c := pagination.NewCursor(0, "", q.Page.Limit)
	if q.Cursor != nil {
		c = *q.Cursor
	}
	return pagination.NewCursorResult(m.sorted(), c, func(r *receipt.Receipt) int64 { return r.ID }), nil
}

// mockCNAPServiceRepository implements cnap.ServiceRepository for testing.
type mockCNAPServiceRepository struct {
	services map[shared.ID]*cnap.Service
	nextID   shared.ID
}

func newMockCNAPServiceRepository() *mockCNAPServiceRepository {
	return &mockCNAPServiceRepository{services: make(map[shared.ID]*cnap.Service)}
}

func (m *mockCNAPServiceRepository) Create(_ context.Context, s *cnap.Service) error {
	m.nextID++
	s.ID = m.nextID
	m.services[s.ID] = s
	return nil
}

func (m *mockCNAPServiceRepository) GetByID(_ context.Context, id shared.ID) (*cnap.Service, error) {
	s, ok := m.services[id]
	if !ok {
		return nil, shared.NotFound("cnap service")
	}
	return s, nil
}

func (m *mockCNAPServiceRepository) Update(_ context.Context, s *cnap.Service) error {
	m.services[s.ID] = s
	return nil
}

func (m *mockCNAPServiceRepository) Delete(_ context.Context, id shared.ID) error {
	delete(m.services, id)
	return nil
}

func (m *mockCNAPServiceRepository) List(_ context.Context, q shared.ListQuery) (pagination.Result[*cnap.Service], error) {
	items := make([]*cnap.Service, 0, len(m.services))
	for _, s := range m.services {
		items = append(items, s)
	}
	return pagination.NewResult(items, int64(len(items)), q.Page), nil
}

// mockCNAPAccountRepository implements cnap.AccountRepository for testing. It
// assigns account numbers from the service repository like the database
// transaction does.
type mockCNAPAccountRepository struct {
	services *mockCNAPServiceRepository
	accounts map[shared.ID]*cnap.Account
	nextID   shared.ID
}

func newMockCNAPAccountRepository(services *mockCNAPServiceRepository) *mockCNAPAccountRepository {
	return &mockCNAPAccountRepository{services: services, accounts: make(map[shared.ID]*cnap.Account)}
}

func (m *mockCNAPAccountRepository) Create(_ context.Context, a *cnap.Account) error {
	svc, ok := m.services.services[a.ServiceID]
	if !ok {
		return shared.Validation("service_id", "service_id does not exist")
	}
	svc.IssuedCount++
	m.nextID++
	a.ID = m.nextID
	a.AccountNumber = cnap.AccountNumber(svc.Identifier, svc.IssuedCount)
	m.accounts[a.ID] = a
	return nil
}

func (m *mockCNAPAccountRepository) GetByID(_ context.Context, id shared.ID) (*cnap.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, shared.NotFound("cnap account")
	}
	return a, nil
}

func (m *mockCNAPAccountRepository) Delete(_ context.Context, id shared.ID) error {
	delete(m.accounts, id)
	return nil
}

func (m *mockCNAPAccountRepository) List(_ context.Context, q shared.ListQuery) (pagination.Result[*cnap.Account], error) {
	items := make([]*cnap.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		items = append(items, a)
	}
	return pagination.NewResult(items, int64(len(items)), q.Page), nil
}

// mockRegistryRepository implements registry.Repository for testing.
type mockRegistryRepository struct {
	registries map[shared.ID]*registry.Registry
	records    map[shared.ID][]*registry.Record
	nextID     shared.ID
	published  map[shared.ID]time.Time
}

func newMockRegistryRepository() *mockRegistryRepository {
	return &mockRegistryRepository{
		registries: make(map[shared.ID]*registry.Registry),
		records:    make(map[shared.ID][]*registry.Record),
		published:  make(map[shared.ID]time.Time),
	}
}

func (m *mockRegistryRepository) Create(_ context.Context, r *registry.Registry) error {
	m.nextID++
	r.ID = m.nextID
	m.registries[r.ID] = r
	return nil
}

func (m *mockRegistryRepository) GetByID(_ context.Context, id shared.ID) (*registry.Registry, error) {
	r, ok := m.registries[id]
	if !ok {
		return nil, shared.NotFound("registry")
	}
	return r, nil
}

func (m *mockRegistryRepository) Update(_ context.Context, r *registry.Registry) error {
	m.registries[r.ID] = r
	return nil
}

func (m *mockRegistryRepository) Delete(_ context.Context, id shared.ID) error {
	delete(m.registries, id)
	delete(m.records, id)
	return nil
}

func (m *mockRegistryRepository) List(_ context.Context, q shared.ListQuery) (pagination.Result[*registry.Registry], error) {
	items := make([]*registry.Registry, 0, len(m.registries))
	for _, r := range m.registries {
		items = append(items, r)
	}
	return pagination.NewResult(items, int64(len(items)), q.Page), nil
}

func (m *mockRegistryRepository) ListByStatus(_ context.Context, status registry.Status) ([]*registry.Registry, error) {
	var items []*registry.Registry
	for _, r := range m.registries {
		if r.Status == status {
			items = append(items, r)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (m *mockRegistryRepository) AddRecord(_ context.Context, rec *registry.Record) error {
	r, ok := m.registries[rec.RegistryID]
	if !ok {
		return shared.NotFound("registry")
	}
	m.nextID++
	rec.ID = m.nextID
	m.records[rec.RegistryID] = append(m.records[rec.RegistryID], rec)
	r.RecordsCount++
	return nil
}

func (m *mockRegistryRepository) ListRecords(_ context.Context, registryID shared.ID, c pagination.Cursor) (pagination.CursorResult[*registry.Record], error) {
	recs := append([]*registry.Record(nil), m.records[registryID]...)
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID > recs[j].ID })
	return pagination.NewCursorResult(recs, c, func(r *registry.Record) int64 { return r.ID }), nil
}

func (m *mockRegistryRepository) EachRecord(_ context.Context, registryID shared.ID, fn func(*registry.Record) error) error {
	for _, rec := range m.records[registryID] {
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockRegistryRepository) MarkPublished(_ context.Context, id shared.ID, at time.Time) error {
	m.published[id] = at
	return nil
}

// mockPublisher implements registry.Publisher by buffering uploads.
type mockPublisher struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{objects: make(map[string][]byte)}
}

func (m *mockPublisher) Publish(_ context.Context, key string, body io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()
	return "s3://open-data/" + key, nil
}

// mockSearchLogRepository implements searchlog.Repository for testing.
type mockSearchLogRepository struct {
	entries      []*searchlog.Entry
	deleteCutoff time.Time
	deleted      int64
	err          error
}

func (m *mockSearchLogRepository) Create(_ context.Context, e *searchlog.Entry) error {
	if m.err != nil {
		return m.err
	}
	e.ID = shared.ID(len(m.entries) + 1)
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockSearchLogRepository) List(_ context.Context, q shared.ListQuery) (pagination.Result[*searchlog.Entry], error) {
	return pagination.NewResult(m.entries, int64(len(m.entries)), q.Page), nil
}

func (m *mockSearchLogRepository) Scroll(_ context.Context, q shared.ListQuery) (pagination.CursorResult[*searchlog.Entry], error) {
	c := pagination.NewCursor(0, "", q.Page.Limit)
	if q.Cursor != nil {
		c = *q.Cursor
	}
	return pagination.NewCursorResult(m.entries, c, func(e *searchlog.Entry) int64 { return e.ID }), nil
}

func (m *mockSearchLogRepository) DeleteBefore(_ context.Context, t time.Time) (int64, error) {
	m.deleteCutoff = t
	return m.deleted, nil
}

// recordingRecorder implements searchlog.Recorder by keeping entries in
// memory.
type recordingRecorder struct {
	entries []*searchlog.Entry
	err     error
}

func (r *recordingRecorder) Record(_ context.Context, e *searchlog.Entry) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, e)
	return nil
}

var errBoom = errors.New("boom")
