package attendance

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/scan"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/sse"
)

type txKey struct{}

// txState is one fake transaction: the scan writes it has not committed yet and the locks it
// holds.
type txState struct {
	inserts  []scan.Event
	deletes  map[string]bool
	releases []func()
}

func txFrom(ctx context.Context) *txState {
	st, _ := ctx.Value(txKey{}).(*txState)
	return st
}

func (st *txState) end() {
	for i := len(st.releases) - 1; i >= 0; i-- {
		st.releases[i]()
	}
}

// fakeTx gives every transaction its own view of the scan store. Scan writes become visible to
// others on commit and locks are released when the transaction ends. Nested calls join.
type fakeTx struct {
	mu    sync.Mutex
	calls int
	scans *memScans
}

func (f *fakeTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	st := &txState{deletes: make(map[string]bool)}
	err := fn(context.WithValue(ctx, txKey{}, st))
	if err == nil && f.scans != nil {
		f.scans.commit(st)
	}
	st.end()
	return err
}

// lockTable models transaction-scoped advisory locks. A lock is shared or exclusive, re-entrant
// for the transaction holding it, and released when that transaction ends. Outside a
// transaction acquire is a no-op.
type lockTable struct {
	mu      sync.Mutex
	locks   map[string]*heldLock
	waiting map[string]int

	// onAcquire runs after a lock is granted, outside the table mutex.
	onAcquire func(key string)
}

type heldLock struct {
	exclusive *txState
	shared    map[*txState]bool
	released  chan struct{}
}

const settingsLockKey = "settings"

func dayLockKey(employeeID string, date time.Time) string {
	return employeeID + "|" + date.Format(dateLayout)
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*heldLock), waiting: make(map[string]int)}
}

func (h *heldLock) grant(st *txState, exclusive bool) bool {
	if h.exclusive == st {
		return true
	}
	if h.exclusive != nil {
		return false
	}
	if !exclusive {
		h.shared[st] = true
		return true
	}
	for other := range h.shared {
		if other != st {
			return false
		}
	}
	delete(h.shared, st)
	h.exclusive = st
	return true
}

func (l *lockTable) acquire(ctx context.Context, key string, exclusive bool) error {
	st := txFrom(ctx)
	if st == nil {
		return nil
	}

	for {
		l.mu.Lock()
		h := l.locks[key]
		if h == nil {
			h = &heldLock{shared: make(map[*txState]bool), released: make(chan struct{})}
			l.locks[key] = h
		}
		if h.grant(st, exclusive) {
			hook := l.onAcquire
			l.mu.Unlock()
			st.releases = append(st.releases, func() { l.release(key, st) })
			if hook != nil {
				hook(key)
			}
			return nil
		}
		released := h.released
		l.waiting[key]++
		l.mu.Unlock()

		select {
		case <-released:
		case <-ctx.Done():
		}

		l.mu.Lock()
		l.waiting[key]--
		l.mu.Unlock()
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (l *lockTable) release(key string, st *txState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h := l.locks[key]
	if h == nil || (h.exclusive != st && !h.shared[st]) {
		return
	}
	if h.exclusive == st {
		h.exclusive = nil
	}
	delete(h.shared, st)
	close(h.released)
	h.released = make(chan struct{})
}

// waiters reports how many transactions are blocked on key.
func (l *lockTable) waiters(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.waiting[key]
}

type memEmployees struct {
	mu   sync.Mutex
	byID map[string]employee.Employee
}

func newMemEmployees(emps ...employee.Employee) *memEmployees {
	m := &memEmployees{byID: make(map[string]employee.Employee)}
	for _, e := range emps {
		m.byID[e.ID] = e
	}
	return m
}

func (m *memEmployees) GetByID(_ context.Context, id string) (employee.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[id]
	if !ok || e.DeletedAt != nil {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (m *memEmployees) GetByEmployeeCode(_ context.Context, code string) (employee.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.byID {
		if e.EmployeeCode == code && e.DeletedAt == nil {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (m *memEmployees) softDelete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.byID[id]
	now := time.Now()
	e.DeletedAt = &now
	m.byID[id] = e
}

func (m *memEmployees) exists(id string) bool {
	_, err := m.GetByID(context.Background(), id)
	return err == nil
}

// memScans holds committed scans. Writes made inside a fake transaction stay private to it
// until commit.
type memScans struct {
	mu     sync.Mutex
	seq    int
	events []scan.Event
}

// view returns the scans visible to st: committed ones, less its deletes, plus its inserts.
// Callers hold m.mu.
func (m *memScans) view(st *txState) []scan.Event {
	out := make([]scan.Event, 0, len(m.events))
	for _, ev := range m.events {
		if st != nil && st.deletes[ev.ID] {
			continue
		}
		out = append(out, ev)
	}
	if st != nil {
		out = append(out, st.inserts...)
	}
	return out
}

func (m *memScans) commit(st *txState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	for _, ev := range m.events {
		if !st.deletes[ev.ID] {
			kept = append(kept, ev)
		}
	}
	m.events = append(kept, st.inserts...)
}

func (m *memScans) Create(ctx context.Context, ev scan.Event) (scan.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	ev.ID = fmt.Sprintf("scan-%d", m.seq)
	ev.CreatedAt = time.Now()
	if st := txFrom(ctx); st != nil {
		st.inserts = append(st.inserts, ev)
	} else {
		m.events = append(m.events, ev)
	}
	return ev, nil
}

func (m *memScans) GetByID(ctx context.Context, id string) (scan.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range m.view(txFrom(ctx)) {
		if ev.ID == id {
			return ev, nil
		}
	}
	return scan.Event{}, scan.ErrScanNotFound
}

func (m *memScans) Delete(ctx context.Context, id string) (scan.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := txFrom(ctx)
	if st == nil {
		for i, ev := range m.events {
			if ev.ID == id {
				m.events = append(m.events[:i], m.events[i+1:]...)
				return ev, nil
			}
		}
		return scan.Event{}, scan.ErrScanNotFound
	}

	for i, ev := range st.inserts {
		if ev.ID == id {
			st.inserts = append(st.inserts[:i], st.inserts[i+1:]...)
			return ev, nil
		}
	}
	for _, ev := range m.view(st) {
		if ev.ID == id {
			st.deletes[id] = true
			return ev, nil
		}
	}
	return scan.Event{}, scan.ErrScanNotFound
}

func (m *memScans) ListByEmployeeAndDate(ctx context.Context, code string, date time.Time) ([]scan.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []scan.Event
	for _, ev := range m.view(txFrom(ctx)) {
		if ev.EmployeeCode == code && clock.SameDate(ev.Timestamp, date) {
			out = append(out, ev)
		}
	}
	sortByTimestamp(out)
	return out, nil
}

func (m *memScans) ListAll(ctx context.Context) ([]scan.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.view(txFrom(ctx))
	sortByTimestamp(out)
	return out, nil
}

func (m *memScans) List(ctx context.Context, filter scan.ScanFilter) ([]scan.Event, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []scan.Event
	for _, ev := range m.view(txFrom(ctx)) {
		if filter.EmployeeCode != nil && ev.EmployeeCode != *filter.EmployeeCode {
			continue
		}
		if filter.DanglingOnly && !ev.IsDangling() {
			continue
		}
		out = append(out, ev)
	}
	sortByTimestamp(out)
	return out, int64(len(out)), nil
}

func (m *memScans) AssignEmployee(_ context.Context, code string, employeeID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.events {
		if m.events[i].EmployeeCode == code && m.events[i].EmployeeID == nil {
			id := employeeID
			m.events[i].EmployeeID = &id
			n++
		}
	}
	return n, nil
}

func sortByTimestamp(events []scan.Event) {
	sort.SliceStable(events, func(i, j int) bool { return events[i].Timestamp.Before(events[j].Timestamp) })
}

// memAttendances writes records through at once; the day lock keeps writers of a day apart.
type memAttendances struct {
	mu        sync.Mutex
	seq       int
	records   map[string]attendance.Attendance
	employees *memEmployees
	locks     *lockTable
	updates   int
}

func newMemAttendances(employees *memEmployees, locks *lockTable) *memAttendances {
	return &memAttendances{records: make(map[string]attendance.Attendance), employees: employees, locks: locks}
}

func (m *memAttendances) LockDay(ctx context.Context, employeeID string, date time.Time) error {
	return m.locks.acquire(ctx, dayLockKey(employeeID, date), true)
}

func (m *memAttendances) findLocked(employeeID string, date time.Time) *attendance.Attendance {
	for _, a := range m.records {
		if a.EmployeeID == employeeID && clock.SameDate(a.Date, date) {
			found := a
			return &found
		}
	}
	return nil
}

func (m *memAttendances) Create(_ context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findLocked(a.EmployeeID, a.Date) != nil {
		return attendance.Attendance{}, attendance.ErrAttendanceAlreadyExists
	}
	m.seq++
	a.ID = fmt.Sprintf("att-%d", m.seq)
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.records[a.ID] = a
	return a, nil
}

func (m *memAttendances) CreateIfAbsent(ctx context.Context, a attendance.Attendance) (attendance.Attendance, bool, error) {
	created, err := m.Create(ctx, a)
	if err == attendance.ErrAttendanceAlreadyExists {
		return attendance.Attendance{}, false, nil
	}
	return created, err == nil, err
}

func (m *memAttendances) GetByID(_ context.Context, id string) (attendance.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.records[id]
	if !ok {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return a, nil
}

func (m *memAttendances) GetByIDForUpdate(ctx context.Context, id string) (attendance.Attendance, error) {
	return m.GetByID(ctx, id)
}

func (m *memAttendances) GetByEmployeeAndDate(_ context.Context, employeeID string, date time.Time) (*attendance.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findLocked(employeeID, date), nil
}

func (m *memAttendances) GetByEmployeeAndDateForUpdate(ctx context.Context, employeeID string, date time.Time) (*attendance.Attendance, error) {
	return m.GetByEmployeeAndDate(ctx, employeeID, date)
}

func (m *memAttendances) Update(_ context.Context, a attendance.Attendance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[a.ID]; !ok {
		return attendance.ErrAttendanceNotFound
	}
	m.records[a.ID] = a
	m.updates++
	return nil
}

func (m *memAttendances) List(_ context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attendance.Attendance
	for _, a := range m.records {
		if filter.EmployeeID != nil && a.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && string(a.Status) != *filter.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m *memAttendances) ListRecomputableForUpdate(_ context.Context) ([]attendance.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attendance.Attendance
	for _, a := range m.records {
		if !a.Status.IsOverride() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAttendances) DeleteOrphans(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, a := range m.records {
		if !m.employees.exists(a.EmployeeID) {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}

func (m *memAttendances) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return attendance.ErrAttendanceNotFound
	}
	delete(m.records, id)
	return nil
}

// only returns the single record held by the store.
func (m *memAttendances) only() attendance.Attendance {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.records) != 1 {
		panic(fmt.Sprintf("expected exactly one attendance record, have %d", len(m.records)))
	}
	for _, a := range m.records {
		return a
	}
	return attendance.Attendance{}
}

type memLeave struct {
	days map[string]bool // employeeID|YYYY-MM-DD
}

func (m *memLeave) IsOnApprovedLeave(_ context.Context, employeeID string, date time.Time) (bool, error) {
	return m.days[employeeID+"|"+date.Format(dateLayout)], nil
}

// staticSettings keeps the stored settings in cfg. When cached is set, Current serves it
// instead, the way a provider cache can lag behind the store.
type staticSettings struct {
	mu     sync.Mutex
	cfg    settings.AttendanceSettings
	cached *settings.AttendanceSettings
	locks  *lockTable
}

func (s *staticSettings) Current(context.Context) (settings.AttendanceSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil {
		return *s.cached, nil
	}
	return s.cfg, nil
}

func (s *staticSettings) Locked(ctx context.Context) (settings.AttendanceSettings, error) {
	if err := s.locks.acquire(ctx, settingsLockKey, false); err != nil {
		return settings.AttendanceSettings{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg, nil
}

func (s *staticSettings) store(cfg settings.AttendanceSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

type harness struct {
	svc         *AttendanceServiceImpl
	tx          *fakeTx
	attendances *memAttendances
	scans       *memScans
	employees   *memEmployees
	leave       *memLeave
	settings    *staticSettings
	locks       *lockTable
	feed        *sse.Hub
}

var (
	emp001 = employee.Employee{ID: "emp-1", EmployeeCode: "EMP001", FullName: "Ayu Lestari"}
	emp002 = employee.Employee{ID: "emp-2", EmployeeCode: "EMP002", FullName: "Budi Santoso"}
)

func newHarness() *harness {
	employees := newMemEmployees(emp001, emp002)
	locks := newLockTable()
	scans := &memScans{}
	h := &harness{
		tx:          &fakeTx{scans: scans},
		attendances: newMemAttendances(employees, locks),
		scans:       scans,
		employees:   employees,
		leave:       &memLeave{days: map[string]bool{}},
		settings:    &staticSettings{cfg: settings.Default(), locks: locks},
		locks:       locks,
		feed:        sse.NewHub(64),
	}
	h.svc = NewAttendanceService(h.tx, h.attendances, h.scans, h.employees, h.leave, h.settings, Config{
		Classifier:  mustClassifier(DefaultWindowBounds()),
		SyncWorkers: 4,
		Events:      h.feed,
	})
	h.svc.retryBackoff = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}
	return h
}

func mustClassifier(b WindowBounds) WindowClassifier {
	c, err := NewWindowClassifier(b)
	if err != nil {
		panic(err)
	}
	return c
}

// seedScan stores a scan directly, bypassing reconciliation.
func (h *harness) seedScan(code, ts string) scan.Event {
	t, err := time.Parse("2006-01-02 15:04:05", ts)
	if err != nil {
		panic(err)
	}
	var employeeID *string
	if emp, err := h.employees.GetByEmployeeCode(context.Background(), code); err == nil {
		employeeID = &emp.ID
	}
	ev, _ := h.scans.Create(context.Background(), scan.Event{EmployeeCode: code, EmployeeID: employeeID, Timestamp: t})
	return ev
}

func tod(s string) *clock.TimeOfDay {
	t := clock.MustParse(s)
	return &t
}

func day(s string) time.Time {
	return mustParseDate(s)
}

func (m *memAttendances) forEmployee(employeeID string) attendance.Attendance {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.records {
		if a.EmployeeID == employeeID {
			return a
		}
	}
	panic("no attendance for " + employeeID)
}
