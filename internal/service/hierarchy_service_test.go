package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"

	"github.com/talent-grid-api/internal/client"
	"github.com/talent-grid-api/internal/domain"
	"github.com/talent-grid-api/internal/service"
)

type mockOrgClient struct {
	managers []domain.ManagerInfo
	roots    []domain.OrgTreeNode
	fail     bool

	mu            sync.Mutex
	managersCalls int
	treeCalls     int
}

func (m *mockOrgClient) GetManagers(ctx context.Context, sessionID string, minTeamSize int) ([]domain.ManagerInfo, error) {
	m.mu.Lock()
	m.managersCalls++
	m.mu.Unlock()
	if m.fail {
		return nil, domain.ErrOrgServiceUnavailable
	}
	return m.managers, nil
}

func (m *mockOrgClient) GetOrgTree(ctx context.Context, sessionID string, minTeamSize int) ([]domain.OrgTreeNode, error) {
	m.mu.Lock()
	m.treeCalls++
	m.mu.Unlock()
	if m.fail {
		return nil, domain.ErrOrgServiceUnavailable
	}
	return m.roots, nil
}

func (m *mockOrgClient) calls() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.managersCalls, m.treeCalls
}

type mockEmployeeRepo struct {
	employees []domain.Employee
}

func (m *mockEmployeeRepo) BulkCreate(ctx context.Context, employees []domain.Employee) error {
	m.employees = append(m.employees, employees...)
	return nil
}

func (m *mockEmployeeRepo) ListBySession(ctx context.Context, sessionID string) ([]domain.Employee, error) {
	return m.employees, nil
}

func (m *mockEmployeeRepo) GetByEmployeeID(ctx context.Context, sessionID string, employeeID int64) (*domain.Employee, error) {
	for i := range m.employees {
		if m.employees[i].EmployeeID == employeeID {
			return &m.employees[i], nil
		}
	}
	return nil, domain.ErrEmployeeNotFound
}

func (m *mockEmployeeRepo) Update(ctx context.Context, emp *domain.Employee) error {
	for i := range m.employees {
		if m.employees[i].EmployeeID == emp.EmployeeID {
			m.employees[i] = *emp
			return nil
		}
	}
	return domain.ErrEmployeeNotFound
}

// warnCounter считает записи уровня Warn, остальное отбрасывает
type warnCounter struct {
	mu    sync.Mutex
	count int
}

func (c *warnCounter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelWarn
}

func (c *warnCounter) Handle(_ context.Context, record slog.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if record.Level == slog.LevelWarn {
		c.count++
	}
	return nil
}

func (c *warnCounter) WithAttrs(_ []slog.Attr) slog.Handler { return c }
func (c *warnCounter) WithGroup(_ string) slog.Handler      { return c }

func (c *warnCounter) warnings() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var _ client.OrgHierarchyClient = (*mockOrgClient)(nil)

func hierarchyRoster() []domain.Employee {
	return []domain.Employee{
		{EmployeeID: 10, Name: "Alice CEO", GridPosition: 5},
		{EmployeeID: 11, Name: "Bob Lead", Manager: strPtr("Alice CEO"), ManagementChain: []string{"Alice CEO"}, GridPosition: 5},
		{EmployeeID: 12, Name: "Carol Dev", Manager: strPtr("Bob Lead"), ManagementChain: []string{"Bob Lead", "Alice CEO"}, GridPosition: 5},
		{EmployeeID: 13, Name: "Dave Dev", Manager: strPtr("Bob Lead"), ManagementChain: []string{"Bob Lead", "Alice CEO"}, GridPosition: 5},
	}
}

func TestTraverseTree_TwoNodeCycle(t *testing.T) {
	counter := &warnCounter{}
	logger := slog.New(counter)

	// A→B→A: клон A внутри B размыкается по visited
	cyclic := []domain.OrgTreeNode{
		{
			EmployeeID: 1,
			Name:       "A",
			DirectReports: []domain.OrgTreeNode{
				{
					EmployeeID: 2,
					Name:       "B",
					DirectReports: []domain.OrgTreeNode{
						{EmployeeID: 1, Name: "A"},
					},
				},
			},
		},
	}

	visited := make(map[int64]struct{})
	ids := service.TraverseTree(logger, cyclic, 1, visited)

	if !reflect.DeepEqual(ids, []int64{1, 2}) {
		t.Errorf("expected [1, 2], got %v", ids)
	}
	if counter.warnings() != 1 {
		t.Errorf("expected exactly one warning, got %d", counter.warnings())
	}
}

func TestTraverseTree_SharedVisitedAcrossCalls(t *testing.T) {
	logger := discardLogger()

	nodes := []domain.OrgTreeNode{{EmployeeID: 7, Name: "Solo"}}
	visited := make(map[int64]struct{})

	first := service.TraverseTree(logger, nodes, 7, visited)
	if !reflect.DeepEqual(first, []int64{7}) {
		t.Fatalf("expected [7], got %v", first)
	}

	// Повторный вызов с тем же visited видит дубликат и возвращает пусто
	second := service.TraverseTree(logger, nodes, 7, visited)
	if len(second) != 0 {
		t.Errorf("expected empty result on the second call, got %v", second)
	}
}

func TestTraverseTree_SelfLoop(t *testing.T) {
	counter := &warnCounter{}
	logger := slog.New(counter)

	selfLoop := []domain.OrgTreeNode{
		{
			EmployeeID: 3,
			Name:       "Loop",
			DirectReports: []domain.OrgTreeNode{
				{EmployeeID: 3, Name: "Loop"},
			},
		},
	}

	ids := service.TraverseTree(logger, selfLoop, 3, make(map[int64]struct{}))
	if !reflect.DeepEqual(ids, []int64{3}) {
		t.Errorf("expected [3], got %v", ids)
	}
	if counter.warnings() != 1 {
		t.Errorf("expected one warning for the self-loop, got %d", counter.warnings())
	}
}

func TestTraverseTree_EmptyInput(t *testing.T) {
	ids := service.TraverseTree(discardLogger(), nil, 0, make(map[int64]struct{}))
	if len(ids) != 0 {
		t.Errorf("expected empty output for empty input, got %v", ids)
	}
}

func TestManagers_AuthoritativeSource(t *testing.T) {
	orgClient := &mockOrgClient{
		managers: []domain.ManagerInfo{{EmployeeID: 10, Name: "Alice CEO", TeamSize: 3}},
	}
	svc := service.NewHierarchyService(orgClient, &mockEmployeeRepo{employees: hierarchyRoster()}, discardLogger())

	list, err := svc.Managers(context.Background(), "s1", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if list.Source != domain.ManagerSourceService {
		t.Errorf("expected service source, got %s", list.Source)
	}
	if len(list.Managers) != 1 || list.Managers[0].EmployeeID != 10 {
		t.Errorf("unexpected managers: %v", list.Managers)
	}
}

func TestManagers_CachesAuthoritativeSnapshot(t *testing.T) {
	orgClient := &mockOrgClient{
		managers: []domain.ManagerInfo{{EmployeeID: 10, Name: "Alice CEO", TeamSize: 3}},
	}
	svc := service.NewHierarchyService(orgClient, &mockEmployeeRepo{employees: hierarchyRoster()}, discardLogger())

	// Повторные запросы по одному ключу обслуживаются из кэша
	for i := 0; i < 3; i++ {
		if _, err := svc.Managers(context.Background(), "s1", 1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := svc.OrgTree(context.Background(), "s1", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	managersCalls, treeCalls := orgClient.calls()
	if managersCalls != 1 || treeCalls != 1 {
		t.Errorf("expected a single upstream fetch pair, got %d managers and %d tree calls", managersCalls, treeCalls)
	}

	// Другой порог — другой ключ, кэш не переиспользуется
	if _, err := svc.Managers(context.Background(), "s1", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	managersCalls, _ = orgClient.calls()
	if managersCalls != 2 {
		t.Errorf("expected a fresh fetch for a new min team size, got %d managers calls", managersCalls)
	}
}

func TestManagers_DegradedSnapshotNotCached(t *testing.T) {
	orgClient := &mockOrgClient{fail: true}
	svc := service.NewHierarchyService(orgClient, &mockEmployeeRepo{employees: hierarchyRoster()}, discardLogger())

	// Деградированный ответ не кэшируется: каждый запрос снова
	// пробует авторитетный сервис
	for i := 0; i < 2; i++ {
		if _, err := svc.Managers(context.Background(), "s1", 1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	managersCalls, _ := orgClient.calls()
	if managersCalls != 2 {
		t.Errorf("expected an upstream retry per request, got %d managers calls", managersCalls)
	}
}

func TestManagers_DegradedReconstruction(t *testing.T) {
	orgClient := &mockOrgClient{fail: true}
	svc := service.NewHierarchyService(orgClient, &mockEmployeeRepo{employees: hierarchyRoster()}, discardLogger())

	list, err := svc.Managers(context.Background(), "s1", 1)
	if err != nil {
		t.Fatalf("degradation must not surface an error: %v", err)
	}

	if list.Source != domain.ManagerSourceDirectory {
		t.Errorf("expected directory source, got %s", list.Source)
	}

	// Bob Lead ведёт двоих, Alice CEO одного: сортировка по размеру команды
	// по убыванию, синтетические id отрицательные и уникальные
	if len(list.Managers) != 2 {
		t.Fatalf("expected 2 reconstructed managers, got %v", list.Managers)
	}
	if list.Managers[0].Name != "Bob Lead" || list.Managers[0].TeamSize != 2 {
		t.Errorf("expected Bob Lead with team size 2 first, got %+v", list.Managers[0])
	}
	if list.Managers[1].Name != "Alice CEO" || list.Managers[1].TeamSize != 1 {
		t.Errorf("expected Alice CEO with team size 1 second, got %+v", list.Managers[1])
	}

	seen := make(map[int64]struct{})
	for _, m := range list.Managers {
		if m.EmployeeID >= 0 {
			t.Errorf("synthetic id must be negative, got %d", m.EmployeeID)
		}
		if _, dup := seen[m.EmployeeID]; dup {
			t.Errorf("synthetic ids must be unique, got duplicate %d", m.EmployeeID)
		}
		seen[m.EmployeeID] = struct{}{}
	}
}

func TestManagers_DegradedRespectsMinTeamSize(t *testing.T) {
	orgClient := &mockOrgClient{fail: true}
	svc := service.NewHierarchyService(orgClient, &mockEmployeeRepo{employees: hierarchyRoster()}, discardLogger())

	// Порог действует и в деградированном режиме: Alice CEO с командой
	// из одного человека отсекается
	list, err := svc.Managers(context.Background(), "s1", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list.Managers) != 1 || list.Managers[0].Name != "Bob Lead" {
		t.Fatalf("expected only Bob Lead above the threshold, got %+v", list.Managers)
	}
	// Синтетический id не зависит от порога: Bob Lead всегда -1
	if list.Managers[0].EmployeeID != -1 {
		t.Errorf("expected synthetic id -1 regardless of threshold, got %d", list.Managers[0].EmployeeID)
	}
}

func TestOrgTree_DegradedIsUnavailableNotEmpty(t *testing.T) {
	orgClient := &mockOrgClient{fail: true}
	svc := service.NewHierarchyService(orgClient, &mockEmployeeRepo{employees: hierarchyRoster()}, discardLogger())

	tree, err := svc.OrgTree(context.Background(), "s1", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tree.Available {
		t.Error("degraded tree must be marked unavailable")
	}
	if len(tree.Roots) != 0 {
		t.Errorf("degraded tree must be empty, got %v", tree.Roots)
	}
}

func TestAllReportIDs_FromTree(t *testing.T) {
	orgClient := &mockOrgClient{
		roots: []domain.OrgTreeNode{
			{
				EmployeeID: 10,
				Name:       "Alice CEO",
				DirectReports: []domain.OrgTreeNode{
					{
						EmployeeID: 11,
						Name:       "Bob Lead",
						DirectReports: []domain.OrgTreeNode{
							{EmployeeID: 12, Name: "Carol Dev"},
							{EmployeeID: 13, Name: "Dave Dev"},
						},
					},
				},
			},
		},
	}
	svc := service.NewHierarchyService(orgClient, &mockEmployeeRepo{employees: hierarchyRoster()}, discardLogger())

	ids, err := svc.AllReportIDs(context.Background(), "s1", 11)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(ids, []int64{12, 13}) {
		t.Errorf("expected [12, 13], got %v", ids)
	}
}

func TestAllReportIDs_DirectoryFallback(t *testing.T) {
	orgClient := &mockOrgClient{fail: true}
	svc := service.NewHierarchyService(orgClient, &mockEmployeeRepo{employees: hierarchyRoster()}, discardLogger())

	// При недоступном дереве — только прямые подчинённые из ростера
	ids, err := svc.AllReportIDs(context.Background(), "s1", 11)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(ids, []int64{12, 13}) {
		t.Errorf("expected direct reports [12, 13], got %v", ids)
	}
}

func TestAllReportIDs_SyntheticManagerID(t *testing.T) {
	orgClient := &mockOrgClient{fail: true}
	svc := service.NewHierarchyService(orgClient, &mockEmployeeRepo{employees: hierarchyRoster()}, discardLogger())

	list, err := svc.Managers(context.Background(), "s1", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Синтетический id из деградированного списка тоже разрешим
	bobID := list.Managers[0].EmployeeID
	ids, err := svc.AllReportIDs(context.Background(), "s1", bobID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(ids, []int64{12, 13}) {
		t.Errorf("expected [12, 13] via synthetic id, got %v", ids)
	}
}

func TestReportingChain(t *testing.T) {
	svc := service.NewHierarchyService(&mockOrgClient{}, &mockEmployeeRepo{employees: hierarchyRoster()}, discardLogger())

	chain, err := svc.ReportingChain(context.Background(), "s1", 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(chain, []string{"Bob Lead", "Alice CEO"}) {
		t.Errorf("expected [Bob Lead, Alice CEO], got %v", chain)
	}

	if _, err := svc.ReportingChain(context.Background(), "s1", 999); !errors.Is(err, domain.ErrEmployeeNotFound) {
		t.Errorf("expected ErrEmployeeNotFound, got %v", err)
	}
}
