package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/talent-grid-api/internal/client"
	"github.com/talent-grid-api/internal/domain"
	"github.com/talent-grid-api/internal/repository"
)

// HierarchyService определяет интерфейс резолвера оргиерархии.
// Источник — внешний сервис; при его недоступности список менеджеров
// реконструируется из плоского ростера, дерево остаётся недоступным
type HierarchyService interface {
	Managers(ctx context.Context, sessionID string, minTeamSize int) (*domain.ManagerList, error)
	OrgTree(ctx context.Context, sessionID string, minTeamSize int) (*domain.OrgTreeResult, error)
	AllReportIDs(ctx context.Context, sessionID string, managerID int64) ([]int64, error)
	ReportingChain(ctx context.Context, sessionID string, employeeID int64) ([]string, error)
}

// hierarchySnapshot — результат одной пары запросов к сервису иерархии
type hierarchySnapshot struct {
	managers *domain.ManagerList
	tree     *domain.OrgTreeResult
}

type hierarchyService struct {
	orgClient client.OrgHierarchyClient
	empRepo   repository.EmployeeRepository
	logger    *slog.Logger

	// Кэш авторитетных снимков по ключу сессия+minTeamSize. Побеждает
	// последний запрос: ответ, пришедший после старта более нового запроса
	// по тому же ключу, возвращается своему вызывающему, но в кэш не попадает
	mu         sync.Mutex
	generation map[string]int64
	cache      map[string]hierarchySnapshot
}

// snapshotKey — ключ кэша; ответы сервиса зависят и от сессии, и от порога
func snapshotKey(sessionID string, minTeamSize int) string {
	return fmt.Sprintf("%s|%d", sessionID, minTeamSize)
}

// NewHierarchyService создаёт новый экземпляр сервиса
func NewHierarchyService(orgClient client.OrgHierarchyClient, empRepo repository.EmployeeRepository, logger *slog.Logger) HierarchyService {
	return &hierarchyService{
		orgClient:  orgClient,
		empRepo:    empRepo,
		logger:     logger,
		generation: make(map[string]int64),
		cache:      make(map[string]hierarchySnapshot),
	}
}

func (s *hierarchyService) Managers(ctx context.Context, sessionID string, minTeamSize int) (*domain.ManagerList, error) {
	snapshot, err := s.resolve(ctx, sessionID, minTeamSize)
	if err != nil {
		return nil, err
	}
	return snapshot.managers, nil
}

func (s *hierarchyService) OrgTree(ctx context.Context, sessionID string, minTeamSize int) (*domain.OrgTreeResult, error) {
	snapshot, err := s.resolve(ctx, sessionID, minTeamSize)
	if err != nil {
		return nil, err
	}
	return snapshot.tree, nil
}

// resolve отдаёт кэшированный снимок, а при его отсутствии запрашивает
// менеджеров и дерево одновременно и соединяет результат. Любой сбой
// переключает на деградированную реконструкцию из ростера — наружу уходит
// пометка источника, а не ошибка. Деградированные снимки не кэшируются:
// следующий запрос снова пробует авторитетный сервис
func (s *hierarchyService) resolve(ctx context.Context, sessionID string, minTeamSize int) (hierarchySnapshot, error) {
	key := snapshotKey(sessionID, minTeamSize)

	s.mu.Lock()
	if snapshot, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return snapshot, nil
	}
	gen := s.generation[key] + 1
	s.generation[key] = gen
	s.mu.Unlock()

	var (
		wg          sync.WaitGroup
		managers    []domain.ManagerInfo
		roots       []domain.OrgTreeNode
		managersErr error
		treeErr     error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		managers, managersErr = s.orgClient.GetManagers(ctx, sessionID, minTeamSize)
	}()
	go func() {
		defer wg.Done()
		roots, treeErr = s.orgClient.GetOrgTree(ctx, sessionID, minTeamSize)
	}()
	wg.Wait()

	var snapshot hierarchySnapshot
	authoritative := managersErr == nil && treeErr == nil
	if !authoritative {
		degraded, err := s.reconstructManagers(ctx, sessionID, minTeamSize)
		if err != nil {
			return hierarchySnapshot{}, err
		}
		s.logger.Warn("org hierarchy service unavailable, using directory reconstruction",
			slog.String("session_id", sessionID),
		)
		// Дерево из плоского списка не восстановить: связи менеджер-менеджера
		// в нём нет. Пустое дерево с Available=false значит «глубина
		// недоступна», а не «подчинённых нет»
		snapshot = hierarchySnapshot{
			managers: degraded,
			tree:     &domain.OrgTreeResult{Roots: []domain.OrgTreeNode{}, Available: false},
		}
	} else {
		if managers == nil {
			managers = []domain.ManagerInfo{}
		}
		if roots == nil {
			roots = []domain.OrgTreeNode{}
		}
		snapshot = hierarchySnapshot{
			managers: &domain.ManagerList{Managers: managers, Source: domain.ManagerSourceService},
			tree:     &domain.OrgTreeResult{Roots: roots, Available: true},
		}
	}

	s.mu.Lock()
	if authoritative && s.generation[key] == gen {
		s.cache[key] = snapshot
	}
	s.mu.Unlock()

	return snapshot, nil
}

// reconstructManagers собирает деградированный список менеджеров из плоского
// ростера: различные непустые имена менеджеров, размер команды — число прямых
// подчинённых, сортировка по размеру команды по убыванию, затем по имени.
// Синтетические id отрицательные и не пересекаются с настоящими; id
// присваиваются до среза по minTeamSize, чтобы один и тот же менеджер получал
// один и тот же id при любом пороге
func (s *hierarchyService) reconstructManagers(ctx context.Context, sessionID string, minTeamSize int) (*domain.ManagerList, error) {
	employees, err := s.empRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	teamSizes := make(map[string]int)
	for _, emp := range employees {
		name := strings.TrimSpace(emp.ManagerName())
		if name == "" {
			continue
		}
		teamSizes[name]++
	}

	managers := make([]domain.ManagerInfo, 0, len(teamSizes))
	for name, size := range teamSizes {
		managers = append(managers, domain.ManagerInfo{Name: name, TeamSize: size})
	}
	sort.Slice(managers, func(i, j int) bool {
		if managers[i].TeamSize != managers[j].TeamSize {
			return managers[i].TeamSize > managers[j].TeamSize
		}
		return managers[i].Name < managers[j].Name
	})
	for i := range managers {
		managers[i].EmployeeID = -1 - int64(i)
	}

	if minTeamSize > 1 {
		filtered := make([]domain.ManagerInfo, 0, len(managers))
		for _, m := range managers {
			if m.TeamSize >= minTeamSize {
				filtered = append(filtered, m)
			}
		}
		managers = filtered
	}

	return &domain.ManagerList{Managers: managers, Source: domain.ManagerSourceDirectory}, nil
}

// AllReportIDs возвращает id всех подчинённых менеджера, прямых и транзитивных.
// Основной путь — обход поддерева менеджера в дереве иерархии; при недоступном
// дереве возвращаются прямые подчинённые из ростера
func (s *hierarchyService) AllReportIDs(ctx context.Context, sessionID string, managerID int64) ([]int64, error) {
	tree, err := s.OrgTree(ctx, sessionID, 1)
	if err != nil {
		return nil, err
	}

	if tree.Available {
		node := findNode(tree.Roots, managerID)
		if node == nil {
			return []int64{}, nil
		}
		visited := map[int64]struct{}{node.EmployeeID: {}}
		return TraverseTree(s.logger, node.DirectReports, node.EmployeeID, visited), nil
	}

	return s.directReportIDs(ctx, sessionID, managerID)
}

// directReportIDs — деградированный путь: прямые подчинённые по совпадению
// имени менеджера в ростере. Отрицательный id разрешается через
// реконструированный список
func (s *hierarchyService) directReportIDs(ctx context.Context, sessionID string, managerID int64) ([]int64, error) {
	employees, err := s.empRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var managerName string
	if managerID >= 0 {
		for _, emp := range employees {
			if emp.EmployeeID == managerID {
				managerName = emp.Name
				break
			}
		}
	} else {
		// Полный список без среза по порогу: синтетический id должен
		// разрешаться независимо от того, с каким порогом его выдали
		degraded, err := s.reconstructManagers(ctx, sessionID, 1)
		if err != nil {
			return nil, err
		}
		for _, m := range degraded.Managers {
			if m.EmployeeID == managerID {
				managerName = m.Name
				break
			}
		}
	}
	if managerName == "" {
		return []int64{}, nil
	}

	ids := []int64{}
	for _, emp := range employees {
		if strings.EqualFold(strings.TrimSpace(emp.ManagerName()), managerName) {
			ids = append(ids, emp.EmployeeID)
		}
	}
	return ids, nil
}

// ReportingChain возвращает упорядоченную цепочку руководителей сотрудника:
// сначала непосредственный менеджер, затем предки из management_chain.
// Пустые звенья пропускаются, дубликат менеджера в начале цепочки схлопывается
func (s *hierarchyService) ReportingChain(ctx context.Context, sessionID string, employeeID int64) ([]string, error) {
	emp, err := s.empRepo.GetByEmployeeID(ctx, sessionID, employeeID)
	if err != nil {
		return nil, err
	}

	chain := []string{}
	if manager := strings.TrimSpace(emp.ManagerName()); manager != "" {
		chain = append(chain, manager)
	}
	for _, ancestor := range emp.ManagementChain {
		ancestor = strings.TrimSpace(ancestor)
		if ancestor == "" {
			continue
		}
		if len(chain) > 0 && strings.EqualFold(chain[len(chain)-1], ancestor) {
			continue
		}
		chain = append(chain, ancestor)
	}
	return chain, nil
}

// TraverseTree — циклобезопасный префиксный обход леса. Единое множество
// visited живёт сквозь весь обход и может разделяться между вызовами: так
// вызывающий код ловит дубликаты и между независимыми корнями. Узел с уже
// виденным id логируется и пропускается вместе со своим поддеревом — именно
// это размыкает циклы, включая петли узла на самого себя
func TraverseTree(logger *slog.Logger, nodes []domain.OrgTreeNode, rootID int64, visited map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(nodes))
	for i := range nodes {
		node := &nodes[i]
		if _, seen := visited[node.EmployeeID]; seen {
			logger.Warn("duplicate node in org tree, skipping subtree",
				slog.String("name", node.Name),
				slog.Int64("employee_id", node.EmployeeID),
				slog.Int64("root_id", rootID),
			)
			continue
		}
		visited[node.EmployeeID] = struct{}{}
		ids = append(ids, node.EmployeeID)
		ids = append(ids, TraverseTree(logger, node.DirectReports, rootID, visited)...)
	}
	return ids
}

// findNode ищет узел по id, не попадаясь на дубликаты id в повреждённом дереве
func findNode(nodes []domain.OrgTreeNode, id int64) *domain.OrgTreeNode {
	visited := make(map[int64]struct{})
	var walk func(nodes []domain.OrgTreeNode) *domain.OrgTreeNode
	walk = func(nodes []domain.OrgTreeNode) *domain.OrgTreeNode {
		for i := range nodes {
			node := &nodes[i]
			if _, seen := visited[node.EmployeeID]; seen {
				continue
			}
			visited[node.EmployeeID] = struct{}{}
			if node.EmployeeID == id {
				return node
			}
			if found := walk(node.DirectReports); found != nil {
				return found
			}
		}
		return nil
	}
	return walk(nodes)
}
