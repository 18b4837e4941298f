package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/talent-grid-api/internal/config"
	"github.com/talent-grid-api/internal/domain"
)

// OrgHierarchyClient — клиент внешнего сервиса оргиерархии.
// Сервис отдаёт списки менеджеров и дерево подчинения по id сессии
// и минимальному размеру команды (1 = любой менеджер хотя бы с одним
// подчинённым)
type OrgHierarchyClient interface {
	GetManagers(ctx context.Context, sessionID string, minTeamSize int) ([]domain.ManagerInfo, error)
	GetOrgTree(ctx context.Context, sessionID string, minTeamSize int) ([]domain.OrgTreeNode, error)
}

type orgHierarchyClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewOrgHierarchyClient создаёт новый экземпляр клиента
func NewOrgHierarchyClient(cfg config.OrgHierarchyConfig) OrgHierarchyClient {
	return &orgHierarchyClient{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *orgHierarchyClient) GetManagers(ctx context.Context, sessionID string, minTeamSize int) ([]domain.ManagerInfo, error) {
	var payload struct {
		Managers []domain.ManagerInfo `json:"managers"`
	}
	if err := c.get(ctx, sessionID, "managers", minTeamSize, &payload); err != nil {
		return nil, err
	}
	return payload.Managers, nil
}

func (c *orgHierarchyClient) GetOrgTree(ctx context.Context, sessionID string, minTeamSize int) ([]domain.OrgTreeNode, error) {
	var payload struct {
		Roots []domain.OrgTreeNode `json:"roots"`
	}
	if err := c.get(ctx, sessionID, "org-tree", minTeamSize, &payload); err != nil {
		return nil, err
	}
	return payload.Roots, nil
}

func (c *orgHierarchyClient) get(ctx context.Context, sessionID, resource string, minTeamSize int, out any) error {
	endpoint := fmt.Sprintf("%s/sessions/%s/%s?min_team_size=%s",
		c.baseURL, url.PathEscape(sessionID), resource, strconv.Itoa(minTeamSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrOrgServiceUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrOrgServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", domain.ErrOrgServiceUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: malformed response: %v", domain.ErrOrgServiceUnavailable, err)
	}

	return nil
}
