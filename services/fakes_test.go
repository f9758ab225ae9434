package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/formulab-api/models"
	"gorm.io/gorm"
)

type memoryProjects struct {
	mu       sync.Mutex
	projects map[string]models.Project
	nextID   int
}

func newMemoryProjects(projects ...models.Project) *memoryProjects {
	m := &memoryProjects{projects: make(map[string]models.Project)}
	for _, p := range projects {
		m.projects[p.ID] = p
	}
	return m
}

func (m *memoryProjects) FindByID(_ context.Context, id string) (models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return models.Project{}, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (m *memoryProjects) Create(_ context.Context, project models.Project) (models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	project.ID = fmt.Sprintf("generated-%d", m.nextID)
	m.projects[project.ID] = project
	return project, nil
}

func (m *memoryProjects) Update(_ context.Context, project models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[project.ID] = project
	return nil
}

func (m *memoryProjects) UpdatePhases(_ context.Context, id string, phases []models.RecipePhase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Phases = phases
	m.projects[id] = p
	return nil
}

func (m *memoryProjects) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.projects, id)
	return nil
}

func (m *memoryProjects) FindWithPagination(_ context.Context, page, pageSize int, _, _, status, search string) ([]models.Project, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Project
	for _, p := range m.projects {
		if status != "" && string(p.Status) != status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) {
			continue
		}
		out = append(out, p)
	}
	total := int64(len(out))
	start := (page - 1) * pageSize
	if start > len(out) {
		start = len(out)
	}
	end := start + pageSize
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

type memoryRecords struct {
	mu      sync.Mutex
	records []models.RunRecord
}

func (m *memoryRecords) Create(_ context.Context, record models.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append([]models.RunRecord{record}, m.records...)
	return nil
}

func (m *memoryRecords) FindByProjectID(_ context.Context, projectID string, limit int) ([]models.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.RunRecord
	for _, r := range m.records {
		if r.ProjectID == projectID {
			out = append(out, r)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryRecords) CountByProjectID(ctx context.Context, projectID string) (int64, error) {
	runs, _ := m.FindByProjectID(ctx, projectID, 0)
	return int64(len(runs)), nil
}

type published struct {
	routingKey string
	payload    any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{routingKey, payload})
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, len(p.events))
	for i, e := range p.events {
		keys[i] = e.routingKey
	}
	return keys
}

func oatMilk() models.Project {
	return models.Project{
		ID:      "proj-oat",
		Name:    "Oat Milk Barista Blend",
		Version: "1.0",
		Status:  models.ProjectStatusTesting,
		UserID:  "owner",
		Ingredients: []models.Ingredient{
			{ID: "i1", Name: "Water", Weight: 850},
			{ID: "i2", Name: "Rolled Oats", Weight: 120},
		},
	}
}
