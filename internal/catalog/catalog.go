package catalog

import (
	"sort"
	"sync"

	"physitutor/internal/model"
)

// Catalog is the in-memory question registry. Reads are lock-free with
// respect to each other; dynamic registrations (AI-generated questions) are
// visible to subsequent lookups without blocking unrelated readers.
type Catalog struct {
	mu        sync.RWMutex
	questions map[string]*model.Question
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		questions: make(map[string]*model.Question),
	}
}

// Lookup returns the question with the given id.
func (c *Catalog) Lookup(id string) (*model.Question, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, ok := c.questions[id]
	if !ok {
		return nil, model.ErrQuestionNotFound
	}
	return q, nil
}

// Register validates and inserts a question, overwriting any previous entry
// with the same id. Registered questions are treated as immutable.
func (c *Catalog) Register(q *model.Question) error {
	if err := Validate(q); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.questions[q.ID] = q
	return nil
}

// List returns discovery info for all questions, ordered by id.
func (c *Catalog) List() []model.QuestionInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	infos := make([]model.QuestionInfo, 0, len(c.questions))
	for _, q := range c.questions {
		infos = append(infos, model.QuestionInfo{
			ID:         q.ID,
			Topic:      q.Topic,
			Difficulty: q.Difficulty,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Len returns the number of registered questions.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.questions)
}
