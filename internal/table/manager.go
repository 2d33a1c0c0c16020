package table

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"gumble-backend/internal/models"
)

// Info is the lobby listing for one table.
type Info struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Players    int    `json:"players"`
	MaxSeats   int    `json:"max_seats"`
	SmallBlind int64  `json:"small_blind"`
	BigBlind   int64  `json:"big_blind"`
}

// Defaults carries the table parameters the manager stamps onto every
// table it creates.
type Defaults struct {
	MinSeats        int
	MaxSeats        int
	SmallBlind      int64
	BigBlind        int64
	TurnTimeout     time.Duration
	DisconnectGrace time.Duration
}

// Manager owns the table registry. Tables self-destruct when their last
// player leaves; the manager drops them from the registry.
type Manager struct {
	mu       sync.RWMutex
	tables   map[string]*Table
	banker   Banker
	notifier Notifier
	defaults Defaults
	log      *logrus.Entry
}

func NewManager(banker Banker, notifier Notifier, defaults Defaults) *Manager {
	return &Manager{
		tables:   make(map[string]*Table),
		banker:   banker,
		notifier: notifier,
		defaults: defaults,
		log:      logrus.WithField("component", "table_manager"),
	}
}

// SetNotifier breaks the construction cycle with the websocket hub: the
// hub needs the manager for routing and the manager needs the hub for
// delivery.
func (m *Manager) SetNotifier(n Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifier = n
}

// Create opens a new table and registers it.
func (m *Manager) Create(name string) *Table {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg := Config{
		ID:              uuid.New().String(),
		Name:            name,
		MinSeats:        m.defaults.MinSeats,
		MaxSeats:        m.defaults.MaxSeats,
		SmallBlind:      m.defaults.SmallBlind,
		BigBlind:        m.defaults.BigBlind,
		TurnTimeout:     m.defaults.TurnTimeout,
		DisconnectGrace: m.defaults.DisconnectGrace,
	}

	t := New(cfg, m.banker, m.notifier, m.remove)
	m.tables[cfg.ID] = t

	m.log.WithFields(logrus.Fields{
		"table_id": cfg.ID,
		"name":     name,
	}).Info("table created")
	return t
}

// GetOrCreateByName joins by display name, opening the table on first
// use.
func (m *Manager) GetOrCreateByName(name string) *Table {
	m.mu.RLock()
	for _, t := range m.tables {
		if t.cfg.Name == name {
			m.mu.RUnlock()
			return t
		}
	}
	m.mu.RUnlock()
	return m.Create(name)
}

// Get looks a table up by ID.
func (m *Manager) Get(tableID string) (*Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[tableID]
	if !ok {
		return nil, models.ErrTableNotFound
	}
	return t, nil
}

// List returns lobby info for every open table, stable by name.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]Info, 0, len(m.tables))
	for _, t := range m.tables {
		infos = append(infos, Info{
			ID:         t.cfg.ID,
			Name:       t.cfg.Name,
			Players:    t.PlayerCount(),
			MaxSeats:   t.cfg.MaxSeats,
			SmallBlind: t.cfg.SmallBlind,
			BigBlind:   t.cfg.BigBlind,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Find locates the table a user is currently seated at, if any.
func (m *Manager) Find(userID string) *Table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tables {
		if t.Seated(userID) {
			return t
		}
	}
	return nil
}

func (m *Manager) remove(tableID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tables, tableID)
	m.log.WithField("table_id", tableID).Info("table closed")
}
