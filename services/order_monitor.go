package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/utils"
)

// OrderMetrics is the result of one monitor sweep.
type OrderMetrics struct {
	ByStatus map[models.OrderStatus]int `json:"byStatus"`
	// StalePending lists pending orders nobody confirmed within the alert window.
	StalePending []string  `json:"stalePending"`
	SweptAt      time.Time `json:"sweptAt"`
}

// OrderMonitor periodically counts orders per status and warns about pending
// orders that have been waiting too long for the kitchen.
type OrderMonitor struct {
	orders     OrderStore
	interval   time.Duration
	staleAfter time.Duration
	now        func() time.Time

	mutex   sync.Mutex
	metrics OrderMetrics
	alerted map[string]bool

	stop chan struct{}
	done chan struct{}
}

func NewOrderMonitor(orders OrderStore, interval, staleAfter time.Duration) *OrderMonitor {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 15 * time.Minute
	}
	return &OrderMonitor{
		orders:     orders,
		interval:   interval,
		staleAfter: staleAfter,
		now:        time.Now,
		alerted:    make(map[string]bool),
	}
}

// Start runs a sweep every interval until Stop is called.
func (m *OrderMonitor) Start() {
	m.mutex.Lock()
	if m.stop != nil {
		m.mutex.Unlock()
		return
	}
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	stop, done := m.stop, m.done
	m.mutex.Unlock()

	go m.loop(stop, done)
	utils.InfoLogger.WithField("interval", m.interval).Info("order monitor started")
}

func (m *OrderMonitor) Stop() {
	m.mutex.Lock()
	stop, done := m.stop, m.done
	m.stop, m.done = nil, nil
	m.mutex.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
	utils.InfoLogger.Info("order monitor stopped")
}

func (m *OrderMonitor) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), m.interval)
			if err := m.Sweep(ctx); err != nil {
				utils.ErrorLogger.WithError(err).Error("order monitor sweep failed")
			}
			cancel()
		case <-stop:
			return
		}
	}
}

// Sweep reads every order once and replaces the current metrics.
func (m *OrderMonitor) Sweep(ctx context.Context) error {
	orders, err := m.orders.ListOrders(ctx, OrderFilter{})
	if err != nil {
		return err
	}

	now := m.now()
	metrics := OrderMetrics{
		ByStatus:     make(map[models.OrderStatus]int),
		StalePending: []string{},
		SweptAt:      now,
	}
	pending := make(map[string]bool)
	var fresh []models.Order
	for _, o := range orders {
		metrics.ByStatus[o.Status]++
		if o.Status != models.StatusPending || now.Sub(o.CreatedAt) < m.staleAfter {
			continue
		}
		metrics.StalePending = append(metrics.StalePending, o.ID)
		pending[o.ID] = true
		if !m.wasAlerted(o.ID) {
			fresh = append(fresh, o)
		}
	}

	m.mutex.Lock()
	m.metrics = metrics
	m.alerted = pending
	m.mutex.Unlock()

	for _, o := range fresh {
		utils.InfoLogger.WithFields(logrus.Fields{
			"order_id": o.ID,
			"user_id":  o.UserID,
			"waiting":  now.Sub(o.CreatedAt).Round(time.Minute).String(),
		}).Warn("order still pending")
	}
	return nil
}

func (m *OrderMonitor) wasAlerted(id string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.alerted[id]
}

// Metrics returns the latest sweep, sweeping first when the last one is older
// than the interval.
func (m *OrderMonitor) Metrics(ctx context.Context) (OrderMetrics, error) {
	m.mutex.Lock()
	current := m.metrics
	m.mutex.Unlock()

	if !current.SweptAt.IsZero() && m.now().Sub(current.SweptAt) < m.interval {
		return current, nil
	}
	if err := m.Sweep(ctx); err != nil {
		return OrderMetrics{}, utils.NewInternalError(err)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.metrics, nil
}
