package websocket

import (
	"sync"

	"github.com/dreschagin/page-health-analyzer/internal/application/dto"
	"github.com/dreschagin/page-health-analyzer/pkg/logger"
)

// Hub управляет WebSocket клиентами и рассылает отчеты анализа
// Реализует интерфейс port.NotificationService
type Hub struct {
	// Зарегистрированные клиенты
	clients map[*Client]bool

	// Канал для broadcast отчетов
	broadcast chan *dto.HealthReportDTO

	// Канал для broadcast alerts
	broadcastAlert chan *dto.AlertDTO

	// Канал для регистрации клиентов
	register chan *Client

	// Канал для удаления клиентов
	unregister chan *Client

	// Последний отчет: новый клиент получает его сразу при подключении
	lastReport *dto.HealthReportDTO

	// Mutex для защиты clients map и lastReport
	mu sync.RWMutex

	// Logger
	logger *logger.Logger
}

// NewHub создает новый WebSocket hub
func NewHub(logger *logger.Logger) *Hub {
	return &Hub{
		clients:        make(map[*Client]bool),
		broadcast:      make(chan *dto.HealthReportDTO, 256),
		broadcastAlert: make(chan *dto.AlertDTO, 256),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		logger:         logger,
	}
}

// Run запускает hub (должен быть запущен в отдельной goroutine)
func (h *Hub) Run() {
	h.logger.Info("WebSocket hub started")

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			last := h.lastReport
			h.mu.Unlock()
			h.logger.Debug("Client registered", "total_clients", h.ClientCount())

			// Новый клиент не ждет следующего цикла анализа
			if last != nil {
				select {
				case client.send <- Message{Type: "report", Data: last}:
				default:
				}
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("Client unregistered", "total_clients", h.ClientCount())

		case report := <-h.broadcast:
			h.mu.Lock()
			h.lastReport = report
			for client := range h.clients {
				select {
				case client.send <- Message{Type: "report", Data: report}:
					// Отчет отправлен
				default:
					// Канал клиента заполнен, закрываем соединение
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn("Client channel full, disconnected")
				}
			}
			h.mu.Unlock()

		case alert := <-h.broadcastAlert:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- Message{Type: "alert", Data: alert}:
					// Alert отправлен
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
			h.logger.Debug("Alert broadcasted to clients", "level", alert.Level)
		}
	}
}

// Register регистрирует нового клиента
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister удаляет клиента
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast отправляет отчет всем клиентам (реализация port.NotificationService)
func (h *Hub) Broadcast(report *dto.HealthReportDTO) {
	select {
	case h.broadcast <- report:
		// Отчет отправлен в канал
	default:
		h.logger.Warn("Broadcast channel full, dropping report")
	}
}

// BroadcastAlert отправляет alert всем клиентам (реализация port.NotificationService)
func (h *Hub) BroadcastAlert(alert *dto.AlertDTO) {
	select {
	case h.broadcastAlert <- alert:
		// Alert отправлен в канал
	default:
		h.logger.Warn("Broadcast alert channel full, dropping alert")
	}
}

// ClientCount возвращает количество подключенных клиентов (реализация port.NotificationService)
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Message представляет сообщение для отправки клиенту
type Message struct {
	Type string      `json:"type"` // "report" или "alert"
	Data interface{} `json:"data"`
}
