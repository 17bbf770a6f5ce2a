package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики движка расписания
var (
	// Метрики слотов
	SlotsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slot_engine_slots_generated_total",
			Help: "Количество слотов, реально вставленных при генерации окна",
		},
	)

	SlotsBooked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slot_engine_slots_booked_total",
			Help: "Количество успешных бронирований слотов",
		},
	)

	SlotsReleased = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slot_engine_slots_released_total",
			Help: "Количество освобождённых слотов",
		},
	)

	BookingConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slot_engine_booking_conflicts_total",
			Help: "Попытки забронировать недоступный слот",
		},
	)

	// Метрики окна
	WindowOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slot_engine_window_operations_total",
			Help: "Инициализации и продления окна по результату",
		},
		[]string{"operation", "status"}, // initialize|renew, ok|error
	)

	RenewalBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "slot_engine_renewal_batch_duration_seconds",
			Help:    "Длительность пакетного продления в секундах",
			Buckets: prometheus.DefBuckets,
		},
	)

	LastRenewalTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slot_engine_last_renewal_timestamp_seconds",
			Help: "Unix-время последнего завершённого пакетного продления",
		},
	)

	// Сколько раз день превысил MaxSlotsPerDay.
	MaxSlotsExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slot_engine_max_slots_per_day_exceeded_total",
			Help: "Дни, где число сгенерированных слотов больше подсказки MaxSlotsPerDay",
		},
	)
)

const (
	OpInitialize = "initialize"
	OpRenew      = "renew"

	StatusOK    = "ok"
	StatusError = "error"
)

// ObserveWindow учитывает результат операции над окном.
func ObserveWindow(op string, err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	WindowOperations.WithLabelValues(op, status).Inc()
}
