package http

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
	"github.com/azadjordan/megadie-warehouse/internal/warehouse/usecase/command"
	"github.com/azadjordan/megadie-warehouse/internal/warehouse/usecase/query"
	"github.com/azadjordan/megadie-warehouse/pkg/logger"
)

// WarehouseHandler handles HTTP requests for the warehouse service
type WarehouseHandler struct {
	// Command handlers
	createSlotHandler  *command.CreateSlotHandler
	updateSlotHandler  *command.UpdateSlotHandler
	deleteSlotHandler  *command.DeleteSlotHandler
	rebuildHandler     *command.RebuildOccupancyHandler
	adjustHandler      *command.AdjustSlotItemHandler
	moveHandler        *command.MoveSlotItemsHandler
	clearHandler       *command.ClearSlotItemsHandler
	upsertAllocHandler *command.UpsertAllocationHandler
	deleteAllocHandler *command.DeleteAllocationHandler
	finalizeHandler    *command.FinalizeAllocationsHandler
	reverseHandler     *command.ReverseFinalizationHandler

	// Query handlers
	listSlotsHandler     *query.ListSlotsHandler
	getSlotHandler       *query.GetSlotHandler
	occupancyHandler     *query.OccupancySnapshotHandler
	listItemsHandler     *query.ListSlotItemsHandler
	listAllocsHandler    *query.ListAllocationsHandler
	listMovementsHandler *query.ListMovementsHandler

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// Handlers bundles the usecase handlers the HTTP layer exposes
type Handlers struct {
	CreateSlot       *command.CreateSlotHandler
	UpdateSlot       *command.UpdateSlotHandler
	DeleteSlot       *command.DeleteSlotHandler
	RebuildOccupancy *command.RebuildOccupancyHandler
	AdjustSlotItem   *command.AdjustSlotItemHandler
	MoveSlotItems    *command.MoveSlotItemsHandler
	ClearSlotItems   *command.ClearSlotItemsHandler
	UpsertAllocation *command.UpsertAllocationHandler
	DeleteAllocation *command.DeleteAllocationHandler
	Finalize         *command.FinalizeAllocationsHandler
	Reverse          *command.ReverseFinalizationHandler

	ListSlots         *query.ListSlotsHandler
	GetSlot           *query.GetSlotHandler
	OccupancySnapshot *query.OccupancySnapshotHandler
	ListSlotItems     *query.ListSlotItemsHandler
	ListAllocations   *query.ListAllocationsHandler
	ListMovements     *query.ListMovementsHandler
}

// NewWarehouseHandler creates a new warehouse handler
func NewWarehouseHandler(h Handlers) *WarehouseHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_service_requests_total",
			Help: "Total number of requests to warehouse service",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warehouse_service_request_duration_seconds",
			Help:    "Duration of warehouse service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)

	return &WarehouseHandler{
		createSlotHandler:    h.CreateSlot,
		updateSlotHandler:    h.UpdateSlot,
		deleteSlotHandler:    h.DeleteSlot,
		rebuildHandler:       h.RebuildOccupancy,
		adjustHandler:        h.AdjustSlotItem,
		moveHandler:          h.MoveSlotItems,
		clearHandler:         h.ClearSlotItems,
		upsertAllocHandler:   h.UpsertAllocation,
		deleteAllocHandler:   h.DeleteAllocation,
		finalizeHandler:      h.Finalize,
		reverseHandler:       h.Reverse,
		listSlotsHandler:     h.ListSlots,
		getSlotHandler:       h.GetSlot,
		occupancyHandler:     h.OccupancySnapshot,
		listItemsHandler:     h.ListSlotItems,
		listAllocsHandler:    h.ListAllocations,
		listMovementsHandler: h.ListMovements,
	}
}

// Response is the standard JSON envelope
type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorKind string      `json:"error_kind,omitempty"`
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware wraps handlers with Prometheus metrics
func (h *WarehouseHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
	}
}

// CreateSlot handles POST /api/slots
func (h *WarehouseHandler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Store       string  `json:"store"`
		Unit        string  `json:"unit"`
		Position    int     `json:"position"`
		CapacityCbm float64 `json:"capacity_cbm"`
		Active      *bool   `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	slot, err := h.createSlotHandler.Handle(r.Context(), command.CreateSlotCommand{
		Store:       req.Store,
		Unit:        req.Unit,
		Position:    req.Position,
		CapacityCbm: req.CapacityCbm,
		Active:      req.Active,
	})
	if err != nil {
		respondError(w, r, err, "Failed to create slot")
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Slot created successfully",
		Data:    slot,
	})
}

// ListSlots handles GET /api/slots
func (h *WarehouseHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	var active *bool
	if raw := q.Get("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid active filter", ErrorKind: string(domain.KindValidation)})
			return
		}
		active = &v
	}

	slots, err := h.listSlotsHandler.Handle(r.Context(), query.ListSlotsQuery{
		Store:  q.Get("store"),
		Unit:   q.Get("unit"),
		Active: active,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondError(w, r, err, "Failed to list slots")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: slots})
}

// GetSlot handles GET /api/slots/{id}
func (h *WarehouseHandler) GetSlot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Invalid slot ID")
	if !ok {
		return
	}

	slot, err := h.getSlotHandler.Handle(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "Failed to get slot")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: slot})
}

// UpdateSlot handles PATCH /api/slots/{id}
func (h *WarehouseHandler) UpdateSlot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Invalid slot ID")
	if !ok {
		return
	}

	var req struct {
		CapacityCbm *float64 `json:"capacity_cbm"`
		Active      *bool    `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	slot, err := h.updateSlotHandler.Handle(r.Context(), command.UpdateSlotCommand{
		SlotID:      id,
		CapacityCbm: req.CapacityCbm,
		Active:      req.Active,
	})
	if err != nil {
		respondError(w, r, err, "Failed to update slot")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Slot updated successfully",
		Data:    slot,
	})
}

// DeleteSlot handles DELETE /api/slots/{id}
func (h *WarehouseHandler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Invalid slot ID")
	if !ok {
		return
	}

	if err := h.deleteSlotHandler.Handle(r.Context(), command.DeleteSlotCommand{SlotID: id}); err != nil {
		respondError(w, r, err, "Failed to delete slot")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Slot deleted successfully"})
}

// GetOccupancy handles GET /api/slots/occupancy
func (h *WarehouseHandler) GetOccupancy(w http.ResponseWriter, r *http.Request) {
	rows, err := h.occupancyHandler.Handle(r.Context(), r.URL.Query().Get("store"))
	if err != nil {
		respondError(w, r, err, "Failed to compute occupancy")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: rows})
}

// RebuildOccupancy handles POST /api/slots/occupancy/rebuild
func (h *WarehouseHandler) RebuildOccupancy(w http.ResponseWriter, r *http.Request) {
	result, err := h.rebuildHandler.Handle(r.Context(), command.RebuildOccupancyCommand{
		Store: r.URL.Query().Get("store"),
	})
	if err != nil {
		respondError(w, r, err, "Failed to rebuild occupancy")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Occupancy rebuilt successfully",
		Data:    result,
	})
}

// ListSlotItems handles GET /api/slot-items
func (h *WarehouseHandler) ListSlotItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	productID, _ := strconv.ParseUint(q.Get("product_id"), 10, 32)
	slotID, _ := strconv.ParseUint(q.Get("slot_id"), 10, 32)
	excludeOrderID, _ := strconv.ParseUint(q.Get("exclude_order_id"), 10, 32)

	views, err := h.listItemsHandler.Handle(r.Context(), query.ListSlotItemsQuery{
		ProductID:      uint(productID),
		SlotID:         uint(slotID),
		ExcludeOrderID: uint(excludeOrderID),
	})
	if err != nil {
		respondError(w, r, err, "Failed to list slot items")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: views})
}

// AdjustSlotItem handles POST /api/slot-items/adjust
func (h *WarehouseHandler) AdjustSlotItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID uint   `json:"product_id"`
		SlotID    uint   `json:"slot_id"`
		DeltaQty  int    `json:"delta_qty"`
		Note      string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	item, err := h.adjustHandler.Handle(r.Context(), command.AdjustSlotItemCommand{
		ProductID: req.ProductID,
		SlotID:    req.SlotID,
		DeltaQty:  req.DeltaQty,
		Note:      req.Note,
		Actor:     actorFrom(r),
	})
	if err != nil {
		respondError(w, r, err, "Failed to adjust slot item")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Stock adjusted successfully",
		Data:    item,
	})
}

// MoveSlotItems handles POST /api/slot-items/move
func (h *WarehouseHandler) MoveSlotItems(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FromSlotID uint               `json:"from_slot_id"`
		ToSlotID   uint               `json:"to_slot_id"`
		Items      []command.MoveItem `json:"items"`
		Note       string             `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	err := h.moveHandler.Handle(r.Context(), command.MoveSlotItemsCommand{
		FromSlotID: req.FromSlotID,
		ToSlotID:   req.ToSlotID,
		Items:      req.Items,
		Note:       req.Note,
		Actor:      actorFrom(r),
	})
	if err != nil {
		respondError(w, r, err, "Failed to move slot items")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Items moved successfully"})
}

// ClearSlotItems handles POST /api/slot-items/clear
func (h *WarehouseHandler) ClearSlotItems(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SlotID  uint   `json:"slot_id"`
		ItemIDs []uint `json:"item_ids"`
		Note    string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	err := h.clearHandler.Handle(r.Context(), command.ClearSlotItemsCommand{
		SlotID:  req.SlotID,
		ItemIDs: req.ItemIDs,
		Note:    req.Note,
		Actor:   actorFrom(r),
	})
	if err != nil {
		respondError(w, r, err, "Failed to clear slot items")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Items cleared successfully"})
}

// ListAllocations handles GET /api/orders/{id}/allocations
func (h *WarehouseHandler) ListAllocations(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id", "Invalid order ID")
	if !ok {
		return
	}

	result, err := h.listAllocsHandler.Handle(r.Context(), orderID)
	if err != nil {
		respondError(w, r, err, "Failed to list allocations")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: result})
}

// UpsertAllocation handles PUT /api/orders/{id}/allocations
func (h *WarehouseHandler) UpsertAllocation(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id", "Invalid order ID")
	if !ok {
		return
	}

	var req struct {
		ProductID uint   `json:"product_id"`
		SlotID    uint   `json:"slot_id"`
		Quantity  int    `json:"quantity"`
		Note      string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	alloc, err := h.upsertAllocHandler.Handle(r.Context(), command.UpsertAllocationCommand{
		OrderID:   orderID,
		ProductID: req.ProductID,
		SlotID:    req.SlotID,
		Quantity:  req.Quantity,
		Note:      req.Note,
		Actor:     actorFrom(r),
	})
	if err != nil {
		respondError(w, r, err, "Failed to save allocation")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Allocation saved successfully",
		Data:    alloc,
	})
}

// DeleteAllocation handles DELETE /api/orders/{id}/allocations/{allocId}
func (h *WarehouseHandler) DeleteAllocation(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id", "Invalid order ID")
	if !ok {
		return
	}
	allocID, ok := pathID(w, r, "allocId", "Invalid allocation ID")
	if !ok {
		return
	}

	err := h.deleteAllocHandler.Handle(r.Context(), command.DeleteAllocationCommand{
		OrderID:      orderID,
		AllocationID: allocID,
		Actor:        actorFrom(r),
	})
	if err != nil {
		respondError(w, r, err, "Failed to delete allocation")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Allocation deleted successfully"})
}

// FinalizeAllocations handles POST /api/orders/{id}/allocations/finalize
func (h *WarehouseHandler) FinalizeAllocations(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id", "Invalid order ID")
	if !ok {
		return
	}

	result, err := h.finalizeHandler.Handle(r.Context(), command.FinalizeAllocationsCommand{
		OrderID: orderID,
		Actor:   actorFrom(r),
	})
	if err != nil {
		respondError(w, r, err, "Failed to finalize allocations")
		return
	}

	message := "Stock finalized successfully"
	if result.AlreadyFinalized {
		message = "Stock already finalized"
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Message: message, Data: result})
}

// ReverseFinalization handles POST /api/orders/{id}/allocations/reverse
func (h *WarehouseHandler) ReverseFinalization(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id", "Invalid order ID")
	if !ok {
		return
	}

	err := h.reverseHandler.Handle(r.Context(), command.ReverseFinalizationCommand{
		OrderID: orderID,
		Actor:   actorFrom(r),
	})
	if err != nil {
		respondError(w, r, err, "Failed to reverse finalization")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Finalization reversed successfully"})
}

// ListMovements handles GET /api/movements
func (h *WarehouseHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	productID, _ := strconv.ParseUint(q.Get("product_id"), 10, 32)
	slotID, _ := strconv.ParseUint(q.Get("slot_id"), 10, 32)
	orderID, _ := strconv.ParseUint(q.Get("order_id"), 10, 32)
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	var from, to *time.Time
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid from timestamp", ErrorKind: string(domain.KindValidation)})
			return
		}
		from = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid to timestamp", ErrorKind: string(domain.KindValidation)})
			return
		}
		to = &t
	}

	movements, err := h.listMovementsHandler.Handle(r.Context(), query.ListMovementsQuery{
		Type:      q.Get("type"),
		ProductID: uint(productID),
		SlotID:    uint(slotID),
		OrderID:   uint(orderID),
		Actor:     q.Get("actor"),
		From:      from,
		To:        to,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		respondError(w, r, err, "Failed to list movements")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: movements})
}

// RegisterRoutes registers all warehouse routes
func (h *WarehouseHandler) RegisterRoutes(router *mux.Router) {
	// Fixed paths before {id} so "occupancy" is not parsed as a slot ID
	router.HandleFunc("/api/slots/occupancy/rebuild", h.metricsMiddleware("/api/slots/occupancy/rebuild", h.RebuildOccupancy)).Methods("POST")
	router.HandleFunc("/api/slots/occupancy", h.metricsMiddleware("/api/slots/occupancy", h.GetOccupancy)).Methods("GET")

	router.HandleFunc("/api/slots", h.metricsMiddleware("/api/slots", h.ListSlots)).Methods("GET")
	router.HandleFunc("/api/slots", h.metricsMiddleware("/api/slots", h.CreateSlot)).Methods("POST")
	router.HandleFunc("/api/slots/{id:[0-9]+}", h.metricsMiddleware("/api/slots/{id}", h.GetSlot)).Methods("GET")
	router.HandleFunc("/api/slots/{id:[0-9]+}", h.metricsMiddleware("/api/slots/{id}", h.UpdateSlot)).Methods("PATCH")
	router.HandleFunc("/api/slots/{id:[0-9]+}", h.metricsMiddleware("/api/slots/{id}", h.DeleteSlot)).Methods("DELETE")

	router.HandleFunc("/api/slot-items", h.metricsMiddleware("/api/slot-items", h.ListSlotItems)).Methods("GET")
	router.HandleFunc("/api/slot-items/adjust", h.metricsMiddleware("/api/slot-items/adjust", h.AdjustSlotItem)).Methods("POST")
	router.HandleFunc("/api/slot-items/move", h.metricsMiddleware("/api/slot-items/move", h.MoveSlotItems)).Methods("POST")
	router.HandleFunc("/api/slot-items/clear", h.metricsMiddleware("/api/slot-items/clear", h.ClearSlotItems)).Methods("POST")

	router.HandleFunc("/api/orders/{id:[0-9]+}/allocations", h.metricsMiddleware("/api/orders/{id}/allocations", h.ListAllocations)).Methods("GET")
	router.HandleFunc("/api/orders/{id:[0-9]+}/allocations", h.metricsMiddleware("/api/orders/{id}/allocations", h.UpsertAllocation)).Methods("PUT")
	router.HandleFunc("/api/orders/{id:[0-9]+}/allocations/finalize", h.metricsMiddleware("/api/orders/{id}/allocations/finalize", h.FinalizeAllocations)).Methods("POST")
	router.HandleFunc("/api/orders/{id:[0-9]+}/allocations/reverse", h.metricsMiddleware("/api/orders/{id}/allocations/reverse", h.ReverseFinalization)).Methods("POST")
	router.HandleFunc("/api/orders/{id:[0-9]+}/allocations/{allocId:[0-9]+}", h.metricsMiddleware("/api/orders/{id}/allocations/{allocId}", h.DeleteAllocation)).Methods("DELETE")

	router.HandleFunc("/api/movements", h.metricsMiddleware("/api/movements", h.ListMovements)).Methods("GET")
}

// RegisterHealthCheck registers health check endpoint
func (h *WarehouseHandler) RegisterHealthCheck(router *mux.Router, db *sql.DB) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, Response{
				Success: false,
				Error:   "Database unavailable",
			})
			return
		}

		respondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "Warehouse service is healthy",
		})
	}).Methods("GET")
}

// pathID parses a numeric path variable
func pathID(w http.ResponseWriter, r *http.Request, name, invalidMsg string) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 32)
	if err != nil || id == 0 {
		respondJSON(w, http.StatusBadRequest, Response{
			Success:   false,
			Error:     invalidMsg,
			ErrorKind: string(domain.KindValidation),
		})
		return 0, false
	}
	return uint(id), true
}

// actorFrom resolves who performed a mutation, from the authenticated
// username when present, else the X-Actor header
func actorFrom(r *http.Request) string {
	if username, ok := r.Context().Value(UsernameKey).(string); ok && username != "" {
		return username
	}
	return r.Header.Get("X-Actor")
}

// respondError maps a domain error to an HTTP status
func respondError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	kind := domain.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindConflict, domain.KindIntegrity, domain.KindRetryable:
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		logger.Error(r.Context()).Err(err).Str("path", r.URL.Path).Msg(fallback)
		respondJSON(w, status, Response{Success: false, Error: fallback})
		return
	}

	respondJSON(w, status, Response{
		Success:   false,
		Error:     err.Error(),
		ErrorKind: string(kind),
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
