package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/services"
	"github.com/yeremiapane/pizzeria-app/utils"
)

type OrderController struct {
	orders  *services.OrderService
	monitor *services.OrderMonitor
}

func NewOrderController(orders *services.OrderService, monitor *services.OrderMonitor) *OrderController {
	return &OrderController{orders: orders, monitor: monitor}
}

type orderItemRequest struct {
	Product      string           `json:"product"`
	Quantity     int              `json:"quantity"`
	Size         *models.SizeName `json:"size"`
	Price        decimal.Decimal  `json:"price"`
	Observations string           `json:"observations"`
}

type createOrderRequest struct {
	Items           []orderItemRequest   `json:"items"`
	DeliveryAddress *models.Address      `json:"deliveryAddress"`
	PaymentMethod   models.PaymentMethod `json:"paymentMethod"`
	ChangeNeeded    *decimal.Decimal     `json:"changeNeeded"`
	TotalAmount     decimal.Decimal      `json:"totalAmount"`
	DeliveryFee     decimal.Decimal      `json:"deliveryFee"`
}

// CreateOrder places a new pending order for the caller.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var req createOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	in := services.CreateOrderInput{
		DeliveryAddress: req.DeliveryAddress,
		PaymentMethod:   req.PaymentMethod,
		ChangeNeeded:    req.ChangeNeeded,
		TotalAmount:     req.TotalAmount,
		DeliveryFee:     req.DeliveryFee,
	}
	for _, item := range req.Items {
		in.Items = append(in.Items, services.OrderItemInput{
			ProductID:    item.Product,
			Quantity:     item.Quantity,
			Size:         item.Size,
			Price:        item.Price,
			Observations: item.Observations,
		})
	}

	order, err := oc.orders.Create(c.Request.Context(), caller, in)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

func (oc *OrderController) GetMyOrders(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	orders, err := oc.orders.ListMine(c.Request.Context(), caller)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// GetAllOrders is admin only and accepts ?status=.
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	orders, err := oc.orders.ListAll(c.Request.Context(), c.Query("status"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// GetOrderStats is admin only: counts per status and stale pending orders.
func (oc *OrderController) GetOrderStats(c *gin.Context) {
	metrics, err := oc.monitor.Metrics(c.Request.Context())
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order statistics", metrics)
}

func (oc *OrderController) GetOrderByID(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	order, err := oc.orders.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	order, err := oc.orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}

func (oc *OrderController) CancelOrder(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	order, err := oc.orders.Cancel(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order cancelled", order)
}
