package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/safar/boutique/internal/analytics"
	"github.com/safar/boutique/internal/cart"
	"github.com/safar/boutique/internal/catalog"
	"github.com/safar/boutique/internal/config"
	"github.com/safar/boutique/internal/content"
	"github.com/safar/boutique/internal/models"
	"github.com/safar/boutique/internal/notify"
	"github.com/safar/boutique/internal/order"
	"github.com/safar/boutique/internal/payment"
	"github.com/safar/boutique/internal/session"
)

type app struct {
	client     *content.Client
	store      session.Store
	cart       *cart.Cart
	catalog    *catalog.Service
	engine     *order.Engine
	dispatcher *notify.Dispatcher
	poller     *notify.Poller
	payments   *payment.Processor

	mu          sync.Mutex
	user        *models.User
	latest      []models.Notification
	stopPolling context.CancelFunc
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	store, err := newSessionStore(cfg)
	if err != nil {
		log.Fatalf("Open session storage: %v", err)
	}

	client := content.NewClient(cfg.Content.BaseURL, cfg.Content.Timeout)
	dispatcher := notify.NewDispatcher(client)

	a := &app{
		client:     client,
		store:      store,
		cart:       cart.New(store, client),
		catalog:    catalog.NewService(client),
		engine:     order.NewEngine(client, dispatcher),
		dispatcher: dispatcher,
		poller:     notify.NewPoller(dispatcher, cfg.Notify.PollInterval),
		payments:   payment.NewProcessor(cfg.Payment.Delay),
	}

	ctx := context.Background()
	if err := a.cart.Load(ctx); err != nil {
		log.Fatalf("Load cart: %v", err)
	}
	a.rehydrate(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/login", a.handleLogin)
	mux.HandleFunc("/register", a.handleRegister)
	mux.HandleFunc("/logout", a.handleLogout)
	mux.HandleFunc("/products", a.handleProducts)
	mux.HandleFunc("/products/", a.handleProductByID)
	mux.HandleFunc("/cart", a.handleCart)
	mux.HandleFunc("/cart/items", a.handleCartItems)
	mux.HandleFunc("/cart/items/", a.handleCartItemByIndex)
	mux.HandleFunc("/checkout", a.handleCheckout)
	mux.HandleFunc("/orders", a.handleOrders)
	mux.HandleFunc("/orders/", a.handleOrderStatus)
	mux.HandleFunc("/notifications", a.handleNotifications)
	mux.HandleFunc("/notifications/", a.handleNotificationRead)
	mux.HandleFunc("/dashboard", a.handleDashboard)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Printf("Shop client starting on port %s (content store %s)", cfg.Server.Port, cfg.Content.BaseURL)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func newSessionStore(cfg *config.Config) (session.Store, error) {
	if cfg.Storage.RedisURL != "" {
		return session.NewRedisStore(cfg.Storage.RedisURL)
	}
	return session.NewFileStore(cfg.Storage.Dir)
}

// rehydrate restores a persisted auth token and resolves its user. A stale or
// rejected token is discarded.
func (a *app) rehydrate(ctx context.Context) {
	token, ok, err := a.store.Get(ctx, session.KeyToken)
	if err != nil || !ok {
		return
	}

	record, err := a.client.Me(ctx, token)
	if err != nil {
		log.Printf("Persisted token rejected, clearing: %v", err)
		a.store.Delete(ctx, session.KeyToken)
		return
	}

	user := models.DecodeUser(record)
	a.beginSession(user, token)
	log.Printf("Session restored for %s (%s)", user.Email, user.Role())
}

func (a *app) beginSession(user models.User, token string) {
	a.endSession(context.Background())

	a.client.SetToken(token)
	if err := a.store.Set(context.Background(), session.KeyToken, token); err != nil {
		log.Printf("Persist token: %v", err)
	}

	pollCtx, cancel := context.WithCancel(context.Background())

	a.mu.Lock()
	a.user = &user
	a.stopPolling = cancel
	a.mu.Unlock()

	// Notification polling runs for the lifetime of the session and stops at
	// logout; endSession cancels pollCtx which closes the channel.
	updates := a.poller.Watch(pollCtx, user.ID)
	go func() {
		for batch := range updates {
			a.mu.Lock()
			a.latest = batch
			a.mu.Unlock()
		}
	}()
}

func (a *app) endSession(ctx context.Context) {
	a.mu.Lock()
	cancel := a.stopPolling
	a.stopPolling = nil
	a.user = nil
	a.latest = nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	a.client.SetToken("")
	if err := a.store.Delete(ctx, session.KeyToken); err != nil {
		log.Printf("Clear token: %v", err)
	}
}

func (a *app) currentUser() *models.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user
}

func (a *app) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	auth, err := a.client.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		respondFailure(w, err)
		return
	}

	user := models.DecodeUser(auth.User)
	a.beginSession(user, auth.Token)
	respondJSON(w, http.StatusOK, user)
}

func (a *app) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		UserType string `json:"user_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	auth, err := a.client.Register(r.Context(), req.Username, req.Email, req.Password, req.UserType)
	if err != nil {
		respondFailure(w, err)
		return
	}

	user := models.DecodeUser(auth.User)
	a.beginSession(user, auth.Token)
	respondJSON(w, http.StatusCreated, user)
}

func (a *app) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	a.endSession(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (a *app) handleProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		products, err := a.catalog.ListAll(ctx)
		if err != nil {
			respondFailure(w, err)
			return
		}

		query := r.URL.Query()
		filtered := catalog.Search(products, query.Get("q"), query.Get("category"))
		respondJSON(w, http.StatusOK, filtered)

	case http.MethodPost:
		seller := a.currentUser()
		if seller == nil {
			respondError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		var in catalog.ProductInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		product, err := a.catalog.Create(ctx, *seller, in)
		if err != nil {
			respondFailure(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, product)

	default:
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (a *app) handleProductByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := strings.Trim(r.URL.Path[len("/products/"):], "/")
	if id == "" {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	switch r.Method {
	case http.MethodGet:
		product, err := a.catalog.Fetch(ctx, id)
		if err != nil {
			respondFailure(w, err)
			return
		}
		respondJSON(w, http.StatusOK, product)

	case http.MethodPut:
		seller := a.currentUser()
		if seller == nil {
			respondError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		var in catalog.ProductInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		product, err := a.catalog.Update(ctx, id, *seller, in)
		if err != nil {
			respondFailure(w, err)
			return
		}
		respondJSON(w, http.StatusOK, product)

	default:
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (a *app) handleCart(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		respondJSON(w, http.StatusOK, map[string]any{
			"items": a.cart.Items(),
			"total": a.cart.Total(),
		})

	case http.MethodDelete:
		if err := a.cart.Clear(r.Context()); err != nil {
			respondFailure(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (a *app) handleCartItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req struct {
		ProductID    string `json:"productId"`
		SelectedSize string `json:"selectedSize"`
		Quantity     int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := a.catalog.Fetch(r.Context(), req.ProductID)
	if err != nil {
		respondFailure(w, err)
		return
	}

	if err := a.cart.Add(r.Context(), product, req.SelectedSize, req.Quantity); err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": a.cart.Items()})
}

func (a *app) handleCartItemByIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	index, err := strconv.Atoi(strings.Trim(r.URL.Path[len("/cart/items/"):], "/"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid cart index")
		return
	}

	if err := a.cart.Remove(r.Context(), index); err != nil {
		respondFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *app) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	buyer := a.currentUser()
	if buyer == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req struct {
		PaymentMethod   string            `json:"paymentMethod"`
		ShippingAddress map[string]string `json:"shippingAddress"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	receipt, err := a.payments.Process(r.Context(), req.PaymentMethod, a.cart.Total())
	if err != nil {
		respondFailure(w, err)
		return
	}

	orders, err := a.cart.Checkout(r.Context(), buyer.ID, req.ShippingAddress)
	if err != nil {
		respondFailure(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"orders":  orders,
		"receipt": receipt,
	})
}

func (a *app) handleOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	user := a.currentUser()
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var (
		orders []models.Order
		err    error
	)
	if user.IsSeller() {
		orders, err = a.engine.ListForSeller(r.Context(), user.ID)
	} else {
		orders, err = a.engine.ListForBuyer(r.Context(), user.ID)
	}
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (a *app) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	rest := strings.Trim(r.URL.Path[len("/orders/"):], "/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "status" {
		respondError(w, http.StatusBadRequest, "Invalid order path")
		return
	}

	if a.currentUser() == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := a.engine.SetStatus(r.Context(), parts[0], req.Status)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (a *app) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	user := a.currentUser()
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	a.mu.Lock()
	notifications := a.latest
	a.mu.Unlock()

	respondJSON(w, http.StatusOK, map[string]any{
		"notifications": notifications,
		"unreadCount":   notify.UnreadCount(notifications),
		"popup":         notify.LatestUnread(notifications),
	})
}

func (a *app) handleNotificationRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	rest := strings.Trim(r.URL.Path[len("/notifications/"):], "/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "read" {
		respondError(w, http.StatusBadRequest, "Invalid notification path")
		return
	}

	a.dispatcher.MarkRead(r.Context(), parts[0])
	w.WriteHeader(http.StatusNoContent)
}

func (a *app) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	ctx := r.Context()

	userRecords, err := a.client.List(ctx, content.KindUser, content.ListOptions{})
	if err != nil {
		log.Printf("Dashboard load failed: %v", err)
		respondError(w, http.StatusBadGateway, "Failed to load dashboard")
		return
	}
	users := make([]models.User, 0, len(userRecords))
	for _, record := range userRecords {
		users = append(users, models.DecodeUser(record))
	}

	products, err := a.catalog.ListAll(ctx)
	if err != nil {
		log.Printf("Dashboard load failed: %v", err)
		respondError(w, http.StatusBadGateway, "Failed to load dashboard")
		return
	}

	orders, err := a.engine.ListAll(ctx)
	if err != nil {
		log.Printf("Dashboard load failed: %v", err)
		respondError(w, http.StatusBadGateway, "Failed to load dashboard")
		return
	}

	respondJSON(w, http.StatusOK, analytics.Aggregate(users, products, orders, time.Now()))
}

func respondFailure(w http.ResponseWriter, err error) {
	var validation *catalog.ValidationError
	var upstream *content.UpstreamError

	switch {
	case errors.Is(err, content.ErrNotAuthenticated):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, content.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &validation):
		respondError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &upstream):
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
